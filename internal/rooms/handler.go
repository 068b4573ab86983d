package rooms

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/novameet/backend/internal/middleware"
	"github.com/novameet/backend/internal/realtime"
	"github.com/novameet/backend/pkg/response"
)

// CreateRequest is the body for POST /rooms.
type CreateRequest struct {
	Title string `json:"title"`
}

// JoinRequest is the body for POST /rooms/join.
type JoinRequest struct {
	MeetingCode string `json:"meeting_code" binding:"required,min=5,max=20"`
	Password    string `json:"password" binding:"required,min=1,max=20"`
}

// PeakLookup resolves a room's recorded peak participant count.
type PeakLookup func(roomID string) int

// Handler handles the room directory HTTP endpoints.
type Handler struct {
	directory *Directory
	registry  *realtime.Registry

	peakLookup PeakLookup
}

// NewHandler creates a rooms handler.
func NewHandler(directory *Directory, registry *realtime.Registry) *Handler {
	return &Handler{directory: directory, registry: registry}
}

// SetPeakLookup wires the optional presence sink so room info can report the
// peak participant count.
func (h *Handler) SetPeakLookup(fn PeakLookup) {
	h.peakLookup = fn
}

// Create handles POST /rooms.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Title == "" {
		req.Title = "New Meeting"
	}

	userID := c.MustGet(middleware.ContextUserID).(string)
	userName := c.MustGet(middleware.ContextUserName).(string)

	m, err := h.directory.Create(req.Title, userID, userName)
	if err != nil {
		response.Internal(c, "failed to create room")
		return
	}
	response.Created(c, gin.H{
		"room_id":      m.RoomID,
		"meeting_code": m.MeetingCode,
		"password":     m.Password,
		"join_link":    "/meeting/" + m.RoomID,
		"title":        m.Title,
	})
}

// Join handles POST /rooms/join: validates meeting code and password before
// the client opens its websocket.
func (h *Handler) Join(c *gin.Context) {
	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	m, err := h.directory.ValidateJoin(req.MeetingCode, req.Password)
	if err != nil {
		if errors.Is(err, ErrBadPassword) {
			response.Forbidden(c, "incorrect password")
			return
		}
		response.NotFound(c, "meeting not found, please check the meeting code")
		return
	}

	response.OK(c, gin.H{
		"room_id":           m.RoomID,
		"meeting_code":      m.MeetingCode,
		"title":             m.Title,
		"host_name":         m.HostName,
		"participant_count": h.registry.ParticipantCount(m.RoomID),
	})
}

// Info handles GET /rooms/:id/info: directory metadata merged with the live
// room state. The password is only included for the host.
func (h *Handler) Info(c *gin.Context) {
	roomID := c.Param("id")
	userID := c.MustGet(middleware.ContextUserID).(string)
	tokenHost := c.MustGet(middleware.ContextIsHost).(bool)

	live := h.registry.RoomInfo(roomID)

	body := gin.H{
		"room_id":              roomID,
		"exists":               live.Exists,
		"is_host":              tokenHost,
		"active_participants":  live.ParticipantCount,
		"waiting_participants": live.WaitingCount,
		"locked":               live.Locked,
		"waiting_room_enabled": live.WaitingRoomEnabled,
		"recording":            live.Recording,
		"join_link":            "/meeting/" + roomID,
	}
	if h.peakLookup != nil {
		body["peak_participants"] = h.peakLookup(roomID)
	}

	m, ok := h.directory.ByRoomID(roomID)
	if !ok {
		// room may not be provisioned yet (joining via link)
		body["meeting_code"] = ""
		body["title"] = "Meeting"
		body["host_name"] = ""
		body["created_at"] = time.Now().UTC()
		response.OK(c, body)
		return
	}

	body["meeting_code"] = m.MeetingCode
	body["title"] = m.Title
	body["host_name"] = m.HostName
	body["created_at"] = m.CreatedAt
	if m.HostUserID == userID {
		body["is_host"] = true
		body["password"] = m.Password
	}
	response.OK(c, body)
}
