package realtime

import "time"

// Transport delivers events to one connected client. Implementations must be
// safe for concurrent use and must never block: TrySend reports false when
// the connection is gone or its buffer is full, and the caller treats that
// as an implicit disconnect.
type Transport interface {
	TrySend(ev Event) bool
	Close()
}

// Session is one connected client in a room: identity, media flags and the
// transport handle. All mutable fields are owned by the session's room and
// touched only under the room actor's lock.
type Session struct {
	UserID      string
	DisplayName string
	// HostClaim is the externally-resolved host role from the identity
	// token. It lets a designated host bypass lock and waiting-room checks;
	// in-room host authority is still Room.HostID.
	HostClaim bool

	VideoOn       bool
	AudioOn       bool
	ScreenSharing bool
	BgBlurred     bool
	HandRaised    bool
	BreakoutRoom  string
	JoinedAt      time.Time

	conn Transport
}

// NewSession creates a session for a resolved identity over the given transport.
func NewSession(userID, displayName string, hostClaim bool, conn Transport) *Session {
	return &Session{
		UserID:      userID,
		DisplayName: displayName,
		HostClaim:   hostClaim,
		VideoOn:     true,
		AudioOn:     true,
		JoinedAt:    time.Now(),
		conn:        conn,
	}
}

// ParticipantInfo is the wire snapshot of one participant.
type ParticipantInfo struct {
	UserID       string    `json:"user_id"`
	DisplayName  string    `json:"display_name"`
	Video        bool      `json:"video"`
	Audio        bool      `json:"audio"`
	Screen       bool      `json:"screen"`
	BgBlur       bool      `json:"bg_blur"`
	HandRaised   bool      `json:"hand_raised"`
	BreakoutRoom string    `json:"breakout_room,omitempty"`
	Host         bool      `json:"host"`
	JoinedAt     time.Time `json:"joined_at"`
}

func (s *Session) info(hostID string) ParticipantInfo {
	return ParticipantInfo{
		UserID:       s.UserID,
		DisplayName:  s.DisplayName,
		Video:        s.VideoOn,
		Audio:        s.AudioOn,
		Screen:       s.ScreenSharing,
		BgBlur:       s.BgBlurred,
		HandRaised:   s.HandRaised,
		BreakoutRoom: s.BreakoutRoom,
		Host:         s.UserID == hostID,
		JoinedAt:     s.JoinedAt,
	}
}

// WaitingInfo is the wire snapshot of one waiting-room entrant.
type WaitingInfo struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// ChatMessage is one chat entry retained in room memory (bounded history).
type ChatMessage struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Text       string    `json:"text"`
	FileName   string    `json:"file_name,omitempty"`
	FileURL    string    `json:"file_url,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
