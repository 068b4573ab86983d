package realtime

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// RoomInfo is the public room state exposed to the directory API.
type RoomInfo struct {
	Exists             bool      `json:"exists"`
	RoomID             string    `json:"room_id"`
	Title              string    `json:"title"`
	HostID             string    `json:"host_id,omitempty"`
	ParticipantCount   int       `json:"participant_count"`
	WaitingCount       int       `json:"waiting_count"`
	Locked             bool      `json:"locked"`
	WaitingRoomEnabled bool      `json:"waiting_room_enabled"`
	Recording          bool      `json:"recording"`
	CreatedAt          time.Time `json:"created_at"`
}

// TitleLookup resolves a provisioned title for a room id, if one exists.
type TitleLookup func(roomID string) (title string, ok bool)

// PresenceHandler is called when a room's participant count changes.
type PresenceHandler func(roomID string, count int)

// ChatHandler is called with each accepted chat event (for external
// archiving; room state never depends on it).
type ChatHandler func(roomID string, ev Event)

// Registry is the process-wide map from room id to its actor. Rooms are
// created lazily on first join and destroyed when the last participant
// leaves. The registry's lock guards only the map; room state is guarded
// per-actor, so traffic in different rooms never contends.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]*Actor
	engine *Engine
	logger *zap.Logger

	chatLimit int

	titleLookup TitleLookup
	onPresence  PresenceHandler
	onChat      ChatHandler
}

// NewRegistry creates a room registry.
func NewRegistry(logger *zap.Logger, chatLimit int) *Registry {
	return &Registry{
		rooms:     make(map[string]*Actor),
		engine:    NewEngine(logger),
		logger:    logger,
		chatLimit: chatLimit,
	}
}

// SetTitleLookup wires the room directory so lazily-created rooms pick up
// their provisioned title.
func (rg *Registry) SetTitleLookup(fn TitleLookup) {
	rg.mu.Lock()
	defer rg.mu.Unlock()
	rg.titleLookup = fn
}

// SetPresenceHandler sets the callback for participant count changes
// (e.g. peak tracking).
func (rg *Registry) SetPresenceHandler(fn PresenceHandler) {
	rg.mu.Lock()
	defer rg.mu.Unlock()
	rg.onPresence = fn
}

// SetChatHandler sets the callback invoked with each broadcast chat event.
func (rg *Registry) SetChatHandler(fn ChatHandler) {
	rg.mu.Lock()
	defer rg.mu.Unlock()
	rg.onChat = fn
}

// Join runs the connection-attempt state machine for a session. A join that
// races with the room's destruction retries on a fresh room.
func (rg *Registry) Join(roomID string, s *Session) {
	for {
		a := rg.getOrCreate(roomID)
		outs, ok := a.join(s)
		if !ok {
			rg.evict(roomID, a, false)
			continue
		}
		rg.deliver(roomID, a, outs)
		rg.notifyPresence(roomID, a)
		rg.logger.Debug("client joined room",
			zap.String("room_id", roomID),
			zap.String("user_id", s.UserID),
		)
		return
	}
}

// Leave runs the disconnect cleanup for a session, exactly once per session:
// stale or already-removed sessions are no-ops inside the room.
func (rg *Registry) Leave(roomID string, s *Session) {
	a, ok := rg.get(roomID)
	if !ok {
		return
	}
	outs, empty := a.leave(s)
	rg.deliver(roomID, a, outs)
	if empty {
		rg.evict(roomID, a, false)
	}
	rg.notifyPresence(roomID, a)
	rg.logger.Debug("client left room",
		zap.String("room_id", roomID),
		zap.String("user_id", s.UserID),
	)
}

// Dispatch applies one inbound message and delivers its side effects. A
// panicking room actor is treated as "room ended" and torn down; other
// rooms are unaffected.
func (rg *Registry) Dispatch(roomID string, s *Session, msg ClientMessage) {
	a, ok := rg.get(roomID)
	if !ok {
		return
	}

	outs := rg.safeDispatch(roomID, a, s, msg)
	rg.deliver(roomID, a, outs)

	if a.ended() {
		rg.evict(roomID, a, false)
		rg.notifyPresence(roomID, a)
	}

	if msg.Type == TypeChat {
		rg.notifyChat(roomID, outs)
	}
}

func (rg *Registry) safeDispatch(roomID string, a *Actor, s *Session, msg ClientMessage) (outs []Outbound) {
	defer func() {
		if p := recover(); p != nil {
			rg.logger.Error("room actor panic, destroying room",
				zap.String("room_id", roomID),
				zap.Any("panic", p),
			)
			rg.evict(roomID, a, true)
			outs = nil
		}
	}()
	return a.dispatch(s, msg)
}

// RoomInfo reports a room's public state; Exists is false for unknown ids.
func (rg *Registry) RoomInfo(roomID string) RoomInfo {
	a, ok := rg.get(roomID)
	if !ok {
		return RoomInfo{RoomID: roomID}
	}
	return a.info()
}

// ParticipantCount returns the number of active participants in a room.
func (rg *Registry) ParticipantCount(roomID string) int {
	a, ok := rg.get(roomID)
	if !ok {
		return 0
	}
	return a.participantCount()
}

// RoomCount returns the number of live rooms.
func (rg *Registry) RoomCount() int {
	rg.mu.RLock()
	defer rg.mu.RUnlock()
	return len(rg.rooms)
}

// Shutdown ends every live room, closing all transports.
func (rg *Registry) Shutdown() {
	rg.mu.Lock()
	actors := make(map[string]*Actor, len(rg.rooms))
	for id, a := range rg.rooms {
		actors[id] = a
	}
	rg.rooms = make(map[string]*Actor)
	rg.mu.Unlock()

	for id, a := range actors {
		a.mu.Lock()
		outs := a.room.endMeeting()
		a.mu.Unlock()
		rg.engine.Deliver(id, outs)
	}
}

// deliver fans outbound messages out, feeding failed recipients back through
// the actor as implicit disconnects until delivery converges.
func (rg *Registry) deliver(roomID string, a *Actor, outs []Outbound) {
	for len(outs) > 0 {
		failed := rg.engine.Deliver(roomID, outs)
		outs = nil
		for _, s := range failed {
			pruned, empty := a.leave(s)
			outs = append(outs, pruned...)
			if empty {
				rg.evict(roomID, a, false)
			}
		}
	}
}

func (rg *Registry) get(roomID string) (*Actor, bool) {
	rg.mu.RLock()
	defer rg.mu.RUnlock()
	a, ok := rg.rooms[roomID]
	return a, ok
}

func (rg *Registry) getOrCreate(roomID string) *Actor {
	rg.mu.Lock()
	defer rg.mu.Unlock()
	if a, ok := rg.rooms[roomID]; ok {
		return a
	}
	title := ""
	if rg.titleLookup != nil {
		if t, ok := rg.titleLookup(roomID); ok {
			title = t
		}
	}
	a := newActor(roomID, title, rg.chatLimit)
	rg.rooms[roomID] = a
	rg.logger.Debug("room created", zap.String("room_id", roomID))
	return a
}

// evict removes an actor from the map and marks it ended so racing joins
// retry on a fresh room. Unless forced, a room that a concurrent join has
// already revived is left alone; the re-check happens under both locks
// (registry lock always taken before an actor lock, never the reverse).
func (rg *Registry) evict(roomID string, a *Actor, force bool) {
	rg.mu.Lock()
	defer rg.mu.Unlock()
	a.mu.Lock()
	defer a.mu.Unlock()
	if force {
		a.room.ended = true
	}
	if !a.room.ended && !a.room.empty() {
		return
	}
	a.room.ended = true
	if cur, ok := rg.rooms[roomID]; ok && cur == a {
		delete(rg.rooms, roomID)
		rg.logger.Debug("room destroyed", zap.String("room_id", roomID))
	}
}

func (rg *Registry) notifyPresence(roomID string, a *Actor) {
	rg.mu.RLock()
	fn := rg.onPresence
	rg.mu.RUnlock()
	if fn != nil {
		fn(roomID, a.participantCount())
	}
}

// notifyChat forwards the broadcast chat event, if one was produced, to the
// external archive hook.
func (rg *Registry) notifyChat(roomID string, outs []Outbound) {
	rg.mu.RLock()
	fn := rg.onChat
	rg.mu.RUnlock()
	if fn == nil {
		return
	}
	for _, out := range outs {
		if out.Event != nil && out.Event["type"] == EventChat {
			fn(roomID, out.Event)
			return
		}
	}
}
