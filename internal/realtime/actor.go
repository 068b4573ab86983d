package realtime

import "sync"

// Actor serializes every state transition on one room. All reads-then-writes
// of room state go through its mutex, so no two applies for the same room
// ever interleave; actors for different rooms share nothing and proceed in
// parallel.
type Actor struct {
	mu   sync.Mutex
	room *Room
}

func newActor(roomID, title string, chatLimit int) *Actor {
	return &Actor{room: newRoom(roomID, title, chatLimit)}
}

// join applies a connection attempt. ok is false when the actor lost a race
// with room destruction; the caller retries on a fresh actor.
func (a *Actor) join(s *Session) (outs []Outbound, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.room.ended {
		return nil, false
	}
	return a.room.handleJoin(s), true
}

// leave applies a disconnect. empty reports whether the room destroyed
// itself (last participant gone).
func (a *Actor) leave(s *Session) (outs []Outbound, empty bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.room.ended {
		return nil, true
	}
	outs = a.room.handleLeave(s)
	return outs, a.room.ended || a.room.empty()
}

// dispatch applies one inbound message from a session.
func (a *Actor) dispatch(s *Session, msg ClientMessage) []Outbound {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.room.ended {
		return nil
	}
	return a.room.handleMessage(s, msg)
}

func (a *Actor) ended() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.room.ended
}

func (a *Actor) participantCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.room.participants)
}

// info snapshots the room's public state for the directory API.
func (a *Actor) info() RoomInfo {
	a.mu.Lock()
	defer a.mu.Unlock()
	return RoomInfo{
		Exists:             !a.room.ended,
		RoomID:             a.room.ID,
		Title:              a.room.Title,
		HostID:             a.room.HostID,
		ParticipantCount:   len(a.room.participants),
		WaitingCount:       len(a.room.waiting),
		Locked:             a.room.Locked,
		WaitingRoomEnabled: a.room.WaitingRoomEnabled,
		Recording:          a.room.Recording,
		CreatedAt:          a.room.CreatedAt,
	}
}
