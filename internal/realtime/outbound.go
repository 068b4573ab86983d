package realtime

// Scope describes how an outbound message was addressed. Recipients are
// resolved against the room while its lock is held, so delivery never has
// to look the room up again.
type Scope int

const (
	// ScopeRoom targets every participant in the room.
	ScopeRoom Scope = iota
	// ScopeRoomExcept targets every participant except the sender.
	ScopeRoomExcept
	// ScopeUnicast targets a single session.
	ScopeUnicast
)

// Outbound is one side effect of applying an event: an event payload plus
// its resolved recipients. The actor produces these; the broadcast engine
// performs the actual sends after the room lock is released.
type Outbound struct {
	Scope      Scope
	Recipients []*Session
	Event      Event
	// CloseAfter closes each recipient's transport once the event has been
	// handed to it (forced removal, rejections, meeting end).
	CloseAfter bool
}

func unicast(s *Session, ev Event) Outbound {
	return Outbound{Scope: ScopeUnicast, Recipients: []*Session{s}, Event: ev}
}

func unicastClose(s *Session, ev Event) Outbound {
	return Outbound{Scope: ScopeUnicast, Recipients: []*Session{s}, Event: ev, CloseAfter: true}
}

// closeOnly tears a transport down without sending anything (stale session
// replaced by a reconnect).
func closeOnly(s *Session) Outbound {
	return Outbound{Scope: ScopeUnicast, Recipients: []*Session{s}, CloseAfter: true}
}

func (r *Room) broadcast(ev Event) Outbound {
	recipients := make([]*Session, 0, len(r.participants))
	for _, p := range r.participants {
		recipients = append(recipients, p)
	}
	return Outbound{Scope: ScopeRoom, Recipients: recipients, Event: ev}
}

func (r *Room) broadcastExcept(senderID string, ev Event) Outbound {
	recipients := make([]*Session, 0, len(r.participants))
	for id, p := range r.participants {
		if id == senderID {
			continue
		}
		recipients = append(recipients, p)
	}
	return Outbound{Scope: ScopeRoomExcept, Recipients: recipients, Event: ev}
}
