package realtime

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Room owns one meeting's live state. Methods are pure state transitions:
// they mutate the room and return the outbound messages describing what
// happened, but never touch a socket. Callers must hold the owning actor's
// lock for every call.
type Room struct {
	ID                 string
	Title              string
	HostID             string
	Locked             bool
	WaitingRoomEnabled bool
	Recording          bool
	CreatedAt          time.Time

	participants map[string]*Session
	waiting      map[string]*Session
	polls        map[string]*Poll
	chat         []ChatMessage
	chatLimit    int
	whiteboard   *WhiteboardLog
	breakouts    *BreakoutTable

	// ended marks a room that has been destroyed (last leave or end-meeting);
	// a join that races with destruction sees this and retries on a fresh room.
	ended bool
}

func newRoom(id, title string, chatLimit int) *Room {
	return &Room{
		ID:           id,
		Title:        title,
		CreatedAt:    time.Now(),
		participants: make(map[string]*Session),
		waiting:      make(map[string]*Session),
		polls:        make(map[string]*Poll),
		chatLimit:    chatLimit,
		whiteboard:   &WhiteboardLog{},
		breakouts:    newBreakoutTable(),
	}
}

func (r *Room) empty() bool { return len(r.participants) == 0 }

// handleJoin runs the connection-attempt state machine: rejected (locked),
// waiting, or active.
func (r *Room) handleJoin(s *Session) []Outbound {
	hostPrivileged := s.HostClaim || (r.HostID != "" && r.HostID == s.UserID)

	if len(r.participants) > 0 && r.Locked && !hostPrivileged {
		return []Outbound{unicastClose(s, Event{
			"type":   EventMeetingLocked,
			"reason": "meeting is locked",
		})}
	}

	if len(r.participants) > 0 && r.WaitingRoomEnabled && !hostPrivileged {
		var outs []Outbound
		if old, ok := r.waiting[s.UserID]; ok && old != s {
			outs = append(outs, closeOnly(old))
		}
		r.waiting[s.UserID] = s
		outs = append(outs, unicast(s, Event{
			"type":    EventWaiting,
			"room_id": r.ID,
			"title":   r.Title,
		}))
		outs = append(outs, r.waitingRoomUpdate()...)
		return outs
	}

	return r.addParticipant(s)
}

// addParticipant moves a session into the active participant table, making
// it host if the room has none, and emits the snapshot + user-joined pair.
func (r *Room) addParticipant(s *Session) []Outbound {
	var outs []Outbound
	if old, ok := r.participants[s.UserID]; ok && old != s {
		// Reconnect with the same identity: swap the transport, keep the
		// original seniority so host failover order is stable.
		s.JoinedAt = old.JoinedAt
		outs = append(outs, closeOnly(old))
		delete(r.participants, s.UserID)
	}
	r.participants[s.UserID] = s
	if r.HostID == "" {
		r.HostID = s.UserID
	}

	outs = append(outs, unicast(s, r.snapshotEvent(s)))
	outs = append(outs, r.broadcastExcept(s.UserID, Event{
		"type":         EventUserJoined,
		"user_id":      s.UserID,
		"display_name": s.DisplayName,
		"participants": r.participantInfos(),
	}))
	return outs
}

// handleLeave removes a session on disconnect, voluntary leave or prune.
// Idempotent: a session that was already replaced or removed is a no-op.
func (r *Room) handleLeave(s *Session) []Outbound {
	if w, ok := r.waiting[s.UserID]; ok && w == s {
		delete(r.waiting, s.UserID)
		return r.waitingRoomUpdate()
	}
	p, ok := r.participants[s.UserID]
	if !ok || p != s {
		return nil
	}
	return r.dropParticipant(p)
}

// dropParticipant removes an active participant, transfers host authority if
// needed, and destroys the room when it becomes empty.
func (r *Room) dropParticipant(p *Session) []Outbound {
	delete(r.participants, p.UserID)
	r.breakouts.remove(p.UserID)
	p.BreakoutRoom = ""

	if r.empty() {
		r.ended = true
		return r.terminateWaiting()
	}

	hostChanged := false
	if r.HostID == p.UserID {
		r.HostID = r.electHost()
		hostChanged = true
	}

	outs := []Outbound{r.broadcast(Event{
		"type":         EventUserLeft,
		"user_id":      p.UserID,
		"display_name": p.DisplayName,
		"participants": r.participantInfos(),
	})}
	if hostChanged {
		outs = append(outs, r.broadcast(Event{
			"type":         EventHostChanged,
			"host_id":      r.HostID,
			"participants": r.participantInfos(),
		}))
		// the promoted host takes over the pending waiting list; without
		// this, entrants queued under the old host would be stuck unseen
		if len(r.waiting) > 0 {
			outs = append(outs, r.waitingRoomUpdate()...)
		}
	}
	return outs
}

// electHost picks the earliest-joined remaining participant, breaking ties
// by lowest user id. Deterministic regardless of map iteration order.
func (r *Room) electHost() string {
	var best *Session
	for _, p := range r.participants {
		if best == nil ||
			p.JoinedAt.Before(best.JoinedAt) ||
			(p.JoinedAt.Equal(best.JoinedAt) && p.UserID < best.UserID) {
			best = p
		}
	}
	if best == nil {
		return ""
	}
	return best.UserID
}

// terminateWaiting ends every waiting entrant when the room is destroyed.
func (r *Room) terminateWaiting() []Outbound {
	if len(r.waiting) == 0 {
		return nil
	}
	recipients := make([]*Session, 0, len(r.waiting))
	for _, w := range r.waiting {
		recipients = append(recipients, w)
	}
	r.waiting = make(map[string]*Session)
	return []Outbound{{
		Scope:      ScopeRoom,
		Recipients: recipients,
		Event:      Event{"type": EventMeetingEnded, "room_id": r.ID},
		CloseAfter: true,
	}}
}

// handleMessage applies one inbound event from an active participant.
// Messages from waiting or stale sessions are dropped.
func (r *Room) handleMessage(s *Session, msg ClientMessage) []Outbound {
	if p, ok := r.participants[s.UserID]; !ok || p != s {
		return nil
	}

	switch msg.Type {
	case TypeOffer, TypeAnswer, TypeICECandidate:
		return r.relaySignal(s, msg)
	case TypeChat:
		return r.handleChat(s, msg)
	case TypeMediaState:
		return r.handleMediaState(s, msg)
	case TypeRaiseHand:
		s.HandRaised = msg.Raised
		return []Outbound{r.broadcastExcept(s.UserID, Event{
			"type":         EventRaiseHand,
			"user_id":      s.UserID,
			"display_name": s.DisplayName,
			"raised":       msg.Raised,
		})}
	case TypeReaction:
		if msg.Emoji == "" {
			return nil
		}
		return []Outbound{r.broadcastExcept(s.UserID, Event{
			"type":         EventReaction,
			"user_id":      s.UserID,
			"sender_name":  s.DisplayName,
			"emoji":        msg.Emoji,
		})}
	case TypeHostAction:
		return r.handleHostAction(s, msg.Action, msg)
	case TypeWhiteboardStroke:
		return r.handleWhiteboardStroke(s, msg)
	case TypeWhiteboardClear:
		return r.handleWhiteboardClear()
	case TypeCreatePoll:
		return r.createPoll(s, msg)
	case TypeVotePoll:
		return r.votePoll(s, msg)
	case TypeEndPoll:
		return r.endPoll(s, msg)
	case TypeCreateBreakout:
		return r.handleHostAction(s, ActionCreateBreakout, msg)
	case TypeCloseBreakout:
		return r.handleHostAction(s, ActionCloseBreakout, msg)
	default:
		return nil
	}
}

// relaySignal forwards an opaque WebRTC payload to one named participant.
// Unknown targets are dropped silently: signaling races during join/leave
// are expected.
func (r *Room) relaySignal(s *Session, msg ClientMessage) []Outbound {
	target, ok := r.participants[msg.Target]
	if !ok {
		return nil
	}
	return []Outbound{unicast(target, Event{
		"type":      msg.Type,
		"from_user": s.UserID,
		"payload":   msg.Payload,
	})}
}

func (r *Room) handleChat(s *Session, msg ClientMessage) []Outbound {
	if msg.Text == "" && msg.FileURL == "" {
		return nil
	}
	m := ChatMessage{
		ID:         uuid.New().String(),
		SenderID:   s.UserID,
		SenderName: s.DisplayName,
		Text:       msg.Text,
		FileName:   msg.FileName,
		FileURL:    msg.FileURL,
		Timestamp:  time.Now(),
	}
	r.chat = append(r.chat, m)
	if r.chatLimit > 0 && len(r.chat) > r.chatLimit {
		r.chat = r.chat[len(r.chat)-r.chatLimit:]
	}
	return []Outbound{r.broadcast(Event{
		"type":        EventChat,
		"id":          m.ID,
		"sender_id":   m.SenderID,
		"sender_name": m.SenderName,
		"text":        m.Text,
		"file_name":   m.FileName,
		"file_url":    m.FileURL,
		"timestamp":   m.Timestamp,
	})}
}

func (r *Room) handleMediaState(s *Session, msg ClientMessage) []Outbound {
	s.VideoOn = msg.Video
	s.AudioOn = msg.Audio
	s.ScreenSharing = msg.Screen
	s.BgBlurred = msg.BgBlur
	return []Outbound{r.broadcastExcept(s.UserID, r.mediaStateEvent(s))}
}

func (r *Room) mediaStateEvent(s *Session) Event {
	return Event{
		"type":    EventMediaState,
		"user_id": s.UserID,
		"video":   s.VideoOn,
		"audio":   s.AudioOn,
		"screen":  s.ScreenSharing,
		"bg_blur": s.BgBlurred,
	}
}

// waitingRoomUpdate notifies the host of the current waiting list.
func (r *Room) waitingRoomUpdate() []Outbound {
	host, ok := r.participants[r.HostID]
	if !ok {
		return nil
	}
	return []Outbound{unicast(host, Event{
		"type":    EventWaitingRoomUpdate,
		"waiting": r.waitingInfos(),
	})}
}

// snapshotEvent is the full room state replayed to a session entering the
// active state (fresh join or waiting-room admission).
func (r *Room) snapshotEvent(s *Session) Event {
	return Event{
		"type":         EventRoomSnapshot,
		"room_id":      r.ID,
		"title":        r.Title,
		"host_id":      r.HostID,
		"is_host":      s.UserID == r.HostID,
		"participants": r.participantInfos(),
		"chat_history": append([]ChatMessage(nil), r.chat...),
		"whiteboard":   r.whiteboard.Snapshot(),
		"polls":        r.openPolls(),
		"breakouts":    r.breakouts.Snapshot(),
		"settings":     r.settings(),
	}
}

func (r *Room) settings() map[string]bool {
	return map[string]bool{
		"locked":               r.Locked,
		"waiting_room_enabled": r.WaitingRoomEnabled,
		"recording":            r.Recording,
	}
}

// participantInfos returns the participant list ordered by join time
// (ties by user id), so every client sees the same ordering.
func (r *Room) participantInfos() []ParticipantInfo {
	infos := make([]ParticipantInfo, 0, len(r.participants))
	for _, p := range r.participants {
		infos = append(infos, p.info(r.HostID))
	}
	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].JoinedAt.Equal(infos[j].JoinedAt) {
			return infos[i].JoinedAt.Before(infos[j].JoinedAt)
		}
		return infos[i].UserID < infos[j].UserID
	})
	return infos
}

func (r *Room) waitingInfos() []WaitingInfo {
	infos := make([]WaitingInfo, 0, len(r.waiting))
	for _, w := range r.waiting {
		infos = append(infos, WaitingInfo{UserID: w.UserID, DisplayName: w.DisplayName})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].UserID < infos[j].UserID })
	return infos
}
