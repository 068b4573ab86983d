package realtime

// handleHostAction validates and applies a host-only action. The caller's
// session must currently equal the room's host id, re-checked on every
// action. Non-host calls are silently ignored: no state change and no
// broadcast, so room structure never leaks to unauthorized callers.
func (r *Room) handleHostAction(s *Session, action string, msg ClientMessage) []Outbound {
	if r.HostID != s.UserID {
		return nil
	}

	switch action {
	case ActionMuteAll:
		return r.muteAll()
	case ActionMuteUser:
		return r.muteUser(msg.TargetUserID)
	case ActionRemoveUser:
		return r.removeUser(msg.TargetUserID)
	case ActionLockMeeting:
		r.Locked = msg.Enabled
		return []Outbound{r.broadcast(Event{"type": EventSettings, "settings": r.settings()})}
	case ActionToggleWaitingRoom:
		// does not retroactively move already-active participants
		r.WaitingRoomEnabled = msg.Enabled
		return []Outbound{r.broadcast(Event{"type": EventSettings, "settings": r.settings()})}
	case ActionToggleRecording:
		r.Recording = msg.Enabled
		return []Outbound{r.broadcast(Event{"type": EventSettings, "settings": r.settings()})}
	case ActionAdmitUser:
		return r.admitUser(msg.TargetUserID)
	case ActionRejectUser:
		return r.rejectUser(msg.TargetUserID)
	case ActionLowerAllHands:
		return r.lowerAllHands()
	case ActionEndMeeting:
		return r.endMeeting()
	case ActionCreateBreakout:
		return r.createBreakout(msg.Assignments)
	case ActionCloseBreakout:
		return r.closeBreakout()
	default:
		return nil
	}
}

func (r *Room) muteAll() []Outbound {
	for id, p := range r.participants {
		if id != r.HostID {
			p.AudioOn = false
		}
	}
	return []Outbound{r.broadcast(Event{
		"type":         EventParticipants,
		"action":       ActionMuteAll,
		"participants": r.participantInfos(),
	})}
}

func (r *Room) muteUser(targetID string) []Outbound {
	target, ok := r.participants[targetID]
	if !ok {
		return nil
	}
	target.AudioOn = false
	return []Outbound{
		unicast(target, Event{"type": EventForceMute}),
		r.broadcast(r.mediaStateEvent(target)),
	}
}

func (r *Room) removeUser(targetID string) []Outbound {
	target, ok := r.participants[targetID]
	if !ok {
		return nil
	}
	outs := []Outbound{unicastClose(target, Event{
		"type":   EventRemoved,
		"reason": "removed by host",
	})}
	return append(outs, r.dropParticipant(target)...)
}

func (r *Room) admitUser(targetID string) []Outbound {
	w, ok := r.waiting[targetID]
	if !ok {
		return nil
	}
	delete(r.waiting, targetID)
	outs := r.addParticipant(w)
	return append(outs, r.waitingRoomUpdate()...)
}

func (r *Room) rejectUser(targetID string) []Outbound {
	w, ok := r.waiting[targetID]
	if !ok {
		return nil
	}
	delete(r.waiting, targetID)
	outs := []Outbound{unicastClose(w, Event{
		"type":   EventJoinRejected,
		"reason": "host declined admission",
	})}
	return append(outs, r.waitingRoomUpdate()...)
}

func (r *Room) lowerAllHands() []Outbound {
	for _, p := range r.participants {
		p.HandRaised = false
	}
	return []Outbound{r.broadcast(Event{
		"type":         EventHandsLowered,
		"participants": r.participantInfos(),
	})}
}

// endMeeting destroys the room unconditionally: everyone, active and
// waiting, receives meeting-ended and has their transport closed.
func (r *Room) endMeeting() []Outbound {
	recipients := make([]*Session, 0, len(r.participants)+len(r.waiting))
	for _, p := range r.participants {
		recipients = append(recipients, p)
	}
	for _, w := range r.waiting {
		recipients = append(recipients, w)
	}
	r.participants = make(map[string]*Session)
	r.waiting = make(map[string]*Session)
	r.ended = true
	if len(recipients) == 0 {
		return nil
	}
	return []Outbound{{
		Scope:      ScopeRoom,
		Recipients: recipients,
		Event:      Event{"type": EventMeetingEnded, "room_id": r.ID},
		CloseAfter: true,
	}}
}

// createBreakout atomically replaces the assignment table. An assignment
// naming no current participant is rejected with room state unchanged.
func (r *Room) createBreakout(assignments map[string][]string) []Outbound {
	valid := 0
	for name, members := range assignments {
		if name == "" {
			continue
		}
		for _, userID := range members {
			if _, ok := r.participants[userID]; ok {
				valid++
			}
		}
	}
	if valid == 0 {
		return nil
	}
	r.breakouts.replace(assignments, r.participants)
	return []Outbound{r.broadcast(Event{
		"type":         EventBreakoutUpdate,
		"breakouts":    r.breakouts.Snapshot(),
		"participants": r.participantInfos(),
	})}
}

func (r *Room) closeBreakout() []Outbound {
	if r.breakouts.empty() {
		return nil
	}
	r.breakouts.clear(r.participants)
	return []Outbound{r.broadcast(Event{
		"type":         EventBreakoutUpdate,
		"breakouts":    r.breakouts.Snapshot(),
		"participants": r.participantInfos(),
	})}
}
