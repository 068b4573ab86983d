package realtime

import "sort"

// BreakoutTable maps breakout room names to member sets. A participant's
// Session.BreakoutRoom field and this table are set and cleared together;
// the table never references users outside the participant table.
type BreakoutTable struct {
	rooms map[string]map[string]bool
}

func newBreakoutTable() *BreakoutTable {
	return &BreakoutTable{rooms: make(map[string]map[string]bool)}
}

// replace atomically swaps in a new assignment set. Unknown user ids are
// ignored; returns the number of participants actually assigned.
func (b *BreakoutTable) replace(assignments map[string][]string, participants map[string]*Session) int {
	b.clear(participants)
	assigned := 0
	for name, members := range assignments {
		if name == "" {
			continue
		}
		for _, userID := range members {
			p, ok := participants[userID]
			if !ok {
				continue
			}
			if b.rooms[name] == nil {
				b.rooms[name] = make(map[string]bool)
			}
			// a participant can only be in one breakout room
			if p.BreakoutRoom != "" {
				delete(b.rooms[p.BreakoutRoom], userID)
			}
			b.rooms[name][userID] = true
			p.BreakoutRoom = name
			assigned++
		}
	}
	return assigned
}

// clear empties the table and every participant's breakout field.
func (b *BreakoutTable) clear(participants map[string]*Session) {
	b.rooms = make(map[string]map[string]bool)
	for _, p := range participants {
		p.BreakoutRoom = ""
	}
}

// remove drops one user from whichever breakout room holds them.
func (b *BreakoutTable) remove(userID string) {
	for name, members := range b.rooms {
		if members[userID] {
			delete(members, userID)
			if len(members) == 0 {
				delete(b.rooms, name)
			}
		}
	}
}

func (b *BreakoutTable) empty() bool { return len(b.rooms) == 0 }

// Snapshot returns the assignment table with sorted member lists.
func (b *BreakoutTable) Snapshot() map[string][]string {
	out := make(map[string][]string, len(b.rooms))
	for name, members := range b.rooms {
		list := make([]string, 0, len(members))
		for userID := range members {
			list = append(list, userID)
		}
		sort.Strings(list)
		out[name] = list
	}
	return out
}
