package realtime

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Poll is an ephemeral, room-scoped poll. Votes are keyed by participant;
// tallies are always derived from the vote map, never stored.
type Poll struct {
	ID        string
	Question  string
	Options   []string
	Active    bool
	CreatorID string
	CreatedAt time.Time

	votes map[string]int // userID -> option index, last write wins
}

// Tally computes per-option vote counts from the vote map.
func (p *Poll) Tally() []int {
	tally := make([]int, len(p.Options))
	for _, opt := range p.votes {
		if opt >= 0 && opt < len(tally) {
			tally[opt]++
		}
	}
	return tally
}

// PollInfo is the wire snapshot of a poll with its derived tally.
type PollInfo struct {
	ID        string   `json:"id"`
	Question  string   `json:"question"`
	Options   []string `json:"options"`
	Tally     []int    `json:"tally"`
	Active    bool     `json:"active"`
	CreatorID string   `json:"creator_id"`
}

func (p *Poll) snapshot() PollInfo {
	return PollInfo{
		ID:        p.ID,
		Question:  p.Question,
		Options:   p.Options,
		Tally:     p.Tally(),
		Active:    p.Active,
		CreatorID: p.CreatorID,
	}
}

// createPoll handles create-poll: any participant, at least two non-empty
// options. Invalid polls are rejected with no state change and no broadcast.
func (r *Room) createPoll(s *Session, msg ClientMessage) []Outbound {
	options := make([]string, 0, len(msg.Options))
	for _, o := range msg.Options {
		if t := strings.TrimSpace(o); t != "" {
			options = append(options, t)
		}
	}
	if len(options) < 2 || strings.TrimSpace(msg.Question) == "" {
		return nil
	}
	p := &Poll{
		ID:        uuid.New().String(),
		Question:  msg.Question,
		Options:   options,
		Active:    true,
		CreatorID: s.UserID,
		CreatedAt: time.Now(),
		votes:     make(map[string]int),
	}
	r.polls[p.ID] = p
	return []Outbound{r.broadcast(Event{"type": EventPollCreated, "poll": p.snapshot()})}
}

// votePoll handles vote-poll: only while active, one vote per participant
// with last write winning. Out-of-range or late votes are dropped silently.
func (r *Room) votePoll(s *Session, msg ClientMessage) []Outbound {
	p, ok := r.polls[msg.PollID]
	if !ok || !p.Active {
		return nil
	}
	if msg.Option < 0 || msg.Option >= len(p.Options) {
		return nil
	}
	p.votes[s.UserID] = msg.Option
	return []Outbound{r.broadcast(Event{"type": EventPollUpdated, "poll": p.snapshot()})}
}

// endPoll handles end-poll: only the creator or the current host may close.
func (r *Room) endPoll(s *Session, msg ClientMessage) []Outbound {
	p, ok := r.polls[msg.PollID]
	if !ok || !p.Active {
		return nil
	}
	if s.UserID != p.CreatorID && s.UserID != r.HostID {
		return nil
	}
	p.Active = false
	return []Outbound{r.broadcast(Event{"type": EventPollEnded, "poll": p.snapshot()})}
}

// openPolls returns currently active polls for the room snapshot, oldest first.
func (r *Room) openPolls() []PollInfo {
	active := make([]*Poll, 0, len(r.polls))
	for _, p := range r.polls {
		if p.Active {
			active = append(active, p)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		if !active[i].CreatedAt.Equal(active[j].CreatedAt) {
			return active[i].CreatedAt.Before(active[j].CreatedAt)
		}
		return active[i].ID < active[j].ID
	})
	open := make([]PollInfo, len(active))
	for i, p := range active {
		open[i] = p.snapshot()
	}
	return open
}
