package realtime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateBreakoutAssigns(t *testing.T) {
	reg := newTestRegistry(200)
	a, _ := joinUser(reg, "r1", "alice", "Alice", false)
	b, bConn := joinUser(reg, "r1", "bob", "Bob", false)
	c, _ := joinUser(reg, "r1", "carol", "Carol", false)

	reg.Dispatch("r1", a, ClientMessage{Type: TypeCreateBreakout, Assignments: map[string][]string{
		"design": {"bob"},
		"infra":  {"carol", "ghost"},
	}})

	require.Equal(t, "design", b.BreakoutRoom)
	require.Equal(t, "infra", c.BreakoutRoom)
	require.Empty(t, a.BreakoutRoom)

	update := bConn.last(t, EventBreakoutUpdate)["breakouts"].(map[string][]string)
	require.Equal(t, []string{"bob"}, update["design"])
	require.Equal(t, []string{"carol"}, update["infra"], "unknown user ids are dropped")
}

func TestCreateBreakoutWithNoValidMembersRejected(t *testing.T) {
	reg := newTestRegistry(200)
	a, aConn := joinUser(reg, "r1", "alice", "Alice", false)

	reg.Dispatch("r1", a, ClientMessage{Type: TypeCreateBreakout, Assignments: map[string][]string{
		"design": {"ghost"},
		"":       {"alice"},
	}})
	require.Equal(t, 0, aConn.count(EventBreakoutUpdate))
	require.Empty(t, a.BreakoutRoom)
}

func TestBreakoutSingleRoomPerParticipant(t *testing.T) {
	reg := newTestRegistry(200)
	a, aConn := joinUser(reg, "r1", "alice", "Alice", false)
	b, _ := joinUser(reg, "r1", "bob", "Bob", false)

	reg.Dispatch("r1", a, ClientMessage{Type: TypeCreateBreakout, Assignments: map[string][]string{
		"one": {"bob"},
		"two": {"bob"},
	}})

	update := aConn.last(t, EventBreakoutUpdate)["breakouts"].(map[string][]string)
	seen := 0
	for _, members := range update {
		for _, id := range members {
			if id == "bob" {
				seen++
			}
		}
	}
	require.Equal(t, 1, seen)
	require.NotEmpty(t, b.BreakoutRoom)
}

func TestCreateBreakoutReplacesPrevious(t *testing.T) {
	reg := newTestRegistry(200)
	a, aConn := joinUser(reg, "r1", "alice", "Alice", false)
	b, _ := joinUser(reg, "r1", "bob", "Bob", false)
	c, _ := joinUser(reg, "r1", "carol", "Carol", false)

	reg.Dispatch("r1", a, ClientMessage{Type: TypeCreateBreakout, Assignments: map[string][]string{
		"old": {"bob", "carol"},
	}})
	reg.Dispatch("r1", a, ClientMessage{Type: TypeCreateBreakout, Assignments: map[string][]string{
		"new": {"bob"},
	}})

	update := aConn.last(t, EventBreakoutUpdate)["breakouts"].(map[string][]string)
	require.Equal(t, map[string][]string{"new": {"bob"}}, update)
	require.Equal(t, "new", b.BreakoutRoom)
	require.Empty(t, c.BreakoutRoom, "replace clears prior assignments")
}

func TestCloseBreakout(t *testing.T) {
	reg := newTestRegistry(200)
	a, aConn := joinUser(reg, "r1", "alice", "Alice", false)
	b, _ := joinUser(reg, "r1", "bob", "Bob", false)

	// closing with no assignments is a no-op
	reg.Dispatch("r1", a, ClientMessage{Type: TypeCloseBreakout})
	require.Equal(t, 0, aConn.count(EventBreakoutUpdate))

	reg.Dispatch("r1", a, ClientMessage{Type: TypeCreateBreakout, Assignments: map[string][]string{
		"design": {"bob"},
	}})
	reg.Dispatch("r1", a, ClientMessage{Type: TypeCloseBreakout})

	require.Empty(t, b.BreakoutRoom)
	require.Empty(t, aConn.last(t, EventBreakoutUpdate)["breakouts"].(map[string][]string))
}

func TestLeaveClearsBreakoutAssignment(t *testing.T) {
	reg := newTestRegistry(200)
	a, _ := joinUser(reg, "r1", "alice", "Alice", false)
	b, _ := joinUser(reg, "r1", "bob", "Bob", false)

	reg.Dispatch("r1", a, ClientMessage{Type: TypeCreateBreakout, Assignments: map[string][]string{
		"design": {"bob"},
	}})
	reg.Leave("r1", b)

	_, cConn := joinUser(reg, "r1", "carol", "Carol", false)
	snap := cConn.last(t, EventRoomSnapshot)["breakouts"].(map[string][]string)
	require.Empty(t, snap)
}
