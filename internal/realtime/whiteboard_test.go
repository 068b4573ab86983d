package realtime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testStroke(points ...Point) *Stroke {
	return &Stroke{Points: points, Color: "#222", Width: 2, Tool: "pen"}
}

func TestWhiteboardStrokeFanOut(t *testing.T) {
	reg := newTestRegistry(200)
	a, aConn := joinUser(reg, "r1", "alice", "Alice", false)
	_, bConn := joinUser(reg, "r1", "bob", "Bob", false)

	st := testStroke(Point{X: 1, Y: 2}, Point{X: 3, Y: 4})
	st.UserID = "spoofed"
	reg.Dispatch("r1", a, ClientMessage{Type: TypeWhiteboardStroke, Stroke: st})

	got := bConn.last(t, EventWhiteboardStroke)["stroke"].(Stroke)
	require.Equal(t, "alice", got.UserID, "stroke author comes from the session, not the payload")
	require.Len(t, got.Points, 2)
	require.Equal(t, 0, aConn.count(EventWhiteboardStroke), "sender already has local feedback")
}

func TestWhiteboardEmptyStrokeDropped(t *testing.T) {
	reg := newTestRegistry(200)
	a, _ := joinUser(reg, "r1", "alice", "Alice", false)
	_, bConn := joinUser(reg, "r1", "bob", "Bob", false)

	reg.Dispatch("r1", a, ClientMessage{Type: TypeWhiteboardStroke})
	reg.Dispatch("r1", a, ClientMessage{Type: TypeWhiteboardStroke, Stroke: &Stroke{}})
	require.Equal(t, 0, bConn.count(EventWhiteboardStroke))
}

func TestWhiteboardReplayAndClear(t *testing.T) {
	reg := newTestRegistry(200)
	a, _ := joinUser(reg, "r1", "alice", "Alice", false)
	reg.Dispatch("r1", a, ClientMessage{Type: TypeWhiteboardStroke, Stroke: testStroke(Point{X: 1, Y: 1})})
	reg.Dispatch("r1", a, ClientMessage{Type: TypeWhiteboardStroke, Stroke: testStroke(Point{X: 2, Y: 2})})

	// late joiner replays the full log in draw order
	_, bConn := joinUser(reg, "r1", "bob", "Bob", false)
	board := bConn.last(t, EventRoomSnapshot)["whiteboard"].([]Stroke)
	require.Len(t, board, 2)
	require.Equal(t, Point{X: 1, Y: 1}, board[0].Points[0])

	// clear reaches everyone, sender included
	reg.Dispatch("r1", a, ClientMessage{Type: TypeWhiteboardClear})
	require.Equal(t, 1, bConn.count(EventWhiteboardClear))

	_, cConn := joinUser(reg, "r1", "carol", "Carol", false)
	require.Empty(t, cConn.last(t, EventRoomSnapshot)["whiteboard"].([]Stroke))
}
