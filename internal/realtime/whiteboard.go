package realtime

// Point is one coordinate of a whiteboard stroke.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is one drawing event on the shared whiteboard.
type Stroke struct {
	UserID string  `json:"user_id"`
	Points []Point `json:"points"`
	Color  string  `json:"color"`
	Width  float64 `json:"width"`
	Tool   string  `json:"tool"`
}

// WhiteboardLog is the append-only stroke log replayed to late joiners.
// A clear event truncates it to empty.
type WhiteboardLog struct {
	strokes []Stroke
}

func (w *WhiteboardLog) Append(st Stroke) {
	w.strokes = append(w.strokes, st)
}

func (w *WhiteboardLog) Clear() {
	w.strokes = nil
}

func (w *WhiteboardLog) Len() int { return len(w.strokes) }

// Snapshot returns a copy of the log for replay.
func (w *WhiteboardLog) Snapshot() []Stroke {
	return append([]Stroke(nil), w.strokes...)
}

// handleWhiteboardStroke appends and fans out to everyone except the sender,
// who already has local feedback.
func (r *Room) handleWhiteboardStroke(s *Session, msg ClientMessage) []Outbound {
	if msg.Stroke == nil || len(msg.Stroke.Points) == 0 {
		return nil
	}
	st := *msg.Stroke
	st.UserID = s.UserID
	r.whiteboard.Append(st)
	return []Outbound{r.broadcastExcept(s.UserID, Event{
		"type":   EventWhiteboardStroke,
		"stroke": st,
	})}
}

// handleWhiteboardClear truncates the log and notifies everyone, sender
// included, so reconnecting clients converge on the empty board.
func (r *Room) handleWhiteboardClear() []Outbound {
	r.whiteboard.Clear()
	return []Outbound{r.broadcast(Event{"type": EventWhiteboardClear})}
}
