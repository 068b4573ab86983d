package realtime

import "go.uber.org/zap"

// Engine performs the deliveries decided by a room actor. Delivery is
// best-effort and non-blocking: a failed send to one recipient never stops
// delivery to the rest, and failed recipients are reported back so the
// registry can prune them as implicit disconnects.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a broadcast engine.
func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{logger: logger}
}

// Deliver sends each outbound message to its resolved recipients and returns
// the sessions whose transport refused the send. Recipients of a CloseAfter
// message are closed rather than reported: their removal already happened
// inside the actor.
func (e *Engine) Deliver(roomID string, outs []Outbound) []*Session {
	var failed []*Session
	seen := make(map[*Session]bool)

	for _, out := range outs {
		for _, s := range out.Recipients {
			if out.Event != nil {
				if ok := s.conn.TrySend(out.Event); !ok && !out.CloseAfter && !seen[s] {
					seen[s] = true
					failed = append(failed, s)
					e.logger.Warn("dead connection pruned",
						zap.String("room_id", roomID),
						zap.String("user_id", s.UserID),
					)
				}
			}
			if out.CloseAfter {
				s.conn.Close()
			}
		}
	}
	return failed
}
