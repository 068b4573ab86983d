package realtime

import (
	"sync"
	"testing"

	"go.uber.org/zap"
)

// fakeConn is an in-memory Transport recording every delivered event.
type fakeConn struct {
	mu     sync.Mutex
	events []Event
	closed bool
	// refuse makes TrySend fail, simulating a dead or saturated connection.
	refuse bool
}

func (f *fakeConn) TrySend(ev Event) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refuse || f.closed {
		return false
	}
	f.events = append(f.events, ev)
	return true
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeConn) setRefuse(v bool) {
	f.mu.Lock()
	f.refuse = v
	f.mu.Unlock()
}

func (f *fakeConn) count(typ string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, ev := range f.events {
		if ev["type"] == typ {
			n++
		}
	}
	return n
}

// last returns the most recent event of the given type, failing the test
// when none was delivered.
func (f *fakeConn) last(t *testing.T, typ string) Event {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.events) - 1; i >= 0; i-- {
		if f.events[i]["type"] == typ {
			return f.events[i]
		}
	}
	t.Fatalf("no %q event delivered (saw %v)", typ, f.types())
	return nil
}

func (f *fakeConn) types() []string {
	out := make([]string, len(f.events))
	for i, ev := range f.events {
		out[i], _ = ev["type"].(string)
	}
	return out
}

func newTestRegistry(chatLimit int) *Registry {
	return NewRegistry(zap.NewNop(), chatLimit)
}

// joinUser connects a fresh session to a room and returns it with its conn.
func joinUser(reg *Registry, roomID, userID, name string, hostClaim bool) (*Session, *fakeConn) {
	conn := &fakeConn{}
	sess := NewSession(userID, name, hostClaim, conn)
	reg.Join(roomID, sess)
	return sess, conn
}
