package realtime

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeadConnectionPrunedAsLeave(t *testing.T) {
	reg := newTestRegistry(200)
	a, aConn := joinUser(reg, "r1", "alice", "Alice", false)
	_, bConn := joinUser(reg, "r1", "bob", "Bob", false)
	bConn.setRefuse(true)

	reg.Dispatch("r1", a, ClientMessage{Type: TypeChat, Text: "hello"})

	require.Equal(t, 1, reg.ParticipantCount("r1"))
	require.Equal(t, "bob", aConn.last(t, EventUserLeft)["user_id"])
}

func TestPruneConvergesWhenEveryoneIsDead(t *testing.T) {
	reg := newTestRegistry(200)
	a, aConn := joinUser(reg, "r1", "alice", "Alice", false)
	_, bConn := joinUser(reg, "r1", "bob", "Bob", false)
	aConn.setRefuse(true)
	bConn.setRefuse(true)

	reg.Dispatch("r1", a, ClientMessage{Type: TypeChat, Text: "anyone?"})

	require.Equal(t, 0, reg.ParticipantCount("r1"))
	require.Equal(t, 0, reg.RoomCount())
}

func TestTitleLookupAppliedOnCreation(t *testing.T) {
	reg := newTestRegistry(200)
	reg.SetTitleLookup(func(roomID string) (string, bool) {
		if roomID == "r1" {
			return "Sprint Review", true
		}
		return "", false
	})

	_, conn := joinUser(reg, "r1", "alice", "Alice", false)
	require.Equal(t, "Sprint Review", conn.last(t, EventRoomSnapshot)["title"])
	require.Equal(t, "Sprint Review", reg.RoomInfo("r1").Title)

	_, conn2 := joinUser(reg, "r2", "bob", "Bob", false)
	require.Equal(t, "", conn2.last(t, EventRoomSnapshot)["title"])
}

func TestPresenceHandlerObservesCounts(t *testing.T) {
	reg := newTestRegistry(200)
	var mu sync.Mutex
	var counts []int
	reg.SetPresenceHandler(func(roomID string, count int) {
		mu.Lock()
		counts = append(counts, count)
		mu.Unlock()
	})

	a, _ := joinUser(reg, "r1", "alice", "Alice", false)
	b, _ := joinUser(reg, "r1", "bob", "Bob", false)
	reg.Leave("r1", b)
	reg.Leave("r1", a)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int{1, 2, 1, 0}, counts)
}

func TestChatHandlerReceivesBroadcastChat(t *testing.T) {
	reg := newTestRegistry(200)
	var mu sync.Mutex
	var archived []Event
	reg.SetChatHandler(func(roomID string, ev Event) {
		mu.Lock()
		archived = append(archived, ev)
		mu.Unlock()
	})

	a, _ := joinUser(reg, "r1", "alice", "Alice", false)
	reg.Dispatch("r1", a, ClientMessage{Type: TypeChat, Text: "for the record"})
	reg.Dispatch("r1", a, ClientMessage{Type: TypeRaiseHand, Raised: true})

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, archived, 1)
	require.Equal(t, "for the record", archived[0]["text"])
}

func TestShutdownEndsEveryRoom(t *testing.T) {
	reg := newTestRegistry(200)
	_, aConn := joinUser(reg, "r1", "alice", "Alice", false)
	_, bConn := joinUser(reg, "r2", "bob", "Bob", false)

	reg.Shutdown()

	require.Equal(t, 0, reg.RoomCount())
	require.Equal(t, 1, aConn.count(EventMeetingEnded))
	require.Equal(t, 1, bConn.count(EventMeetingEnded))
	require.True(t, aConn.isClosed())
	require.True(t, bConn.isClosed())
}

func TestRoomsDoNotLeakTraffic(t *testing.T) {
	reg := newTestRegistry(200)
	a, _ := joinUser(reg, "r1", "alice", "Alice", false)
	_, bConn := joinUser(reg, "r2", "bob", "Bob", false)

	reg.Dispatch("r1", a, ClientMessage{Type: TypeChat, Text: "room one only"})
	require.Equal(t, 0, bConn.count(EventChat))
	require.Equal(t, 2, reg.RoomCount())
}

func TestConcurrentTrafficKeepsRoomConsistent(t *testing.T) {
	reg := newTestRegistry(500)
	const n = 32

	sessions := make([]*Session, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conn := &fakeConn{}
			s := NewSession(fmt.Sprintf("user-%02d", i), fmt.Sprintf("User %d", i), false, conn)
			sessions[i] = s
			reg.Join("stress", s)
			reg.Dispatch("stress", s, ClientMessage{Type: TypeChat, Text: "hi"})
		}(i)
	}
	wg.Wait()
	require.Equal(t, n, reg.ParticipantCount("stress"))

	// half disconnect while the rest keep generating traffic
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				reg.Leave("stress", sessions[i])
			} else {
				reg.Dispatch("stress", sessions[i], ClientMessage{Type: TypeRaiseHand, Raised: true})
				reg.Dispatch("stress", sessions[i], ClientMessage{Type: TypeMediaState, Audio: true, Video: true})
			}
		}(i)
	}
	wg.Wait()
	require.Equal(t, n/2, reg.ParticipantCount("stress"))

	// exactly one host remains, and it is a live participant
	_, obsConn := joinUser(reg, "stress", "observer", "Observer", false)
	snap := obsConn.last(t, EventRoomSnapshot)
	parts := snap["participants"].([]ParticipantInfo)
	require.Len(t, parts, n/2+1)

	hosts := 0
	for _, p := range parts {
		if p.Host {
			hosts++
			require.Equal(t, snap["host_id"], p.UserID)
		}
	}
	require.Equal(t, 1, hosts)
}

func TestDispatchToUnknownRoomIsNoOp(t *testing.T) {
	reg := newTestRegistry(200)
	s := NewSession("alice", "Alice", false, &fakeConn{})
	reg.Dispatch("nowhere", s, ClientMessage{Type: TypeChat, Text: "hi"})
	reg.Leave("nowhere", s)
	require.Equal(t, 0, reg.RoomCount())
}
