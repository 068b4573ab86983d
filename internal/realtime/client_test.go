package realtime

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newWsTestServer(t *testing.T, reg *Registry) *httptest.Server {
	gin.SetMode(gin.TestMode)
	validate := func(token string) (string, string, bool, error) {
		switch token {
		case "alice-token":
			return "alice", "Alice", false, nil
		case "bob-token":
			return "bob", "Bob", false, nil
		}
		return "", "", false, fmt.Errorf("unknown token")
	}
	router := gin.New()
	router.GET("/ws", ServeWs(reg, zap.NewNop(), validate, DefaultWSOptions()))
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func dialWs(t *testing.T, srv *httptest.Server, roomID, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?room_id=" + roomID + "&token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readEvent reads frames until one of the wanted type arrives, skipping
// unrelated traffic (presence updates etc).
func readEvent(t *testing.T, conn *websocket.Conn, want string) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var ev map[string]interface{}
		require.NoError(t, conn.ReadJSON(&ev), "waiting for %q", want)
		if ev["type"] == want {
			return ev
		}
	}
}

func waitForCount(t *testing.T, reg *Registry, roomID string, want int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if reg.ParticipantCount(roomID) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("room %s never reached %d participants (have %d)", roomID, want, reg.ParticipantCount(roomID))
}

func TestServeWsRequiresParamsAndValidToken(t *testing.T) {
	reg := newTestRegistry(200)
	srv := newWsTestServer(t, reg)

	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?room_id=r1&token=wrong"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.Nil(t, conn)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
	require.Equal(t, 0, reg.RoomCount())
}

func TestServeWsSessionLifecycle(t *testing.T) {
	reg := newTestRegistry(200)
	srv := newWsTestServer(t, reg)

	alice := dialWs(t, srv, "r1", "alice-token")
	snap := readEvent(t, alice, EventRoomSnapshot)
	require.Equal(t, "alice", snap["host_id"])
	require.Equal(t, true, snap["is_host"])

	bob := dialWs(t, srv, "r1", "bob-token")
	readEvent(t, bob, EventRoomSnapshot)
	joined := readEvent(t, alice, EventUserJoined)
	require.Equal(t, "bob", joined["user_id"])
	waitForCount(t, reg, "r1", 2)

	// chat round-trips through the room to every participant
	require.NoError(t, bob.WriteJSON(map[string]interface{}{"type": "chat", "text": "hello"}))
	require.Equal(t, "hello", readEvent(t, alice, EventChat)["text"])
	require.Equal(t, "hello", readEvent(t, bob, EventChat)["text"])

	// a malformed frame is dropped without killing the connection
	require.NoError(t, bob.WriteMessage(websocket.TextMessage, []byte("{not json")))
	require.NoError(t, bob.WriteJSON(map[string]interface{}{"type": "ping"}))
	readEvent(t, bob, EventPong)

	// closing the socket runs the disconnect cleanup
	require.NoError(t, bob.Close())
	left := readEvent(t, alice, EventUserLeft)
	require.Equal(t, "bob", left["user_id"])
	waitForCount(t, reg, "r1", 1)
}
