package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // allow all origins in dev; restrict in production
	},
}

// WSOptions tunes the per-connection websocket behavior.
type WSOptions struct {
	SendBuffer   int
	ReadLimit    int64
	PingInterval time.Duration
	PongWait     time.Duration
}

// DefaultWSOptions returns the standard tuning used when none is configured.
func DefaultWSOptions() WSOptions {
	return WSOptions{
		SendBuffer:   256,
		ReadLimit:    65536,
		PingInterval: 30 * time.Second,
		PongWait:     60 * time.Second,
	}
}

// IdentityValidator resolves a connection token into {userId, displayName,
// isHost}. Token issuance is the authentication collaborator's concern.
type IdentityValidator func(token string) (userID, displayName string, isHost bool, err error)

// wsClient is the websocket transport behind one session. Sends go through
// a buffered channel drained by writePump; TrySend never blocks.
type wsClient struct {
	conn   *websocket.Conn
	send   chan Event
	closed chan struct{}
	once   sync.Once
	logger *zap.Logger
	opts   WSOptions
}

func newWSClient(conn *websocket.Conn, logger *zap.Logger, opts WSOptions) *wsClient {
	return &wsClient{
		conn:   conn,
		send:   make(chan Event, opts.SendBuffer),
		closed: make(chan struct{}),
		logger: logger,
		opts:   opts,
	}
}

// TrySend queues an event for delivery. Returns false when the connection is
// closed or its buffer is full; the caller treats that as a dead connection.
func (c *wsClient) TrySend(ev Event) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.send <- ev:
		return true
	case <-c.closed:
		return false
	default:
		return false
	}
}

// Close shuts the connection down; safe to call multiple times.
func (c *wsClient) Close() {
	c.once.Do(func() { close(c.closed) })
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case ev := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closed:
			// drain anything queued before the close (rejection notices)
			for {
				select {
				case ev := <-c.send:
					_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
					if err := c.conn.WriteJSON(ev); err != nil {
						return
					}
				default:
					_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
			}
		}
	}
}

// ServeWs handles the WebSocket upgrade and runs the session's read loop.
// Identity comes from the token query parameter; the room id from room_id.
func ServeWs(registry *Registry, logger *zap.Logger, validate IdentityValidator, opts WSOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := c.Query("room_id")
		token := c.Query("token")
		if roomID == "" || token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "room_id and token required"})
			return
		}
		userID, displayName, isHost, err := validate(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := newWSClient(conn, logger, opts)
		sess := NewSession(userID, displayName, isHost, client)

		registry.Join(roomID, sess)
		go client.writePump()
		readPump(registry, roomID, sess, client)
	}
}

// readPump reads inbound messages until the transport dies. The deferred
// leave is the session's guaranteed cleanup: it runs exactly once whether
// the client left, was removed, or the process is shutting down.
func readPump(registry *Registry, roomID string, sess *Session, client *wsClient) {
	defer func() {
		registry.Leave(roomID, sess)
		client.Close()
		_ = client.conn.Close()
	}()

	client.conn.SetReadLimit(client.opts.ReadLimit)
	_ = client.conn.SetReadDeadline(time.Now().Add(client.opts.PongWait))
	client.conn.SetPongHandler(func(string) error {
		_ = client.conn.SetReadDeadline(time.Now().Add(client.opts.PongWait))
		return nil
	})

	for {
		_, raw, err := client.conn.ReadMessage()
		if err != nil {
			return
		}
		_ = client.conn.SetReadDeadline(time.Now().Add(client.opts.PongWait))

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Type == "" {
			// protocol error: drop the message, keep the connection
			client.logger.Debug("malformed client message dropped",
				zap.String("room_id", roomID),
				zap.String("user_id", sess.UserID),
			)
			continue
		}

		if msg.Type == TypePing {
			// keep-alive; answered even while in the waiting room
			client.TrySend(Event{"type": EventPong})
			continue
		}
		registry.Dispatch(roomID, sess, msg)
	}
}
