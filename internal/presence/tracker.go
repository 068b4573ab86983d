package presence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/novameet/backend/internal/realtime"
)

const (
	peakKeyPrefix    = "room:peak:"
	archiveKeyPrefix = "room:chat:"
	opTimeout        = 2 * time.Second
	// archiveLimit bounds the external chat archive per room.
	archiveLimit = 1000
	// keyTTL keeps per-room keys from accumulating after a meeting ends.
	keyTTL = 24 * time.Hour
)

// Tracker is the Redis-backed sink behind the coordinator's presence and
// chat hooks. Everything here is best-effort: failures are logged and
// dropped, never surfaced to the room.
type Tracker struct {
	client *redis.Client
	logger *zap.Logger
}

// NewTracker creates a presence tracker.
func NewTracker(client *redis.Client, logger *zap.Logger) *Tracker {
	return &Tracker{client: client, logger: logger}
}

// RecordPresence updates the room's peak participant count.
func (t *Tracker) RecordPresence(roomID string, count int) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	key := peakKeyPrefix + roomID
	peak, err := t.client.Get(ctx, key).Int()
	if err != nil && err != redis.Nil {
		t.logger.Debug("peak read failed", zap.String("room_id", roomID), zap.Error(err))
		return
	}
	if count <= peak {
		return
	}
	if err := t.client.Set(ctx, key, count, keyTTL).Err(); err != nil {
		t.logger.Debug("peak write failed", zap.String("room_id", roomID), zap.Error(err))
	}
}

// ArchiveChat appends a broadcast chat event to the room's archive list,
// trimmed to the most recent entries.
func (t *Tracker) ArchiveChat(roomID string, ev realtime.Event) {
	raw, err := json.Marshal(ev)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	key := archiveKeyPrefix + roomID
	pipe := t.client.Pipeline()
	pipe.RPush(ctx, key, raw)
	pipe.LTrim(ctx, key, -archiveLimit, -1)
	pipe.Expire(ctx, key, keyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		t.logger.Debug("chat archive failed", zap.String("room_id", roomID), zap.Error(err))
	}
}

// PeakParticipants reads a room's recorded peak, zero when unknown.
func (t *Tracker) PeakParticipants(roomID string) int {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	peak, err := t.client.Get(ctx, peakKeyPrefix+roomID).Int()
	if err != nil {
		return 0
	}
	return peak
}
