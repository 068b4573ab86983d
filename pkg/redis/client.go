package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const dialTimeout = 5 * time.Second

// Client is a thin wrapper over go-redis carrying the application logger.
// The coordinator treats Redis as an optional sink, so construction fails
// fast when the server is unreachable instead of erroring per operation.
type Client struct {
	*redis.Client
	logger *zap.Logger
}

// NewClient connects to Redis and verifies the connection with a ping.
func NewClient(ctx context.Context, addr, password string, db int, logger *zap.Logger) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: dialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}

	logger.Info("redis connected", zap.String("addr", addr), zap.Int("db", db))
	return &Client{Client: rdb, logger: logger}, nil
}
