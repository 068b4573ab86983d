package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server ServerConfig
	Redis  RedisConfig
	JWT    JWTConfig
	Room   RoomConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all (e.g. http://localhost:3000,http://localhost:3001)
}

// RedisConfig holds Redis connection settings. An empty Addr disables the
// presence/chat-archive sink entirely.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT validation settings for externally-issued identity tokens.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// RoomConfig holds live-room tuning knobs.
type RoomConfig struct {
	ChatHistoryLimit int   // chat messages kept in room memory
	SendBuffer       int   // per-client outbound channel size
	ReadLimit        int64 // max inbound websocket frame size
	PingIntervalSec  int
	PongWaitSec      int
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env

	readTimeout, _ := strconv.Atoi(getEnv("READ_TIMEOUT_SEC", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("WRITE_TIMEOUT_SEC", "30"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	jwtExpire, _ := strconv.Atoi(getEnv("JWT_EXPIRE_HOURS", "24"))

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        readTimeout,
			WriteTimeout:       writeTimeout,
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: jwtExpire,
		},
		Room: RoomConfig{
			ChatHistoryLimit: getEnvInt("CHAT_HISTORY_LIMIT", 200),
			SendBuffer:       getEnvInt("CLIENT_SEND_BUFFER", 256),
			ReadLimit:        int64(getEnvInt("CLIENT_READ_LIMIT", 65536)),
			PingIntervalSec:  getEnvInt("WS_PING_INTERVAL_SEC", 30),
			PongWaitSec:      getEnvInt("WS_PONG_WAIT_SEC", 60),
		},
	}
	return cfg, nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
