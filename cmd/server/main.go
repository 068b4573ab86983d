// Package main runs the meeting coordinator HTTP server with WebSocket and
// graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/novameet/backend/config"
	"github.com/novameet/backend/internal/auth"
	"github.com/novameet/backend/internal/middleware"
	"github.com/novameet/backend/internal/presence"
	"github.com/novameet/backend/internal/realtime"
	"github.com/novameet/backend/internal/rooms"
	"github.com/novameet/backend/pkg/redis"
	"github.com/novameet/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	registry := realtime.NewRegistry(logger, cfg.Room.ChatHistoryLimit)
	directory := rooms.NewDirectory()
	registry.SetTitleLookup(directory.TitleFor)

	roomHandler := rooms.NewHandler(directory, registry)

	// Optional external sink for peak counts and chat archiving. The room
	// coordinator never depends on it.
	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Warn("presence sink disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			tracker := presence.NewTracker(rdb.Client, logger)
			registry.SetPresenceHandler(tracker.RecordPresence)
			registry.SetChatHandler(tracker.ArchiveChat)
			roomHandler.SetPeakLookup(tracker.PeakParticipants)
		}
	}

	validate := func(token string) (userID, displayName string, isHost bool, err error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return "", "", false, err
		}
		return claims.UserID, claims.Name, claims.Host, nil
	}

	wsOpts := realtime.WSOptions{
		SendBuffer:   cfg.Room.SendBuffer,
		ReadLimit:    cfg.Room.ReadLimit,
		PingInterval: time.Duration(cfg.Room.PingIntervalSec) * time.Second,
		PongWait:     time.Duration(cfg.Room.PongWaitSec) * time.Second,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Room directory (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		api.POST("/rooms", roomHandler.Create)
		api.POST("/rooms/join", roomHandler.Join)
		api.GET("/rooms/:id/info", roomHandler.Info)
	}

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", realtime.ServeWs(registry, logger, validate, wsOpts))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	// End every live room so connected clients get meeting-ended and each
	// session runs its disconnect cleanup.
	registry.Shutdown()
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
