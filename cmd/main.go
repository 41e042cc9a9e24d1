package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/wilber023/aura-messasing-service/internal/auth"
	"github.com/wilber023/aura-messasing-service/internal/config"
	"github.com/wilber023/aura-messasing-service/internal/directory"
	"github.com/wilber023/aura-messasing-service/internal/handler"
	"github.com/wilber023/aura-messasing-service/internal/hub"
	"github.com/wilber023/aura-messasing-service/internal/kafka"
	"github.com/wilber023/aura-messasing-service/internal/presence"
	"github.com/wilber023/aura-messasing-service/internal/registry"
	"github.com/wilber023/aura-messasing-service/internal/rooms"
	"github.com/wilber023/aura-messasing-service/internal/router"
	"github.com/wilber023/aura-messasing-service/pkg/database"
	"github.com/wilber023/aura-messasing-service/pkg/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log)
	logger := log.L()

	if cfg.Auth.JWTSecret == "" {
		logger.Fatal().Msg("JWT_SECRET is required")
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	logger.Info().Str("driver", cfg.Database.Driver).Msg("connected to database")

	store, err := presence.NewRedisStore(cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer store.Close()
	logger.Info().Str("address", cfg.Redis.Address).Msg("connected to redis")

	users := directory.NewUserDirectory(db)
	members := directory.NewMembershipDirectory(db)

	reg := registry.New()
	roomMgr := rooms.NewManager(members, rooms.Config{
		PageSize:  cfg.AutoJoin.PageSize,
		MaxGroups: cfg.AutoJoin.MaxGroups,
	}, logger)
	tracker := presence.NewTracker(users, store, presence.Config{
		KeyTTL:            cfg.Presence.KeyTTL,
		HeartbeatInterval: cfg.Presence.HeartbeatInterval,
	}, logger)
	rt := router.New(reg, roomMgr, logger)
	decoder := auth.NewHMACDecoder(cfg.Auth.JWTSecret)

	gateway := hub.NewGateway(reg, roomMgr, tracker, rt, decoder, cfg.WebSocket, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go tracker.RunHeartbeat(ctx, reg.OnlineUsers)

	consumer, err := kafka.NewConfluentConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, gateway, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create kafka consumer")
	}
	if err := consumer.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to start kafka consumer")
	}

	wsHandler := handler.NewWSHandler(gateway, logger)
	httpHandler := handler.NewHTTPHandler(gateway, store, logger)

	r := mux.NewRouter()
	r.Use(log.HTTPMiddleware(logger))
	wsHandler.RegisterRoutes(r)
	httpHandler.RegisterRoutes(r)

	server := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     r,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info().Str("address", server.Addr).Msg("realtime gateway listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down realtime gateway")
	cancel()

	// Hijacked websocket conns are invisible to server.Shutdown; close them
	// through the gateway so every session runs its teardown.
	gateway.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("server forced to shutdown")
	}
	if err := consumer.Close(); err != nil {
		logger.Warn().Err(err).Msg("failed to close kafka consumer")
	}

	logger.Info().Msg("realtime gateway stopped")
}
