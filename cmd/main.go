package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jgermanis/task-chat-server/internal/api"
	"github.com/jgermanis/task-chat-server/internal/config"
	"github.com/jgermanis/task-chat-server/internal/events"
	"github.com/jgermanis/task-chat-server/internal/logger"
	"github.com/jgermanis/task-chat-server/internal/metrics"
	"github.com/jgermanis/task-chat-server/internal/presence"
	"github.com/jgermanis/task-chat-server/internal/registry"
	"github.com/jgermanis/task-chat-server/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	lg, err := logger.New(cfg.Development())
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	if cfg.PrometheusEnabled {
		metrics.Init()
	}

	names := registry.New()
	hub := ws.NewHub(names, ws.HubOptions{
		IdleTimeout:   cfg.InactivityTimeout,
		SweepInterval: cfg.HeartbeatInterval,
		WriteDeadline: cfg.WriteDeadline,
		SendBuffer:    cfg.SendBufferSize,
		RateLimit:     cfg.RateLimitPerSec,
	}, lg)

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			lg.Warnw("redis unreachable, presence mirror disabled", "addr", cfg.Redis.Addr, "err", err)
		} else {
			hub.Presence = presence.NewStore(rdb, cfg.Redis.Prefix)
		}
	}

	var prod *events.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		prod = events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		hub.Events = prod
	}

	go hub.Run()

	wsh := ws.NewHandler(hub, cfg.MaxMessageSizeBytes, cfg.WriteDeadline, lg)
	app := api.New(cfg, names, hub, wsh, lg)

	errs := make(chan error, 1)
	go func() {
		addr := ":" + cfg.PortString()
		lg.Infow("starting presence relay", "addr", addr)
		errs <- app.Listen(addr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errs:
		lg.Fatalw("server error", "err", err)
	case sig := <-stop:
		lg.Infow("shutdown signal received", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		lg.Warnw("fiber shutdown", "err", err)
	}

	hub.Shutdown()
	if prod != nil {
		_ = prod.Close()
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	lg.Info("shutdown complete")
}
