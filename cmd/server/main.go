// cmd/server/main.go
package main

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/unclebandit/outreach-engine/internal/agents"
	"github.com/unclebandit/outreach-engine/internal/config"
	"github.com/unclebandit/outreach-engine/internal/db"
	"github.com/unclebandit/outreach-engine/internal/events"
	"github.com/unclebandit/outreach-engine/internal/handler"
	"github.com/unclebandit/outreach-engine/internal/queue"
	"github.com/unclebandit/outreach-engine/internal/registry"
	"github.com/unclebandit/outreach-engine/internal/repository"
	"github.com/unclebandit/outreach-engine/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg.Debug)
	defer logger.Sync()

	// Storage: Postgres when configured, memory otherwise. A run still
	// completes without a database; only the sanitized record is lost on
	// restart.
	var store agents.RunStore
	if dsn := cfg.DSN(); dsn != "" {
		conn, err := db.Open(dsn)
		if err != nil {
			logger.Fatal("database connection failed", zap.Error(err))
		}
		defer conn.Close()
		repo := &repository.OutreachRepository{DB: conn}
		if err := repo.EnsureSchema(context.Background()); err != nil {
			logger.Fatal("schema setup failed", zap.Error(err))
		}
		store = repo
		logger.Info("✅ connected to Postgres")
	} else {
		logger.Warn("no database configured, persisting runs in memory only")
		store = repository.NewMemoryStore()
	}

	// Delivery: email and sms go through RabbitMQ to cmd/worker when the
	// broker is reachable; otherwise every channel falls back to mock sends.
	senders := map[string]agents.Sender{}
	if amqpQueue, err := queue.DialAMQP(cfg.AMQPURL); err != nil {
		logger.Warn("RabbitMQ not reachable, using mock senders", zap.Error(err))
	} else {
		defer amqpQueue.Close()
		qs := &agents.QueueSender{Queue: amqpQueue, Topic: queue.TopicOutreachSends}
		senders["email"] = qs
		senders["sms"] = qs
		logger.Info("✅ connected to RabbitMQ")
	}

	bus := events.NewBus(cfg.EventBuffer, logger)
	reg := registry.New(bus, logger)
	workers := agents.NewWorkerSet(store, senders, logger)

	driver, err := workflow.NewDriver(reg, workers, cfg.Channels, logger)
	if err != nil {
		logger.Fatal("driver setup failed", zap.Error(err))
	}

	h := &handler.CampaignHandler{Registry: reg, Driver: driver, Log: logger}

	r := chi.NewRouter()
	h.Routes(r)

	logger.Info("🚀 server running", zap.String("addr", cfg.Addr))
	if err := http.ListenAndServe(cfg.Addr, r); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(debug bool) *zap.Logger {
	zcfg := zap.NewProductionConfig()
	if debug {
		zcfg = zap.NewDevelopmentConfig()
	}
	logger, err := zcfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
