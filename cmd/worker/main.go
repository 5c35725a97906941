// cmd/worker/main.go

// Delivery worker: consumes queued channel sends from RabbitMQ, runs the
// provider call and marks the draft record sent. Bounded requeue on
// provider failure, then the message is dropped.
package main

import (
	"context"
	"encoding/json"
	"math/rand"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/unclebandit/outreach-engine/internal/config"
	"github.com/unclebandit/outreach-engine/internal/db"
	"github.com/unclebandit/outreach-engine/internal/model"
	"github.com/unclebandit/outreach-engine/internal/queue"
	"github.com/unclebandit/outreach-engine/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	var repo *repository.OutreachRepository
	if dsn := cfg.DSN(); dsn != "" {
		conn, err := db.Open(dsn)
		if err != nil {
			logger.Fatal("database connection failed", zap.Error(err))
		}
		defer conn.Close()
		repo = &repository.OutreachRepository{DB: conn}
	} else {
		logger.Warn("no database configured, sends will not be recorded")
	}

	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		logger.Fatal("failed to connect to RabbitMQ", zap.Error(err))
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("failed to open channel", zap.Error(err))
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(queue.TopicOutreachSends, true, false, false, false, nil)
	if err != nil {
		logger.Fatal("failed to declare queue", zap.Error(err))
	}

	msgs, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		logger.Fatal("failed to register consumer", zap.Error(err))
	}

	logger.Info("📩 worker running, waiting for sends")
	for d := range msgs {
		var job model.SendJob
		if err := json.Unmarshal(d.Body, &job); err != nil {
			logger.Warn("invalid job, dropping", zap.Error(err))
			d.Ack(false)
			continue
		}

		if err := deliver(job, repo, logger); err != nil {
			logger.Warn("delivery failed",
				zap.String("run_id", job.RunID),
				zap.String("channel", job.Channel),
				zap.Error(err))
			if !d.Redelivered {
				d.Nack(false, true) // one requeue, then drop
				continue
			}
			logger.Error("delivery permanently failed, dropping",
				zap.String("run_id", job.RunID),
				zap.String("channel", job.Channel))
		}
		d.Ack(false)
	}
}

// deliver runs the provider call. Providers are simulated: real channel APIs
// plug in here without touching the consume loop.
func deliver(job model.SendJob, repo *repository.OutreachRepository, logger *zap.Logger) error {
	if err := providerSend(job); err != nil {
		return err
	}
	logger.Info("✅ sent",
		zap.String("run_id", job.RunID),
		zap.String("channel", job.Channel))

	if repo != nil {
		if err := repo.MarkDraftSent(context.Background(), job.RunID, job.Channel); err != nil {
			// The send already happened; a bookkeeping miss is logged, not
			// requeued, or the target would receive duplicates.
			logger.Warn("failed to mark draft sent", zap.Error(err))
		}
	}
	return nil
}

// providerSend simulates the channel provider with a 90% success rate.
func providerSend(model.SendJob) error {
	if rand.Float64() < 0.9 {
		return nil
	}
	return errProviderUnavailable
}

var errProviderUnavailable = errProvider("provider temporarily unavailable")

type errProvider string

func (e errProvider) Error() string { return string(e) }
