// internal/queue/queue.go
package queue

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TopicOutreachSends carries queued channel sends for the delivery worker.
const TopicOutreachSends = "outreach_sends"

// Queue decouples the execution stage from delivery.
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue is an in-process Queue for single-binary deployments that
// run without a broker. Each published job is handed to every subscriber
// with bounded retry.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error
	log      *zap.Logger
}

// NewInMemoryQueue creates an empty in-memory queue.
func NewInMemoryQueue(log *zap.Logger) *InMemoryQueue {
	if log == nil {
		log = zap.NewNop()
	}
	return &InMemoryQueue{
		handlers: make(map[string][]func(payload any) error),
		log:      log,
	}
}

// jobEnvelope wraps a payload with retry bookkeeping.
type jobEnvelope struct {
	payload    any
	retryCount int
	maxRetries int
}

// Publish delivers the payload to every subscriber of the topic. Handlers
// run asynchronously; a failing handler is retried with backoff up to its
// retry budget and then dropped.
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	job := jobEnvelope{payload: payload, maxRetries: 3}
	for _, handler := range handlers {
		go q.processJob(topic, handler, job)
	}
	return nil
}

func (q *InMemoryQueue) processJob(topic string, handler func(payload any) error, job jobEnvelope) {
	for {
		err := handler(job.payload)
		if err == nil {
			return
		}
		job.retryCount++
		q.log.Warn("queue handler failed",
			zap.String("topic", topic),
			zap.Int("attempt", job.retryCount),
			zap.Int("max", job.maxRetries),
			zap.Error(err))
		if job.retryCount > job.maxRetries {
			q.log.Error("job permanently failed", zap.String("topic", topic), zap.Error(err))
			return
		}
		time.Sleep(time.Duration(job.retryCount*500) * time.Millisecond)
	}
}

// Subscribe registers a handler for a topic.
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}
