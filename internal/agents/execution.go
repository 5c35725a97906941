// internal/agents/execution.go
package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/outreach-engine/internal/model"
	"github.com/unclebandit/outreach-engine/internal/queue"
)

// Sender delivers one draft on one channel. Implementations must report
// failures through the error return; they are recorded per channel and never
// abort the other channels.
type Sender interface {
	Send(ctx context.Context, job model.SendJob) (status string, err error)
}

// ExecutionAgent sends every approved, not-yet-sent draft through its
// channel's sender. Failure isolation lives here: one channel's error lands
// in ExecutionResults and the loop continues.
type ExecutionAgent struct {
	Senders map[string]Sender
	Log     *zap.Logger
}

// Run implements workflow.StageFunc.
func (a *ExecutionAgent) Run(ctx context.Context, st *model.PipelineState) (*model.PipelineState, error) {
	for i := range st.Drafts {
		d := &st.Drafts[i]
		if !d.Approved || d.Sent {
			continue
		}

		job := model.SendJob{
			RunID:      st.RunID,
			TargetHash: st.TargetHash,
			Channel:    d.Channel,
			To:         st.TargetIdentifier,
			Subject:    d.Subject,
			Body:       d.Body,
		}

		sender, ok := a.Senders[d.Channel]
		if !ok {
			sender = &MockSender{Log: a.Log}
		}

		status, err := sender.Send(ctx, job)
		result := model.ExecutionResult{
			Channel:   d.Channel,
			Status:    status,
			Timestamp: time.Now().UTC(),
		}
		if err != nil {
			result.Status = "failed"
			result.Error = err.Error()
			if a.Log != nil {
				a.Log.Warn("channel send failed",
					zap.String("channel", d.Channel), zap.Error(err))
			}
		} else {
			d.Sent = true
		}
		st.ExecutionResults = append(st.ExecutionResults, result)
	}
	return st, nil
}

// MockSender logs the payload instead of delivering it, for channels without
// a real provider wired up. Returns the same status shape as the real
// senders so the execution agent needs no branching.
type MockSender struct {
	Log *zap.Logger
}

// Send implements Sender.
func (s *MockSender) Send(_ context.Context, job model.SendJob) (string, error) {
	if s.Log != nil {
		s.Log.Info("[MOCK SEND]",
			zap.String("channel", strings.ToUpper(job.Channel)),
			zap.String("subject", job.Subject),
			zap.String("body", job.Body))
	}
	return "mock_sent", nil
}

// QueueSender hands the send off to the delivery queue. Delivery happens
// asynchronously in the worker process; from the pipeline's point of view a
// successfully queued send counts as dispatched.
type QueueSender struct {
	Queue queue.Queue
	Topic string
}

// Send implements Sender.
func (s *QueueSender) Send(_ context.Context, job model.SendJob) (string, error) {
	topic := s.Topic
	if topic == "" {
		topic = queue.TopicOutreachSends
	}
	if err := s.Queue.Publish(topic, job); err != nil {
		return "", fmt.Errorf("enqueue %s send: %w", job.Channel, err)
	}
	return "queued", nil
}
