// internal/events/bus.go
package events

import (
	"sync"

	"go.uber.org/zap"

	"github.com/unclebandit/outreach-engine/internal/model"
)

// DefaultBufferSize is the per-subscriber queue depth. A subscriber that
// falls this far behind starts losing its oldest events.
const DefaultBufferSize = 64

// Subscription is one observer's private delivery queue for a single
// campaign. Events arrive in publish order; when the queue is full the
// oldest event is dropped and the dropped counter incremented.
type Subscription struct {
	campaignID string
	ch         chan model.Event

	mu      sync.Mutex
	dropped int
	closed  bool
}

// Events returns the receive side of the subscription queue. The channel is
// closed on Unsubscribe and when the bus shuts down.
func (s *Subscription) Events() <-chan model.Event {
	return s.ch
}

// Dropped reports how many events were discarded because the subscriber
// couldn't keep up.
func (s *Subscription) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// deliver enqueues without ever blocking the publisher. On overflow it pops
// the oldest queued event to make room.
func (s *Subscription) deliver(ev model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.ch <- ev:
			return
		default:
		}
		select {
		case <-s.ch:
			s.dropped++
		default:
		}
	}
}

func (s *Subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// Bus multicasts campaign events to live observers. Within one campaign,
// every subscriber sees events in publish order; across campaigns there is
// no ordering contract. Subscribing only yields future events, so callers
// wanting full history must read the campaign snapshot first.
type Bus struct {
	mu      sync.RWMutex
	subs    map[string][]*Subscription
	bufSize int
	log     *zap.Logger
}

// NewBus creates a bus with the given per-subscriber queue depth.
// bufSize <= 0 falls back to DefaultBufferSize.
func NewBus(bufSize int, log *zap.Logger) *Bus {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{
		subs:    make(map[string][]*Subscription),
		bufSize: bufSize,
		log:     log,
	}
}

// Subscribe registers a new delivery queue for the campaign.
func (b *Bus) Subscribe(campaignID string) *Subscription {
	sub := &Subscription{
		campaignID: campaignID,
		ch:         make(chan model.Event, b.bufSize),
	}
	b.mu.Lock()
	b.subs[campaignID] = append(b.subs[campaignID], sub)
	b.mu.Unlock()
	return sub
}

// Unsubscribe removes the subscription and closes its channel. No-op if the
// subscription is unknown or already removed.
func (b *Bus) Unsubscribe(campaignID string, sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	list := b.subs[campaignID]
	for i, s := range list {
		if s == sub {
			b.subs[campaignID] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(b.subs[campaignID]) == 0 {
		delete(b.subs, campaignID)
	}
	b.mu.Unlock()
	sub.close()
}

// Publish delivers the event to every current subscriber of the campaign.
// Publishers are never blocked by slow consumers; each subscription owns an
// independent queue. The read lock is held for the whole iteration so a
// concurrent Unsubscribe can't compact the subscriber list mid-delivery;
// deliver never blocks, so the hold is brief.
func (b *Bus) Publish(campaignID string, ev model.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs[campaignID] {
		sub.deliver(ev)
	}
}

// SubscriberCount reports live subscriptions for a campaign.
func (b *Bus) SubscriberCount(campaignID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[campaignID])
}
