package events

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/outreach-engine/internal/model"
)

func stageEvent(stage, status string) model.Event {
	return model.Event{
		Type:      model.EventStageUpdate,
		Stage:     stage,
		Status:    status,
		Timestamp: time.Now().UTC(),
	}
}

func TestPublishDeliversInOrder(t *testing.T) {
	bus := NewBus(16, nil)
	sub := bus.Subscribe("c1")

	bus.Publish("c1", stageEvent("ingestion", model.StageRunning))
	bus.Publish("c1", stageEvent("ingestion", model.StageCompleted))
	bus.Publish("c1", stageEvent("persona", model.StageRunning))

	want := []string{"running", "completed", "running"}
	for i, status := range want {
		select {
		case ev := <-sub.Events():
			assert.Equal(t, status, ev.Status, "event %d", i)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
}

func TestEverySubscriberGetsEveryEvent(t *testing.T) {
	bus := NewBus(16, nil)
	a := bus.Subscribe("c1")
	b := bus.Subscribe("c1")

	bus.Publish("c1", stageEvent("ingestion", model.StageRunning))

	for _, sub := range []*Subscription{a, b} {
		select {
		case ev := <-sub.Events():
			assert.Equal(t, "ingestion", ev.Stage)
		case <-time.After(time.Second):
			t.Fatal("subscriber missed the event")
		}
	}
}

func TestEventsAreScopedToCampaign(t *testing.T) {
	bus := NewBus(16, nil)
	sub := bus.Subscribe("c1")

	bus.Publish("c2", stageEvent("ingestion", model.StageRunning))

	select {
	case ev := <-sub.Events():
		t.Fatalf("got event for wrong campaign: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestOverflowDropsOldest(t *testing.T) {
	bus := NewBus(2, nil)
	sub := bus.Subscribe("c1")

	bus.Publish("c1", stageEvent("ingestion", model.StageRunning))
	bus.Publish("c1", stageEvent("persona", model.StageRunning))
	bus.Publish("c1", stageEvent("drafting", model.StageRunning))

	// Oldest event gone, newest two remain in order.
	ev := <-sub.Events()
	assert.Equal(t, "persona", ev.Stage)
	ev = <-sub.Events()
	assert.Equal(t, "drafting", ev.Stage)
	assert.Equal(t, 1, sub.Dropped())
}

func TestSubscribeAfterPublishOnlySeesFutureEvents(t *testing.T) {
	bus := NewBus(16, nil)
	bus.Publish("c1", stageEvent("ingestion", model.StageCompleted))

	sub := bus.Subscribe("c1")
	bus.Publish("c1", stageEvent("persona", model.StageRunning))

	ev := <-sub.Events()
	assert.Equal(t, "persona", ev.Stage)
	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected extra event: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeClosesAndIsIdempotent(t *testing.T) {
	bus := NewBus(16, nil)
	sub := bus.Subscribe("c1")
	require.Equal(t, 1, bus.SubscriberCount("c1"))

	bus.Unsubscribe("c1", sub)
	assert.Equal(t, 0, bus.SubscriberCount("c1"))

	_, open := <-sub.Events()
	assert.False(t, open, "channel should be closed")

	// Removing again, or a nil subscription, must not panic.
	bus.Unsubscribe("c1", sub)
	bus.Unsubscribe("c1", nil)

	// Publishing after unsubscribe is a no-op for this subscriber.
	bus.Publish("c1", stageEvent("persona", model.StageRunning))
}

func TestConcurrentPublishAndUnsubscribe(t *testing.T) {
	const events = 200
	bus := NewBus(events, nil)

	keeper := bus.Subscribe("c1")
	churn := make([]*Subscription, 50)
	for i := range churn {
		churn[i] = bus.Subscribe("c1")
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < events; i++ {
			ev := stageEvent("ingestion", model.StageRunning)
			ev.Message = fmt.Sprintf("%d", i)
			bus.Publish("c1", ev)
		}
	}()
	go func() {
		defer wg.Done()
		for _, sub := range churn {
			bus.Unsubscribe("c1", sub)
		}
	}()
	wg.Wait()

	// The surviving subscriber saw every event exactly once, in order.
	require.Equal(t, 1, bus.SubscriberCount("c1"))
	for i := 0; i < events; i++ {
		select {
		case ev := <-keeper.Events():
			assert.Equal(t, fmt.Sprintf("%d", i), ev.Message, "event %d", i)
		case <-time.After(time.Second):
			t.Fatalf("missing event %d", i)
		}
	}
	assert.Equal(t, 0, keeper.Dropped())
}
