// internal/model/event.go
package model

import "time"

// EventStageUpdate is the only event type currently emitted. Observers must
// distinguish it from the initial subscription payload, which is a full
// Campaign snapshot rather than an Event.
const EventStageUpdate = "stage_update"

// Event is the immutable record published on every registry mutation.
type Event struct {
	Type      string    `json:"type"`
	Stage     string    `json:"stage"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
