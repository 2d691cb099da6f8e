// Package events is the in-process event bus modules use to announce state
// changes to each other without importing one another.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is anything published on a Bus. EventName selects the subscribers.
type Event interface {
	EventName() string
	EventID() uuid.UUID
	OccurredAt() time.Time
}

// BaseEvent is embedded by concrete events for their identity and time.
type BaseEvent struct {
	ID        uuid.UUID `json:"eventId"`
	Timestamp time.Time `json:"timestamp"`
}

// NewBaseEvent stamps a fresh event ID and the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{ID: uuid.New(), Timestamp: time.Now()}
}

func (e BaseEvent) EventID() uuid.UUID    { return e.ID }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// Handler reacts to one published event.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc lets a plain function subscribe.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus delivers events to the handlers subscribed to their name.
type Bus interface {
	// Publish dispatches without waiting; handler errors are only logged.
	Publish(ctx context.Context, event Event)
	// PublishSync runs every handler before returning their joined errors.
	PublishSync(ctx context.Context, event Event) error
	Subscribe(eventName string, handler Handler)
}
