package notify

import (
	"context"
	"testing"
	"time"

	"hemodilab_backend/internal/events"
	"hemodilab_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestPublisherReachesSubscriber(t *testing.T) {
	client := newClient(t)
	log := logger.Discard()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- NewSubscriber(client, log).Run(ctx, func(msg Message) { received <- msg })
	}()

	id := uuid.New()
	event := events.DefinitionsChanged{BaseEvent: events.NewBaseEvent(), DefinitionID: id, Kind: events.DefinitionUpdated}
	publisher := NewPublisher(client, log)

	// The subscription is established asynchronously; keep publishing until
	// the subscriber sees a message.
	deadline := time.After(2 * time.Second)
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		if err := publisher.Handle(ctx, event); err != nil {
			t.Fatalf("publish: %v", err)
		}
		select {
		case msg := <-received:
			if msg.EventID != event.ID.String() || msg.DefinitionID != id.String() || msg.Kind != events.DefinitionUpdated {
				t.Fatalf("unexpected message %+v", msg)
			}
			cancel()
			if err := <-done; err != nil {
				t.Fatalf("expected clean shutdown, got %v", err)
			}
			return
		case <-ticker.C:
		case <-deadline:
			t.Fatal("subscriber never received a message")
		}
	}
}

type otherEvent struct{ events.BaseEvent }

func (otherEvent) EventName() string { return "other" }

func TestPublisherIgnoresOtherEvents(t *testing.T) {
	client := newClient(t)

	if err := NewPublisher(client, logger.Discard()).Handle(context.Background(), otherEvent{}); err != nil {
		t.Fatalf("expected other events to be ignored, got %v", err)
	}
}
