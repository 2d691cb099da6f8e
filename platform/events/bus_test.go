package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"hemodilab_backend/platform/logger"
)

type pingEvent struct {
	BaseEvent
}

func (pingEvent) EventName() string { return "test.ping" }

func TestPublishReachesEverySubscriber(t *testing.T) {
	bus := NewInMemoryBus(logger.Discard())
	var calls atomic.Int32

	for i := 0; i < 3; i++ {
		bus.Subscribe("test.ping", HandlerFunc(func(ctx context.Context, event Event) error {
			calls.Add(1)
			return nil
		}))
	}

	bus.Publish(context.Background(), pingEvent{BaseEvent: NewBaseEvent()})
	bus.Wait()

	if calls.Load() != 3 {
		t.Fatalf("expected 3 handler calls, got %d", calls.Load())
	}
}

func TestPublishDetachesFromCanceledContext(t *testing.T) {
	bus := NewInMemoryBus(logger.Discard())
	var sawCanceled atomic.Bool

	bus.Subscribe("test.ping", HandlerFunc(func(ctx context.Context, event Event) error {
		sawCanceled.Store(ctx.Err() != nil)
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Publish(ctx, pingEvent{BaseEvent: NewBaseEvent()})
	bus.Wait()

	if sawCanceled.Load() {
		t.Fatal("expected handler context to survive publisher cancellation")
	}
}

func TestPublishSyncJoinsHandlerErrors(t *testing.T) {
	bus := NewInMemoryBus(logger.Discard())
	boom := errors.New("boom")

	bus.Subscribe("test.ping", HandlerFunc(func(ctx context.Context, event Event) error { return boom }))
	bus.Subscribe("test.ping", HandlerFunc(func(ctx context.Context, event Event) error { return nil }))

	err := bus.PublishSync(context.Background(), pingEvent{BaseEvent: NewBaseEvent()})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error to contain boom, got %v", err)
	}
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	bus := NewInMemoryBus(logger.Discard())
	bus.Publish(context.Background(), pingEvent{BaseEvent: NewBaseEvent()})
	if err := bus.PublishSync(context.Background(), pingEvent{BaseEvent: NewBaseEvent()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewBaseEventStampsIdentity(t *testing.T) {
	a, b := NewBaseEvent(), NewBaseEvent()
	if a.EventID() == b.EventID() {
		t.Fatal("expected distinct event ids")
	}
	if a.OccurredAt().IsZero() {
		t.Fatal("expected a timestamp")
	}
}
