// Package notify fans definition changes out over Redis pub/sub so that a
// mock server running in another process rebuilds its route table without
// waiting for the next periodic tick.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"hemodilab_backend/internal/events"
	"hemodilab_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

// Channel carries one message per definition write.
const Channel = "hemodilab:definitions:changed"

// Message is the payload published on Channel.
type Message struct {
	EventID      string            `json:"eventId"`
	DefinitionID string            `json:"definitionId"`
	Kind         events.ChangeKind `json:"kind"`
	Timestamp    int64             `json:"timestamp"`
}

// Publisher forwards DefinitionsChanged events to Redis.
type Publisher struct {
	client *redis.Client
	log    *logger.Logger
}

// NewPublisher creates a Publisher on client.
func NewPublisher(client *redis.Client, log *logger.Logger) *Publisher {
	return &Publisher{client: client, log: log.WithComponent("notify")}
}

// Handle implements events.Handler.
func (p *Publisher) Handle(ctx context.Context, event events.Event) error {
	changed, ok := event.(events.DefinitionsChanged)
	if !ok {
		return nil
	}

	payload, err := json.Marshal(Message{
		EventID:      changed.EventID().String(),
		DefinitionID: changed.DefinitionID.String(),
		Kind:         changed.Kind,
		Timestamp:    changed.OccurredAt().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("encode change message: %w", err)
	}

	if err := p.client.Publish(ctx, Channel, payload).Err(); err != nil {
		return fmt.Errorf("publish change message: %w", err)
	}
	p.log.Debug("definition change published",
		slog.String("event_id", changed.EventID().String()),
		slog.String("definition_id", changed.DefinitionID.String()),
		slog.String("kind", string(changed.Kind)),
	)
	return nil
}

// Subscriber listens on Channel and calls back on every message.
type Subscriber struct {
	client *redis.Client
	log    *logger.Logger
}

// NewSubscriber creates a Subscriber on client.
func NewSubscriber(client *redis.Client, log *logger.Logger) *Subscriber {
	return &Subscriber{client: client, log: log.WithComponent("notify")}
}

// Run subscribes and blocks until ctx is cancelled or the subscription
// breaks. onChange must not block for long; the registry's Trigger is the
// intended callback.
func (s *Subscriber) Run(ctx context.Context, onChange func(Message)) error {
	pubsub := s.client.Subscribe(ctx, Channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", Channel, err)
	}
	s.log.Info("subscribed to definition changes", slog.String("channel", Channel))

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return fmt.Errorf("subscription to %s closed", Channel)
			}
			var decoded Message
			if err := json.Unmarshal([]byte(msg.Payload), &decoded); err != nil {
				// A malformed payload still means something changed.
				s.log.Warn("malformed change message", slog.String("error", err.Error()))
			}
			onChange(decoded)
		}
	}
}
