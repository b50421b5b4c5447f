package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/commercekit/commerce-core/internal/domain"
	"github.com/commercekit/commerce-core/internal/service"
)

// envelope wraps a domain event with delivery metadata.
type envelope struct {
	ID         uuid.UUID        `json:"id"`
	EventType  domain.EventType `json:"event_type"`
	OccurredAt time.Time        `json:"occurred_at"`
	Payload    domain.Event     `json:"payload"`
}

// Publisher dispatches domain events as persistent JSON messages on a topic
// exchange. Routing keys follow the event type, e.g.
// "commerce.order.status_changed".
type Publisher struct {
	client *Client
	logger *zap.Logger
}

var _ service.EventPublisher = (*Publisher)(nil)

func NewPublisher(client *Client, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{client: client, logger: logger}
}

func (p *Publisher) Publish(ctx context.Context, event domain.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !p.client.IsConnected() {
		return fmt.Errorf("rabbitmq connection is down")
	}

	env := envelope{
		ID:         uuid.New(),
		EventType:  event.Type(),
		OccurredAt: event.OccurredAt(),
		Payload:    event,
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("event serialization: %w", err)
	}

	routingKey := fmt.Sprintf("commerce.%s", event.Type())

	err = p.client.Channel().Publish(
		p.client.config.Exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    env.ID.String(),
			Timestamp:    env.OccurredAt,
			Headers: amqp.Table{
				"event_type": string(event.Type()),
			},
		},
	)
	if err != nil {
		return fmt.Errorf("event publish: %w", err)
	}

	p.logger.Debug("event published",
		zap.String("routing_key", routingKey),
		zap.String("event_type", string(event.Type())))
	return nil
}

// PublishWithRetry retries transient publish failures with linear backoff.
func (p *Publisher) PublishWithRetry(ctx context.Context, event domain.Event, maxRetries int) error {
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err := p.Publish(ctx, event); err != nil {
			lastErr = err
			p.logger.Warn("event publish failed",
				zap.Int("attempt", attempt),
				zap.Int("max_retries", maxRetries),
				zap.Error(err))
			if attempt < maxRetries {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(time.Second * time.Duration(attempt)):
				}
				continue
			}
		} else {
			return nil
		}
	}
	return fmt.Errorf("event publish after %d attempts: %w", maxRetries, lastErr)
}
