package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher publishes notification events to RabbitMQ. It dials per publish
// and never panics; any error is returned so the caller can fall back to a
// direct send without interrupting the request flow.
type Publisher struct {
	url string
}

// NewPublisher returns a publisher for the given broker URL.
func NewPublisher(url string) *Publisher { return &Publisher{url: url} }

// Publish sends one event to the notifications queue. Messages are marked
// persistent and the queue is declared durable so events survive broker
// restarts.
func (p *Publisher) Publish(ctx context.Context, ev NotificationEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Idempotent; keeps publisher and consumer startup order independent.
	if _, err := ch.QueueDeclare(NotificationQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("amqp queue declare: %w", err)
	}

	if ev.EnqueuedAt == "" {
		ev.EnqueuedAt = time.Now().UTC().Format(time.RFC3339)
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", NotificationQueueName, false, false, pub); err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}
