package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Sender delivers one rendered email. Satisfied by mailer.Mailer.
type Sender interface {
	Send(to, subject, body string) error
}

// StartNotificationConsumer connects to RabbitMQ, declares the durable
// notifications queue and consumes events, delivering each one via the
// sender. It runs a reconnect loop with exponential backoff and keeps the
// server operating through broker outages; delivery failures are logged and
// the message is rejected without requeue so a bad address cannot wedge the
// queue. Run it in its own goroutine.
func StartNotificationConsumer(url string, sender Sender, log zerolog.Logger) {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn().Err(err).Dur("retry_in", backoff).Msg("notification consumer: broker dial failed")
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn, sender, log); err != nil {
			log.Warn().Err(err).Msg("notification consumer: consume loop ended, reconnecting")
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection, sender Sender, log zerolog.Logger) error {
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(20, 0, false); err != nil {
		log.Warn().Err(err).Msg("notification consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(NotificationQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(NotificationQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		var ev NotificationEvent
		if err := json.Unmarshal(d.Body, &ev); err != nil {
			log.Error().Err(err).Msg("notification consumer: bad payload")
			_ = d.Nack(false, false)
			continue
		}
		if err := sender.Send(ev.To, ev.Subject, ev.Body); err != nil {
			// Fire-and-forget: a failed delivery is logged, never retried.
			log.Error().Err(err).Str("kind", ev.Kind).Str("to", ev.To).Msg("notification consumer: send failed")
			_ = d.Nack(false, false)
			continue
		}
		log.Info().Str("kind", ev.Kind).Str("to", ev.To).Msg("notification delivered")
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}
