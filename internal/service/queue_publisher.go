package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/coogmusic/coog-backend/internal/queue"
)

// EventPublisher sends follow events to the broker.  Publishing is best
// effort: a failure is logged by the caller and never undoes a committed
// transition.
type EventPublisher interface {
	PublishFollow(ctx context.Context, ev q.FollowEvent) error
}

// AMQPPublisher publishes to a durable RabbitMQ queue through the default
// exchange.  It dials per message, which keeps it free of connection state
// at the cost of a handshake per event.
type AMQPPublisher struct {
	URL   string
	Queue string
}

// PublishFollow marshals ev and publishes it as a persistent message.
func (p *AMQPPublisher) PublishFollow(ctx context.Context, ev q.FollowEvent) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal follow event: %w", err)
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.Queue, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}
