package broker

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/agrolink/farmlink/internal/domain"
)

// AMQPPublisher sends envelopes to one logical queue over AMQP.
type AMQPPublisher[T any] struct {
	conn  *Conn
	queue string
}

// NewAMQPPublisher creates a publisher for the given queue name.
func NewAMQPPublisher[T any](conn *Conn, queue string) *AMQPPublisher[T] {
	return &AMQPPublisher[T]{conn: conn, queue: queue}
}

// Publish opens a short-lived channel, declares and binds the topology,
// and hands the serialized envelope to the broker. It returns once the
// broker has accepted the message. Broker unavailability propagates to
// the caller; the local mutation has already committed by this point.
func (p *AMQPPublisher[T]) Publish(ctx context.Context, event domain.Envelope[T]) error {
	ch, err := p.conn.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel for %s: %w", p.queue, err)
	}
	defer ch.Close()

	if err := bindQueue(ch, p.queue); err != nil {
		return err
	}

	body, err := event.Marshal()
	if err != nil {
		return fmt.Errorf("failed to serialize event for %s: %w", p.queue, err)
	}

	err = ch.PublishWithContext(ctx, Exchange, routingKey(p.queue), false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.queue, err)
	}
	return nil
}
