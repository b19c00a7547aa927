package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/agrolink/farmlink/internal/domain"
)

// AMQPSubscriber consumes from one logical queue over AMQP. Get pulls a
// single message with auto-acknowledge; Subscribe registers a long-lived
// consumer with manual acknowledgment.
type AMQPSubscriber[T any] struct {
	conn  *Conn
	queue string
}

// NewAMQPSubscriber creates a subscriber for the given queue name.
func NewAMQPSubscriber[T any](conn *Conn, queue string) *AMQPSubscriber[T] {
	return &AMQPSubscriber[T]{conn: conn, queue: queue}
}

// Get performs one non-blocking fetch with auto-acknowledge. The broker
// marks the message consumed on fetch regardless of what the caller does
// with it, so a crash after Get loses the message. Returns nil when the
// queue is empty.
func (s *AMQPSubscriber[T]) Get(ctx context.Context) (*domain.Envelope[T], error) {
	ch, err := s.conn.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel for %s: %w", s.queue, err)
	}
	defer ch.Close()

	if err := declareTopology(ch, s.queue); err != nil {
		return nil, err
	}

	msg, ok, err := ch.Get(s.queue, true)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from %s: %w", s.queue, err)
	}
	if !ok {
		return nil, nil
	}

	var env domain.Envelope[T]
	if err := json.Unmarshal(msg.Body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode event from %s: %w", s.queue, err)
	}
	return &env, nil
}

// Subscribe declares and binds the topology and registers a long-lived
// consumer on its own channel. Each delivery is decoded as T and handed
// to the handler synchronously: success acknowledges the message, failure
// rejects it without requeue. The consumer stops when ctx is cancelled or
// the channel closes.
func (s *AMQPSubscriber[T]) Subscribe(ctx context.Context, handler domain.Handler[T]) error {
	ch, err := s.conn.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel for %s: %w", s.queue, err)
	}

	if err := bindQueue(ch, s.queue); err != nil {
		ch.Close()
		return err
	}

	deliveries, err := ch.Consume(s.queue, "", false, false, false, false, nil)
	if err != nil {
		ch.Close()
		return fmt.Errorf("failed to start consumer on %s: %w", s.queue, err)
	}

	slog.Info("consuming events", "queue", s.queue)

	go func() {
		defer ch.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				s.dispatch(ctx, d, handler)
			}
		}
	}()

	return nil
}

// dispatch decodes one delivery and decides its acknowledgment. The
// database write inside the handler completes, or fails, before the ack
// decision is made. A rejected message is dropped, not redelivered.
func (s *AMQPSubscriber[T]) dispatch(ctx context.Context, d amqp.Delivery, handler domain.Handler[T]) {
	var event T
	if err := json.Unmarshal(d.Body, &event); err != nil {
		slog.Error("unable to decode event",
			"queue", s.queue,
			"error", err,
		)
		_ = d.Nack(false, false)
		return
	}

	if err := handler(ctx, event); err != nil {
		slog.Error("unable to process event",
			"queue", s.queue,
			"error", err,
		)
		_ = d.Nack(false, false)
		return
	}

	_ = d.Ack(false)
}
