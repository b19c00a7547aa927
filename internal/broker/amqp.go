// Package broker provides event transport implementations for Farmlink.
package broker

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/agrolink/farmlink/internal/domain"
)

// Exchange is the fixed top-level routing point shared process-wide.
const Exchange = "master"

// Conn wraps one AMQP connection. The connection is owned exclusively by
// the publisher or subscriber that created it; publishes and pulls open
// short-lived channels over it, the push consumer holds one for the
// process lifetime.
type Conn struct {
	conn *amqp.Connection
}

// Dial connects to the broker described by cfg.
func Dial(cfg domain.BrokerConfig) (*Conn, error) {
	conn, err := amqp.Dial(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to dial amqp broker at %s: %w", cfg.Host, err)
	}
	return &Conn{conn: conn}, nil
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// routingKey derives the binding key for a queue name.
func routingKey(queue string) string {
	return queue + "_key"
}

// declareTopology declares the exchange and queue. Declarations are
// idempotent: repeating them with identical parameters is safe, so
// publisher and subscriber each declare independently before use.
func declareTopology(ch *amqp.Channel, queue string) error {
	if err := ch.ExchangeDeclare(Exchange, "direct", false, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", Exchange, err)
	}
	// durable, non-auto-delete, non-exclusive
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	return nil
}

// bindQueue declares the topology and binds the queue to the exchange
// under its routing key.
func bindQueue(ch *amqp.Channel, queue string) error {
	if err := declareTopology(ch, queue); err != nil {
		return err
	}
	if err := ch.QueueBind(queue, routingKey(queue), Exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", queue, err)
	}
	return nil
}
