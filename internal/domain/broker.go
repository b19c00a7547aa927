package domain

import (
	"context"
	"fmt"
)

// Handler processes one decoded event delivered by a push subscriber.
// A non-nil error makes the subscriber reject the message without requeue.
type Handler[T any] func(ctx context.Context, event T) error

// Publisher sends envelopes to one logical broker queue ("broker name").
// Publish is synchronous from the caller's point of view: it returns once
// the broker has accepted the message onto the queue binding. It gives no
// acknowledgment of consumer-side application.
type Publisher[T any] interface {
	Publish(ctx context.Context, event Envelope[T]) error
}

// Subscriber consumes from one logical broker queue.
type Subscriber[T any] interface {
	// Get performs a single non-blocking fetch with auto-acknowledge and
	// returns nil when the queue is empty. The broker marks the message
	// consumed on fetch, so this mode is for request/response style
	// observation, not the production consumption path.
	Get(ctx context.Context) (*Envelope[T], error)

	// Subscribe registers a long-lived consumer with manual acknowledgment.
	// Each delivered message is decoded as T, handed to the handler
	// synchronously, acknowledged on success and rejected without requeue
	// on failure. The consumer stops when ctx is cancelled.
	Subscribe(ctx context.Context, handler Handler[T]) error
}

// BrokerConfig holds configuration for broker initialization.
type BrokerConfig struct {
	// Type is the broker type: "memory" or "amqp"
	Type string `json:"type"`

	// AMQP connection settings
	Host     string `json:"host"`
	User     string `json:"user"`
	Password string `json:"password"`
	Port     int    `json:"port"` // defaults to 5672 if unset

	// Per-channel queue names, one per entity-event stream
	FarmQueue   string `json:"farmQueue"`
	DeviceQueue string `json:"deviceQueue"`
}

// URL builds the AMQP dial string from the connection settings.
func (c BrokerConfig) URL() string {
	port := c.Port
	if port == 0 {
		port = 5672
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", c.User, c.Password, c.Host, port)
}
