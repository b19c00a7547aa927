package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/agrolink/farmlink/internal/domain"
)

// memoryQueueDepth bounds each in-process queue.
const memoryQueueDepth = 1024

// Memory is an in-process broker used by the default configuration and by
// tests. Queues are FIFO and deliver-once; a failed handler drops the
// message, matching the AMQP subscriber's reject-without-requeue policy.
type Memory struct {
	mu     sync.Mutex
	queues map[string]*memoryQueue
}

type memoryQueue struct {
	msgs chan []byte
}

// NewMemory creates an empty in-process broker.
func NewMemory() *Memory {
	return &Memory{queues: make(map[string]*memoryQueue)}
}

// queue returns the named queue, creating it on first use. Creation is
// idempotent, mirroring AMQP topology declaration.
func (b *Memory) queue(name string) *memoryQueue {
	b.mu.Lock()
	defer b.mu.Unlock()

	q, ok := b.queues[name]
	if !ok {
		q = &memoryQueue{msgs: make(chan []byte, memoryQueueDepth)}
		b.queues[name] = q
	}
	return q
}

// MemoryPublisher sends envelopes to one in-process queue.
type MemoryPublisher[T any] struct {
	queue *memoryQueue
	name  string
}

// NewMemoryPublisher creates a publisher for the given queue name.
func NewMemoryPublisher[T any](b *Memory, name string) *MemoryPublisher[T] {
	return &MemoryPublisher[T]{queue: b.queue(name), name: name}
}

// Publish serializes the envelope and appends it to the queue.
func (p *MemoryPublisher[T]) Publish(ctx context.Context, event domain.Envelope[T]) error {
	body, err := event.Marshal()
	if err != nil {
		return fmt.Errorf("failed to serialize event for %s: %w", p.name, err)
	}

	select {
	case p.queue.msgs <- body:
		return nil
	default:
		return fmt.Errorf("queue %s is full", p.name)
	}
}

// MemorySubscriber consumes from one in-process queue.
type MemorySubscriber[T any] struct {
	queue *memoryQueue
	name  string
}

// NewMemorySubscriber creates a subscriber for the given queue name.
func NewMemorySubscriber[T any](b *Memory, name string) *MemorySubscriber[T] {
	return &MemorySubscriber[T]{queue: b.queue(name), name: name}
}

// Get pops the head of the queue, or returns nil when it is empty. The
// message is consumed on fetch, like an auto-acknowledged AMQP pull.
func (s *MemorySubscriber[T]) Get(ctx context.Context) (*domain.Envelope[T], error) {
	select {
	case body := <-s.queue.msgs:
		var env domain.Envelope[T]
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("failed to decode event from %s: %w", s.name, err)
		}
		return &env, nil
	default:
		return nil, nil
	}
}

// Subscribe starts a consumer goroutine that drains the queue, backlog
// included, until ctx is cancelled. Decode and handler failures are
// logged and the message is dropped.
func (s *MemorySubscriber[T]) Subscribe(ctx context.Context, handler domain.Handler[T]) error {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case body := <-s.queue.msgs:
				var event T
				if err := json.Unmarshal(body, &event); err != nil {
					slog.Error("unable to decode event",
						"queue", s.name,
						"error", err,
					)
					continue
				}
				if err := handler(ctx, event); err != nil {
					slog.Error("unable to process event",
						"queue", s.name,
						"error", err,
					)
				}
			}
		}
	}()

	return nil
}
