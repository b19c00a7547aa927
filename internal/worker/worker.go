// Package worker runs the monitor's background event consumer.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/agrolink/farmlink/internal/domain"
)

// DeviceEventHandler processes one device event envelope.
type DeviceEventHandler = domain.Handler[domain.Envelope[domain.Device]]

// Worker consumes device events from the broker and hands each envelope
// to the projector. It owns the consumer's lifecycle: Start registers the
// subscription, Stop cancels it.
type Worker struct {
	subscriber domain.Subscriber[domain.Envelope[domain.Device]]
	handler    DeviceEventHandler
	logger     *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a worker over the given subscription and handler.
func New(
	subscriber domain.Subscriber[domain.Envelope[domain.Device]],
	handler DeviceEventHandler,
	logger *slog.Logger,
) *Worker {
	return &Worker{
		subscriber: subscriber,
		handler:    handler,
		logger:     logger.With("service", "worker"),
	}
}

// Start begins consuming device events. It returns once the subscription
// is registered; consumption continues in the background until Stop is
// called or the parent context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		return fmt.Errorf("worker already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	if err := w.subscriber.Subscribe(ctx, w.handler); err != nil {
		cancel()
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	go func() {
		<-ctx.Done()
		close(done)
	}()

	w.cancel = cancel
	w.done = done
	w.logger.Info("worker started")
	return nil
}

// Stop cancels the subscription and waits for the consumer to wind down.
// Stopping a worker that never started is a no-op.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
	w.logger.Info("worker stopped")
}
