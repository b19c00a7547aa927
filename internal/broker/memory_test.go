package broker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/agrolink/farmlink/internal/domain"
)

const (
	testFarmID   = "1d2b97a6-0000-4000-8000-000000000001"
	testDeviceID = "1d2b97a6-0000-4000-8000-000000000002"
)

func TestMemoryPublishThenGet(t *testing.T) {
	b := NewMemory()
	ctx := context.Background()

	pub := NewMemoryPublisher[domain.Farm](b, "farm_events")
	sub := NewMemorySubscriber[domain.Farm](b, "farm_events")

	env := domain.Envelope[domain.Farm]{
		Event:  domain.Farm{ID: testFarmID, Name: "The Farm"},
		Status: domain.StatusCreate,
	}
	if err := pub.Publish(ctx, env); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	got, err := sub.Get(ctx)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected a message, queue was empty")
	}
	if got.Status != domain.StatusCreate {
		t.Errorf("expected status Create, got %s", got.Status)
	}
	if got.Event.ID != testFarmID {
		t.Errorf("expected event id %s, got %s", testFarmID, got.Event.ID)
	}

	// Queue is consumed on fetch; a second pull finds nothing.
	got, err = sub.Get(ctx)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != nil {
		t.Error("expected empty queue after single pull")
	}
}

func TestMemoryGetEmptyQueue(t *testing.T) {
	b := NewMemory()
	sub := NewMemorySubscriber[domain.Device](b, "device_events")

	got, err := sub.Get(context.Background())
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != nil {
		t.Error("expected nil for empty queue")
	}
}

func TestMemoryFIFOOrder(t *testing.T) {
	b := NewMemory()
	ctx := context.Background()

	pub := NewMemoryPublisher[domain.Device](b, "device_events")
	sub := NewMemorySubscriber[domain.Device](b, "device_events")

	ids := []string{
		"1d2b97a6-0000-4000-8000-00000000000a",
		"1d2b97a6-0000-4000-8000-00000000000b",
		"1d2b97a6-0000-4000-8000-00000000000c",
	}
	for _, id := range ids {
		env := domain.Envelope[domain.Device]{
			Event:  domain.Device{ID: id, FarmID: testFarmID},
			Status: domain.StatusCreate,
		}
		if err := pub.Publish(ctx, env); err != nil {
			t.Fatalf("publish failed: %v", err)
		}
	}

	for i, want := range ids {
		got, err := sub.Get(ctx)
		if err != nil {
			t.Fatalf("get %d failed: %v", i, err)
		}
		if got == nil {
			t.Fatalf("get %d returned empty queue", i)
		}
		if got.Event.ID != want {
			t.Errorf("message %d: expected id %s, got %s", i, want, got.Event.ID)
		}
	}
}

func TestMemorySubscribeDeliversBacklog(t *testing.T) {
	b := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub := NewMemoryPublisher[domain.Device](b, "device_events")
	sub := NewMemorySubscriber[domain.Envelope[domain.Device]](b, "device_events")

	// Published before any consumer exists.
	env := domain.Envelope[domain.Device]{
		Event:  domain.Device{ID: testDeviceID, FarmID: testFarmID},
		Status: domain.StatusCreate,
	}
	if err := pub.Publish(ctx, env); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	var received domain.Envelope[domain.Device]

	err := sub.Subscribe(ctx, func(ctx context.Context, event domain.Envelope[domain.Device]) error {
		received = event
		wg.Done()
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for backlog delivery")
	}

	if received.Status != domain.StatusCreate {
		t.Errorf("expected status Create, got %s", received.Status)
	}
	if received.Event.ID != testDeviceID {
		t.Errorf("expected device id %s, got %s", testDeviceID, received.Event.ID)
	}
}

func TestMemorySubscribeDropsFailedMessage(t *testing.T) {
	b := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub := NewMemoryPublisher[domain.Device](b, "device_events")
	sub := NewMemorySubscriber[domain.Envelope[domain.Device]](b, "device_events")

	var calls atomic.Int32
	err := sub.Subscribe(ctx, func(ctx context.Context, event domain.Envelope[domain.Device]) error {
		calls.Add(1)
		return errors.New("handler failure")
	})
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	env := domain.Envelope[domain.Device]{
		Event:  domain.Device{ID: testDeviceID, FarmID: testFarmID},
		Status: domain.StatusCreate,
	}
	if err := pub.Publish(ctx, env); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	// Wait for the handler to run once.
	deadline := time.Now().Add(time.Second)
	for calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 handler call, got %d", calls.Load())
	}

	// No requeue: the failed message is gone.
	time.Sleep(50 * time.Millisecond)
	if calls.Load() != 1 {
		t.Errorf("expected no redelivery, got %d calls", calls.Load())
	}
}

func TestMemorySubscribeStopsOnCancel(t *testing.T) {
	b := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())

	pub := NewMemoryPublisher[domain.Device](b, "device_events")
	sub := NewMemorySubscriber[domain.Envelope[domain.Device]](b, "device_events")

	var calls atomic.Int32
	if err := sub.Subscribe(ctx, func(ctx context.Context, event domain.Envelope[domain.Device]) error {
		calls.Add(1)
		return nil
	}); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	cancel()
	time.Sleep(20 * time.Millisecond)

	env := domain.Envelope[domain.Device]{
		Event:  domain.Device{ID: testDeviceID, FarmID: testFarmID},
		Status: domain.StatusCreate,
	}
	if err := pub.Publish(context.Background(), env); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if calls.Load() != 0 {
		t.Errorf("expected no deliveries after cancel, got %d", calls.Load())
	}
}

func TestRoutingKey(t *testing.T) {
	if got := routingKey("device_events"); got != "device_events_key" {
		t.Errorf("expected device_events_key, got %s", got)
	}
}
