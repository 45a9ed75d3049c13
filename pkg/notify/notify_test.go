package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/angelmondragon/storefront-catalog/pkg/enums"
)

func TestNewEventStampsEnvelope(t *testing.T) {
	ev := NewEvent(enums.NotificationCartUpdated, "view-1", json.RawMessage(`{"items":1}`))
	if ev.EventID == "" || ev.OccurredAt.IsZero() || ev.Version != envelopeVersion {
		t.Fatalf("envelope not stamped: %+v", ev)
	}
	if ev.Type != enums.NotificationCartUpdated || ev.ViewID != "view-1" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestMemoryBusFiltersByView(t *testing.T) {
	bus := NewMemoryBus()
	mine, stopMine := bus.Subscribe("view-1")
	defer stopMine()
	all, stopAll := bus.Subscribe("")
	defer stopAll()

	ctx := context.Background()
	if err := bus.Publish(ctx, NewEvent(enums.NotificationCartOpened, "view-2", nil)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := bus.Publish(ctx, NewEvent(enums.NotificationCartUpdated, "view-1", nil)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	got := <-mine
	if got.ViewID != "view-1" || got.Type != enums.NotificationCartUpdated {
		t.Fatalf("unexpected event for view-1: %+v", got)
	}
	select {
	case extra := <-mine:
		t.Fatalf("view-1 received foreign event %+v", extra)
	default:
	}
	if first, second := <-all, <-all; first.ViewID != "view-2" || second.ViewID != "view-1" {
		t.Fatalf("wildcard subscriber lost ordering: %s, %s", first.ViewID, second.ViewID)
	}
}

func TestMemoryBusUnsubscribeClosesChannel(t *testing.T) {
	bus := NewMemoryBus()
	ch, stop := bus.Subscribe("view-1")
	stop()
	stop()
	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel")
	}
	if err := bus.Publish(context.Background(), NewEvent(enums.NotificationCartOpened, "view-1", nil)); err != nil {
		t.Fatalf("publish after unsubscribe: %v", err)
	}
}

func TestMemoryBusDropsWhenFull(t *testing.T) {
	bus := NewMemoryBus()
	_, stop := bus.Subscribe("")
	defer stop()
	for i := 0; i < defaultBuffer*2; i++ {
		if err := bus.Publish(context.Background(), NewEvent(enums.NotificationCartOpened, "v", nil)); err != nil {
			t.Fatalf("publish must not block or fail: %v", err)
		}
	}
}

type fakeResult struct {
	id  string
	err error
}

func (r fakeResult) Get(context.Context) (string, error) {
	return r.id, r.err
}

type fakePublisher struct {
	messages []*gcppubsub.Message
	err      error
}

func (p *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	p.messages = append(p.messages, msg)
	return fakeResult{id: "msg-1", err: p.err}
}

func TestPubSubBusPublishesEnvelope(t *testing.T) {
	pub := &fakePublisher{}
	bus := newPubSubBus(pub)
	ev := NewEvent(enums.NotificationCartUpdated, "view-9", json.RawMessage(`{"count":2}`))
	if err := bus.Publish(context.Background(), ev); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(pub.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(pub.messages))
	}
	msg := pub.messages[0]
	if msg.Attributes["event_type"] != "cart.updated" || msg.Attributes["view_id"] != "view-9" {
		t.Fatalf("unexpected attributes %v", msg.Attributes)
	}
	if msg.OrderingKey != "view-9" {
		t.Fatalf("events should be ordered per view, got key %q", msg.OrderingKey)
	}
	var decoded Event
	if err := json.Unmarshal(msg.Data, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.EventID != ev.EventID || string(decoded.Data) != `{"count":2}` {
		t.Fatalf("unexpected payload %+v", decoded)
	}
}

func TestPubSubBusReportsAckFailureInBackground(t *testing.T) {
	boom := errors.New("unavailable")
	bus := newPubSubBus(&fakePublisher{err: boom})
	var (
		mu       sync.Mutex
		reported []error
	)
	bus.report = func(_ context.Context, _ Event, err error) {
		mu.Lock()
		reported = append(reported, err)
		mu.Unlock()
	}

	if err := bus.Publish(context.Background(), NewEvent(enums.NotificationCartOpened, "", nil)); err != nil {
		t.Fatalf("publish should return after hand-off, got %v", err)
	}
	bus.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(reported) != 1 || !errors.Is(reported[0], boom) {
		t.Fatalf("expected one reported ack failure, got %v", reported)
	}
}

type blockingResult struct {
	release chan struct{}
}

func (r blockingResult) Get(ctx context.Context) (string, error) {
	select {
	case <-r.release:
		return "msg-1", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

type blockingPublisher struct {
	result blockingResult
}

func (p *blockingPublisher) Publish(context.Context, *gcppubsub.Message) publishResult {
	return p.result
}

func TestPubSubBusPublishDoesNotWaitForAck(t *testing.T) {
	pub := &blockingPublisher{result: blockingResult{release: make(chan struct{})}}
	bus := newPubSubBus(pub)
	bus.report = func(_ context.Context, _ Event, err error) {
		t.Errorf("unexpected ack failure: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- bus.Publish(ctx, NewEvent(enums.NotificationCartUpdated, "view-1", nil))
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("publish: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("publish blocked on the server ack")
	}

	// The ack survives the caller's context ending.
	cancel()
	close(pub.result.release)
	bus.Stop()
}

func TestNewPubSubBusRequiresPublisher(t *testing.T) {
	if _, err := NewPubSubBus(nil, nil); err == nil {
		t.Fatalf("expected error for nil publisher")
	}
}

type recordingBus struct {
	events []Event
	err    error
}

func (b *recordingBus) Publish(_ context.Context, event Event) error {
	b.events = append(b.events, event)
	return b.err
}

func TestMultiPublishesToEveryBus(t *testing.T) {
	first := &recordingBus{err: errors.New("first down")}
	second := &recordingBus{}
	bus := Multi(first, nil, second)

	err := bus.Publish(context.Background(), NewEvent(enums.NotificationCartUpdated, "view-1", nil))
	if err == nil || err.Error() != "first down" {
		t.Fatalf("expected the first bus error, got %v", err)
	}
	if len(first.events) != 1 || len(second.events) != 1 {
		t.Fatalf("every bus should see the event: %d, %d", len(first.events), len(second.events))
	}
}

func TestMultiWithSingleBusReturnsIt(t *testing.T) {
	only := NewMemoryBus()
	if got := Multi(only); got != Bus(only) {
		t.Fatalf("expected the bus itself, got %T", got)
	}
}

func TestMultiFeedsMemorySubscribers(t *testing.T) {
	local := NewMemoryBus()
	events, stop := local.Subscribe("view-1")
	defer stop()
	bus := Multi(local, &recordingBus{err: errors.New("remote down")})

	if err := bus.Publish(context.Background(), NewEvent(enums.NotificationCartOpened, "view-1", nil)); err == nil {
		t.Fatalf("expected the remote failure to surface")
	}
	select {
	case got := <-events:
		if got.Type != enums.NotificationCartOpened {
			t.Fatalf("unexpected event %+v", got)
		}
	default:
		t.Fatalf("local subscriber missed the event")
	}
}
