package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/angelmondragon/storefront-catalog/pkg/logger"
)

const defaultPublishTimeout = 10 * time.Second

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

// PubSubBus publishes events as JSON to a Pub/Sub topic. Publish hands the
// message to the batching publisher and returns; the server ack is awaited in
// the background and failures go to report.
type PubSubBus struct {
	pub     publisher
	marshal func(any) ([]byte, error)
	timeout time.Duration
	report  func(context.Context, Event, error)
	pending sync.WaitGroup
}

// NewPubSubBus wraps a topic publisher, e.g. pubsub.Client.CartPublisher().
// Failed acks are logged through logg.
func NewPubSubBus(p *gcppubsub.Publisher, logg *logger.Logger) (*PubSubBus, error) {
	if p == nil {
		return nil, errors.New("pubsub bus: publisher is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	b := newPubSubBus(&gcpPublisher{Publisher: p})
	b.report = func(ctx context.Context, event Event, err error) {
		ctx = logg.WithFields(ctx, map[string]any{
			"event_id":   event.EventID,
			"event_type": event.Type.String(),
			"view_id":    event.ViewID,
		})
		logg.Error(ctx, "notify.pubsub.publish_failed", err)
	}
	return b, nil
}

func newPubSubBus(p publisher) *PubSubBus {
	return &PubSubBus{
		pub:     p,
		marshal: json.Marshal,
		timeout: defaultPublishTimeout,
		report:  func(context.Context, Event, error) {},
	}
}

// Publish implements Bus. Only marshalling and hand-off errors are returned.
func (b *PubSubBus) Publish(ctx context.Context, event Event) error {
	if b == nil || b.pub == nil {
		return errors.New("pubsub bus: not initialised")
	}
	data, err := b.marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}
	msg := &gcppubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"event_id":    event.EventID,
			"event_type":  event.Type.String(),
			"occurred_at": event.OccurredAt.Format(time.RFC3339Nano),
		},
	}
	if event.ViewID != "" {
		msg.Attributes["view_id"] = event.ViewID
		msg.OrderingKey = event.ViewID
	}

	// The request context ends with the HTTP response; the ack outlives it.
	ackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.timeout)
	result := b.pub.Publish(ackCtx, msg)
	if result == nil {
		cancel()
		return fmt.Errorf("publish %s event: no result", event.Type)
	}
	b.pending.Add(1)
	go func() {
		defer b.pending.Done()
		defer cancel()
		if _, err := result.Get(ackCtx); err != nil {
			b.report(ackCtx, event, fmt.Errorf("publish %s event: %w", event.Type, err))
		}
	}()
	return nil
}

// Stop flushes the publisher and waits for outstanding acks to be reported.
func (b *PubSubBus) Stop() {
	if b == nil {
		return
	}
	if gp, ok := b.pub.(*gcpPublisher); ok && gp.Publisher != nil {
		gp.Publisher.Stop()
	}
	b.pending.Wait()
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

// Publish drops the ordering key when the topic publisher is unordered. A
// failed ordered publish pauses its key, so the key is resumed on error.
func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	if !p.Publisher.EnableMessageOrdering {
		msg.OrderingKey = ""
	}
	return &gcpPublishResult{
		PublishResult: p.Publisher.Publish(ctx, msg),
		resume: func() {
			if msg.OrderingKey != "" {
				p.Publisher.ResumePublish(msg.OrderingKey)
			}
		},
	}
}

type gcpPublishResult struct {
	*gcppubsub.PublishResult
	resume func()
}

func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r == nil || r.PublishResult == nil {
		return "", errors.New("publish result is nil")
	}
	id, err := r.PublishResult.Get(ctx)
	if err != nil && r.resume != nil {
		r.resume()
	}
	return id, err
}
