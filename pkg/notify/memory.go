package notify

import (
	"context"
	"sync"
)

const defaultBuffer = 16

// MemoryBus fans events out to in-process subscribers. Slow subscribers lose
// events instead of blocking publishers.
type MemoryBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]*subscription
}

type subscription struct {
	viewID string
	ch     chan Event
}

// NewMemoryBus returns an empty bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: map[int]*subscription{}}
}

// Subscribe receives events for viewID, or every event when viewID is empty.
// The returned func unsubscribes and closes the channel.
func (b *MemoryBus) Subscribe(viewID string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	sub := &subscription{viewID: viewID, ch: make(chan Event, defaultBuffer)}
	b.subs[id] = sub

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(sub.ch)
		})
	}
}

// Publish implements Bus.
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if sub.viewID != "" && sub.viewID != event.ViewID {
			continue
		}
		select {
		case sub.ch <- event:
		default:
		}
	}
	return nil
}
