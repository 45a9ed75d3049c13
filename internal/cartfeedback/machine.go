// Package cartfeedback drives the transient add-to-cart status shown next to
// the button: idle, loading, then success or error until the delay expires.
package cartfeedback

import (
	"errors"
	"sync"
	"time"

	"github.com/angelmondragon/storefront-catalog/internal/storeapi"
	"github.com/angelmondragon/storefront-catalog/internal/variant"
	"github.com/angelmondragon/storefront-catalog/pkg/enums"
	"github.com/angelmondragon/storefront-catalog/pkg/i18n"
)

// DefaultDelay is how long success and error stay visible.
const DefaultDelay = 2500 * time.Millisecond

var (
	// ErrBusy is returned while an add is already in flight.
	ErrBusy = errors.New("add to cart already in progress")
	// ErrNotOrderable is returned when the selection has no in-stock SKU.
	ErrNotOrderable = errors.New("selection is not orderable")
)

// Timer is the part of *time.Timer the machine needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it once wrapped.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// State is what the view renders.
type State struct {
	Phase   enums.FeedbackPhase `json:"phase"`
	Message string              `json:"message"`
}

// Ticket identifies one add attempt. Outcomes carrying a stale ticket are dropped.
type Ticket uint64

// Machine is safe for concurrent use.
type Machine struct {
	delay     time.Duration
	afterFunc AfterFunc
	messages  *i18n.Catalog
	onChange  func(State)

	mu    sync.Mutex
	gen   uint64
	state State
	timer Timer
}

// Option configures a Machine.
type Option func(*Machine)

// WithDelay overrides the expiry delay.
func WithDelay(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.delay = d
		}
	}
}

// WithAfterFunc swaps the timer source, mostly for tests.
func WithAfterFunc(fn AfterFunc) Option {
	return func(m *Machine) {
		if fn != nil {
			m.afterFunc = fn
		}
	}
}

// WithOnChange registers a callback invoked after every transition, outside the lock.
func WithOnChange(fn func(State)) Option {
	return func(m *Machine) {
		m.onChange = fn
	}
}

// New returns an idle machine.
func New(messages *i18n.Catalog, opts ...Option) *Machine {
	if messages == nil {
		messages = i18n.For("")
	}
	m := &Machine{
		delay:     DefaultDelay,
		afterFunc: realAfterFunc,
		messages:  messages,
		state:     State{Phase: enums.FeedbackIdle},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current phase and message.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Busy reports whether an add is in flight.
func (m *Machine) Busy() bool {
	return m.State().Phase == enums.FeedbackLoading
}

// Begin starts an add attempt for the resolved SKU. A missing or sold-out SKU
// goes straight to error with shape-specific guidance and returns
// ErrNotOrderable; the loading phase is never entered on that path.
func (m *Machine) Begin(shape enums.VariantShape, sku *storeapi.Sku) (Ticket, error) {
	m.mu.Lock()
	if m.state.Phase == enums.FeedbackLoading {
		m.mu.Unlock()
		return 0, ErrBusy
	}
	m.gen++
	m.stopTimerLocked()
	if sku == nil || !sku.InStock() {
		m.state = State{Phase: enums.FeedbackError, Message: variant.GuidanceFor(shape, m.messages)}
		m.armLocked()
		st := m.state
		m.mu.Unlock()
		m.notify(st)
		return 0, ErrNotOrderable
	}
	m.state = State{Phase: enums.FeedbackLoading, Message: m.messages.Text(i18n.AddingToCart)}
	ticket := Ticket(m.gen)
	st := m.state
	m.mu.Unlock()
	m.notify(st)
	return ticket, nil
}

// Succeed settles the attempt as success. It reports false for stale tickets.
func (m *Machine) Succeed(t Ticket) bool {
	return m.settle(t, State{Phase: enums.FeedbackSuccess, Message: m.messages.Text(i18n.AddedToCart)})
}

// Fail settles the attempt as error. It reports false for stale tickets.
func (m *Machine) Fail(t Ticket) bool {
	return m.settle(t, State{Phase: enums.FeedbackError, Message: m.messages.Text(i18n.AddToCartFailed)})
}

// Reset forces idle, invalidating any in-flight attempt and pending timer.
func (m *Machine) Reset() {
	m.mu.Lock()
	m.gen++
	m.stopTimerLocked()
	changed := m.state.Phase != enums.FeedbackIdle
	m.state = State{Phase: enums.FeedbackIdle}
	st := m.state
	m.mu.Unlock()
	if changed {
		m.notify(st)
	}
}

func (m *Machine) settle(t Ticket, next State) bool {
	m.mu.Lock()
	if uint64(t) != m.gen || m.state.Phase != enums.FeedbackLoading {
		m.mu.Unlock()
		return false
	}
	m.state = next
	m.armLocked()
	st := m.state
	m.mu.Unlock()
	m.notify(st)
	return true
}

func (m *Machine) armLocked() {
	gen := m.gen
	m.timer = m.afterFunc(m.delay, func() { m.expire(gen) })
}

func (m *Machine) expire(gen uint64) {
	m.mu.Lock()
	if gen != m.gen || !m.state.Phase.Settled() {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	m.state = State{Phase: enums.FeedbackIdle}
	st := m.state
	m.mu.Unlock()
	m.notify(st)
}

func (m *Machine) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Machine) notify(st State) {
	if m.onChange != nil {
		m.onChange(st)
	}
}
