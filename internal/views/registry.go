// Package views keeps one listing + detail state per browser tab and expires
// idle tabs.
package views

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/storefront-catalog/pkg/errors"
	"github.com/angelmondragon/storefront-catalog/pkg/logger"
	"github.com/angelmondragon/storefront-catalog/pkg/metrics"
)

const (
	defaultIdleTTL       = 30 * time.Minute
	defaultSweepInterval = time.Minute
)

var ErrViewNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "view not found")

// RegistryParams configure the registry.
type RegistryParams struct {
	Builder       Builder
	Logger        *logger.Logger
	Metrics       *metrics.StorefrontMetrics
	IdleTTL       time.Duration
	SweepInterval time.Duration
	Now           func() time.Time
}

// Registry owns every live view.
type Registry struct {
	builder  Builder
	logg     *logger.Logger
	metrics  *metrics.StorefrontMetrics
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time

	mu     sync.RWMutex
	views  map[string]*View
	closed bool
}

// NewRegistry builds an empty registry.
func NewRegistry(p RegistryParams) *Registry {
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	if p.IdleTTL <= 0 {
		p.IdleTTL = defaultIdleTTL
	}
	if p.SweepInterval <= 0 {
		p.SweepInterval = defaultSweepInterval
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &Registry{
		builder:  p.Builder,
		logg:     p.Logger,
		metrics:  p.Metrics,
		ttl:      p.IdleTTL,
		interval: p.SweepInterval,
		now:      p.Now,
		views:    map[string]*View{},
	}
}

// Create opens a new view.
func (r *Registry) Create() (*View, error) {
	id := uuid.NewString()
	v := r.builder.Build(id)
	v.touch(r.now())

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		v.close()
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "registry is closed")
	}
	r.views[id] = v
	n := len(r.views)
	r.mu.Unlock()

	r.metrics.SetActiveViews(n)
	return v, nil
}

// Get returns a live view and marks it active.
func (r *Registry) Get(id string) (*View, error) {
	r.mu.RLock()
	v, ok := r.views[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrViewNotFound
	}
	v.touch(r.now())
	return v, nil
}

// Close shuts a view down; no pending response lands after it returns.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	v, ok := r.views[id]
	delete(r.views, id)
	n := len(r.views)
	r.mu.Unlock()
	if !ok {
		return ErrViewNotFound
	}
	v.close()
	r.metrics.SetActiveViews(n)
	return nil
}

// Len reports the number of live views.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.views)
}

// Sweep closes views idle for longer than the TTL and returns how many went.
func (r *Registry) Sweep(ctx context.Context) int {
	cutoff := r.now().Add(-r.ttl)
	var expired []*View

	r.mu.Lock()
	for id, v := range r.views {
		if v.idleSince().Before(cutoff) {
			expired = append(expired, v)
			delete(r.views, id)
		}
	}
	n := len(r.views)
	r.mu.Unlock()

	for _, v := range expired {
		v.close()
	}
	if len(expired) > 0 {
		r.logg.Info(r.logg.WithField(ctx, "expired", len(expired)), "views swept")
	}
	r.metrics.SetActiveViews(n)
	return len(expired)
}

// Run sweeps on a fixed cadence until the context is canceled.
func (r *Registry) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Shutdown closes every view and refuses new ones.
func (r *Registry) Shutdown() error {
	r.mu.Lock()
	r.closed = true
	all := r.views
	r.views = map[string]*View{}
	r.mu.Unlock()

	for _, v := range all {
		v.close()
	}
	r.metrics.SetActiveViews(0)
	return nil
}
