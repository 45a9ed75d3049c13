package views

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-catalog/internal/storeapi"
	"github.com/angelmondragon/storefront-catalog/pkg/i18n"
)

type fakeUpstream struct{}

func (fakeUpstream) SearchProducts(context.Context, string) (*storeapi.SearchResponse, error) {
	return &storeapi.SearchResponse{Data: []storeapi.ProductSummary{{ID: "1"}}, Pagination: &storeapi.Pagination{Total: 1, TotalPages: 1}}, nil
}

func (fakeUpstream) GetProduct(_ context.Context, id string) (*storeapi.ProductDetail, error) {
	return &storeapi.ProductDetail{ProductSummary: storeapi.ProductSummary{ID: storeapi.ID(id)}}, nil
}

func (fakeUpstream) AddToCart(context.Context, storeapi.AddToCartRequest) (*storeapi.AddToCartResponse, error) {
	return &storeapi.AddToCartResponse{Success: true}, nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newRegistry(c *clock) *Registry {
	return NewRegistry(RegistryParams{
		Builder: Builder{
			Upstream:    fakeUpstream{},
			Messages:    i18n.For("vi"),
			ListingPath: "/products",
		},
		IdleTTL: 10 * time.Minute,
		Now:     c.Now,
	})
}

func TestCreateAndGet(t *testing.T) {
	r := newRegistry(&clock{now: time.Unix(0, 0)})
	v, err := r.Create()
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := r.Get(v.ID)
	if err != nil || got != v {
		t.Fatalf("expected the same view back, got %v / %v", got, err)
	}
	if _, err := r.Get("missing"); !errors.Is(err, ErrViewNotFound) {
		t.Fatalf("expected ErrViewNotFound, got %v", err)
	}
	st, err := v.Listing.Hydrate(context.Background(), "")
	if err != nil || st.Location != "/products?page=1&limit=9&sort=newest" {
		t.Fatalf("unexpected hydrate result %q / %v", st.Location, err)
	}
}

func TestCloseShutsViewDown(t *testing.T) {
	r := newRegistry(&clock{now: time.Unix(0, 0)})
	v, _ := r.Create()
	if err := r.Close(v.ID); err != nil {
		t.Fatalf("close: %v", err)
	}
	if r.Len() != 0 {
		t.Fatalf("expected no views left")
	}
	if _, err := v.Detail.Open(context.Background(), "1"); err == nil {
		t.Fatalf("closed view must refuse work")
	}
	if err := r.Close(v.ID); !errors.Is(err, ErrViewNotFound) {
		t.Fatalf("expected ErrViewNotFound on second close, got %v", err)
	}
}

func TestSweepExpiresIdleViews(t *testing.T) {
	c := &clock{now: time.Unix(1000, 0)}
	r := newRegistry(c)
	idle, _ := r.Create()
	c.Advance(6 * time.Minute)
	active, _ := r.Create()
	c.Advance(5 * time.Minute)
	r.Get(active.ID)

	if n := r.Sweep(context.Background()); n != 1 {
		t.Fatalf("expected one expired view, got %d", n)
	}
	if _, err := r.Get(idle.ID); !errors.Is(err, ErrViewNotFound) {
		t.Fatalf("idle view should be gone")
	}
	if _, err := r.Get(active.ID); err != nil {
		t.Fatalf("active view should survive: %v", err)
	}
}

func TestShutdownRefusesNewViews(t *testing.T) {
	r := newRegistry(&clock{now: time.Unix(0, 0)})
	r.Create()
	if err := r.Shutdown(); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if r.Len() != 0 {
		t.Fatalf("expected every view closed")
	}
	if _, err := r.Create(); err == nil {
		t.Fatalf("expected create to fail after shutdown")
	}
}
