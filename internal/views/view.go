package views

import (
	"sync"
	"time"

	"github.com/angelmondragon/storefront-catalog/internal/cartfeedback"
	"github.com/angelmondragon/storefront-catalog/internal/catalog"
	"github.com/angelmondragon/storefront-catalog/internal/detail"
	"github.com/angelmondragon/storefront-catalog/internal/listing"
	"github.com/angelmondragon/storefront-catalog/pkg/i18n"
	"github.com/angelmondragon/storefront-catalog/pkg/logger"
	"github.com/angelmondragon/storefront-catalog/pkg/metrics"
	"github.com/angelmondragon/storefront-catalog/pkg/money"
	"github.com/angelmondragon/storefront-catalog/pkg/notify"
)

// View is the state of one browser tab: its listing and detail overlay.
type View struct {
	ID      string
	Listing *listing.View
	Detail  *detail.Session
	Address *listing.MemoryAddressBar

	mu       sync.Mutex
	lastSeen time.Time
}

func (v *View) touch(now time.Time) {
	v.mu.Lock()
	v.lastSeen = now
	v.mu.Unlock()
}

func (v *View) idleSince() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastSeen
}

func (v *View) close() {
	v.Listing.Close()
	v.Detail.Shutdown()
}

// Upstream is everything a view needs from the store backend.
type Upstream interface {
	catalog.Searcher
	detail.ProductLoader
	detail.CartAdder
}

// Builder assembles views sharing one upstream, bus and formatter.
type Builder struct {
	Upstream      Upstream
	Bus           notify.Bus
	Messages      *i18n.Catalog
	Money         *money.Formatter
	Logger        *logger.Logger
	Metrics       *metrics.StorefrontMetrics
	ListingPath   string
	FallbackImage string
	FeedbackDelay time.Duration
}

// Build wires a fresh view.
func (b Builder) Build(id string) *View {
	logg := b.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	bar := &listing.MemoryAddressBar{}
	exec := catalog.NewExecutor(catalog.ExecutorParams{
		Searcher: b.Upstream,
		Messages: b.Messages,
		Logger:   logg,
		Metrics:  b.Metrics,
	})
	return &View{
		ID:      id,
		Address: bar,
		Listing: listing.NewView(listing.Params{
			Path:       b.ListingPath,
			Executor:   exec,
			AddressBar: bar,
			Messages:   b.Messages,
			Money:      b.Money,
		}),
		Detail: detail.NewSession(detail.Params{
			ViewID:        id,
			Loader:        b.Upstream,
			Cart:          b.Upstream,
			Bus:           b.Bus,
			Messages:      b.Messages,
			Money:         b.Money,
			Logger:        logg,
			Metrics:       b.Metrics,
			FallbackImage: b.FallbackImage,
			Feedback:      []cartfeedback.Option{cartfeedback.WithDelay(b.FeedbackDelay)},
		}),
	}
}
