// Package detail runs the product detail overlay of one storefront view.
package detail

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/angelmondragon/storefront-catalog/internal/cartfeedback"
	"github.com/angelmondragon/storefront-catalog/internal/storeapi"
	"github.com/angelmondragon/storefront-catalog/internal/variant"
	"github.com/angelmondragon/storefront-catalog/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-catalog/pkg/errors"
	"github.com/angelmondragon/storefront-catalog/pkg/i18n"
	"github.com/angelmondragon/storefront-catalog/pkg/logger"
	"github.com/angelmondragon/storefront-catalog/pkg/metrics"
	"github.com/angelmondragon/storefront-catalog/pkg/money"
	"github.com/angelmondragon/storefront-catalog/pkg/notify"
)

var (
	ErrSuperseded = pkgerrors.New(pkgerrors.CodeSuperseded, "product load superseded")
	ErrNoProduct  = pkgerrors.New(pkgerrors.CodeStateConflict, "no product is open")
	ErrCartBusy   = pkgerrors.New(pkgerrors.CodeStateConflict, "add to cart already in progress")
	ErrClosed     = pkgerrors.New(pkgerrors.CodeStateConflict, "view is closed")
)

// ProductLoader fetches one product's full detail.
type ProductLoader interface {
	GetProduct(ctx context.Context, productID string) (*storeapi.ProductDetail, error)
}

// CartAdder posts an add-to-cart request.
type CartAdder interface {
	AddToCart(ctx context.Context, req storeapi.AddToCartRequest) (*storeapi.AddToCartResponse, error)
}

// Params wires a Session.
type Params struct {
	ViewID        string
	Loader        ProductLoader
	Cart          CartAdder
	Bus           notify.Bus
	Messages      *i18n.Catalog
	Money         *money.Formatter
	Logger        *logger.Logger
	Metrics       *metrics.StorefrontMetrics
	FallbackImage string
	Feedback      []cartfeedback.Option
}

// Session owns the detail overlay: the loaded product, its variant resolver
// and the add-to-cart feedback. Loads are generation-tagged so a slower
// earlier open never replaces a later one.
type Session struct {
	viewID   string
	loader   ProductLoader
	cart     CartAdder
	bus      notify.Bus
	messages *i18n.Catalog
	money    *money.Formatter
	logg     *logger.Logger
	metrics  *metrics.StorefrontMetrics
	fallback string
	feedback *cartfeedback.Machine

	mu        sync.Mutex
	seq       uint64
	cancel    context.CancelFunc
	requested string
	loading   bool
	product   *storeapi.ProductDetail
	resolver  *variant.Resolver
	toast     string
	shutdown  bool
	snapshot  json.RawMessage
	notices   []notify.Event
}

// NewSession builds a closed overlay.
func NewSession(p Params) *Session {
	if p.Messages == nil {
		p.Messages = i18n.For("")
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	if p.Bus == nil {
		p.Bus = notify.Discard
	}
	if p.Money == nil {
		p.Money = money.MustFormatter(p.Messages.Language().String(), "VND")
	}
	return &Session{
		viewID:   p.ViewID,
		loader:   p.Loader,
		cart:     p.Cart,
		bus:      p.Bus,
		messages: p.Messages,
		money:    p.Money,
		logg:     p.Logger,
		metrics:  p.Metrics,
		fallback: p.FallbackImage,
		feedback: cartfeedback.New(p.Messages, p.Feedback...),
	}
}

// Open loads productID and shows it. Switching to another product drops the
// previous selection and feedback immediately.
func (s *Session) Open(ctx context.Context, productID string) (View, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return s.State(), pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	ticket, reqCtx, err := s.begin(ctx, productID)
	if err != nil {
		return s.State(), err
	}
	ctx = s.logg.WithProductID(ctx, productID)

	product, err := s.loader.GetProduct(reqCtx, productID)
	return s.finish(ctx, ticket, product, err)
}

func (s *Session) begin(ctx context.Context, productID string) (uint64, context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown {
		return 0, nil, ErrClosed
	}
	if s.cancel != nil {
		s.cancel()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	s.seq++
	s.cancel = cancel
	s.loading = true
	s.toast = ""
	if s.product != nil && string(s.product.ID) != productID {
		s.dropProductLocked()
	}
	s.requested = productID
	return s.seq, reqCtx, nil
}

func (s *Session) finish(ctx context.Context, ticket uint64, product *storeapi.ProductDetail, err error) (View, error) {
	s.mu.Lock()
	if ticket != s.seq {
		s.mu.Unlock()
		s.metrics.IncDetailLoad(metrics.OutcomeSuperseded)
		return s.State(), ErrSuperseded
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.loading = false

	if err != nil {
		s.dropProductLocked()
		s.toast = s.messages.Text(i18n.DetailLoadFailed)
		s.mu.Unlock()
		s.metrics.IncDetailLoad(metrics.OutcomeFailure)
		s.logg.Error(ctx, "detail.load.failed", err)
		return s.State(), err
	}

	var keep variant.Selection
	if s.resolver != nil && s.product != nil && s.product.ID == product.ID {
		keep = s.resolver.Selection()
	} else {
		s.feedback.Reset()
	}
	s.product = product
	s.resolver = variant.NewResolver(product, variant.WithFallbackImage(s.fallback))
	if keep.Color != nil {
		s.resolver.SelectColor(*keep.Color)
	}
	if keep.Size != nil {
		s.resolver.SelectSize(*keep.Size)
	}
	s.mu.Unlock()
	s.metrics.IncDetailLoad(metrics.OutcomeSuccess)
	return s.State(), nil
}

// Close hides the overlay, cancelling any load and the feedback timer.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidateLocked()
	s.toast = ""
}

// Shutdown closes the session for good; later calls fail with ErrClosed.
func (s *Session) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdown = true
	s.invalidateLocked()
}

func (s *Session) invalidateLocked() {
	s.seq++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.loading = false
	s.requested = ""
	s.dropProductLocked()
}

func (s *Session) dropProductLocked() {
	s.product = nil
	s.resolver = nil
	s.notices = nil
	s.feedback.Reset()
}

// SelectColor toggles a color; unavailable colors are ignored.
func (s *Session) SelectColor(colorID int64) (View, bool, error) {
	s.mu.Lock()
	if s.resolver == nil {
		s.mu.Unlock()
		return s.State(), false, ErrNoProduct
	}
	changed := s.resolver.SelectColor(colorID)
	s.mu.Unlock()
	return s.State(), changed, nil
}

// SelectSize toggles a size; unavailable sizes are ignored.
func (s *Session) SelectSize(sizeID int64) (View, bool, error) {
	s.mu.Lock()
	if s.resolver == nil {
		s.mu.Unlock()
		return s.State(), false, ErrNoProduct
	}
	changed := s.resolver.SelectSize(sizeID)
	s.mu.Unlock()
	return s.State(), changed, nil
}

// SelectImage switches the main image to a gallery or color image.
func (s *Session) SelectImage(url string) (View, bool, error) {
	s.mu.Lock()
	if s.resolver == nil {
		s.mu.Unlock()
		return s.State(), false, ErrNoProduct
	}
	changed := s.resolver.SelectImage(url)
	s.mu.Unlock()
	return s.State(), changed, nil
}

// AddToCart adds one unit of the resolved SKU. An incomplete or sold-out
// selection is not an error: it shows guidance through the feedback state.
func (s *Session) AddToCart(ctx context.Context) (View, error) {
	s.mu.Lock()
	if s.resolver == nil {
		s.mu.Unlock()
		return s.State(), ErrNoProduct
	}
	shape := s.resolver.Shape()
	var sku *storeapi.Sku
	if resolved := s.resolver.SKU(); resolved != nil {
		copied := *resolved
		sku = &copied
	}
	s.mu.Unlock()

	ticket, err := s.feedback.Begin(shape, sku)
	if !errors.Is(err, cartfeedback.ErrBusy) {
		s.mu.Lock()
		s.notices = nil
		s.mu.Unlock()
	}
	switch {
	case errors.Is(err, cartfeedback.ErrBusy):
		return s.State(), ErrCartBusy
	case errors.Is(err, cartfeedback.ErrNotOrderable):
		s.metrics.IncCartAdd(metrics.OutcomeRejected)
		return s.State(), nil
	case err != nil:
		return s.State(), err
	}

	ctx = s.logg.WithField(ctx, "sku_id", sku.ID.String())
	resp, err := s.cart.AddToCart(ctx, storeapi.AddToCartRequest{SkuID: sku.ID, Quantity: 1})
	if err == nil && !resp.Success {
		err = pkgerrors.New(pkgerrors.CodeDependency, "cart rejected the item").WithDetails(map[string]any{"message": resp.Message})
	}
	if err != nil {
		s.feedback.Fail(ticket)
		s.metrics.IncCartAdd(metrics.OutcomeFailure)
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "detail.cart.add_failed")
		return s.State(), nil
	}

	current := s.feedback.Succeed(ticket)
	if resp.HasCart() {
		s.announce(ctx, resp.Cart, current)
	}
	s.metrics.IncCartAdd(metrics.OutcomeSuccess)
	return s.State(), nil
}

// announce records the cart snapshot and publishes cart.updated then
// cart.opened. The events are attached to the overlay only when the attempt is
// still current. Nothing is published after Shutdown.
func (s *Session) announce(ctx context.Context, cart json.RawMessage, current bool) {
	events := []notify.Event{
		notify.NewEvent(enums.NotificationCartUpdated, s.viewID, cart),
		notify.NewEvent(enums.NotificationCartOpened, s.viewID, nil),
	}
	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		return
	}
	s.snapshot = append(json.RawMessage(nil), cart...)
	if current {
		s.notices = events
	}
	s.mu.Unlock()

	for _, event := range events {
		if err := s.bus.Publish(ctx, event); err != nil {
			s.logg.Error(s.logg.WithField(ctx, "event_type", event.Type.String()), "detail.notify.failed", err)
		}
	}
}

// DismissError clears the load-failure toast.
func (s *Session) DismissError() View {
	s.mu.Lock()
	s.toast = ""
	s.mu.Unlock()
	return s.State()
}

// Feedback exposes the add-to-cart machine.
func (s *Session) Feedback() *cartfeedback.Machine {
	return s.feedback
}
