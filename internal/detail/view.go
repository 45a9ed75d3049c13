package detail

import (
	"encoding/json"

	"github.com/angelmondragon/storefront-catalog/internal/cartfeedback"
	"github.com/angelmondragon/storefront-catalog/internal/storeapi"
	"github.com/angelmondragon/storefront-catalog/internal/variant"
	"github.com/angelmondragon/storefront-catalog/pkg/enums"
	"github.com/angelmondragon/storefront-catalog/pkg/notify"
)

// View is the renderable snapshot of the overlay.
type View struct {
	Open        bool                    `json:"open"`
	Loading     bool                    `json:"loading"`
	ProductID   string                  `json:"productId,omitempty"`
	Product     *storeapi.ProductDetail `json:"product,omitempty"`
	Shape       enums.VariantShape      `json:"shape,omitempty"`
	Selection   variant.Selection       `json:"selection"`
	Options     *variant.Options        `json:"options,omitempty"`
	SKU         *storeapi.Sku           `json:"sku"`
	Orderable   bool                    `json:"orderable"`
	ActiveImage string                  `json:"activeImage,omitempty"`
	Gallery     []string                `json:"gallery,omitempty"`
	PriceLabel  string                  `json:"priceLabel,omitempty"`
	StockLabel  string                  `json:"stockLabel,omitempty"`
	Guidance    string                  `json:"guidance,omitempty"`
	Feedback    cartfeedback.State      `json:"feedback"`
	Error       string                  `json:"error,omitempty"`
	// Cart is the latest cart snapshot returned by the store.
	Cart json.RawMessage `json:"cart,omitempty"`
	// Notifications are the events emitted by the last add to cart.
	Notifications []notify.Event `json:"notifications,omitempty"`
}

// State returns the current overlay snapshot.
func (s *Session) State() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		Open:      s.requested != "",
		Loading:   s.loading,
		ProductID: s.requested,
		Feedback:  s.feedback.State(),
		Error:     s.toast,
	}
	if len(s.snapshot) > 0 {
		v.Cart = append(json.RawMessage(nil), s.snapshot...)
	}
	if len(s.notices) > 0 {
		v.Notifications = append([]notify.Event(nil), s.notices...)
	}
	if s.resolver == nil {
		return v
	}
	r := s.resolver
	opts := r.Options()
	v.Product = s.product
	v.Shape = r.Shape()
	v.Selection = r.Selection()
	v.Options = &opts
	if sku := r.SKU(); sku != nil {
		copied := *sku
		v.SKU = &copied
	}
	v.Orderable = r.Orderable()
	v.ActiveImage = r.ActiveImage()
	v.Gallery = r.Gallery()
	v.PriceLabel = r.PriceLabel(s.money, s.messages)
	v.StockLabel = r.StockLabel(s.messages)
	if !v.Orderable {
		v.Guidance = r.Guidance(s.messages)
	}
	return v
}
