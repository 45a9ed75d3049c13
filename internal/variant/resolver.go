// Package variant maps a product's color/size picks onto one SKU.
package variant

import (
	"github.com/angelmondragon/storefront-catalog/internal/storeapi"
	"github.com/angelmondragon/storefront-catalog/pkg/enums"
	"github.com/angelmondragon/storefront-catalog/pkg/facets"
	"github.com/angelmondragon/storefront-catalog/pkg/i18n"
	"github.com/angelmondragon/storefront-catalog/pkg/money"
)

// FallbackImage is shown when a product has neither gallery nor thumbnail.
const FallbackImage = "https://images.unsplash.com/photo-1504593811423-6dd665756598?auto=format&fit=crop&w=900&q=80"

// Classify derives the variant shape from which axes are non-empty.
func Classify(attrs storeapi.Attributes) enums.VariantShape {
	hasColors := len(attrs.Colors) > 0
	hasSizes := len(attrs.Sizes) > 0
	switch {
	case hasColors && hasSizes:
		return enums.VariantClothing
	case hasColors:
		return enums.VariantAccessory
	case hasSizes:
		return enums.VariantShoes
	}
	return enums.VariantSimple
}

// Selection is the user's partial facet pick. Nil means nothing picked.
type Selection struct {
	Color *int64 `json:"color"`
	Size  *int64 `json:"size"`
}

// Option is one renderable color or size button.
type Option struct {
	ID        int64  `json:"id"`
	Label     string `json:"label"`
	Swatch    string `json:"swatch,omitempty"`
	Available bool   `json:"available"`
	Selected  bool   `json:"selected"`
}

// Options groups the color and size buttons of a product.
type Options struct {
	Colors []Option `json:"colors"`
	Sizes  []Option `json:"sizes"`
}

// Resolver tracks the selection for one product. It never mutates the SKUs.
// Not safe for concurrent use.
type Resolver struct {
	product  *storeapi.ProductDetail
	shape    enums.VariantShape
	sel      Selection
	images   map[int64]string
	fallback string
	defaults []string
	active   string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithFallbackImage overrides the placeholder used when a product has no gallery.
func WithFallbackImage(url string) ResolverOption {
	return func(r *Resolver) {
		if url != "" {
			r.fallback = url
		}
	}
}

// NewResolver classifies the product and starts from an empty selection.
func NewResolver(product *storeapi.ProductDetail, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		product:  product,
		shape:    Classify(product.Attributes),
		images:   map[int64]string{},
		fallback: FallbackImage,
	}
	for _, opt := range opts {
		opt(r)
	}
	if product.ThumbnailURL != "" {
		r.fallback = product.ThumbnailURL
	}
	for _, ci := range product.ColorImages {
		if id := ci.Color(); id != 0 && ci.ImageURL != "" {
			r.images[id] = ci.ImageURL
		}
	}
	for _, g := range product.Galleries {
		if g != "" {
			r.defaults = append(r.defaults, g)
		}
	}
	if len(r.defaults) == 0 {
		r.defaults = []string{r.fallback}
	}
	r.refreshImage()
	return r
}

// Product returns the product the resolver is scoped to.
func (r *Resolver) Product() *storeapi.ProductDetail {
	return r.product
}

// Shape returns the variant classification.
func (r *Resolver) Shape() enums.VariantShape {
	return r.shape
}

// Selection returns a copy of the current pick.
func (r *Resolver) Selection() Selection {
	out := Selection{}
	if r.sel.Color != nil {
		c := *r.sel.Color
		out.Color = &c
	}
	if r.sel.Size != nil {
		s := *r.sel.Size
		out.Size = &s
	}
	return out
}

// ColorAvailable reports whether some in-stock SKU carries the color,
// whatever size is picked.
func (r *Resolver) ColorAvailable(colorID int64) bool {
	for _, sku := range r.product.SKUs {
		if sku.Color != nil && sku.Color.ID == colorID && sku.InStock() {
			return true
		}
	}
	return false
}

// SizeAvailable reports whether the size can be picked. Shoes check the size
// alone; clothing needs a picked color and checks the exact pair.
func (r *Resolver) SizeAvailable(sizeID int64) bool {
	if r.shape == enums.VariantShoes {
		for _, sku := range r.product.SKUs {
			if sku.Size != nil && sku.Size.ID == sizeID && sku.InStock() {
				return true
			}
		}
		return false
	}
	if r.sel.Color == nil {
		return false
	}
	color := *r.sel.Color
	for _, sku := range r.product.SKUs {
		if !sku.InStock() {
			continue
		}
		if sku.Color == nil || sku.Color.ID != color {
			continue
		}
		if sku.Size != nil && sku.Size.ID == sizeID {
			return true
		}
	}
	return false
}

// SelectColor toggles the color and always clears the size. Unavailable
// colors are a no-op; the return value reports whether anything changed.
func (r *Resolver) SelectColor(colorID int64) bool {
	if !r.ColorAvailable(colorID) {
		return false
	}
	if r.sel.Color != nil && *r.sel.Color == colorID {
		r.sel.Color = nil
	} else {
		c := colorID
		r.sel.Color = &c
	}
	r.sel.Size = nil
	r.refreshImage()
	return true
}

// SelectSize toggles the size without touching the color. Unavailable sizes
// are a no-op.
func (r *Resolver) SelectSize(sizeID int64) bool {
	if !r.SizeAvailable(sizeID) {
		return false
	}
	if r.sel.Size != nil && *r.sel.Size == sizeID {
		r.sel.Size = nil
	} else {
		s := sizeID
		r.sel.Size = &s
	}
	return true
}

// SKU resolves the current selection to an exact SKU, or nil.
func (r *Resolver) SKU() *storeapi.Sku {
	skus := r.product.SKUs
	switch r.shape {
	case enums.VariantSimple:
		if len(skus) == 0 {
			return nil
		}
		return &skus[0]
	case enums.VariantAccessory:
		if r.sel.Color == nil {
			return nil
		}
		for i := range skus {
			if skus[i].Color != nil && skus[i].Color.ID == *r.sel.Color {
				return &skus[i]
			}
		}
	case enums.VariantShoes:
		if r.sel.Size == nil {
			return nil
		}
		for i := range skus {
			if skus[i].Size != nil && skus[i].Size.ID == *r.sel.Size {
				return &skus[i]
			}
		}
	case enums.VariantClothing:
		if r.sel.Color == nil || r.sel.Size == nil {
			return nil
		}
		for i := range skus {
			if skus[i].Color != nil && skus[i].Color.ID == *r.sel.Color &&
				skus[i].Size != nil && skus[i].Size.ID == *r.sel.Size {
				return &skus[i]
			}
		}
	}
	return nil
}

// Orderable reports whether the resolved SKU exists and is in stock.
func (r *Resolver) Orderable() bool {
	sku := r.SKU()
	return sku != nil && sku.InStock()
}

// ActiveImage is the image to display for the current color.
func (r *Resolver) ActiveImage() string {
	return r.active
}

// SelectImage shows url as the main image when it belongs to the product's
// gallery or color images. The pick holds until the next color change.
func (r *Resolver) SelectImage(url string) bool {
	if url == "" || url == r.active || !r.knownImage(url) {
		return false
	}
	r.active = url
	return true
}

func (r *Resolver) knownImage(url string) bool {
	for _, img := range r.defaults {
		if img == url {
			return true
		}
	}
	for _, img := range r.images {
		if img == url {
			return true
		}
	}
	return false
}

// Gallery returns the default gallery, never empty.
func (r *Resolver) Gallery() []string {
	return append([]string(nil), r.defaults...)
}

// Options returns the color and size buttons flagged for rendering.
func (r *Resolver) Options() Options {
	out := Options{Colors: []Option{}, Sizes: []Option{}}
	for _, c := range r.product.Attributes.Colors {
		swatch := c.Code
		if swatch == "" {
			swatch = facets.SwatchHex(c.Label)
		}
		out.Colors = append(out.Colors, Option{
			ID:        c.ID,
			Label:     c.Label,
			Swatch:    swatch,
			Available: r.ColorAvailable(c.ID),
			Selected:  r.sel.Color != nil && *r.sel.Color == c.ID,
		})
	}
	for _, s := range r.product.Attributes.Sizes {
		out.Sizes = append(out.Sizes, Option{
			ID:        s.ID,
			Label:     s.Label,
			Available: r.SizeAvailable(s.ID),
			Selected:  r.sel.Size != nil && *r.sel.Size == s.ID,
		})
	}
	return out
}

// Guidance is the message shown when the selection does not resolve to an
// in-stock SKU.
func (r *Resolver) Guidance(messages *i18n.Catalog) string {
	return GuidanceFor(r.shape, messages)
}

// GuidanceFor picks the incomplete-selection message for a shape.
func GuidanceFor(shape enums.VariantShape, messages *i18n.Catalog) string {
	switch shape {
	case enums.VariantAccessory:
		return messages.Text(i18n.ChooseColor)
	case enums.VariantShoes:
		return messages.Text(i18n.ChooseSize)
	}
	return messages.Text(i18n.ChooseColorAndSize)
}

// PriceLabel shows the resolved SKU price, else the product's price range.
func (r *Resolver) PriceLabel(f *money.Formatter, messages *i18n.Catalog) string {
	if sku := r.SKU(); sku != nil {
		return f.Amount(sku.Price)
	}
	return PriceRangeLabel(r.product.PriceRange, f, messages)
}

// PriceRangeLabel renders a listing price, or the contact label without one.
func PriceRangeLabel(pr *storeapi.PriceRange, f *money.Formatter, messages *i18n.Catalog) string {
	if pr == nil {
		return messages.Text(i18n.ContactForPrice)
	}
	return f.Range(pr.Min, pr.Max)
}

// StockLabel describes the resolved SKU's stock; empty when nothing resolved.
func (r *Resolver) StockLabel(messages *i18n.Catalog) string {
	sku := r.SKU()
	if sku == nil {
		return ""
	}
	if sku.InStock() {
		return messages.Text(i18n.InStock, sku.StockQuantity)
	}
	return messages.Text(i18n.OutOfStock)
}

func (r *Resolver) refreshImage() {
	if r.sel.Color != nil {
		if img, ok := r.images[*r.sel.Color]; ok {
			r.active = img
			return
		}
	}
	r.active = r.defaults[0]
}
