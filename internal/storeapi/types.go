package storeapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ID accepts both JSON numbers and strings; upstream is inconsistent.
type ID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*id = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON keeps numeric ids numeric on the wire.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.numeric() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// String implements fmt.Stringer.
func (id ID) String() string {
	return string(id)
}

func (id ID) numeric() bool {
	if id == "" {
		return false
	}
	for i, r := range string(id) {
		if r == '-' && i == 0 && len(id) > 1 {
			continue
		}
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// PriceRange is the min/max SKU price of a product.
type PriceRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// CategoryRef tags a product with a category.
type CategoryRef struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// ProductSummary is one catalog listing entry.
type ProductSummary struct {
	ID           ID            `json:"id"`
	Name         string        `json:"name"`
	PriceRange   *PriceRange   `json:"priceRange,omitempty"`
	ThumbnailURL string        `json:"thumbnailUrl,omitempty"`
	Categories   []CategoryRef `json:"categories,omitempty"`
}

// Pagination is the listing metadata returned with each search.
type Pagination struct {
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// SearchResponse is the payload of GET /api/products.
type SearchResponse struct {
	Data       []ProductSummary `json:"data"`
	Pagination *Pagination      `json:"pagination"`
}

// Option is a color or size value of a product.
type Option struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
	Code  string `json:"code,omitempty"`
}

// OptionRef points a SKU at one of the product's options.
type OptionRef struct {
	ID    int64  `json:"id"`
	Label string `json:"label,omitempty"`
}

// Sku is a purchasable unit with its own price and stock.
type Sku struct {
	ID            ID              `json:"id"`
	Color         *OptionRef      `json:"color,omitempty"`
	Size          *OptionRef      `json:"size,omitempty"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
}

// InStock reports whether at least one unit is available.
func (s Sku) InStock() bool {
	return s.StockQuantity > 0
}

// ColorID returns the referenced color id, or 0.
func (s Sku) ColorID() int64 {
	if s.Color == nil {
		return 0
	}
	return s.Color.ID
}

// SizeID returns the referenced size id, or 0.
func (s Sku) SizeID() int64 {
	if s.Size == nil {
		return 0
	}
	return s.Size.ID
}

// Attributes lists the facet axes a product exposes.
type Attributes struct {
	Colors []Option `json:"colors"`
	Sizes  []Option `json:"sizes"`
}

// ColorImage maps a color to its preview image.
type ColorImage struct {
	ColorValueID int64  `json:"colorValueId,omitempty"`
	ColorID      int64  `json:"colorId,omitempty"`
	ImageURL     string `json:"imageUrl"`
}

// Color returns whichever color id field is populated.
func (c ColorImage) Color() int64 {
	if c.ColorValueID != 0 {
		return c.ColorValueID
	}
	return c.ColorID
}

// Review is a single customer review.
type Review struct {
	ID        ID         `json:"id"`
	Author    string     `json:"author"`
	Rating    int        `json:"rating"`
	Comment   string     `json:"comment,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// ReviewSummary aggregates ratings; Distribution is keyed by star 1..5.
type ReviewSummary struct {
	AverageRating float64        `json:"averageRating"`
	TotalReviews  int            `json:"totalReviews"`
	Distribution  map[string]int `json:"distribution"`
}

// Reviews is the review block of a product detail.
type Reviews struct {
	Summary ReviewSummary `json:"summary"`
	Items   []Review      `json:"items"`
}

// ReviewTemplate is the empty review block used when upstream sends none.
func ReviewTemplate() Reviews {
	return Reviews{
		Summary: ReviewSummary{
			Distribution: map[string]int{"5": 0, "4": 0, "3": 0, "2": 0, "1": 0},
		},
		Items: []Review{},
	}
}

// ProductDetail is everything the detail overlay needs for one product.
type ProductDetail struct {
	ProductSummary
	Description     string           `json:"description,omitempty"`
	SKUs            []Sku            `json:"skus"`
	Attributes      Attributes       `json:"attributes"`
	Galleries       []string         `json:"galleries"`
	ColorImages     []ColorImage     `json:"colorImages"`
	Recommendations []ProductSummary `json:"recommendations"`
	Reviews         Reviews          `json:"reviews"`
}

// detailResponse is the payload of GET /api/products/{id}.
type detailResponse struct {
	Data            *ProductDetail   `json:"data"`
	Recommendations []ProductSummary `json:"recommendations"`
	Reviews         *Reviews         `json:"reviews"`
}

// AddToCartRequest is the body of POST /cart/add.
type AddToCartRequest struct {
	SkuID    ID  `json:"skuId"`
	Quantity int `json:"quantity"`
}

// AddToCartResponse is the acknowledgement of POST /cart/add.
type AddToCartResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Cart    json.RawMessage `json:"cart,omitempty"`
}

// HasCart reports whether the response carried a cart snapshot.
func (r AddToCartResponse) HasCart() bool {
	trimmed := bytes.TrimSpace(r.Cart)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}
