// Package i18n holds the user-facing storefront messages.
package i18n

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

type Key string

const (
	CatalogLoadFailed  Key = "catalog.load_failed"
	DetailLoadFailed   Key = "detail.load_failed"
	ChooseColor        Key = "variant.choose_color"
	ChooseSize         Key = "variant.choose_size"
	ChooseColorAndSize Key = "variant.choose_color_size"
	InStock            Key = "variant.in_stock"
	OutOfStock         Key = "variant.out_of_stock"
	ContactForPrice    Key = "price.contact"
	AddingToCart       Key = "cart.adding"
	AddedToCart        Key = "cart.added"
	AddToCartFailed    Key = "cart.failed"
	ResultsFound       Key = "listing.results_found"
	ResultsHint        Key = "listing.results_hint"
)

var supported = []language.Tag{
	language.Vietnamese,
	language.English,
}

var matcher = language.NewMatcher(supported)

var messages = map[language.Tag]map[Key]string{
	language.Vietnamese: {
		CatalogLoadFailed:  "Không thể tải danh sách sản phẩm. Vui lòng thử lại sau.",
		DetailLoadFailed:   "Không thể tải thông tin sản phẩm. Vui lòng thử lại.",
		ChooseColor:        "Vui lòng chọn màu còn hàng.",
		ChooseSize:         "Vui lòng chọn kích thước còn hàng.",
		ChooseColorAndSize: "Vui lòng chọn màu & size còn hàng.",
		InStock:            "Còn %d sản phẩm",
		OutOfStock:         "Hết hàng",
		ContactForPrice:    "Liên hệ",
		AddingToCart:       "Đang thêm vào giỏ...",
		AddedToCart:        "Đã thêm vào giỏ hàng.",
		AddToCartFailed:    "Không thể thêm sản phẩm vào giỏ.",
		ResultsFound:       "%d sản phẩm được tìm thấy",
		ResultsHint:        "Chọn bộ lọc để xem gợi ý hoàn hảo",
	},
	language.English: {
		CatalogLoadFailed:  "Unable to load products. Please try again later.",
		DetailLoadFailed:   "Unable to load product details. Please try again.",
		ChooseColor:        "Please choose an in-stock color.",
		ChooseSize:         "Please choose an in-stock size.",
		ChooseColorAndSize: "Please choose an in-stock color & size.",
		InStock:            "%d in stock",
		OutOfStock:         "Out of stock",
		ContactForPrice:    "Contact us",
		AddingToCart:       "Adding to cart...",
		AddedToCart:        "Added to cart.",
		AddToCartFailed:    "Unable to add the product to your cart.",
		ResultsFound:       "%d products found",
		ResultsHint:        "Pick filters to see our suggestions",
	},
}

// Catalog resolves messages for one language.
type Catalog struct {
	tag language.Tag
}

// For picks the closest supported language for a locale or Accept-Language value.
func For(locale string) *Catalog {
	tags, _, err := language.ParseAcceptLanguage(strings.TrimSpace(locale))
	if err != nil || len(tags) == 0 {
		return &Catalog{tag: supported[0]}
	}
	_, idx, _ := matcher.Match(tags...)
	return &Catalog{tag: supported[idx]}
}

// Language returns the resolved language tag.
func (c *Catalog) Language() language.Tag {
	if c == nil {
		return supported[0]
	}
	return c.tag
}

// Text renders the message for key; args fill its verbs.
func (c *Catalog) Text(key Key, args ...any) string {
	table := messages[c.Language()]
	tmpl, ok := table[key]
	if !ok {
		return string(key)
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}
