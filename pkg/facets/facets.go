// Package facets is the static reference data behind color and size pickers.
package facets

import "strings"

// DefaultSwatchHex is used for color names missing from the palette.
const DefaultSwatchHex = "#dcdcdc"

// Swatch is a known color filter option.
type Swatch struct {
	ID     int64  `json:"id"`
	Label  string `json:"label"`
	Hex    string `json:"hex"`
	Border string `json:"border,omitempty"`
}

// Size is a known size filter option.
type Size struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

var colors = []Swatch{
	{ID: 1, Label: "Trắng", Hex: "#F7F7F7", Border: "#D9D9D9"},
	{ID: 2, Label: "Đen", Hex: "#111111"},
	{ID: 3, Label: "Xanh Navy", Hex: "#000080"},
	{ID: 4, Label: "Xám", Hex: "#808080"},
	{ID: 5, Label: "Đỏ", Hex: "#FF0000"},
	{ID: 11, Label: "Vàng", Hex: "#FFD700"},
	{ID: 12, Label: "Nâu", Hex: "#8B4513"},
	{ID: 13, Label: "Tím", Hex: "#800080"},
	{ID: 14, Label: "Hồng", Hex: "#FFC0CB", Border: "#D9D9D9"},
	{ID: 15, Label: "Xanh Lá", Hex: "#228B22"},
}

var sizes = []Size{
	{ID: 6, Label: "S"},
	{ID: 7, Label: "M"},
	{ID: 8, Label: "L"},
	{ID: 9, Label: "XL"},
	{ID: 10, Label: "XXL"},
}

// palette maps free-text color names from product data to hex codes.
var palette = map[string]string{
	"trắng": "#F7F7F7",
	"white": "#F7F7F7",
	"đen":   "#111111",
	"black": "#111111",
	"vàng":  "#F3C257",
	"beige": "#E5D1B8",
	"nâu":   "#8B5E3C",
	"ivory": "#EFE6DA",
	"xanh":  "#7396C8",
}

// Catalog is the serializable view of the reference data.
type Catalog struct {
	Colors []Swatch `json:"colors"`
	Sizes  []Size   `json:"sizes"`
}

// All returns copies of the known swatches and sizes.
func All() Catalog {
	return Catalog{
		Colors: append([]Swatch(nil), colors...),
		Sizes:  append([]Size(nil), sizes...),
	}
}

// ColorByID looks up a known swatch.
func ColorByID(id int64) (Swatch, bool) {
	for _, c := range colors {
		if c.ID == id {
			return c, true
		}
	}
	return Swatch{}, false
}

// SizeByID looks up a known size.
func SizeByID(id int64) (Size, bool) {
	for _, s := range sizes {
		if s.ID == id {
			return s, true
		}
	}
	return Size{}, false
}

// SwatchHex maps a color name to its hex code, case and space insensitive.
func SwatchHex(label string) string {
	normalized := strings.ToLower(strings.TrimSpace(label))
	if normalized == "" {
		return DefaultSwatchHex
	}
	if hex, ok := palette[normalized]; ok {
		return hex
	}
	return DefaultSwatchHex
}
