package filters

import (
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/angelmondragon/storefront-catalog/pkg/enums"
)

const (
	// PageSize is the fixed number of products per listing page.
	PageSize = 9

	paramPage       = "page"
	paramLimit      = "limit"
	paramSort       = "sort"
	paramCategories = "categories"
	paramSearch     = "search"
	paramMinPrice   = "minPrice"
	paramMaxPrice   = "maxPrice"
)

// State is the user-editable filter set. Empty price strings mean no bound.
type State struct {
	Categories []string `json:"categories"`
	SearchTerm string   `json:"searchTerm"`
	MinPrice   string   `json:"minPrice"`
	MaxPrice   string   `json:"maxPrice"`
}

// Default returns the empty filter set.
func Default() State {
	return State{Categories: []string{}}
}

// HasCategory reports membership of a category id.
func (s State) HasCategory(id string) bool {
	return slices.Contains(s.Categories, id)
}

// IsEmpty reports whether no filter is active.
func (s State) IsEmpty() bool {
	return len(s.Categories) == 0 && s.SearchTerm == "" && s.MinPrice == "" && s.MaxPrice == ""
}

// Equal compares two states treating categories as a set.
func (s State) Equal(other State) bool {
	if s.SearchTerm != other.SearchTerm || s.MinPrice != other.MinPrice || s.MaxPrice != other.MaxPrice {
		return false
	}
	if len(s.Categories) != len(other.Categories) {
		return false
	}
	return slices.Equal(canonicalCategories(s.Categories), canonicalCategories(other.Categories))
}

func (s State) clone() State {
	out := s
	out.Categories = append([]string{}, s.Categories...)
	return out
}

func (s State) withPrice(field enums.PriceField, value string) State {
	out := s.clone()
	switch field {
	case enums.PriceFieldMin:
		out.MinPrice = value
	case enums.PriceFieldMax:
		out.MaxPrice = value
	}
	return out
}

func (s State) price(field enums.PriceField) string {
	if field == enums.PriceFieldMin {
		return s.MinPrice
	}
	return s.MaxPrice
}

// IsDigits reports whether raw is a non-empty run of ASCII decimal digits.
func IsDigits(raw string) bool {
	if raw == "" {
		return false
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] < '0' || raw[i] > '9' {
			return false
		}
	}
	return true
}

// canonicalCategories sorts ids numerically when both are numeric, lexically
// otherwise. Equal numbers spelled differently ("1", "01") fall back to the
// lexical order so the result never depends on input order.
func canonicalCategories(ids []string) []string {
	out := append([]string{}, ids...)
	sort.SliceStable(out, func(i, j int) bool {
		a, errA := strconv.ParseUint(out[i], 10, 64)
		b, errB := strconv.ParseUint(out[j], 10, 64)
		switch {
		case errA == nil && errB == nil && a != b:
			return a < b
		case errA == nil && errB != nil:
			return true
		case errB == nil && errA != nil:
			return false
		}
		return strings.Compare(out[i], out[j]) < 0
	})
	return out
}
