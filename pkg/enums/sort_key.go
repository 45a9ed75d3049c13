package enums

import "fmt"

// SortKey orders catalog search results.
type SortKey string

const (
	SortNewest    SortKey = "newest"
	SortPriceAsc  SortKey = "price_asc"
	SortPriceDesc SortKey = "price_desc"
)

var validSortKeys = []SortKey{
	SortNewest,
	SortPriceAsc,
	SortPriceDesc,
}

// String implements fmt.Stringer.
func (s SortKey) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SortKey.
func (s SortKey) IsValid() bool {
	for _, candidate := range validSortKeys {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSortKey converts raw input into a SortKey.
func ParseSortKey(value string) (SortKey, error) {
	for _, candidate := range validSortKeys {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sort key %q", value)
}
