package enums

import "fmt"

// PriceField names one bound of the price filter.
type PriceField string

const (
	PriceFieldMin PriceField = "minPrice"
	PriceFieldMax PriceField = "maxPrice"
)

// ParsePriceField converts raw input into a PriceField.
func ParsePriceField(value string) (PriceField, error) {
	switch PriceField(value) {
	case PriceFieldMin, PriceFieldMax:
		return PriceField(value), nil
	}
	return "", fmt.Errorf("invalid price field %q", value)
}
