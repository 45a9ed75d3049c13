package enums

// VariantShape classifies a product by the facet axes it exposes.
type VariantShape string

const (
	// VariantSimple has neither a color nor a size axis.
	VariantSimple VariantShape = "simple"
	// VariantAccessory has colors only.
	VariantAccessory VariantShape = "accessory"
	// VariantShoes has sizes only.
	VariantShoes VariantShape = "shoes"
	// VariantClothing has both colors and sizes.
	VariantClothing VariantShape = "clothing"
)

// String implements fmt.Stringer.
func (v VariantShape) String() string {
	return string(v)
}

// NeedsColor reports whether a color must be picked before a SKU resolves.
func (v VariantShape) NeedsColor() bool {
	return v == VariantAccessory || v == VariantClothing
}

// NeedsSize reports whether a size must be picked before a SKU resolves.
func (v VariantShape) NeedsSize() bool {
	return v == VariantShoes || v == VariantClothing
}
