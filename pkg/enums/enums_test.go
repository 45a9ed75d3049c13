package enums

import "testing"

func TestParseSortKey(t *testing.T) {
	for _, raw := range []string{"newest", "price_asc", "price_desc"} {
		got, err := ParseSortKey(raw)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", raw, err)
		}
		if got.String() != raw {
			t.Fatalf("expected %q got %q", raw, got)
		}
	}
	if _, err := ParseSortKey("popular"); err == nil {
		t.Fatalf("expected error for unknown sort key")
	}
}

func TestVariantShapeRequirements(t *testing.T) {
	cases := map[VariantShape][2]bool{
		VariantSimple:    {false, false},
		VariantAccessory: {true, false},
		VariantShoes:     {false, true},
		VariantClothing:  {true, true},
	}
	for shape, want := range cases {
		if shape.NeedsColor() != want[0] || shape.NeedsSize() != want[1] {
			t.Fatalf("unexpected requirements for %s", shape)
		}
	}
}
