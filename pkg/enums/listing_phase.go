package enums

// ListingPhase is the presentation state of the catalog listing.
type ListingPhase string

const (
	ListingIdle    ListingPhase = "idle"
	ListingLoading ListingPhase = "loading"
	ListingReady   ListingPhase = "ready"
	ListingEmpty   ListingPhase = "empty"
	ListingError   ListingPhase = "error"
)

// String implements fmt.Stringer.
func (p ListingPhase) String() string {
	return string(p)
}
