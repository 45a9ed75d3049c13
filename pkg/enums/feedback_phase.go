package enums

// FeedbackPhase is the add-to-cart feedback lifecycle.
type FeedbackPhase string

const (
	FeedbackIdle    FeedbackPhase = "idle"
	FeedbackLoading FeedbackPhase = "loading"
	FeedbackSuccess FeedbackPhase = "success"
	FeedbackError   FeedbackPhase = "error"
)

// String implements fmt.Stringer.
func (p FeedbackPhase) String() string {
	return string(p)
}

// Settled reports whether the phase waits on the expiry timer.
func (p FeedbackPhase) Settled() bool {
	return p == FeedbackSuccess || p == FeedbackError
}
