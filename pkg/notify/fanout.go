package notify

import (
	"context"

	"go.uber.org/multierr"
)

// Multi publishes every event to each bus in order. Every bus is tried even
// when an earlier one fails; the failures are combined.
func Multi(buses ...Bus) Bus {
	kept := make(multi, 0, len(buses))
	for _, b := range buses {
		if b != nil {
			kept = append(kept, b)
		}
	}
	if len(kept) == 1 {
		return kept[0]
	}
	return kept
}

type multi []Bus

func (m multi) Publish(ctx context.Context, event Event) error {
	var errs error
	for _, b := range m {
		errs = multierr.Append(errs, b.Publish(ctx, event))
	}
	return errs
}
