// Package notify carries outbound storefront signals (cart updated, cart
// opened) to whatever host renders the cart drawer.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-catalog/pkg/enums"
)

const envelopeVersion = 1

// Event is the stable envelope published for every notification.
type Event struct {
	Version    int                    `json:"version"`
	EventID    string                 `json:"eventId"`
	Type       enums.NotificationType `json:"type"`
	ViewID     string                 `json:"viewId,omitempty"`
	OccurredAt time.Time              `json:"occurredAt"`
	Data       json.RawMessage        `json:"data,omitempty"`
}

// NewEvent stamps an event id and time on a notification.
func NewEvent(typ enums.NotificationType, viewID string, data json.RawMessage) Event {
	return Event{
		Version:    envelopeVersion,
		EventID:    uuid.NewString(),
		Type:       typ,
		ViewID:     viewID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

// Bus publishes notifications. Publishing is fire-and-forget from the
// caller's point of view; errors are for logging only.
type Bus interface {
	Publish(ctx context.Context, event Event) error
}

// Discard drops every event.
var Discard Bus = discard{}

type discard struct{}

func (discard) Publish(context.Context, Event) error { return nil }
