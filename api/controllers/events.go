package controllers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/angelmondragon/storefront-catalog/api/responses"
	pkgerrors "github.com/angelmondragon/storefront-catalog/pkg/errors"
	"github.com/angelmondragon/storefront-catalog/pkg/logger"
	"github.com/angelmondragon/storefront-catalog/pkg/notify"
)

const eventsKeepAlive = 15 * time.Second

// EventSubscriber hands out per-view notification streams, e.g. notify.MemoryBus.
type EventSubscriber interface {
	Subscribe(viewID string) (<-chan notify.Event, func())
}

// ViewEvents streams the view's cart notifications as server-sent events.
// The subscription is taken before the headers are flushed, so a client that
// has seen the response status does not miss later events.
func ViewEvents(sub EventSubscriber, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if sub == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeDependency, "event stream unavailable"))
			return
		}
		view, ok := viewFromRequest(w, r, logg)
		if !ok {
			return
		}

		events, stop := sub.Subscribe(view.ID)
		defer stop()

		rc := http.NewResponseController(w)
		h := w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		if err := rc.Flush(); err != nil {
			if logg != nil {
				logg.Error(ctx, "events.flush_unsupported", err)
			}
			return
		}

		keepAlive := time.NewTicker(eventsKeepAlive)
		defer keepAlive.Stop()
		for {
			var err error
			select {
			case <-ctx.Done():
				return
			case event, open := <-events:
				if !open {
					return
				}
				err = writeEvent(w, event)
			case <-keepAlive.C:
				_, err = io.WriteString(w, ": keepalive\n\n")
			}
			if err == nil {
				err = rc.Flush()
			}
			if err != nil {
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "error", err.Error()), "events.write_failed")
				}
				return
			}
		}
	}
}

func writeEvent(w io.Writer, event notify.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}
	_, err = fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", event.EventID, event.Type, data)
	return err
}
