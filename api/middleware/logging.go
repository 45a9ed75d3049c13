package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-catalog/pkg/logger"
)

// Logging writes one start and one completion line per request. Probe and
// scrape paths are logged at completion only.
func Logging(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logg == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logg.WithFields(r.Context(), map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
			})

			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()
			quiet := isProbe(r.URL.Path)

			if !quiet {
				logg.Info(ctx, "request.start")
			}

			next.ServeHTTP(rec, r.WithContext(ctx))

			if rec.status == 0 {
				rec.status = http.StatusOK
			}

			fields := map[string]any{
				"status":      rec.status,
				"bytes":       rec.bytes,
				"duration_ms": time.Since(start).Milliseconds(),
			}
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					fields["route"] = pattern
				}
			}
			ctx = logg.WithFields(ctx, fields)
			if quiet {
				logg.Debug(ctx, "request.complete")
				return
			}
			logg.Info(ctx, "request.complete")
		})
	}
}

func isProbe(path string) bool {
	switch path {
	case "/health/live", "/health/ready", "/metrics":
		return true
	}
	return false
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer's Flush.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
