package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-catalog/api/responses"
	"github.com/angelmondragon/storefront-catalog/internal/views"
	pkgerrors "github.com/angelmondragon/storefront-catalog/pkg/errors"
	"github.com/angelmondragon/storefront-catalog/pkg/logger"
)

type contextKey string

const ctxView contextKey = "view"

// ViewLookup resolves a live view by id.
type ViewLookup interface {
	Get(id string) (*views.View, error)
}

// ViewContext loads the {viewId} route parameter into the request context.
func ViewContext(lookup ViewLookup, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			id := strings.TrimSpace(chi.URLParam(r, "viewId"))
			if id == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "view id is required"))
				return
			}
			if logg != nil {
				ctx = logg.WithViewID(ctx, id)
			}
			view, err := lookup.Get(id)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithView(ctx, view)))
		})
	}
}

// WithView stores the view on the context.
func WithView(ctx context.Context, view *views.View) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxView, view)
}

func ViewFromContext(ctx context.Context) *views.View {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxView).(*views.View); ok {
		return v
	}
	return nil
}
