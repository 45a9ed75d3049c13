package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/angelmondragon/storefront-catalog/api/responses"
	pkgerrors "github.com/angelmondragon/storefront-catalog/pkg/errors"
	"github.com/angelmondragon/storefront-catalog/pkg/logger"
)

// Recoverer turns a handler panic into a 500 envelope. http.ErrAbortHandler
// is re-raised so the server can drop the connection.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				err := fmt.Errorf("panic: %v", rec)
				ctx := r.Context()
				if logg != nil {
					ctx = logg.WithFields(ctx, map[string]any{
						"panic": fmt.Sprint(rec),
						"stack": string(debug.Stack()),
					})
					logg.Error(ctx, "panic.recovered", err)
				}
				responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
