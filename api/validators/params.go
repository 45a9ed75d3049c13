package validators

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/angelmondragon/storefront-catalog/pkg/errors"
)

// URLParam returns a trimmed, required chi route parameter.
func URLParam(r *http.Request, key string) (string, error) {
	value := strings.TrimSpace(chi.URLParam(r, key))
	if value == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "path parameter is required").
			WithDetails(map[string]string{key: "is required"})
	}
	return value, nil
}
