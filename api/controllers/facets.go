package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront-catalog/api/responses"
	"github.com/angelmondragon/storefront-catalog/pkg/facets"
)

// Facets returns the static color and size filter options.
func Facets() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, facets.All())
	}
}
