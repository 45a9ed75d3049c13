package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront-catalog/api/middleware"
	"github.com/angelmondragon/storefront-catalog/api/responses"
	"github.com/angelmondragon/storefront-catalog/api/validators"
	"github.com/angelmondragon/storefront-catalog/internal/views"
	pkgerrors "github.com/angelmondragon/storefront-catalog/pkg/errors"
	"github.com/angelmondragon/storefront-catalog/pkg/logger"
)

// ViewRegistry opens and closes storefront views.
type ViewRegistry interface {
	Create() (*views.View, error)
	Close(id string) error
}

type viewCreatedResponse struct {
	ViewID string `json:"viewId"`
}

// ViewCreate opens a view for a new browser tab.
func ViewCreate(registry ViewRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if registry == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "view registry unavailable"))
			return
		}

		view, err := registry.Create()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(logg.WithViewID(ctx, view.ID), "view.created")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, viewCreatedResponse{ViewID: view.ID})
	}
}

// ViewDelete closes a view and everything it still has in flight.
func ViewDelete(registry ViewRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if registry == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "view registry unavailable"))
			return
		}

		id, err := validators.URLParam(r, "viewId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := registry.Close(id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "closed"})
	}
}

func viewFromRequest(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (*views.View, bool) {
	view := middleware.ViewFromContext(r.Context())
	if view == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "view context missing"))
		return nil, false
	}
	return view, true
}
