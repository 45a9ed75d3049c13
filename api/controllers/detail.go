package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront-catalog/api/responses"
	"github.com/angelmondragon/storefront-catalog/api/validators"
	"github.com/angelmondragon/storefront-catalog/internal/detail"
	"github.com/angelmondragon/storefront-catalog/pkg/logger"
)

type openDetailPayload struct {
	ProductID string `json:"productId" validate:"required,max=64"`
}

type colorPayload struct {
	ColorID int64 `json:"colorId" validate:"required,min=1"`
}

type sizePayload struct {
	SizeID int64 `json:"sizeId" validate:"required,min=1"`
}

type imagePayload struct {
	URL string `json:"url" validate:"required,max=2048"`
}

type selectionResponse struct {
	detail.View
	Changed bool `json:"changed"`
}

// DetailGet returns the overlay snapshot.
func DetailGet(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, ok := viewFromRequest(w, r, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, view.Detail.State())
	}
}

// DetailOpen loads a product into the overlay. A failed upstream load is
// rendered as the overlay's error toast rather than an error response.
func DetailOpen(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, ok := viewFromRequest(w, r, logg)
		if !ok {
			return
		}
		ctx := r.Context()

		var body openDetailPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		state, err := view.Detail.Open(ctx, body.ProductID)
		if err != nil && state.Error == "" {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, state)
	}
}

// DetailClose hides the overlay.
func DetailClose(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, ok := viewFromRequest(w, r, logg)
		if !ok {
			return
		}
		view.Detail.Close()
		responses.WriteSuccess(w, view.Detail.State())
	}
}

func DetailSelectColor(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, ok := viewFromRequest(w, r, logg)
		if !ok {
			return
		}
		ctx := r.Context()

		var body colorPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		state, changed, err := view.Detail.SelectColor(body.ColorID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, selectionResponse{View: state, Changed: changed})
	}
}

func DetailSelectSize(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, ok := viewFromRequest(w, r, logg)
		if !ok {
			return
		}
		ctx := r.Context()

		var body sizePayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		state, changed, err := view.Detail.SelectSize(body.SizeID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, selectionResponse{View: state, Changed: changed})
	}
}

// DetailSelectImage switches the main image from the thumbnail strip.
func DetailSelectImage(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, ok := viewFromRequest(w, r, logg)
		if !ok {
			return
		}
		ctx := r.Context()

		var body imagePayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		state, changed, err := view.Detail.SelectImage(body.URL)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, selectionResponse{View: state, Changed: changed})
	}
}

// DetailAddToCart adds one unit of the selected SKU. The outcome is reported
// through the feedback field of the returned overlay.
func DetailAddToCart(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, ok := viewFromRequest(w, r, logg)
		if !ok {
			return
		}
		ctx := r.Context()

		state, err := view.Detail.AddToCart(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, state)
	}
}

func DetailDismissError(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, ok := viewFromRequest(w, r, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, view.Detail.DismissError())
	}
}
