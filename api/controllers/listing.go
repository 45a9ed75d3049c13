package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront-catalog/api/responses"
	"github.com/angelmondragon/storefront-catalog/api/validators"
	"github.com/angelmondragon/storefront-catalog/internal/listing"
	"github.com/angelmondragon/storefront-catalog/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-catalog/pkg/errors"
	"github.com/angelmondragon/storefront-catalog/pkg/logger"
)

const maxSearchTermLen = 200

type hydratePayload struct {
	Query string `json:"query" validate:"max=2048"`
}

type categoryPayload struct {
	ID string `json:"id" validate:"required,max=64,excludes=0x2C"`
}

type pricePayload struct {
	Field string `json:"field" validate:"required,oneof=minPrice maxPrice"`
	Value string `json:"value"`
}

type searchPayload struct {
	Term string `json:"term" validate:"max=200"`
}

type sortPayload struct {
	Sort string `json:"sort" validate:"required,oneof=newest price_asc price_desc"`
}

type pagePayload struct {
	Page      int    `json:"page" validate:"omitempty,min=1"`
	Direction string `json:"direction" validate:"omitempty,oneof=prev next"`
}

type listingAction func(ctx context.Context, v *listing.View, r *http.Request) (listing.State, error)

// listingHandler resolves the view, runs the action and writes the resulting state.
func listingHandler(logg *logger.Logger, action listingAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, ok := viewFromRequest(w, r, logg)
		if !ok {
			return
		}
		ctx := r.Context()
		state, err := action(ctx, view.Listing, r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, state)
	}
}

// ListingGet returns the listing state with its canonical location.
func ListingGet(logg *logger.Logger) http.HandlerFunc {
	return listingHandler(logg, func(_ context.Context, v *listing.View, _ *http.Request) (listing.State, error) {
		return v.State(), nil
	})
}

// ListingHydrate seeds the filters from the address the tab was opened with.
func ListingHydrate(logg *logger.Logger) http.HandlerFunc {
	return listingHandler(logg, func(ctx context.Context, v *listing.View, r *http.Request) (listing.State, error) {
		var body hydratePayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return listing.State{}, err
		}
		return v.Hydrate(ctx, body.Query)
	})
}

func ListingToggleCategory(logg *logger.Logger) http.HandlerFunc {
	return listingHandler(logg, func(ctx context.Context, v *listing.View, r *http.Request) (listing.State, error) {
		var body categoryPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return listing.State{}, err
		}
		return v.ToggleCategory(ctx, body.ID)
	})
}

// ListingSetPrice edits one typed price bound. Non-digit input is accepted
// and ignored so the field behaves like a numeric input.
func ListingSetPrice(logg *logger.Logger) http.HandlerFunc {
	return listingHandler(logg, func(ctx context.Context, v *listing.View, r *http.Request) (listing.State, error) {
		var body pricePayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return listing.State{}, err
		}
		field, err := enums.ParsePriceField(body.Field)
		if err != nil {
			return listing.State{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price field")
		}
		return v.SetPrice(ctx, field, body.Value)
	})
}

func ListingSubmitPrice(logg *logger.Logger) http.HandlerFunc {
	return listingHandler(logg, func(ctx context.Context, v *listing.View, _ *http.Request) (listing.State, error) {
		return v.SubmitPrice(ctx)
	})
}

func ListingSearch(logg *logger.Logger) http.HandlerFunc {
	return listingHandler(logg, func(ctx context.Context, v *listing.View, r *http.Request) (listing.State, error) {
		var body searchPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return listing.State{}, err
		}
		return v.Search(ctx, validators.SanitizeString(body.Term, maxSearchTermLen))
	})
}

func ListingSort(logg *logger.Logger) http.HandlerFunc {
	return listingHandler(logg, func(ctx context.Context, v *listing.View, r *http.Request) (listing.State, error) {
		var body sortPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return listing.State{}, err
		}
		key, err := enums.ParseSortKey(body.Sort)
		if err != nil {
			return listing.State{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort")
		}
		return v.Sort(ctx, key)
	})
}

// ListingPage jumps to a page number or steps one page in a direction.
func ListingPage(logg *logger.Logger) http.HandlerFunc {
	return listingHandler(logg, func(ctx context.Context, v *listing.View, r *http.Request) (listing.State, error) {
		var body pagePayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return listing.State{}, err
		}
		switch {
		case body.Page > 0 && body.Direction != "":
			return listing.State{}, pkgerrors.New(pkgerrors.CodeValidation, "send either page or direction")
		case body.Direction == "prev":
			return v.Prev(ctx)
		case body.Direction == "next":
			return v.Next(ctx)
		case body.Page > 0:
			return v.GoToPage(ctx, body.Page)
		}
		return listing.State{}, pkgerrors.New(pkgerrors.CodeValidation, "page or direction is required")
	})
}

func ListingClear(logg *logger.Logger) http.HandlerFunc {
	return listingHandler(logg, func(ctx context.Context, v *listing.View, _ *http.Request) (listing.State, error) {
		return v.Clear(ctx)
	})
}

// ListingRetry re-runs the current query after a failed search.
func ListingRetry(logg *logger.Logger) http.HandlerFunc {
	return listingHandler(logg, func(ctx context.Context, v *listing.View, _ *http.Request) (listing.State, error) {
		return v.Retry(ctx)
	})
}
