// Package listing connects the filter engine, the address bar and the catalog
// executor for one storefront tab.
package listing

import (
	"context"
	"errors"
	"sync"

	"github.com/angelmondragon/storefront-catalog/internal/catalog"
	"github.com/angelmondragon/storefront-catalog/internal/filters"
	"github.com/angelmondragon/storefront-catalog/internal/storeapi"
	"github.com/angelmondragon/storefront-catalog/internal/variant"
	"github.com/angelmondragon/storefront-catalog/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-catalog/pkg/errors"
	"github.com/angelmondragon/storefront-catalog/pkg/i18n"
	"github.com/angelmondragon/storefront-catalog/pkg/money"
)

var (
	ErrNotHydrated     = pkgerrors.Wrap(pkgerrors.CodeStateConflict, filters.ErrNotHydrated, "listing is not hydrated yet")
	ErrAlreadyHydrated = pkgerrors.Wrap(pkgerrors.CodeStateConflict, filters.ErrAlreadyHydrated, "listing is already hydrated")
)

// Item is a listing card.
type Item struct {
	storeapi.ProductSummary
	PriceLabel string `json:"priceLabel"`
}

// State is the renderable listing.
type State struct {
	Hydrated         bool                `json:"hydrated"`
	Location         string              `json:"location"`
	Query            string              `json:"query"`
	Filters          filters.State       `json:"filters"`
	Sort             enums.SortKey       `json:"sort"`
	Page             int                 `json:"page"`
	Limit            int                 `json:"limit"`
	HasActiveFilters bool                `json:"hasActiveFilters"`
	Phase            enums.ListingPhase  `json:"phase"`
	Items            []Item              `json:"items"`
	Pagination       storeapi.Pagination `json:"pagination"`
	PageNumbers      []int               `json:"pageNumbers"`
	HasPrev          bool                `json:"hasPrev"`
	HasNext          bool                `json:"hasNext"`
	ResultsLabel     string              `json:"resultsLabel"`
	Message          string              `json:"message,omitempty"`
	Retryable        bool                `json:"retryable,omitempty"`
}

// Params wires a View.
type Params struct {
	Path       string
	Executor   *catalog.Executor
	AddressBar AddressBar
	Messages   *i18n.Catalog
	Money      *money.Formatter
}

// View serializes filter edits for one tab. Each accepted edit rewrites the
// address bar and runs a catalog query; the executor keeps only the latest.
type View struct {
	path     string
	exec     *catalog.Executor
	bar      AddressBar
	messages *i18n.Catalog
	money    *money.Formatter

	mu     sync.Mutex
	engine *filters.Engine
	loc    string
}

// NewView returns an unhydrated listing.
func NewView(p Params) *View {
	if p.Messages == nil {
		p.Messages = i18n.For("")
	}
	if p.Money == nil {
		p.Money = money.MustFormatter(p.Messages.Language().String(), "VND")
	}
	if p.AddressBar == nil {
		p.AddressBar = &MemoryAddressBar{}
	}
	return &View{
		path:     p.Path,
		exec:     p.Executor,
		bar:      p.AddressBar,
		messages: p.Messages,
		money:    p.Money,
		engine:   filters.NewEngine(),
	}
}

// Hydrate loads the filters from the initial query and runs the first search.
func (v *View) Hydrate(ctx context.Context, query string) (State, error) {
	v.mu.Lock()
	if err := v.engine.Hydrate(query); err != nil {
		v.mu.Unlock()
		return v.State(), ErrAlreadyHydrated
	}
	pending := v.issueLocked(ctx)
	v.mu.Unlock()
	return v.await(ctx, pending)
}

// ToggleCategory adds or removes a category.
func (v *View) ToggleCategory(ctx context.Context, id string) (State, error) {
	return v.apply(ctx, func(e *filters.Engine) bool { return e.SetCategory(id) })
}

// SetPrice edits one price bound; non-digit input is ignored.
func (v *View) SetPrice(ctx context.Context, field enums.PriceField, raw string) (State, error) {
	return v.apply(ctx, func(e *filters.Engine) bool { return e.SetPriceBound(field, raw) })
}

// SubmitPrice applies the typed bounds from the first page.
func (v *View) SubmitPrice(ctx context.Context) (State, error) {
	return v.apply(ctx, func(e *filters.Engine) bool { return e.SubmitPrice() })
}

// Search sets the search term.
func (v *View) Search(ctx context.Context, term string) (State, error) {
	return v.apply(ctx, func(e *filters.Engine) bool { return e.SetSearchTerm(term) })
}

// Sort changes the sort key.
func (v *View) Sort(ctx context.Context, key enums.SortKey) (State, error) {
	return v.apply(ctx, func(e *filters.Engine) bool { return e.SetSort(key) })
}

// Clear drops every filter.
func (v *View) Clear(ctx context.Context) (State, error) {
	return v.apply(ctx, func(e *filters.Engine) bool { return e.Clear() })
}

// GoToPage moves to page n, clamped to the known page range.
func (v *View) GoToPage(ctx context.Context, n int) (State, error) {
	total := v.exec.State().Pagination.TotalPages
	return v.apply(ctx, func(e *filters.Engine) bool { return e.GoToPage(clampPage(n, total)) })
}

// Prev moves one page back, stopping at 1.
func (v *View) Prev(ctx context.Context) (State, error) {
	return v.apply(ctx, func(e *filters.Engine) bool { return e.GoToPage(max(e.Snapshot().Page-1, 1)) })
}

// Next moves one page forward, stopping at the last page.
func (v *View) Next(ctx context.Context) (State, error) {
	total := v.exec.State().Pagination.TotalPages
	return v.apply(ctx, func(e *filters.Engine) bool {
		next := e.Snapshot().Page + 1
		if next > total {
			return false
		}
		return e.GoToPage(next)
	})
}

// Retry re-runs the current query, e.g. after a failure.
func (v *View) Retry(ctx context.Context) (State, error) {
	return v.apply(ctx, func(*filters.Engine) bool { return true })
}

// Close stops every pending search.
func (v *View) Close() {
	v.exec.Close()
}

func (v *View) apply(ctx context.Context, edit func(*filters.Engine) bool) (State, error) {
	v.mu.Lock()
	if !v.engine.Hydrated() {
		v.mu.Unlock()
		return v.State(), ErrNotHydrated
	}
	if !edit(v.engine) {
		v.mu.Unlock()
		return v.State(), nil
	}
	pending := v.issueLocked(ctx)
	v.mu.Unlock()
	return v.await(ctx, pending)
}

// issueLocked writes the address bar and takes the executor's sequence tag
// under v.mu, so the last edit to reach the address bar is also the latest
// request.
func (v *View) issueLocked(ctx context.Context) catalog.Pending {
	q, _ := v.engine.Query()
	v.loc = v.path + "?" + q
	v.bar.Replace(v.loc)
	return v.exec.Issue(ctx, q)
}

// await surfaces only supersession; a failed query is rendered as the error
// phase and is not an error for the caller.
func (v *View) await(ctx context.Context, pending catalog.Pending) (State, error) {
	_, err := v.exec.Await(ctx, pending)
	if errors.Is(err, catalog.ErrSuperseded) {
		return v.State(), err
	}
	return v.State(), nil
}

// State returns the current listing snapshot.
func (v *View) State() State {
	v.mu.Lock()
	snap := v.engine.Snapshot()
	hydrated := v.engine.Hydrated()
	loc := v.loc
	active := v.engine.HasActiveFilters()
	v.mu.Unlock()

	ls := v.exec.State()
	st := State{
		Hydrated:         hydrated,
		Location:         loc,
		Filters:          snap.Filters,
		Sort:             snap.Sort,
		Page:             snap.Page,
		Limit:            filters.PageSize,
		HasActiveFilters: active,
		Phase:            ls.Phase,
		Items:            make([]Item, 0, len(ls.Items)),
		Pagination:       ls.Pagination,
		PageNumbers:      PageNumbers(ls.Pagination.TotalPages),
		HasPrev:          snap.Page > 1,
		HasNext:          snap.Page < ls.Pagination.TotalPages,
		ResultsLabel:     ResultsLabel(ls.Pagination, v.messages),
		Message:          ls.Message,
		Retryable:        ls.Retryable,
	}
	if hydrated {
		st.Query = snap.Query()
	}
	for _, p := range ls.Items {
		st.Items = append(st.Items, Item{ProductSummary: p, PriceLabel: variant.PriceRangeLabel(p.PriceRange, v.money, v.messages)})
	}
	return st
}

// PageNumbers lists 1..totalPages.
func PageNumbers(totalPages int) []int {
	out := make([]int, 0, max(totalPages, 0))
	for i := 1; i <= totalPages; i++ {
		out = append(out, i)
	}
	return out
}

// ResultsLabel is the toolbar caption above the grid.
func ResultsLabel(p storeapi.Pagination, messages *i18n.Catalog) string {
	if p.Total > 0 {
		return messages.Text(i18n.ResultsFound, p.Total)
	}
	return messages.Text(i18n.ResultsHint)
}

func clampPage(n, totalPages int) int {
	if totalPages > 0 && n > totalPages {
		n = totalPages
	}
	if n < 1 {
		n = 1
	}
	return n
}
