package filters

import (
	"errors"
	"slices"
	"strings"

	"github.com/angelmondragon/storefront-catalog/pkg/enums"
)

var (
	ErrNotHydrated     = errors.New("filters: state not hydrated")
	ErrAlreadyHydrated = errors.New("filters: state already hydrated")
)

// Snapshot is a read-only copy of the engine state.
type Snapshot struct {
	Filters State         `json:"filters"`
	Sort    enums.SortKey `json:"sort"`
	Page    int           `json:"page"`
}

// Query renders the canonical query string of the snapshot.
func (s Snapshot) Query() string {
	return Serialize(s.Filters, s.Sort, s.Page)
}

// Engine owns the filter, sort and page state of one listing. It is not safe
// for concurrent use; the owning view serializes access.
type Engine struct {
	state    State
	sort     enums.SortKey
	page     int
	hydrated bool
}

// NewEngine returns an engine holding defaults, not yet hydrated.
func NewEngine() *Engine {
	return &Engine{state: Default(), sort: enums.SortNewest, page: 1}
}

// Hydrate loads the state from the address bar query. It may run once.
func (e *Engine) Hydrate(query string) error {
	if e.hydrated {
		return ErrAlreadyHydrated
	}
	e.state, e.sort, e.page = Hydrate(query)
	e.hydrated = true
	return nil
}

// Hydrated reports whether Hydrate has run.
func (e *Engine) Hydrated() bool {
	return e.hydrated
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{Filters: e.state.clone(), Sort: e.sort, Page: e.page}
}

// Query returns the canonical query string; it refuses before hydration so no
// default-filter fetch can race the real one.
func (e *Engine) Query() (string, error) {
	if !e.hydrated {
		return "", ErrNotHydrated
	}
	return Serialize(e.state, e.sort, e.page), nil
}

// HasActiveFilters reports whether Clear would change anything.
func (e *Engine) HasActiveFilters() bool {
	return !e.state.IsEmpty()
}

// SetCategory toggles a category id and resets the page. Blank ids and ids
// containing the list separator are ignored.
func (e *Engine) SetCategory(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" || strings.Contains(id, ",") {
		return false
	}
	next := e.state.clone()
	if idx := slices.Index(next.Categories, id); idx >= 0 {
		next.Categories = slices.Delete(next.Categories, idx, idx+1)
	} else {
		next.Categories = append(next.Categories, id)
	}
	e.state = next
	e.page = 1
	return true
}

// SetPriceBound accepts "" or a digit string; anything else is silently
// ignored and reported as false.
func (e *Engine) SetPriceBound(field enums.PriceField, raw string) bool {
	if field != enums.PriceFieldMin && field != enums.PriceFieldMax {
		return false
	}
	if raw != "" && !IsDigits(raw) {
		return false
	}
	if e.state.price(field) == raw {
		return false
	}
	e.state = e.state.withPrice(field, raw)
	e.page = 1
	return true
}

// SubmitPrice applies the typed price bounds by returning to the first page.
func (e *Engine) SubmitPrice() bool {
	if e.page == 1 {
		return false
	}
	e.page = 1
	return true
}

// SetSearchTerm updates the term. The page is left alone.
func (e *Engine) SetSearchTerm(text string) bool {
	if e.state.SearchTerm == text {
		return false
	}
	next := e.state.clone()
	next.SearchTerm = text
	e.state = next
	return true
}

// SetSort changes the sort key and resets the page; unknown keys are ignored.
func (e *Engine) SetSort(key enums.SortKey) bool {
	if !key.IsValid() {
		return false
	}
	if e.sort == key && e.page == 1 {
		return false
	}
	e.sort = key
	e.page = 1
	return true
}

// GoToPage moves to page n without touching filters. Callers keep n within
// [1, totalPages]; values below 1 are ignored.
func (e *Engine) GoToPage(n int) bool {
	if n < 1 || n == e.page {
		return false
	}
	e.page = n
	return true
}

// Clear resets the filters and page. The sort key is kept.
func (e *Engine) Clear() bool {
	if e.state.IsEmpty() && e.page == 1 {
		return false
	}
	e.state = Default()
	e.page = 1
	return true
}
