package filters

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/angelmondragon/storefront-catalog/pkg/enums"
)

// Hydrate parses a listing query string. Missing or malformed fields fall back
// to their defaults; it never fails.
func Hydrate(query string) (State, enums.SortKey, int) {
	state := Default()
	sortKey := enums.SortNewest
	page := 1

	// ParseQuery keeps every pair it could decode alongside the first error.
	values, _ := url.ParseQuery(strings.TrimPrefix(strings.TrimSpace(query), "?"))

	if raw := values.Get(paramCategories); raw != "" {
		seen := map[string]struct{}{}
		for _, id := range strings.Split(raw, ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			state.Categories = append(state.Categories, id)
		}
	}
	state.SearchTerm = values.Get(paramSearch)
	if raw := values.Get(paramMinPrice); IsDigits(raw) {
		state.MinPrice = raw
	}
	if raw := values.Get(paramMaxPrice); IsDigits(raw) {
		state.MaxPrice = raw
	}
	if key, err := enums.ParseSortKey(values.Get(paramSort)); err == nil {
		sortKey = key
	}
	if n, err := strconv.Atoi(strings.TrimSpace(values.Get(paramPage))); err == nil && n >= 1 {
		page = n
	}
	return state, sortKey, page
}

// Serialize renders the canonical query string: page, limit and sort always,
// then categories, search, minPrice and maxPrice when set.
func Serialize(state State, sortKey enums.SortKey, page int) string {
	if page < 1 {
		page = 1
	}
	if !sortKey.IsValid() {
		sortKey = enums.SortNewest
	}

	var b strings.Builder
	write := func(key, value string) {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(value))
	}

	write(paramPage, strconv.Itoa(page))
	write(paramLimit, strconv.Itoa(PageSize))
	write(paramSort, sortKey.String())
	if len(state.Categories) > 0 {
		write(paramCategories, strings.Join(canonicalCategories(state.Categories), ","))
	}
	if state.SearchTerm != "" {
		write(paramSearch, state.SearchTerm)
	}
	if state.MinPrice != "" {
		write(paramMinPrice, state.MinPrice)
	}
	if state.MaxPrice != "" {
		write(paramMaxPrice, state.MaxPrice)
	}
	return b.String()
}
