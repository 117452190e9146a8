// Package search implements free-text filtering over the item catalog and
// autocomplete suggestions for partial queries.
package search

import (
	"sort"
	"strings"

	"github.com/campusfind/campusfind/internal/models"
)

// MaxSuggestions bounds the autocomplete list.
const MaxSuggestions = 10

// MinQueryLength is the shortest query that produces suggestions; anything
// shorter matches too broadly to be useful.
const MinQueryLength = 2

// Filters is the set of constraints applied to a search. Empty fields and the
// "All"/"all" sentinel impose no constraint; all present filters must hold.
type Filters struct {
	Query    string
	Category string
	Location string
	Type     string
	Status   string
	DateFrom string // YYYY-MM-DD, inclusive
	DateTo   string // YYYY-MM-DD, inclusive
}

// noConstraint reports whether a filter value means "match everything". The
// UI sends "All" (category/location dropdowns) or "all" (type/status tabs)
// for its default selection.
func noConstraint(v string) bool {
	return v == "" || strings.EqualFold(v, "all")
}

// Matches reports whether item satisfies every filter in f.
func Matches(item *models.Item, f Filters) bool {
	if query := strings.ToLower(strings.TrimSpace(f.Query)); query != "" && !matchesQuery(item, query) {
		return false
	}
	if !noConstraint(f.Category) && item.Category != f.Category {
		return false
	}
	if !noConstraint(f.Location) && item.Location != f.Location {
		return false
	}
	if !noConstraint(f.Type) && item.Type != f.Type {
		return false
	}
	if !noConstraint(f.Status) && item.Status != f.Status {
		return false
	}
	// Dates are YYYY-MM-DD strings, so lexical order is date order.
	if f.DateFrom != "" && item.Date < f.DateFrom {
		return false
	}
	if f.DateTo != "" && item.Date > f.DateTo {
		return false
	}
	return true
}

// Search returns the items satisfying every filter, newest first. Ordering is
// stable: the same filters against an unchanged catalog always return items
// in the same order, so callers can slice for pagination.
func Search(items []*models.Item, f Filters) []*models.Item {
	matched := make([]*models.Item, 0, len(items))
	for _, item := range items {
		if Matches(item, f) {
			matched = append(matched, item)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	return matched
}

// matchesQuery reports whether any searchable field contains the lowercased
// query as a substring.
func matchesQuery(item *models.Item, query string) bool {
	return strings.Contains(strings.ToLower(item.Title), query) ||
		strings.Contains(strings.ToLower(item.Description), query) ||
		strings.Contains(strings.ToLower(item.Location), query) ||
		strings.Contains(strings.ToLower(item.ContactName), query)
}

// Suggest returns autocomplete candidates for a partial query: the raw
// title, category and location values of items containing the query,
// deduplicated, in first-encounter order, capped at MaxSuggestions.
// Queries shorter than MinQueryLength yield nothing.
func Suggest(query string, items []*models.Item) []string {
	query = strings.ToLower(strings.TrimSpace(query))
	if len(query) < MinQueryLength {
		return nil
	}

	seen := make(map[string]struct{})
	var suggestions []string
	add := func(value string) {
		if value == "" {
			return
		}
		if _, ok := seen[value]; ok {
			return
		}
		seen[value] = struct{}{}
		suggestions = append(suggestions, value)
	}

	for _, item := range items {
		if len(suggestions) >= MaxSuggestions {
			break
		}
		if strings.Contains(strings.ToLower(item.Title), query) {
			add(item.Title)
		}
		if strings.Contains(strings.ToLower(item.Category), query) {
			add(item.Category)
		}
		if strings.Contains(strings.ToLower(item.Location), query) {
			add(item.Location)
		}
	}

	if len(suggestions) > MaxSuggestions {
		suggestions = suggestions[:MaxSuggestions]
	}
	return suggestions
}
