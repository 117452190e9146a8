package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/campusfind/campusfind/internal/models"
)

func catalog() []*models.Item {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return []*models.Item{
		{
			ID: "1", Title: "Blue Backpack", Description: "JanSport with laptop compartment",
			Category: "Bags", Location: "Library - 2nd Floor", Date: "2025-02-25",
			Type: models.TypeFound, Status: models.StatusActive,
			ContactName: "Sarah Johnson", CreatedAt: base,
		},
		{
			ID: "2", Title: "iPhone 14 Pro", Description: "Black phone, purple case",
			Category: "Electronics", Location: "Student Center", Date: "2025-02-27",
			Type: models.TypeLost, Status: models.StatusActive,
			ContactName: "Mike Chen", CreatedAt: base.Add(time.Hour),
		},
		{
			ID: "3", Title: "Backpack", Description: "Small grey backpack",
			Category: "Bags", Location: "Cafeteria", Date: "2025-02-28",
			Type: models.TypeLost, Status: models.StatusClaimed,
			ContactName: "Priya Patel", CreatedAt: base.Add(2 * time.Hour),
		},
	}
}

func ids(items []*models.Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func TestSearch_NoFilters(t *testing.T) {
	results := Search(catalog(), Filters{})

	// Newest first.
	assert.Equal(t, []string{"3", "2", "1"}, ids(results))
}

func TestSearch_QueryMatchesAnyField(t *testing.T) {
	items := catalog()

	assert.Equal(t, []string{"3", "1"}, ids(Search(items, Filters{Query: "backpack"})))

	// Description substring.
	assert.Equal(t, []string{"2"}, ids(Search(items, Filters{Query: "purple"})))

	// Location substring.
	assert.Equal(t, []string{"1"}, ids(Search(items, Filters{Query: "library"})))

	// Contact name substring.
	assert.Equal(t, []string{"2"}, ids(Search(items, Filters{Query: "mike"})))
}

func TestSearch_FiltersAreANDCombined(t *testing.T) {
	items := catalog()

	broad := Search(items, Filters{Query: "backpack"})
	narrow := Search(items, Filters{Query: "backpack", Status: models.StatusActive})

	assert.Equal(t, []string{"3", "1"}, ids(broad))
	assert.Equal(t, []string{"1"}, ids(narrow))

	// Adding a filter never grows the result set.
	assert.LessOrEqual(t, len(narrow), len(broad))
}

func TestSearch_SentinelValuesImposeNoConstraint(t *testing.T) {
	items := catalog()

	all := Search(items, Filters{})

	assert.Equal(t, ids(all), ids(Search(items, Filters{Category: "All", Location: "All"})))
	assert.Equal(t, ids(all), ids(Search(items, Filters{Type: "all", Status: "all"})))
}

func TestSearch_DateRangeInclusive(t *testing.T) {
	items := catalog()

	results := Search(items, Filters{DateFrom: "2025-02-27", DateTo: "2025-02-28"})

	assert.Equal(t, []string{"3", "2"}, ids(results))
}

func TestSearch_StableOrdering(t *testing.T) {
	items := catalog()
	f := Filters{Type: models.TypeLost}

	first := Search(items, f)
	second := Search(items, f)

	assert.Equal(t, ids(first), ids(second))
}

func TestSuggest_ShortQueryGuard(t *testing.T) {
	items := catalog()

	assert.Empty(t, Suggest("", items))
	assert.Empty(t, Suggest("b", items))
	assert.Empty(t, Suggest(" a ", items))
}

func TestSuggest_CollectsMatchingFields(t *testing.T) {
	suggestions := Suggest("ba", catalog())

	assert.Contains(t, suggestions, "Blue Backpack")
	assert.Contains(t, suggestions, "Backpack")
	assert.Contains(t, suggestions, "Bags")
}

func TestSuggest_Deduplicates(t *testing.T) {
	suggestions := Suggest("ba", catalog())

	seen := make(map[string]int)
	for _, s := range suggestions {
		seen[s]++
	}
	for value, count := range seen {
		assert.Equal(t, 1, count, "duplicate suggestion %q", value)
	}
	// "Bags" appears on two items but is suggested once.
	assert.Equal(t, 1, seen["Bags"])
}

func TestSuggest_Capped(t *testing.T) {
	var items []*models.Item
	for i := 0; i < 30; i++ {
		items = append(items, &models.Item{
			Title:    "Umbrella " + string(rune('A'+i)),
			Category: "Other",
			Location: "Cafeteria",
		})
	}

	suggestions := Suggest("umbrella", items)

	assert.LessOrEqual(t, len(suggestions), MaxSuggestions)
}

func TestSuggest_Deterministic(t *testing.T) {
	items := catalog()

	assert.Equal(t, Suggest("ba", items), Suggest("ba", items))
}
