package stats

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/campusfind/campusfind/internal/models"
)

func item(itemType, status, category, location, title string, createdAt time.Time) *models.Item {
	return &models.Item{
		Title:     title,
		Category:  category,
		Location:  location,
		Type:      itemType,
		Status:    status,
		CreatedAt: createdAt,
	}
}

func TestAggregate_EmptyCatalog(t *testing.T) {
	s := Aggregate(nil, time.Now())

	assert.Equal(t, 0, s.Stats.TotalItems)
	assert.Equal(t, 0.0, s.Stats.ClaimRate)
	assert.Empty(t, s.TopCategories)
	assert.Empty(t, s.TopLocations)
	assert.Empty(t, s.MostLostItems)
	assert.Empty(t, s.ItemsByDate)
}

func TestAggregate_TotalsConsistency(t *testing.T) {
	now := time.Now()
	items := []*models.Item{
		item(models.TypeLost, models.StatusActive, "Electronics", "Student Center", "Phone", now),
		item(models.TypeLost, models.StatusClaimed, "Bags", "Cafeteria", "Backpack", now),
		item(models.TypeFound, models.StatusActive, "Bags", "Library - 1st Floor", "Backpack", now),
		item(models.TypeFound, models.StatusPending, "Keys", "Gymnasium", "Car Keys", now),
	}

	s := Aggregate(items, now)

	assert.Equal(t, s.Stats.TotalItems, s.Stats.LostItems+s.Stats.FoundItems)
	assert.Equal(t, s.Stats.TotalItems, s.Stats.ActiveItems+s.Stats.ClaimedItems+s.Stats.PendingItems)
	assert.Equal(t, 4, s.Stats.TotalItems)
	assert.Equal(t, 2, s.Stats.LostItems)
	assert.Equal(t, 2, s.Stats.FoundItems)
}

func TestAggregate_ClaimRate(t *testing.T) {
	now := time.Now()
	items := []*models.Item{
		item(models.TypeLost, models.StatusClaimed, "Bags", "Cafeteria", "Backpack", now),
		item(models.TypeLost, models.StatusActive, "Bags", "Cafeteria", "Backpack", now),
		item(models.TypeFound, models.StatusActive, "Bags", "Cafeteria", "Backpack", now),
	}

	s := Aggregate(items, now)

	// 1/3, rounded to one decimal.
	assert.Equal(t, 33.3, s.Stats.ClaimRate)
}

func TestAggregate_TopCategoriesOrderAndTies(t *testing.T) {
	now := time.Now()
	items := []*models.Item{
		item(models.TypeLost, models.StatusActive, "Bags", "Cafeteria", "a", now),
		item(models.TypeLost, models.StatusActive, "Electronics", "Cafeteria", "b", now),
		item(models.TypeLost, models.StatusActive, "Bags", "Cafeteria", "c", now),
		item(models.TypeLost, models.StatusActive, "Keys", "Cafeteria", "d", now),
	}

	s := Aggregate(items, now)

	assert.Equal(t, "Bags", s.TopCategories[0].Name)
	assert.Equal(t, 2, s.TopCategories[0].Count)
	// Electronics and Keys tie at 1; first-encountered ranks first.
	assert.Equal(t, "Electronics", s.TopCategories[1].Name)
	assert.Equal(t, "Keys", s.TopCategories[2].Name)
}

func TestAggregate_TopListsTruncated(t *testing.T) {
	now := time.Now()
	var items []*models.Item
	for i := 0; i < 15; i++ {
		items = append(items, item(
			models.TypeLost, models.StatusActive,
			fmt.Sprintf("Category %d", i), fmt.Sprintf("Location %d", i),
			fmt.Sprintf("Title %d", i), now,
		))
	}

	s := Aggregate(items, now)

	assert.Len(t, s.TopCategories, 10)
	assert.Len(t, s.TopLocations, 10)
	assert.Len(t, s.MostLostItems, 10)
}

func TestAggregate_MostLostItemsOnlyCountsLost(t *testing.T) {
	now := time.Now()
	items := []*models.Item{
		item(models.TypeLost, models.StatusActive, "Bags", "Cafeteria", "Backpack", now),
		item(models.TypeLost, models.StatusActive, "Bags", "Cafeteria", "backpack", now),
		item(models.TypeFound, models.StatusActive, "Bags", "Cafeteria", "Backpack", now),
	}

	s := Aggregate(items, now)

	// Titles are case-folded and found items are excluded.
	assert.Equal(t, []NamedCount{{Name: "backpack", Count: 2}}, s.MostLostItems)
}

func TestAggregate_ItemsByDateWindow(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	items := []*models.Item{
		item(models.TypeLost, models.StatusActive, "Bags", "Cafeteria", "a", now.Add(-time.Hour)),
		item(models.TypeLost, models.StatusActive, "Bags", "Cafeteria", "b", now.Add(-time.Hour)),
		item(models.TypeLost, models.StatusActive, "Bags", "Cafeteria", "c", now.AddDate(0, 0, -5)),
		// Outside the trailing window.
		item(models.TypeLost, models.StatusActive, "Bags", "Cafeteria", "d", now.AddDate(0, 0, -45)),
	}

	s := Aggregate(items, now)

	assert.Equal(t, 2, s.ItemsByDate["2025-03-15"])
	assert.Equal(t, 1, s.ItemsByDate["2025-03-10"])
	assert.NotContains(t, s.ItemsByDate, "2025-01-29")
	assert.Len(t, s.ItemsByDate, 2)
}

func TestAggregate_MonthBoundaryBucketing(t *testing.T) {
	// Items created in different months on the same day-of-month must land
	// in different buckets.
	now := time.Date(2025, 3, 25, 12, 0, 0, 0, time.UTC)
	items := []*models.Item{
		item(models.TypeLost, models.StatusActive, "Bags", "Cafeteria", "a", time.Date(2025, 3, 25, 9, 0, 0, 0, time.UTC)),
		item(models.TypeLost, models.StatusActive, "Bags", "Cafeteria", "b", time.Date(2025, 2, 25, 9, 0, 0, 0, time.UTC)),
	}

	s := Aggregate(items, now)

	assert.Equal(t, 1, s.ItemsByDate["2025-03-25"])
	assert.Equal(t, 1, s.ItemsByDate["2025-02-25"])
}
