// Package stats computes the dashboard snapshot: counts, top-N breakdowns and
// a recent-activity time series. Aggregation is a stateless fold over the full
// item set, cheap enough to run per request.
package stats

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/campusfind/campusfind/internal/models"
)

// topN is the truncation bound for the breakdown lists.
const topN = 10

// trailingDays is the window of the itemsByDate series.
const trailingDays = 30

// NamedCount is one row of a frequency breakdown.
type NamedCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Totals are the headline dashboard numbers.
type Totals struct {
	TotalItems   int     `json:"totalItems"`
	LostItems    int     `json:"lostItems"`
	FoundItems   int     `json:"foundItems"`
	ActiveItems  int     `json:"activeItems"`
	ClaimedItems int     `json:"claimedItems"`
	PendingItems int     `json:"pendingItems"`
	ClaimRate    float64 `json:"claimRate"`
}

// Snapshot is the full dashboard payload.
type Snapshot struct {
	Stats         Totals         `json:"stats"`
	TopCategories []NamedCount   `json:"topCategories"`
	TopLocations  []NamedCount   `json:"topLocations"`
	MostLostItems []NamedCount   `json:"mostLostItems"`
	ItemsByDate   map[string]int `json:"itemsByDate"`
}

// Aggregate folds the item set into a dashboard snapshot. now anchors the
// trailing itemsByDate window so the series is testable.
//
// ItemsByDate is keyed by the absolute calendar date (UTC, YYYY-MM-DD) of
// each item's createdAt rather than a day index, so buckets stay correct
// across month boundaries.
func Aggregate(items []*models.Item, now time.Time) *Snapshot {
	s := &Snapshot{
		TopCategories: []NamedCount{},
		TopLocations:  []NamedCount{},
		MostLostItems: []NamedCount{},
		ItemsByDate:   make(map[string]int),
	}

	categories := newCounter()
	locations := newCounter()
	lostTitles := newCounter()

	for _, item := range items {
		s.Stats.TotalItems++

		switch item.Type {
		case models.TypeLost:
			s.Stats.LostItems++
			lostTitles.add(strings.ToLower(item.Title))
		case models.TypeFound:
			s.Stats.FoundItems++
		}

		switch item.Status {
		case models.StatusActive:
			s.Stats.ActiveItems++
		case models.StatusClaimed:
			s.Stats.ClaimedItems++
		case models.StatusPending:
			s.Stats.PendingItems++
		}

		categories.add(item.Category)
		locations.add(item.Location)

		if age := now.Sub(item.CreatedAt); age >= 0 && age <= trailingDays*24*time.Hour {
			day := item.CreatedAt.UTC().Format("2006-01-02")
			s.ItemsByDate[day]++
		}
	}

	if s.Stats.TotalItems > 0 {
		rate := float64(s.Stats.ClaimedItems) / float64(s.Stats.TotalItems) * 100
		s.Stats.ClaimRate = math.Round(rate*10) / 10
	}

	s.TopCategories = categories.top(topN)
	s.TopLocations = locations.top(topN)
	s.MostLostItems = lostTitles.top(topN)

	return s
}

// counter is a frequency map that remembers first-encounter order so that
// equal counts rank deterministically.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(key string) {
	if key == "" {
		return
	}
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

// top returns the n most frequent keys, count descending, ties in
// first-encounter order.
func (c *counter) top(n int) []NamedCount {
	out := make([]NamedCount, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, NamedCount{Name: key, Count: c.counts[key]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
