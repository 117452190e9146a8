package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusfind/campusfind/internal/models"
)

func newTestStore(t *testing.T) (*JSONStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "items.json")
	store, err := NewJSONStore(path)
	require.NoError(t, err)
	return store, path
}

func sampleItem(title string) *models.Item {
	return &models.Item{
		Title:       title,
		Description: "description",
		Category:    "Bags",
		Location:    "Cafeteria",
		Date:        "2025-03-01",
		Type:        models.TypeLost,
		Status:      models.StatusActive,
		ContactName: "Alice",
		ContactInfo: "alice@campus.edu",
	}
}

func TestJSONStore_CreateAssignsIDAndTimestamp(t *testing.T) {
	store, _ := newTestStore(t)

	item := sampleItem("Backpack")
	require.NoError(t, store.Create(item))

	assert.NotEmpty(t, item.ID)
	assert.False(t, item.CreatedAt.IsZero())
}

func TestJSONStore_CreatedAtNonDecreasing(t *testing.T) {
	store, _ := newTestStore(t)

	first := sampleItem("one")
	second := sampleItem("two")
	require.NoError(t, store.Create(first))
	require.NoError(t, store.Create(second))

	assert.NotEqual(t, first.ID, second.ID)
	assert.False(t, second.CreatedAt.Before(first.CreatedAt))
}

func TestJSONStore_GetReturnsCopy(t *testing.T) {
	store, _ := newTestStore(t)

	item := sampleItem("Backpack")
	require.NoError(t, store.Create(item))

	got, err := store.Get(item.ID)
	require.NoError(t, err)
	got.Title = "mutated"

	again, err := store.Get(item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Backpack", again.Title)
}

func TestJSONStore_GetMissing(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJSONStore_Save(t *testing.T) {
	store, _ := newTestStore(t)

	item := sampleItem("Backpack")
	require.NoError(t, store.Create(item))

	item.Status = models.StatusClaimed
	require.NoError(t, store.Save(item))

	got, err := store.Get(item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusClaimed, got.Status)
}

func TestJSONStore_SaveMissing(t *testing.T) {
	store, _ := newTestStore(t)

	item := sampleItem("Backpack")
	item.ID = "ghost"

	assert.ErrorIs(t, store.Save(item), ErrNotFound)
}

func TestJSONStore_Delete(t *testing.T) {
	store, _ := newTestStore(t)

	item := sampleItem("Backpack")
	require.NoError(t, store.Create(item))
	require.NoError(t, store.Delete(item.ID))

	_, err := store.Get(item.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(item.ID), ErrNotFound)
}

func TestJSONStore_ListInsertionOrder(t *testing.T) {
	store, _ := newTestStore(t)

	for _, title := range []string{"one", "two", "three"} {
		require.NoError(t, store.Create(sampleItem(title)))
	}

	items, err := store.List()
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "one", items[0].Title)
	assert.Equal(t, "two", items[1].Title)
	assert.Equal(t, "three", items[2].Title)
}

func TestJSONStore_PersistsAcrossReopen(t *testing.T) {
	store, path := newTestStore(t)

	item := sampleItem("Backpack")
	item.ImageFingerprint = "abc123def456abcd"
	require.NoError(t, store.Create(item))

	reopened, err := NewJSONStore(path)
	require.NoError(t, err)

	got, err := reopened.Get(item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Backpack", got.Title)
	assert.Equal(t, "abc123def456abcd", got.ImageFingerprint)
}
