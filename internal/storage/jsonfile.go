package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/campusfind/campusfind/internal/models"
)

// JSONStore persists items to a single JSON array file, rewriting the whole
// file on every mutation. A mutex serializes writers so concurrent requests
// cannot interleave partial writes. Suited to a single-instance deployment.
type JSONStore struct {
	mu    sync.Mutex
	path  string
	items []*models.Item
}

// NewJSONStore opens (or creates) the item file at path.
func NewJSONStore(path string) (*JSONStore, error) {
	s := &JSONStore{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Info().Str("path", path).Msg("Item file not found, starting with empty catalog")
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read item file: %w", err)
	}

	if err := json.Unmarshal(data, &s.items); err != nil {
		return nil, fmt.Errorf("failed to parse item file: %w", err)
	}

	log.Info().Int("items", len(s.items)).Str("path", path).Msg("Item catalog loaded")
	return s, nil
}

// Create assigns an id and creation timestamp, appends the item and persists.
func (s *JSONStore) Create(item *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item.ID = uuid.New().String()
	item.CreatedAt = time.Now()

	// Keep createdAt non-decreasing with insertion order even if the clock
	// steps backwards.
	if n := len(s.items); n > 0 && item.CreatedAt.Before(s.items[n-1].CreatedAt) {
		item.CreatedAt = s.items[n-1].CreatedAt
	}

	clone := *item
	s.items = append(s.items, &clone)
	return s.persist()
}

// Get returns a copy of the item with the given id.
func (s *JSONStore) Get(id string) (*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.items {
		if item.ID == id {
			clone := *item
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

// List returns copies of all items in insertion order.
func (s *JSONStore) List() ([]*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Item, len(s.items))
	for i, item := range s.items {
		clone := *item
		out[i] = &clone
	}
	return out, nil
}

// Save replaces the stored item with the same id.
func (s *JSONStore) Save(item *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.items {
		if existing.ID == item.ID {
			clone := *item
			s.items[i] = &clone
			return s.persist()
		}
	}
	return ErrNotFound
}

// Delete removes the item with the given id.
func (s *JSONStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.items {
		if existing.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return s.persist()
		}
	}
	return ErrNotFound
}

// persist writes the full catalog to disk. Caller holds the lock.
func (s *JSONStore) persist() error {
	data, err := json.MarshalIndent(s.items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal items: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write item file: %w", err)
	}
	return nil
}
