package storage

import (
	"errors"

	"github.com/campusfind/campusfind/internal/models"
)

// ErrNotFound is returned when an item id does not exist in the store.
var ErrNotFound = errors.New("item not found")

// ItemStore is the durable id -> item mapping the rest of the system reads
// from. Create assigns the id and createdAt timestamp; Save replaces an
// existing item wholesale (last write wins).
type ItemStore interface {
	Create(item *models.Item) error
	Get(id string) (*models.Item, error)
	List() ([]*models.Item, error)
	Save(item *models.Item) error
	Delete(id string) error
}
