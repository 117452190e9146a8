package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/campusfind/campusfind/internal/models"
)

// PostgresStore is an ItemStore backed by Postgres, for deployments that have
// outgrown the JSON file.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(host, port, user, password, dbName, sslMode string) (*PostgresStore, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbName, sslMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.init(); err != nil {
		return nil, fmt.Errorf("failed to initialize db schema: %w", err)
	}

	return store, nil
}

// init creates the items table.
func (s *PostgresStore) init() error {
	query := `
	CREATE TABLE IF NOT EXISTS items (
		id VARCHAR(36) PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		category VARCHAR(100),
		location TEXT,
		date VARCHAR(10),
		type VARCHAR(10) NOT NULL,
		status VARCHAR(20) NOT NULL,
		image TEXT,
		image_fingerprint VARCHAR(32),
		image_url TEXT,
		contact_name TEXT NOT NULL,
		contact_info TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_items_created_at ON items(created_at);
	CREATE INDEX IF NOT EXISTS idx_items_fingerprint ON items(image_fingerprint);`

	_, err := s.db.Exec(query)
	return err
}

func (s *PostgresStore) Create(item *models.Item) error {
	item.ID = uuid.New().String()
	item.CreatedAt = time.Now()
	return s.upsert(item)
}

func (s *PostgresStore) Save(item *models.Item) error {
	if _, err := s.Get(item.ID); err != nil {
		return err
	}
	return s.upsert(item)
}

func (s *PostgresStore) upsert(item *models.Item) error {
	query := `
	INSERT INTO items (
		id, title, description, category, location, date, type, status,
		image, image_fingerprint, image_url, contact_name, contact_info, created_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
	) ON CONFLICT (id) DO UPDATE SET
		title = EXCLUDED.title,
		description = EXCLUDED.description,
		category = EXCLUDED.category,
		location = EXCLUDED.location,
		date = EXCLUDED.date,
		type = EXCLUDED.type,
		status = EXCLUDED.status,
		image = EXCLUDED.image,
		image_fingerprint = EXCLUDED.image_fingerprint,
		image_url = EXCLUDED.image_url,
		contact_name = EXCLUDED.contact_name,
		contact_info = EXCLUDED.contact_info
	;`

	_, err := s.db.Exec(query,
		item.ID, item.Title, item.Description, item.Category, item.Location,
		item.Date, item.Type, item.Status,
		item.Image, item.ImageFingerprint, item.ImageURL,
		item.ContactName, item.ContactInfo, item.CreatedAt,
	)
	if err != nil {
		log.Error().Err(err).Str("id", item.ID).Msg("Failed to save item to postgres")
		return err
	}
	return nil
}

const itemColumns = `id, title, description, category, location, date, type, status,
	image, image_fingerprint, image_url, contact_name, contact_info, created_at`

func scanItem(row interface{ Scan(...interface{}) error }) (*models.Item, error) {
	item := &models.Item{}
	var image, fingerprint, imageURL sql.NullString

	err := row.Scan(
		&item.ID, &item.Title, &item.Description, &item.Category, &item.Location,
		&item.Date, &item.Type, &item.Status,
		&image, &fingerprint, &imageURL,
		&item.ContactName, &item.ContactInfo, &item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Image = image.String
	item.ImageFingerprint = fingerprint.String
	item.ImageURL = imageURL.String
	return item, nil
}

func (s *PostgresStore) Get(id string) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`

	item, err := scanItem(s.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("Failed to get item from postgres")
		return nil, err
	}
	return item, nil
}

func (s *PostgresStore) List() ([]*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items ORDER BY created_at ASC`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *PostgresStore) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("Failed to delete item from postgres")
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
