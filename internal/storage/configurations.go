package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// sqliteTimeFormat is ISO 8601 without a timezone suffix, matching what
// SQLite's datetime functions produce.
const sqliteTimeFormat = "2006-01-02 15:04:05.999999"

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// SavedConfiguration is a named, persisted interchange document.
type SavedConfiguration struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Document  json.RawMessage `json:"document"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ConfigurationRepository handles database operations for saved
// configurations.
type ConfigurationRepository struct {
	db *sql.DB
}

// NewConfigurationRepository creates a new configuration repository.
func NewConfigurationRepository(db *sql.DB) *ConfigurationRepository {
	return &ConfigurationRepository{db: db}
}

// Save inserts or updates a configuration by name. A new configuration gets
// a fresh ID; saving under an existing name replaces that row's document.
func (r *ConfigurationRepository) Save(name string, document json.RawMessage) (*SavedConfiguration, error) {
	now := time.Now().UTC()
	nowStr := now.Format(sqliteTimeFormat)

	var existing SavedConfiguration
	var createdAt string
	err := r.db.QueryRow(
		`SELECT id, created_at FROM configurations WHERE name = ?`, name,
	).Scan(&existing.ID, &createdAt)

	switch {
	case err == nil:
		_, err = r.db.Exec(
			`UPDATE configurations SET document = ?, updated_at = ? WHERE id = ?`,
			string(document), nowStr, existing.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("update configuration %q: %w", name, err)
		}
		created, parseErr := time.Parse(sqliteTimeFormat, createdAt)
		if parseErr != nil {
			created = now
		}
		return &SavedConfiguration{
			ID:        existing.ID,
			Name:      name,
			Document:  document,
			CreatedAt: created,
			UpdatedAt: now,
		}, nil

	case errors.Is(err, sql.ErrNoRows):
		id := uuid.NewString()
		_, err = r.db.Exec(
			`INSERT INTO configurations (id, name, document, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			id, name, string(document), nowStr, nowStr,
		)
		if err != nil {
			return nil, fmt.Errorf("insert configuration %q: %w", name, err)
		}
		return &SavedConfiguration{
			ID:        id,
			Name:      name,
			Document:  document,
			CreatedAt: now,
			UpdatedAt: now,
		}, nil

	default:
		return nil, fmt.Errorf("look up configuration %q: %w", name, err)
	}
}

// Get returns the configuration with the given ID.
func (r *ConfigurationRepository) Get(id string) (*SavedConfiguration, error) {
	row := r.db.QueryRow(
		`SELECT id, name, document, created_at, updated_at FROM configurations WHERE id = ?`, id,
	)
	return scanConfiguration(row)
}

// GetByName returns the configuration with the given name.
func (r *ConfigurationRepository) GetByName(name string) (*SavedConfiguration, error) {
	row := r.db.QueryRow(
		`SELECT id, name, document, created_at, updated_at FROM configurations WHERE name = ?`, name,
	)
	return scanConfiguration(row)
}

// List returns all saved configurations, most recently updated first.
func (r *ConfigurationRepository) List() ([]*SavedConfiguration, error) {
	rows, err := r.db.Query(
		`SELECT id, name, document, created_at, updated_at FROM configurations ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list configurations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var configs []*SavedConfiguration
	for rows.Next() {
		cfg, err := scanConfiguration(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate configurations: %w", err)
	}
	return configs, nil
}

// Delete removes the configuration with the given ID.
func (r *ConfigurationRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM configurations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete configuration: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete configuration: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanConfiguration(row rowScanner) (*SavedConfiguration, error) {
	var cfg SavedConfiguration
	var document, createdAt, updatedAt string

	err := row.Scan(&cfg.ID, &cfg.Name, &document, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan configuration: %w", err)
	}

	cfg.Document = json.RawMessage(document)
	if cfg.CreatedAt, err = time.Parse(sqliteTimeFormat, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if cfg.UpdatedAt, err = time.Parse(sqliteTimeFormat, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &cfg, nil
}
