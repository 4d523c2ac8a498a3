package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

// setupTestDB creates an in-memory SQLite database with the current schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
		CREATE TABLE configurations (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			document TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`)
	if err != nil {
		t.Fatalf("Failed to create configurations table: %v", err)
	}

	_, err = db.Exec(`
		CREATE TABLE simulation_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			configuration_name TEXT,
			deck_size INTEGER NOT NULL,
			hand_size INTEGER NOT NULL,
			simulations INTEGER NOT NULL,
			success_rate REAL NOT NULL,
			brick_rate REAL NOT NULL,
			success_count INTEGER NOT NULL,
			brick_count INTEGER NOT NULL,
			time_taken REAL NOT NULL,
			max_depth_reached_count INTEGER NOT NULL DEFAULT 0,
			warnings TEXT,
			created_at TEXT NOT NULL
		)
	`)
	if err != nil {
		t.Fatalf("Failed to create simulation_results table: %v", err)
	}

	return db
}

func TestConfigurationSaveAndGet(t *testing.T) {
	repo := NewConfigurationRepository(setupTestDB(t))
	doc := json.RawMessage(`{"deckSize":40,"handSize":5}`)

	saved, err := repo.Save("combo deck", doc)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if saved.ID == "" {
		t.Error("expected a generated ID")
	}

	got, err := repo.Get(saved.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "combo deck" {
		t.Errorf("name = %q", got.Name)
	}
	if string(got.Document) != string(doc) {
		t.Errorf("document = %s, want %s", got.Document, doc)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Errorf("timestamps not set: %v / %v", got.CreatedAt, got.UpdatedAt)
	}
}

func TestConfigurationSaveReplacesByName(t *testing.T) {
	repo := NewConfigurationRepository(setupTestDB(t))

	first, err := repo.Save("combo deck", json.RawMessage(`{"deckSize":40}`))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	second, err := repo.Save("combo deck", json.RawMessage(`{"deckSize":60}`))
	if err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("replacing save changed the ID: %s -> %s", first.ID, second.ID)
	}

	configs, err := repo.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(configs) != 1 {
		t.Fatalf("expected 1 configuration, got %d", len(configs))
	}
	if string(configs[0].Document) != `{"deckSize":60}` {
		t.Errorf("document not replaced: %s", configs[0].Document)
	}
}

func TestConfigurationGetByName(t *testing.T) {
	repo := NewConfigurationRepository(setupTestDB(t))
	if _, err := repo.Save("stall deck", json.RawMessage(`{}`)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := repo.GetByName("stall deck")
	if err != nil {
		t.Fatalf("GetByName failed: %v", err)
	}
	if got.Name != "stall deck" {
		t.Errorf("name = %q", got.Name)
	}

	if _, err := repo.GetByName("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestConfigurationDelete(t *testing.T) {
	repo := NewConfigurationRepository(setupTestDB(t))
	saved, err := repo.Save("to delete", json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := repo.Delete(saved.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.Get(saved.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Delete(saved.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for double delete, got %v", err)
	}
}

func TestResultInsertAndRecent(t *testing.T) {
	repo := NewResultRepository(setupTestDB(t))

	for i := 0; i < 3; i++ {
		record := &ResultRecord{
			DeckSize:     40,
			HandSize:     5,
			Simulations:  1000,
			SuccessRate:  float64(50 + i),
			BrickRate:    float64(50 - i),
			SuccessCount: 500 + i,
			BrickCount:   500 - i,
			TimeTaken:    0.5,
			Warnings:     []string{"warning"},
		}
		if err := repo.Insert(record); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		if record.ID == 0 {
			t.Error("expected ID to be filled in")
		}
		time.Sleep(2 * time.Millisecond)
	}

	records, err := repo.Recent(2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].SuccessRate != 52 {
		t.Errorf("newest first expected, got success rate %v", records[0].SuccessRate)
	}
	if len(records[0].Warnings) != 1 || records[0].Warnings[0] != "warning" {
		t.Errorf("warnings = %v", records[0].Warnings)
	}
}
