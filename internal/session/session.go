// Package session owns the live configuration aggregate. The aggregate
// itself is single-writer by design; Session is the adaptation to a
// concurrent caller (the REST API): one mutex held for the entirety of each
// operation, so every mutation is observed whole or not at all. I/O —
// simulation runs, deck imports, persistence — happens outside the lock, and
// the aggregate is only touched once the I/O result is fully available.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/kmorwood/drawsim-companion/internal/simconfig"
	"github.com/kmorwood/drawsim-companion/internal/simulator"
	"github.com/kmorwood/drawsim-companion/internal/storage"
)

// currentFileName is the on-disk copy of the live aggregate inside the data
// directory. It doubles as the hand-editable file the watcher reloads.
const currentFileName = "current.json"

// Session holds the live configuration and its collaborators.
type Session struct {
	mu     sync.Mutex
	config *simconfig.Config

	client  *simulator.Client
	configs *storage.ConfigurationRepository
	results *storage.ResultRepository

	dataDir string
	// lastPersisted lets the file watcher tell our own writes apart from
	// external edits.
	lastPersisted []byte
}

// New creates a session with a default aggregate. If the data directory
// holds a current.json from a previous run, it is imported; a corrupt file
// is logged and skipped, leaving the defaults in place.
func New(client *simulator.Client, db *storage.DB, dataDir string) *Session {
	s := &Session{
		config:  simconfig.New(),
		client:  client,
		dataDir: dataDir,
	}
	if db != nil {
		s.configs = storage.NewConfigurationRepository(db.Conn())
		s.results = storage.NewResultRepository(db.Conn())
	}

	if dataDir != "" {
		data, err := os.ReadFile(s.CurrentPath())
		if err == nil {
			if importErr := s.config.Import(data); importErr != nil {
				log.Printf("session: ignoring corrupt %s: %v", currentFileName, importErr)
			} else {
				s.lastPersisted = data
			}
		}
	}

	return s
}

// CurrentPath returns the path of the persisted live aggregate.
func (s *Session) CurrentPath() string {
	return filepath.Join(s.dataDir, currentFileName)
}

// Snapshot exports the live aggregate as an interchange document.
func (s *Session) Snapshot() (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config.Export()
}

// Import merges an interchange document into the live aggregate. A parse
// failure leaves the aggregate untouched.
func (s *Session) Import(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.config.Import(data); err != nil {
		return err
	}
	s.persistLocked()
	return nil
}

// Reset restores the default aggregate.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.Reset()
	s.persistLocked()
}

// UpdateSizes applies any non-nil size fields.
func (s *Session) UpdateSizes(deckSize, handSize, simulations *int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if deckSize != nil {
		s.config.SetDeckSize(*deckSize)
	}
	if handSize != nil {
		s.config.SetHandSize(*handSize)
	}
	if simulations != nil {
		s.config.SetSimulations(*simulations)
	}
	s.persistLocked()
}

// SetCategory inserts or replaces a card category.
func (s *Session) SetCategory(cat simconfig.CardCategory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.SetCategory(cat)
	s.persistLocked()
}

// DeleteCategory removes a category and repairs the requirement forest.
func (s *Session) DeleteCategory(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.DeleteCategory(name)
	s.persistLocked()
}

// SetEffect inserts or replaces a card effect.
func (s *Session) SetEffect(effect simconfig.CardEffect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.SetEffect(effect)
	s.persistLocked()
}

// RemoveEffect removes the effect for a card name.
func (s *Session) RemoveEffect(cardName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.RemoveEffect(cardName)
	s.persistLocked()
}

// RunSimulation snapshots the aggregate, submits it to the simulation
// service, and records the result. The lock is not held during the request.
func (s *Session) RunSimulation(ctx context.Context) (*simulator.Result, error) {
	snapshot, err := s.clone()
	if err != nil {
		return nil, err
	}

	result, err := s.client.Run(ctx, snapshot)
	if err != nil {
		return nil, err
	}

	if s.results != nil {
		record := &storage.ResultRecord{
			DeckSize:             snapshot.DeckSize,
			HandSize:             snapshot.HandSize,
			Simulations:          snapshot.Simulations,
			SuccessRate:          result.SuccessRate,
			BrickRate:            result.BrickRate,
			SuccessCount:         result.SuccessCount,
			BrickCount:           result.BrickCount,
			TimeTaken:            result.TimeTaken,
			MaxDepthReachedCount: result.MaxDepthReachedCount,
			Warnings:             result.Warnings,
		}
		if err := s.results.Insert(record); err != nil {
			log.Printf("session: record simulation result: %v", err)
		}
	}

	return result, nil
}

// ImportDeckFromURL fetches a deck through the importer service and replaces
// the aggregate's categories with it, preserving the importer's entry order.
func (s *Session) ImportDeckFromURL(ctx context.Context, deckURL string) error {
	imported, err := s.client.ImportDeckFromURL(ctx, deckURL)
	if err != nil {
		return err
	}
	return s.applyDeckImport(imported)
}

// ImportDeckFromFile uploads raw deck file bytes to the importer service and
// applies the result the same way as the URL-based import.
func (s *Session) ImportDeckFromFile(ctx context.Context, filename string, contents []byte) error {
	imported, err := s.client.ImportDeckFromFile(ctx, filename, contents)
	if err != nil {
		return err
	}
	return s.applyDeckImport(imported)
}

func (s *Session) applyDeckImport(imported *simulator.DeckImport) error {
	cats, err := simconfig.CategoriesFromLegacy(imported.DeckContents)
	if err != nil {
		return fmt.Errorf("convert imported deck: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.Categories = cats
	s.config.SyncDeckContents()
	s.config.SetDeckSize(imported.DeckSize)
	s.persistLocked()
	return nil
}

// SaveAs persists the current aggregate under a name.
func (s *Session) SaveAs(name string) (*storage.SavedConfiguration, error) {
	if s.configs == nil {
		return nil, fmt.Errorf("no configuration store available")
	}
	doc, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return s.configs.Save(name, doc)
}

// LoadSaved replaces the live aggregate with a saved configuration.
func (s *Session) LoadSaved(id string) error {
	if s.configs == nil {
		return fmt.Errorf("no configuration store available")
	}
	saved, err := s.configs.Get(id)
	if err != nil {
		return err
	}
	return s.Import(saved.Document)
}

// ListSaved lists all saved configurations.
func (s *Session) ListSaved() ([]*storage.SavedConfiguration, error) {
	if s.configs == nil {
		return nil, fmt.Errorf("no configuration store available")
	}
	return s.configs.List()
}

// DeleteSaved removes a saved configuration.
func (s *Session) DeleteSaved(id string) error {
	if s.configs == nil {
		return fmt.Errorf("no configuration store available")
	}
	return s.configs.Delete(id)
}

// Results returns recent simulation results, newest first.
func (s *Session) Results(limit int) ([]*storage.ResultRecord, error) {
	if s.results == nil {
		return nil, fmt.Errorf("no result store available")
	}
	return s.results.Recent(limit)
}

// ReloadFromDisk re-imports current.json after an external edit. Writes made
// by the session itself are recognized and skipped.
func (s *Session) ReloadFromDisk() error {
	if s.dataDir == "" {
		return nil
	}
	data, err := os.ReadFile(s.CurrentPath())
	if err != nil {
		return fmt.Errorf("read %s: %w", currentFileName, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if bytes.Equal(data, s.lastPersisted) {
		return nil
	}
	if err := s.config.Import(data); err != nil {
		return err
	}
	s.lastPersisted = data
	return nil
}

// clone deep-copies the aggregate through its interchange form, so a running
// request never observes later mutations.
func (s *Session) clone() (*simconfig.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.config.Export()
	if err != nil {
		return nil, err
	}
	clone := simconfig.New()
	if err := clone.Import(data); err != nil {
		return nil, fmt.Errorf("clone aggregate: %w", err)
	}
	return clone, nil
}

// persistLocked writes the aggregate to current.json. Callers hold the lock.
// Persistence failures are logged, not returned: the in-memory aggregate is
// authoritative and a read-only disk should not block editing.
func (s *Session) persistLocked() {
	if s.dataDir == "" {
		return
	}
	data, err := s.config.Export()
	if err != nil {
		log.Printf("session: export for persistence: %v", err)
		return
	}

	tmp := s.CurrentPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		log.Printf("session: write %s: %v", currentFileName, err)
		return
	}
	if err := os.Rename(tmp, s.CurrentPath()); err != nil {
		log.Printf("session: replace %s: %v", currentFileName, err)
		return
	}
	s.lastPersisted = data
}
