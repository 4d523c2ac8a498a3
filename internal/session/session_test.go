package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/kmorwood/drawsim-companion/internal/simconfig"
	"github.com/kmorwood/drawsim-companion/internal/simulator"
)

func testSimulatorClient(baseURL string) *simulator.Client {
	cfg := simulator.DefaultClientConfig(baseURL)
	cfg.MaxRetries = 0
	cfg.RetryBaseDelay = time.Millisecond
	cfg.RateLimit = 0
	return simulator.NewClient(cfg)
}

func TestSessionPersistsAcrossRestarts(t *testing.T) {
	dir := t.TempDir()

	first := New(nil, nil, dir)
	first.SetCategory(simconfig.CardCategory{Name: "Starter", Count: 12})
	first.DeleteCategory("Starter")
	first.SetCategory(simconfig.CardCategory{Name: "Handtrap", Count: 9})

	second := New(nil, nil, dir)
	doc, err := second.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	restored := simconfig.New()
	if err := restored.Import(doc); err != nil {
		t.Fatalf("import snapshot: %v", err)
	}
	if len(restored.Categories) != 1 || restored.Categories[0].Name != "Handtrap" {
		t.Errorf("categories = %v", restored.Categories)
	}
}

func TestSessionIgnoresCorruptCurrentFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(dir+"/current.json", []byte("{broken"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	s := New(nil, nil, dir)
	doc, err := s.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	cfg := simconfig.New()
	if err := cfg.Import(doc); err != nil {
		t.Fatalf("import snapshot: %v", err)
	}
	if cfg.DeckSize != simconfig.DefaultDeckSize {
		t.Errorf("deck size = %d, want default", cfg.DeckSize)
	}
}

func TestImportDeckReplacesCategoriesInOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"deck_contents": {"Starter": 3, "Engine": 2, "Handtrap": 9}, "deck_size": 14}`))
	}))
	defer server.Close()

	s := New(testSimulatorClient(server.URL), nil, t.TempDir())
	s.SetEffect(simconfig.CardEffect{CardName: "Starter", EffectType: simconfig.EffectDraw})

	if err := s.ImportDeckFromURL(context.Background(), "https://example.com/deck/1"); err != nil {
		t.Fatalf("import deck: %v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	wantOrder := []string{"Starter", "Engine", "Handtrap"}
	if len(s.config.Categories) != len(wantOrder) {
		t.Fatalf("categories = %v", s.config.Categories)
	}
	for i, name := range wantOrder {
		if s.config.Categories[i].Name != name {
			t.Errorf("category[%d] = %q, want %q", i, s.config.Categories[i].Name, name)
		}
	}
	if s.config.DeckSize != 14 {
		t.Errorf("deck size = %d, want 14", s.config.DeckSize)
	}
	// A deck import touches categories and deck size only.
	if len(s.config.Effects) != 1 {
		t.Errorf("effects changed by deck import: %v", s.config.Effects)
	}
}

func TestFailedDeckImportLeavesAggregateUntouched(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail": "Invalid DuelingBook URL"}`))
	}))
	defer server.Close()

	s := New(testSimulatorClient(server.URL), nil, t.TempDir())
	s.SetCategory(simconfig.CardCategory{Name: "Starter", Count: 12})

	before, err := s.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	if err := s.ImportDeckFromURL(context.Background(), "https://example.com/bad"); err == nil {
		t.Fatal("expected import to fail")
	}

	after, err := s.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if string(before) != string(after) {
		t.Errorf("aggregate changed after failed import:\nbefore %s\nafter  %s", before, after)
	}
}

func TestReloadFromDiskAppliesExternalEdits(t *testing.T) {
	dir := t.TempDir()
	s := New(nil, nil, dir)
	s.SetCategory(simconfig.CardCategory{Name: "Starter", Count: 12})

	// Our own persisted write is recognized and skipped.
	if err := s.ReloadFromDisk(); err != nil {
		t.Fatalf("reload after own write: %v", err)
	}

	external := []byte(`{"deckSize": 60, "cardCategories": [{"name": "Engine", "count": 6, "subcategories": []}]}`)
	if err := os.WriteFile(s.CurrentPath(), external, 0o644); err != nil {
		t.Fatalf("write external edit: %v", err)
	}
	if err := s.ReloadFromDisk(); err != nil {
		t.Fatalf("reload external edit: %v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.config.DeckSize != 60 {
		t.Errorf("deck size = %d, want 60", s.config.DeckSize)
	}
	if len(s.config.Categories) != 1 || s.config.Categories[0].Name != "Engine" {
		t.Errorf("categories = %v", s.config.Categories)
	}
}

func TestRunSimulationRecordsNothingWithoutStore(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success_rate": 75, "brick_rate": 25, "success_count": 750, "brick_count": 250, "time_taken": 0.1, "max_depth_reached_count": 0, "warnings": []}`))
	}))
	defer server.Close()

	s := New(testSimulatorClient(server.URL), nil, t.TempDir())
	result, err := s.RunSimulation(context.Background())
	if err != nil {
		t.Fatalf("run simulation: %v", err)
	}
	if result.SuccessRate != 75 {
		t.Errorf("success rate = %v", result.SuccessRate)
	}
}
