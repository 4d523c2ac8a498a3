package simulator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kmorwood/drawsim-companion/internal/simconfig"
)

func testClient(baseURL string) *Client {
	cfg := DefaultClientConfig(baseURL)
	cfg.MaxRetries = 2
	cfg.RetryBaseDelay = time.Millisecond
	cfg.RateLimit = 0
	return NewClient(cfg)
}

func TestRunSendsAggregateAndDecodesResult(t *testing.T) {
	var received map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/simulate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success_rate": 84.2, "brick_rate": 15.8,
			"success_count": 842000, "brick_count": 158000,
			"time_taken": 1.25, "max_depth_reached_count": 3,
			"warnings": ["rule 2 references unknown category \"Extender\""]
		}`))
	}))
	defer server.Close()

	cfg := simconfig.New()
	cfg.SetCategory(simconfig.CardCategory{Name: "Starter", Count: 12})

	result, err := testClient(server.URL).Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.SuccessRate != 84.2 || result.SuccessCount != 842000 {
		t.Errorf("unexpected result: %+v", result)
	}
	if result.MaxDepthReachedCount != 3 {
		t.Errorf("max depth count = %d, want 3", result.MaxDepthReachedCount)
	}
	if len(result.Warnings) != 1 {
		t.Errorf("warnings = %v", result.Warnings)
	}

	if received["deck_size"] != float64(40) {
		t.Errorf("deck_size = %v, want 40", received["deck_size"])
	}
	if _, ok := received["card_categories"]; !ok {
		t.Error("request missing card_categories")
	}
	if _, ok := received["rules"]; !ok {
		t.Error("request missing rules")
	}
}

func TestErrorDetailExtraction(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "string detail",
			body: `{"detail": "Card counts (45) exceed deck size (40)"}`,
			want: "Card counts (45) exceed deck size (40)",
		},
		{
			name: "structured detail renders as text",
			body: `{"detail": [{"loc": ["body", "deck_size"], "msg": "field required"}]}`,
			want: `[{"loc": ["body", "deck_size"], "msg": "field required"}]`,
		},
		{
			name: "missing detail falls back",
			body: `{"unexpected": true}`,
			want: "Simulation failed",
		},
		{
			name: "malformed body falls back",
			body: `not json`,
			want: "Simulation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := testClient(server.URL).Run(context.Background(), simconfig.New())
			if err == nil {
				t.Fatal("expected error")
			}
			apiErr, ok := err.(*APIError)
			if !ok {
				t.Fatalf("expected *APIError, got %T: %v", err, err)
			}
			if apiErr.Detail != tt.want {
				t.Errorf("detail = %q, want %q", apiErr.Detail, tt.want)
			}
		})
	}
}

func TestServerErrorsRetry(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"success_rate": 50, "brick_rate": 50, "success_count": 1, "brick_count": 1, "time_taken": 0, "max_depth_reached_count": 0, "warnings": []}`))
	}))
	defer server.Close()

	result, err := testClient(server.URL).Run(context.Background(), simconfig.New())
	if err != nil {
		t.Fatalf("Run failed after retries: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if result.SuccessRate != 50 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestImportDeckFromURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/import-deck" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req["url"] != "https://example.com/deck/123" {
			t.Errorf("url = %q", req["url"])
		}
		_, _ = w.Write([]byte(`{"deck_contents": {"Starter": 3, "Engine": 2}, "deck_size": 5}`))
	}))
	defer server.Close()

	imported, err := testClient(server.URL).ImportDeckFromURL(context.Background(), "https://example.com/deck/123")
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if imported.DeckSize != 5 {
		t.Errorf("deck size = %d, want 5", imported.DeckSize)
	}
	// Raw contents keep the source order for downstream category synthesis.
	if got := string(imported.DeckContents); got != `{"Starter": 3, "Engine": 2}` {
		t.Errorf("deck contents = %s", got)
	}
}

func TestImportDeckFromFileUploadsMultipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			t.Errorf("content type = %q", r.Header.Get("Content-Type"))
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer func() { _ = file.Close() }()
		if header.Filename != "deck.ydk" {
			t.Errorf("filename = %q", header.Filename)
		}
		_, _ = w.Write([]byte(`{"deck_contents": {"Dark Magician": 3}, "deck_size": 3}`))
	}))
	defer server.Close()

	imported, err := testClient(server.URL).ImportDeckFromFile(context.Background(), "deck.ydk", []byte("#main\n46986414\n"))
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if imported.DeckSize != 3 {
		t.Errorf("deck size = %d, want 3", imported.DeckSize)
	}
}
