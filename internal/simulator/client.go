// Package simulator is the HTTP client for the external Monte Carlo
// simulation service. The service owns the draw algorithm, rule evaluation
// across groups, and referential validation; this side only ships the
// configuration over and surfaces the service's errors readably.
package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/kmorwood/drawsim-companion/internal/simconfig"
)

// ClientConfig holds configuration for the simulation service client.
type ClientConfig struct {
	// BaseURL is the base URL of the simulation service (e.g., "http://127.0.0.1:8000")
	BaseURL string

	// Timeout is the timeout for individual requests
	Timeout time.Duration

	// MaxRetries is the maximum number of retry attempts
	MaxRetries int

	// RetryBaseDelay is the base delay for exponential backoff
	RetryBaseDelay time.Duration

	// RateLimit is the maximum request rate in requests per second (0 = unlimited)
	RateLimit float64
}

// DefaultClientConfig returns a ClientConfig with sensible defaults.
func DefaultClientConfig(baseURL string) *ClientConfig {
	return &ClientConfig{
		BaseURL:        baseURL,
		Timeout:        60 * time.Second,
		MaxRetries:     3,
		RetryBaseDelay: 500 * time.Millisecond,
		RateLimit:      2,
	}
}

// Client is an HTTP client for the simulation service.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new simulation service client.
func NewClient(config *ClientConfig) *Client {
	limit := rate.Inf
	if config.RateLimit > 0 {
		limit = rate.Limit(config.RateLimit)
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Result is the simulation service's response for a run.
type Result struct {
	SuccessRate          float64  `json:"success_rate"`
	BrickRate            float64  `json:"brick_rate"`
	SuccessCount         int      `json:"success_count"`
	BrickCount           int      `json:"brick_count"`
	TimeTaken            float64  `json:"time_taken"`
	MaxDepthReachedCount int      `json:"max_depth_reached_count"`
	Warnings             []string `json:"warnings"`
}

// DeckImport is the deck importer's response. DeckContents stays raw so the
// caller can preserve the entry order of the source object when converting
// it into card categories.
type DeckImport struct {
	DeckContents json.RawMessage `json:"deck_contents"`
	DeckSize     int             `json:"deck_size"`
}

// APIError is a non-success response from the simulation service, carrying
// the human-readable detail the service supplied (or a generic message).
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("simulation service returned %d: %s", e.StatusCode, e.Detail)
}

// simulationRequest is the wire shape the service accepts. Field names are
// snake_case throughout, unlike the persisted interchange document.
type simulationRequest struct {
	DeckSize       int                       `json:"deck_size"`
	DeckContents   map[string]int            `json:"deck_contents"`
	CardCategories []categoryPayload         `json:"card_categories"`
	HandSize       int                       `json:"hand_size"`
	Simulations    int                       `json:"simulations"`
	Rules          [][]simconfig.Requirement `json:"rules"`
	CardEffects    []effectPayload           `json:"card_effects"`
}

type categoryPayload struct {
	Name          string   `json:"name"`
	Count         int      `json:"count"`
	Subcategories []string `json:"subcategories"`
}

type effectPayload struct {
	CardName   string          `json:"card_name"`
	EffectType string          `json:"effect_type"`
	Parameters json.RawMessage `json:"parameters"`
}

func buildRequest(cfg *simconfig.Config) simulationRequest {
	contents := make(map[string]int, len(cfg.Categories))
	cats := make([]categoryPayload, len(cfg.Categories))
	for i, cat := range cfg.Categories {
		contents[cat.Name] = cat.Count
		subs := cat.Subcategories
		if subs == nil {
			subs = []string{}
		}
		cats[i] = categoryPayload{Name: cat.Name, Count: cat.Count, Subcategories: subs}
	}

	effects := make([]effectPayload, len(cfg.Effects))
	for i, effect := range cfg.Effects {
		params := effect.Parameters
		if len(params) == 0 {
			params = json.RawMessage(`{}`)
		}
		effects[i] = effectPayload{CardName: effect.CardName, EffectType: effect.EffectType, Parameters: params}
	}

	rules := cfg.Rules
	if rules == nil {
		rules = [][]simconfig.Requirement{}
	}

	return simulationRequest{
		DeckSize:       cfg.DeckSize,
		DeckContents:   contents,
		CardCategories: cats,
		HandSize:       cfg.HandSize,
		Simulations:    cfg.Simulations,
		Rules:          rules,
		CardEffects:    effects,
	}
}

// Run submits the configuration aggregate and returns the simulation result.
func (c *Client) Run(ctx context.Context, cfg *simconfig.Config) (*Result, error) {
	body, err := json.Marshal(buildRequest(cfg))
	if err != nil {
		return nil, fmt.Errorf("marshal simulation request: %w", err)
	}

	var result Result
	if err := c.doRequest(ctx, "/simulate", body, "application/json", "Simulation failed", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ImportDeckFromURL asks the service to fetch and parse a deck from a source
// URL, returning the category-name to count mapping.
func (c *Client) ImportDeckFromURL(ctx context.Context, deckURL string) (*DeckImport, error) {
	body, err := json.Marshal(map[string]string{"url": deckURL})
	if err != nil {
		return nil, fmt.Errorf("marshal deck import request: %w", err)
	}

	var imported DeckImport
	if err := c.doRequest(ctx, "/api/import-deck", body, "application/json", "Failed to import deck", &imported); err != nil {
		return nil, err
	}
	return &imported, nil
}

// ImportDeckFromFile uploads raw deck file bytes as a multipart form and
// returns the same shape as the URL-based importer.
func (c *Client) ImportDeckFromFile(ctx context.Context, filename string, contents []byte) (*DeckImport, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create multipart form: %w", err)
	}
	if _, err := part.Write(contents); err != nil {
		return nil, fmt.Errorf("write deck file to form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart form: %w", err)
	}

	var imported DeckImport
	if err := c.doRequest(ctx, "/api/import-deck/file", buf.Bytes(), writer.FormDataContentType(), "Failed to import deck", &imported); err != nil {
		return nil, err
	}
	return &imported, nil
}

// doRequest performs a POST with retry logic. Server errors (5xx) and
// transport failures retry with exponential backoff; 4xx responses surface
// immediately with the service-supplied detail.
func (c *Client) doRequest(ctx context.Context, path string, body []byte, contentType, fallback string, result interface{}) error {
	url := c.config.BaseURL + path

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.config.RetryBaseDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		if closeErr := resp.Body.Close(); closeErr != nil && readErr == nil {
			readErr = closeErr
		}
		if readErr != nil {
			lastErr = fmt.Errorf("read response: %w", readErr)
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = &APIError{StatusCode: resp.StatusCode, Detail: extractDetail(respBody, fallback)}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			return &APIError{StatusCode: resp.StatusCode, Detail: extractDetail(respBody, fallback)}
		}

		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}

	return lastErr
}

// extractDetail pulls the service's "detail" field out of an error body.
// Detail may be a plain string or a structured value (validation errors come
// back as arrays of objects); both must render as readable text.
func extractDetail(body []byte, fallback string) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return fallback
	}

	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		if s == "" {
			return fallback
		}
		return s
	}
	return string(payload.Detail)
}
