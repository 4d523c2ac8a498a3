// Package handlers implements the REST API endpoints consumed by the editing
// frontend.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kmorwood/drawsim-companion/internal/api/response"
	"github.com/kmorwood/drawsim-companion/internal/session"
	"github.com/kmorwood/drawsim-companion/internal/simconfig"
)

// ConfigHandler handles live configuration requests.
type ConfigHandler struct {
	session *session.Session
}

// NewConfigHandler creates a new ConfigHandler.
func NewConfigHandler(s *session.Session) *ConfigHandler {
	return &ConfigHandler{session: s}
}

// GetConfig returns the live aggregate as an interchange document.
func (h *ConfigHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	doc, err := h.session.Snapshot()
	if err != nil {
		response.InternalError(w, fmt.Errorf("export configuration: %w", err))
		return
	}
	response.Raw(w, http.StatusOK, doc)
}

// UpdateConfig merges an interchange document into the live aggregate.
// Partial documents are valid; a malformed one changes nothing.
func (h *ConfigHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		response.BadRequest(w, fmt.Errorf("read request body: %w", err))
		return
	}

	if err := h.session.Import(body); err != nil {
		var parseErr *simconfig.ParseError
		if errors.As(err, &parseErr) {
			response.BadRequest(w, parseErr)
			return
		}
		response.InternalError(w, err)
		return
	}

	h.GetConfig(w, r)
}

// ResetConfig restores the default aggregate.
func (h *ConfigHandler) ResetConfig(w http.ResponseWriter, r *http.Request) {
	h.session.Reset()
	h.GetConfig(w, r)
}

// UpdateSizes applies deck size, hand size, and iteration count edits.
func (h *ConfigHandler) UpdateSizes(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DeckSize    *int `json:"deckSize"`
		HandSize    *int `json:"handSize"`
		Simulations *int `json:"simulations"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.BadRequest(w, fmt.Errorf("invalid request body: %w", err))
		return
	}

	h.session.UpdateSizes(body.DeckSize, body.HandSize, body.Simulations)
	h.GetConfig(w, r)
}

// SetCategory inserts or replaces the named card category.
func (h *ConfigHandler) SetCategory(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		response.BadRequest(w, errors.New("category name is required"))
		return
	}

	var body struct {
		Count         int      `json:"count"`
		Subcategories []string `json:"subcategories"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.BadRequest(w, fmt.Errorf("invalid request body: %w", err))
		return
	}

	h.session.SetCategory(simconfig.CardCategory{
		Name:          name,
		Count:         body.Count,
		Subcategories: body.Subcategories,
	})
	h.GetConfig(w, r)
}

// DeleteCategory removes the named category; the requirement forest is
// repaired and the legacy view resynced as part of the same operation.
func (h *ConfigHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		response.BadRequest(w, errors.New("category name is required"))
		return
	}

	h.session.DeleteCategory(name)
	h.GetConfig(w, r)
}

// SetEffect inserts or replaces the card effect for a card name.
func (h *ConfigHandler) SetEffect(w http.ResponseWriter, r *http.Request) {
	cardName := chi.URLParam(r, "cardName")
	if cardName == "" {
		response.BadRequest(w, errors.New("card name is required"))
		return
	}

	var body struct {
		EffectType string          `json:"effect_type"`
		Parameters json.RawMessage `json:"parameters"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.BadRequest(w, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if body.EffectType == "" {
		response.BadRequest(w, errors.New("effect_type is required"))
		return
	}

	h.session.SetEffect(simconfig.CardEffect{
		CardName:   cardName,
		EffectType: body.EffectType,
		Parameters: body.Parameters,
	})
	h.GetConfig(w, r)
}

// RemoveEffect removes the card effect for a card name.
func (h *ConfigHandler) RemoveEffect(w http.ResponseWriter, r *http.Request) {
	cardName := chi.URLParam(r, "cardName")
	if cardName == "" {
		response.BadRequest(w, errors.New("card name is required"))
		return
	}

	h.session.RemoveEffect(cardName)
	h.GetConfig(w, r)
}
