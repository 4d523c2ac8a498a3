package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kmorwood/drawsim-companion/internal/api/response"
	"github.com/kmorwood/drawsim-companion/internal/session"
	"github.com/kmorwood/drawsim-companion/internal/storage"
)

// SavedHandler handles named saved configurations.
type SavedHandler struct {
	session *session.Session
}

// NewSavedHandler creates a new SavedHandler.
func NewSavedHandler(s *session.Session) *SavedHandler {
	return &SavedHandler{session: s}
}

// List returns all saved configurations.
func (h *SavedHandler) List(w http.ResponseWriter, r *http.Request) {
	configs, err := h.session.ListSaved()
	if err != nil {
		response.InternalError(w, fmt.Errorf("list configurations: %w", err))
		return
	}
	if configs == nil {
		configs = []*storage.SavedConfiguration{}
	}
	response.Success(w, configs)
}

// Save persists the live aggregate under a name, replacing any existing
// configuration with that name.
func (h *SavedHandler) Save(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.BadRequest(w, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if body.Name == "" {
		response.BadRequest(w, errors.New("name is required"))
		return
	}

	saved, err := h.session.SaveAs(body.Name)
	if err != nil {
		response.InternalError(w, fmt.Errorf("save configuration: %w", err))
		return
	}
	response.JSON(w, http.StatusCreated, response.SuccessResponse{Data: saved})
}

// Load replaces the live aggregate with a saved configuration.
func (h *SavedHandler) Load(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.session.LoadSaved(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.NotFound(w, fmt.Errorf("configuration not found: %s", id))
			return
		}
		response.InternalError(w, fmt.Errorf("load configuration: %w", err))
		return
	}

	doc, err := h.session.Snapshot()
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Raw(w, http.StatusOK, doc)
}

// Delete removes a saved configuration.
func (h *SavedHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.session.DeleteSaved(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.NotFound(w, fmt.Errorf("configuration not found: %s", id))
			return
		}
		response.InternalError(w, fmt.Errorf("delete configuration: %w", err))
		return
	}
	response.NoContent(w)
}
