package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/kmorwood/drawsim-companion/internal/api/response"
	"github.com/kmorwood/drawsim-companion/internal/session"
	"github.com/kmorwood/drawsim-companion/internal/simulator"
)

// SimulateHandler submits the live aggregate to the simulation service.
type SimulateHandler struct {
	session *session.Session
}

// NewSimulateHandler creates a new SimulateHandler.
func NewSimulateHandler(s *session.Session) *SimulateHandler {
	return &SimulateHandler{session: s}
}

// Run submits the configuration and returns the simulation statistics.
func (h *SimulateHandler) Run(w http.ResponseWriter, r *http.Request) {
	result, err := h.session.RunSimulation(r.Context())
	if err != nil {
		writeCollaboratorError(w, err)
		return
	}
	response.Success(w, result)
}

// writeCollaboratorError surfaces a simulation-service failure with the
// service's own detail text when it supplied one.
func writeCollaboratorError(w http.ResponseWriter, err error) {
	var apiErr *simulator.APIError
	if errors.As(err, &apiErr) {
		// Client-side mistakes (bad configuration) keep their status; other
		// failures surface as a gateway problem.
		status := http.StatusBadGateway
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			status = apiErr.StatusCode
		}
		response.Error(w, status, errors.New(apiErr.Detail))
		return
	}
	response.BadGateway(w, fmt.Errorf("simulation service unreachable: %w", err))
}

// DeckImportHandler proxies deck imports through the importer service and
// applies the result to the live aggregate.
type DeckImportHandler struct {
	session *session.Session
}

// NewDeckImportHandler creates a new DeckImportHandler.
func NewDeckImportHandler(s *session.Session) *DeckImportHandler {
	return &DeckImportHandler{session: s}
}

// FromURL imports a deck from a source URL.
func (h *DeckImportHandler) FromURL(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.BadRequest(w, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if body.URL == "" {
		response.BadRequest(w, errors.New("url is required"))
		return
	}

	if err := h.session.ImportDeckFromURL(r.Context(), body.URL); err != nil {
		writeCollaboratorError(w, err)
		return
	}

	doc, err := h.session.Snapshot()
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Raw(w, http.StatusOK, doc)
}

// FromFile imports a deck from an uploaded file.
func (h *DeckImportHandler) FromFile(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, fmt.Errorf("deck file is required: %w", err))
		return
	}
	defer func() { _ = file.Close() }()

	contents, err := io.ReadAll(file)
	if err != nil {
		response.BadRequest(w, fmt.Errorf("read deck file: %w", err))
		return
	}

	if err := h.session.ImportDeckFromFile(r.Context(), header.Filename, contents); err != nil {
		writeCollaboratorError(w, err)
		return
	}

	doc, err := h.session.Snapshot()
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Raw(w, http.StatusOK, doc)
}
