package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/kmorwood/drawsim-companion/internal/api/response"
	"github.com/kmorwood/drawsim-companion/internal/charts"
	"github.com/kmorwood/drawsim-companion/internal/session"
	"github.com/kmorwood/drawsim-companion/internal/storage"
)

// ResultsHandler serves simulation result history.
type ResultsHandler struct {
	session *session.Session
}

// NewResultsHandler creates a new ResultsHandler.
func NewResultsHandler(s *session.Session) *ResultsHandler {
	return &ResultsHandler{session: s}
}

// List returns recent simulation results, newest first.
func (h *ResultsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			response.BadRequest(w, fmt.Errorf("invalid limit: %q", raw))
			return
		}
		limit = parsed
	}

	records, err := h.session.Results(limit)
	if err != nil {
		response.InternalError(w, fmt.Errorf("list results: %w", err))
		return
	}
	if records == nil {
		records = []*storage.ResultRecord{}
	}
	response.Success(w, records)
}

// Chart renders recent result history as an interactive HTML chart.
func (h *ResultsHandler) Chart(w http.ResponseWriter, r *http.Request) {
	records, err := h.session.Results(100)
	if err != nil {
		response.InternalError(w, fmt.Errorf("load results: %w", err))
		return
	}
	if len(records) == 0 {
		response.NotFound(w, fmt.Errorf("no simulation results recorded yet"))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := charts.RenderSuccessRateHistory(records, w); err != nil {
		response.InternalError(w, fmt.Errorf("render chart: %w", err))
	}
}
