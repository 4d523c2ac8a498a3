package handlers

import (
	"fmt"
	"net/http"

	"github.com/kmorwood/drawsim-companion/internal/api/response"
	"github.com/kmorwood/drawsim-companion/internal/export"
	"github.com/kmorwood/drawsim-companion/internal/session"
)

// ExportHandler serves downloadable exports of the configuration and the
// result history.
type ExportHandler struct {
	session *session.Session
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(s *session.Session) *ExportHandler {
	return &ExportHandler{session: s}
}

// ExportConfig serves the live aggregate as a downloadable JSON document.
func (h *ExportHandler) ExportConfig(w http.ResponseWriter, r *http.Request) {
	doc, err := h.session.Snapshot()
	if err != nil {
		response.InternalError(w, fmt.Errorf("export configuration: %w", err))
		return
	}

	filename := export.GenerateFilename("config", export.FormatJSON)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := export.WriteConfigDocument(w, doc); err != nil {
		response.InternalError(w, fmt.Errorf("write configuration export: %w", err))
	}
}

// ExportResults serves the result history as a downloadable JSON or CSV file,
// selected with the format query parameter.
func (h *ExportHandler) ExportResults(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("format")
	if name == "" {
		name = string(export.FormatCSV)
	}
	format, err := export.ParseFormat(name)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	records, err := h.session.Results(0)
	if err != nil {
		response.InternalError(w, fmt.Errorf("load results: %w", err))
		return
	}
	if len(records) == 0 {
		response.NotFound(w, fmt.Errorf("no simulation results recorded yet"))
		return
	}

	filename := export.GenerateFilename("results", format)
	if format == export.FormatCSV {
		w.Header().Set("Content-Type", "text/csv")
	} else {
		w.Header().Set("Content-Type", "application/json")
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := export.WriteResults(w, format, records); err != nil {
		response.InternalError(w, fmt.Errorf("write results export: %w", err))
	}
}
