package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kmorwood/drawsim-companion/internal/api/handlers"
	"github.com/kmorwood/drawsim-companion/internal/api/response"
	"github.com/kmorwood/drawsim-companion/internal/version"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check endpoint (no versioning)
	s.router.Get("/health", s.healthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Live configuration routes
		configHandler := handlers.NewConfigHandler(s.session)
		r.Route("/config", func(r chi.Router) {
			r.Get("/", configHandler.GetConfig)
			r.Put("/", configHandler.UpdateConfig)
			r.Post("/reset", configHandler.ResetConfig)
			r.Patch("/sizes", configHandler.UpdateSizes)
			r.Put("/categories/{name}", configHandler.SetCategory)
			r.Delete("/categories/{name}", configHandler.DeleteCategory)
			r.Put("/effects/{cardName}", configHandler.SetEffect)
			r.Delete("/effects/{cardName}", configHandler.RemoveEffect)
		})

		// Saved configuration routes
		savedHandler := handlers.NewSavedHandler(s.session)
		r.Route("/configs", func(r chi.Router) {
			r.Get("/", savedHandler.List)
			r.Post("/", savedHandler.Save)
			r.Post("/{id}/load", savedHandler.Load)
			r.Delete("/{id}", savedHandler.Delete)
		})

		// Simulation routes
		simulateHandler := handlers.NewSimulateHandler(s.session)
		r.Post("/simulate", simulateHandler.Run)

		// Deck import routes
		deckImportHandler := handlers.NewDeckImportHandler(s.session)
		r.Route("/import-deck", func(r chi.Router) {
			r.Post("/", deckImportHandler.FromURL)
			r.Post("/file", deckImportHandler.FromFile)
		})

		// Result history routes
		resultsHandler := handlers.NewResultsHandler(s.session)
		r.Route("/results", func(r chi.Router) {
			r.Get("/", resultsHandler.List)
			r.Get("/chart", resultsHandler.Chart)
		})

		// Export routes
		exportHandler := handlers.NewExportHandler(s.session)
		r.Route("/export", func(r chi.Router) {
			r.Get("/config", exportHandler.ExportConfig)
			r.Get("/results", exportHandler.ExportResults)
		})
	})
}

// healthCheck returns server health status.
func (s *Server) healthCheck(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "drawsim-companion-api",
		"version": version.GetVersion(),
	})
}
