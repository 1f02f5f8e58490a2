package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/phrazzld/triage-api/internal/api"
	apiMiddleware "github.com/phrazzld/triage-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware. Returns the configured router.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	if len(app.config.Server.AllowedOrigins) > 0 {
		c := cors.New(cors.Options{
			AllowedOrigins: app.config.Server.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
		})
		r.Use(c.Handler)
	}

	// Create API handlers over the shared session
	taskHandler := api.NewTaskHandler(app.session, app.logger)
	adviceHandler := api.NewAdviceHandler(app.session, app.logger)
	shareHandler := api.NewShareHandler(app.session, app.logger)

	// Register routes
	r.Route("/api", func(r chi.Router) {
		// Task endpoints
		r.Post("/tasks", taskHandler.SubmitTask)
		r.Get("/tasks", taskHandler.ListTasks)
		r.Delete("/tasks/completed", taskHandler.ClearCompleted)
		r.Delete("/tasks/{id}", taskHandler.DeleteTask)
		r.Post("/tasks/{id}/toggle", taskHandler.ToggleTask)
		r.Post("/tasks/{id}/move", taskHandler.MoveTask)

		// Advice endpoints
		r.Post("/tasks/{id}/decompose", adviceHandler.DecomposeTask)
		r.Get("/suggestion", adviceHandler.Suggestion)

		// Sharing endpoints
		r.Get("/share", shareHandler.Share)
		r.Post("/restore", shareHandler.Restore)

		// Matrix definitions and pipeline status
		r.Get("/matrices", taskHandler.Matrices)
		r.Get("/classification/status", taskHandler.ClassificationStatus)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("OK"))
		if err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
