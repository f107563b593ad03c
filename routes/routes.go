package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/professor-ai/rag-service/app"
	"github.com/professor-ai/rag-service/handlers"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	healthHandler := handlers.NewHealthHandler(deps.HealthPinger(), deps.Logger)
	retrievalHandler := handlers.NewRetrievalHandler(deps.Retrieval, deps.Logger)
	documentHandler := handlers.NewDocumentHandler(deps.Ingest, deps.Repos.Documents, deps.Logger)
	tutorHandler := handlers.NewTutorHandler(deps.Tutor, deps.Logger)

	// Health check endpoints
	r.Get("/healthz", healthHandler.HandleHealth)
	r.Get("/readyz", healthHandler.HandleReadiness)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Retrieval works anonymously: without an acting user, visibility
		// filtering is disabled.
		r.Route("/retrieval", func(r chi.Router) {
			r.Use(deps.AuthMiddleware.OptionalAuth)
			r.Post("/search", retrievalHandler.HandleSearch)
			r.Post("/enhance", retrievalHandler.HandleEnhance)
		})

		// Document management
		r.Route("/documents", func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)
			r.Post("/", documentHandler.HandleCreate)
			r.Get("/", documentHandler.HandleList)
			r.Get("/{id}", documentHandler.HandleGet)
			r.Post("/syllabus", documentHandler.HandleSyllabusIngest)
		})

		// Tutoring chat turn
		r.Route("/tutor", func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)
			r.Post("/ask", tutorHandler.HandleAsk)
		})
	})

	return r
}
