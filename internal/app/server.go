package app

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ragstack/ragserve/internal/api/handlers"
	"github.com/ragstack/ragserve/internal/config"
	"github.com/ragstack/ragserve/internal/core"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, dbClient core.DbClient, ingestor handlers.Ingestor, engine handlers.Searcher, llm core.LLMProvider, provider core.ProviderKind) *Server {
	collectionHandler := handlers.NewCollectionHandler(dbClient)
	docHandler := handlers.NewDocumentHandler(dbClient, ingestor, provider)
	searchHandler := handlers.NewSearchHandler(engine)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8888"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Collection-Name", "Document-Name"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(api chi.Router) {
		api.Get("/collections", collectionHandler.List)
		api.Post("/collections", collectionHandler.Create)
		api.Delete("/collections/{name}", collectionHandler.Delete)

		api.Post("/documents/upload", docHandler.Upload)
		api.Post("/documents/upload/text", docHandler.UploadText)
		api.Get("/documents", docHandler.List)
		api.Get("/documents/{id}/chunks", docHandler.Chunks)
		api.Delete("/documents/{id}", docHandler.Delete)

		api.Post("/query", searchHandler.Query)

		if llm != nil {
			chatHandler := handlers.NewChatHandler(engine, llm)
			api.Post("/chat", chatHandler.Ask)
		}
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv}
}

// Start runs the HTTP server.
func (s *Server) Start() {
	log.Printf("HTTP server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}
