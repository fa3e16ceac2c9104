package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/promptlab-ai/promptlab/internal/api"
	"github.com/promptlab-ai/promptlab/internal/api/handlers"
	"github.com/promptlab-ai/promptlab/internal/api/middleware"
)

type RouterConfig struct {
	ChatHandler  *handlers.ChatHandler
	ToolsHandler *handlers.ToolsHandler
	RAGHandler   *handlers.RAGHandler
	AgentHandler *handlers.AgentHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))
	// The walkthrough UI is a separate static frontend
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/models", cfg.ChatHandler.Models)

		r.Post("/stage1/chat", cfg.ChatHandler.Stage1Chat)

		r.Get("/stage2/presets", cfg.ChatHandler.Stage2Presets)
		r.Post("/stage2/chat", cfg.ChatHandler.Stage2Chat)

		r.Post("/stage3/chat", cfg.ChatHandler.Stage3Chat)
		r.Post("/stage3/stream", cfg.ChatHandler.Stage3Stream)

		r.Post("/stage4/chat", cfg.ToolsHandler.Stage4Chat)

		r.Route("/stage5", func(r chi.Router) {
			r.Post("/upload", cfg.RAGHandler.Upload)
			r.Post("/fetch_url", cfg.RAGHandler.FetchURL)
			r.Post("/chunk", cfg.RAGHandler.Chunk)
			r.Post("/embed", cfg.RAGHandler.Embed)
			r.Post("/index", cfg.RAGHandler.Index)
			r.Post("/search", cfg.RAGHandler.Search)
			r.Post("/generate", cfg.RAGHandler.Generate)
		})

		r.Post("/stage6/run", cfg.AgentHandler.Stage6Run)
	})

	return r
}
