package admin

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/promptlab-ai/promptlab/internal/api/handlers"
	"github.com/promptlab-ai/promptlab/internal/config"
	"github.com/promptlab-ai/promptlab/internal/domain"
	"github.com/promptlab-ai/promptlab/internal/ingest"
	"github.com/promptlab-ai/promptlab/internal/jobs"
	"github.com/promptlab-ai/promptlab/internal/llm"
	"github.com/promptlab-ai/promptlab/internal/search"
	"github.com/promptlab-ai/promptlab/internal/server"
	"github.com/promptlab-ai/promptlab/internal/service"
	"github.com/promptlab-ai/promptlab/internal/telemetry"
	"github.com/promptlab-ai/promptlab/internal/vectorstore"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the promptlab API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	cfg.Port = resolvePort(cmd, cfg.Port)

	store := vectorstore.NewMemoryStore()

	var chatSvc handlers.ChatService
	var embeddingClient service.EmbeddingClient
	if cfg.HasLLM() {
		apiClient := llm.NewAPIClient(cfg.LLMAPIKey, cfg.LLMBaseURL)
		chatSvc = llm.NewClient(apiClient, llm.Config{
			APIKey:       cfg.LLMAPIKey,
			BaseURL:      cfg.LLMBaseURL,
			DefaultModel: cfg.LLMDefaultModel,
			Timeout:      cfg.LLMTimeout,
		})
		embeddingClient = llm.NewEmbedder(apiClient, cfg.EmbeddingModel, cfg.EmbeddingBatchLimit, cfg.EmbeddingTimeout)
		log.Printf("llm provider configured (endpoint: %s, model: %s)", cfg.LLMBaseURL, cfg.LLMDefaultModel)
	} else {
		chatSvc = &NoOpChatService{}
		embeddingClient = &NoOpEmbeddingClient{}
		log.Println("llm provider not configured: chat and embedding stages will return errors (set PROMPTLAB_LLM_API_KEY)")
	}

	searchClient := search.NewClient(search.Config{
		APIKey:   cfg.SearchAPIKey,
		Endpoint: cfg.SearchAPIURL,
		Timeout:  cfg.SearchTimeout,
	})
	if !searchClient.Configured() {
		log.Println("web search not configured: searches will degrade to a notice (set PROMPTLAB_SEARCH_API_KEY)")
	}

	fetcher := ingest.NewFetcher(0, cfg.FetchMaxChars)
	retriever := service.NewRetriever(embeddingClient, store)

	var janitorWorker *jobs.Worker
	if cfg.IndexIdleTTL > 0 {
		janitor := jobs.NewIndexJanitor(store, cfg.IndexIdleTTL)
		janitorWorker = jobs.NewWorker(janitor, time.Minute)
		go janitorWorker.Start(ctx)
		log.Printf("index janitor started (idle ttl: %s)", cfg.IndexIdleTTL)
	}

	routerCfg := server.RouterConfig{
		ChatHandler:  handlers.NewChatHandler(chatSvc),
		ToolsHandler: handlers.NewToolsHandler(chatSvc, searchClient),
		RAGHandler:   handlers.NewRAGHandler(retriever, embeddingClient, fetcher, chatSvc),
		AgentHandler: handlers.NewAgentHandler(chatSvc, searchClient, retriever, store, cfg.AgentMaxRounds),
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if janitorWorker != nil {
		janitorWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// resolvePort picks the listen port: a port flag the caller actually set wins
// over the configured one, even when it names the default value.
func resolvePort(cmd *cobra.Command, configured string) string {
	if cmd.Flags().Changed("port") {
		port, _ := cmd.Flags().GetString("port")
		return port
	}
	return configured
}

// NoOpChatService stands in for the LLM client when no API key is configured.
// The model catalog still renders so the UI stays navigable.
type NoOpChatService struct{}

func (s *NoOpChatService) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResult, error) {
	return nil, domain.ErrLLMNotConfigured
}

func (s *NoOpChatService) ChatStream(ctx context.Context, req llm.ChatRequest) (llm.TokenStream, error) {
	return nil, domain.ErrLLMNotConfigured
}

func (s *NoOpChatService) ResolveModel(model string) string {
	if model == "" {
		return llm.DefaultModelCatalog[0].ID
	}
	return model
}

func (s *NoOpChatService) Models() []llm.ModelInfo {
	return llm.DefaultModelCatalog
}

func (s *NoOpChatService) DefaultModel() string {
	return llm.DefaultModelCatalog[0].ID
}

// NoOpEmbeddingClient stands in for the embedder when no API key is configured
type NoOpEmbeddingClient struct{}

func (s *NoOpEmbeddingClient) Embed(ctx context.Context, text string) (domain.Embedding, error) {
	return domain.Embedding{}, domain.ErrLLMNotConfigured
}

func (s *NoOpEmbeddingClient) EmbedBatch(ctx context.Context, texts []string) ([]domain.Embedding, error) {
	return nil, domain.ErrLLMNotConfigured
}
