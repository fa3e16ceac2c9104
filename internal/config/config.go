package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	// LLMBaseURL may point at any OpenAI-compatible endpoint.
	LLMAPIKey       string        `envconfig:"LLM_API_KEY"`
	LLMBaseURL      string        `envconfig:"LLM_BASE_URL" default:"https://dashscope.aliyuncs.com/compatible-mode/v1"`
	LLMDefaultModel string        `envconfig:"LLM_DEFAULT_MODEL" default:"qwen-plus"`
	LLMTimeout      time.Duration `envconfig:"LLM_TIMEOUT" default:"120s"`

	EmbeddingModel      string        `envconfig:"EMBEDDING_MODEL" default:"text-embedding-v3"`
	EmbeddingBatchLimit int           `envconfig:"EMBEDDING_BATCH_LIMIT" default:"10"`
	EmbeddingTimeout    time.Duration `envconfig:"EMBEDDING_TIMEOUT" default:"60s"`

	SearchAPIKey  string        `envconfig:"SEARCH_API_KEY"`
	SearchAPIURL  string        `envconfig:"SEARCH_API_URL" default:"https://api.bochaai.com/v1/web-search"`
	SearchTimeout time.Duration `envconfig:"SEARCH_TIMEOUT" default:"30s"`

	AgentMaxRounds int `envconfig:"AGENT_MAX_ROUNDS" default:"3"`

	FetchMaxChars int `envconfig:"FETCH_MAX_CHARS" default:"80000"`

	// IndexIdleTTL evicts document indexes untouched for this long.
	// Zero disables the janitor; the store is in-memory either way.
	IndexIdleTTL time.Duration `envconfig:"INDEX_IDLE_TTL" default:"0"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("PROMPTLAB", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.EmbeddingBatchLimit <= 0 {
		return nil, fmt.Errorf("embedding batch limit must be positive, got %d", cfg.EmbeddingBatchLimit)
	}
	if cfg.AgentMaxRounds <= 0 {
		return nil, fmt.Errorf("agent max rounds must be positive, got %d", cfg.AgentMaxRounds)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasLLM() bool {
	return c.LLMAPIKey != ""
}

func (c *Config) HasSearch() bool {
	return c.SearchAPIKey != ""
}
