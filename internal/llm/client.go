package llm

import (
	"context"
	"errors"
	"time"

	"github.com/promptlab-ai/promptlab/internal/domain"
	openai "github.com/sashabaranov/go-openai"
)

// ChatAPI defines the slice of the provider client used for completions
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	CreateChatCompletionStream(ctx context.Context, req openai.ChatCompletionRequest) (*openai.ChatCompletionStream, error)
}

// ModelInfo describes one entry of the model catalog exposed to the UI
type ModelInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DefaultModelCatalog lists the models offered when none are configured.
var DefaultModelCatalog = []ModelInfo{
	{ID: "qwen-plus", Name: "Qwen Plus"},
	{ID: "qwen-max", Name: "Qwen Max"},
	{ID: "qwen-turbo", Name: "Qwen Turbo"},
	{ID: "qwen3-coder-plus", Name: "Qwen3 Coder Plus"},
}

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 4096
)

// Message is one provider-level chat message. It extends the plain
// conversation turn with the tool-call fields needed to feed a tool result
// back into a follow-up call.
type Message struct {
	Role       domain.Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// FromTurns converts plain conversation turns into provider messages
func FromTurns(turns []domain.ConversationTurn) []Message {
	msgs := make([]Message, len(turns))
	for i, t := range turns {
		msgs[i] = Message{Role: t.Role, Content: t.Content}
	}
	return msgs
}

// ToolSpec declares one callable tool offered to the model. Parameters is a
// JSON-schema object; the model only ever requests an invocation, execution
// stays with the caller.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCall is a structured invocation request the model elected to make
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ChatRequest describes one completion call
type ChatRequest struct {
	Model       string
	Messages    []Message
	Tools       []ToolSpec
	Temperature float32
	MaxTokens   int
}

// ChatResult is the completed (non-streaming) outcome of a chat call.
// When the model elects a tool, ToolCalls is populated and Content may be empty.
type ChatResult struct {
	Content   string
	ToolCalls []ToolCall
	Usage     domain.Usage
}

// Config holds the settings for constructing a Client
type Config struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	Models       []ModelInfo
	// Timeout bounds each non-streaming completion call; zero disables it.
	// Streaming calls are bounded by the request context instead, so a slow
	// but live stream is never cut off mid-response.
	Timeout time.Duration
}

// Client wraps an OpenAI-compatible chat-completion provider
type Client struct {
	api          ChatAPI
	defaultModel string
	models       []ModelInfo
	timeout      time.Duration
}

// NewAPIClient builds the underlying provider client for the given endpoint.
// It is shared between the chat client and the embedder.
func NewAPIClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

// NewClient creates a chat client from configuration
func NewClient(api ChatAPI, cfg Config) *Client {
	models := cfg.Models
	if len(models) == 0 {
		models = DefaultModelCatalog
	}
	defaultModel := cfg.DefaultModel
	if defaultModel == "" {
		defaultModel = models[0].ID
	}
	return &Client{
		api:          api,
		defaultModel: defaultModel,
		models:       models,
		timeout:      cfg.Timeout,
	}
}

// Models returns the model catalog
func (c *Client) Models() []ModelInfo {
	return c.models
}

// DefaultModel returns the model used when a request names none
func (c *Client) DefaultModel() string {
	return c.defaultModel
}

// ResolveModel returns the given model, or the default when empty
func (c *Client) ResolveModel(model string) string {
	if model == "" {
		return c.defaultModel
	}
	return model
}

// Chat performs one completion call. When tools are supplied and the model
// elects to invoke one, the result carries structured tool calls instead of
// free text; the client never executes tools itself.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	resp, err := c.api.CreateChatCompletion(ctx, c.buildRequest(req, false))
	if err != nil {
		return nil, wrapProviderError("chat completion failed", err)
	}

	if len(resp.Choices) == 0 {
		return nil, domain.NewRemoteCallError("chat completion returned no choices", nil)
	}

	choice := resp.Choices[0].Message
	result := &ChatResult{
		Content: choice.Content,
		Usage:   fromProviderUsage(resp.Usage),
	}
	for _, tc := range choice.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return result, nil
}

// ChatStream starts a streaming completion. The returned stream is finite and
// non-restartable; Close it when done, and never treat an interrupted stream
// as a completed assistant turn.
func (c *Client) ChatStream(ctx context.Context, req ChatRequest) (TokenStream, error) {
	apiReq := c.buildRequest(req, true)
	apiReq.StreamOptions = &openai.StreamOptions{IncludeUsage: true}

	inner, err := c.api.CreateChatCompletionStream(ctx, apiReq)
	if err != nil {
		return nil, wrapProviderError("chat completion stream failed", err)
	}
	return newStream(inner), nil
}

func (c *Client) buildRequest(req ChatRequest, stream bool) openai.ChatCompletionRequest {
	temperature := req.Temperature
	if temperature == 0 {
		temperature = defaultTemperature
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	out := openai.ChatCompletionRequest{
		Model:       c.ResolveModel(req.Model),
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Stream:      stream,
	}

	for _, m := range req.Messages {
		apiMsg := openai.ChatCompletionMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			apiMsg.ToolCalls = append(apiMsg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out.Messages = append(out.Messages, apiMsg)
	}

	for _, t := range req.Tools {
		out.Tools = append(out.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}

	return out
}

func fromProviderUsage(u openai.Usage) domain.Usage {
	return domain.Usage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
}

// wrapProviderError maps a provider failure onto the domain error kinds.
// Deadline expiry is reported as a distinct, retryable timeout.
func wrapProviderError(message string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewTimeoutError(message, err)
	}
	return domain.NewRemoteCallError(message, err)
}
