//go:build e2e

package e2e

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/promptlab-ai/promptlab/internal/api/handlers"
	"github.com/promptlab-ai/promptlab/internal/domain"
	"github.com/promptlab-ai/promptlab/internal/ingest"
	"github.com/promptlab-ai/promptlab/internal/llm"
	"github.com/promptlab-ai/promptlab/internal/server"
	"github.com/promptlab-ai/promptlab/internal/service"
	"github.com/promptlab-ai/promptlab/internal/vectorstore"
)

// E2ETestEnv holds all resources needed for end-to-end tests. The server runs
// in-process with scripted provider fakes, so no network credentials are needed.
type E2ETestEnv struct {
	T          *testing.T
	Server     *httptest.Server
	LLM        *FakeLLM
	Search     *FakeSearch
	Store      *vectorstore.MemoryStore
	HTTPClient *http.Client
}

// SetupE2EEnv wires the full router over fake providers and starts a test server
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	fakeLLM := NewFakeLLM()
	fakeSearch := &FakeSearch{Response: "[1] Result\nSome snippet\nSource: https://example.com"}
	store := vectorstore.NewMemoryStore()

	embedder := &FakeEmbedder{}
	retriever := service.NewRetriever(embedder, store)
	fetcher := ingest.NewFetcher(5*time.Second, 10000)

	cfg := server.RouterConfig{
		ChatHandler:  handlers.NewChatHandler(fakeLLM),
		ToolsHandler: handlers.NewToolsHandler(fakeLLM, fakeSearch),
		RAGHandler:   handlers.NewRAGHandler(retriever, embedder, fetcher, fakeLLM),
		AgentHandler: handlers.NewAgentHandler(fakeLLM, fakeSearch, retriever, store, 3),
	}

	srv := httptest.NewServer(server.NewRouter(cfg))
	t.Cleanup(srv.Close)

	return &E2ETestEnv{
		T:          t,
		Server:     srv,
		LLM:        fakeLLM,
		Search:     fakeSearch,
		Store:      store,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error,omitempty"`
}

// Get performs a GET request
func (e *E2ETestEnv) Get(path string) (*APIResponse, error) {
	return e.doRequest("GET", path, nil)
}

// Post performs a POST request
func (e *E2ETestEnv) Post(path string, body interface{}) (*APIResponse, error) {
	return e.doRequest("POST", path, body)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}) (*APIResponse, error) {
	url := e.Server.URL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiResp.Error)
	}

	return &apiResp, nil
}

// SSEEvent is one parsed server-sent event
type SSEEvent struct {
	Event string
	Data  string
}

// PostSSE performs a POST against an SSE endpoint and collects every event
// until the stream closes.
func (e *E2ETestEnv) PostSSE(path string, body interface{}) ([]SSEEvent, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest("POST", e.Server.URL+path, bytes.NewReader(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	var events []SSEEvent
	var current SSEEvent
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			current.Event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			current.Data = strings.TrimPrefix(line, "data: ")
			events = append(events, current)
			current = SSEEvent{}
		}
	}
	return events, scanner.Err()
}

// FakeLLM is a scriptable chat provider. OnChat handles non-streaming calls;
// StreamFragments feed the streaming path.
type FakeLLM struct {
	OnChat          func(req llm.ChatRequest) (*llm.ChatResult, error)
	StreamFragments []string
	defaultModel    string
}

func NewFakeLLM() *FakeLLM {
	return &FakeLLM{
		OnChat: func(req llm.ChatRequest) (*llm.ChatResult, error) {
			return &llm.ChatResult{
				Content: "Scripted answer.",
				Usage:   domain.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
			}, nil
		},
		StreamFragments: []string{"Hello", ", ", "world"},
		defaultModel:    "qwen-plus",
	}
}

func (f *FakeLLM) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResult, error) {
	return f.OnChat(req)
}

func (f *FakeLLM) ChatStream(ctx context.Context, req llm.ChatRequest) (llm.TokenStream, error) {
	return &fakeStream{fragments: f.StreamFragments}, nil
}

func (f *FakeLLM) ResolveModel(model string) string {
	if model == "" {
		return f.defaultModel
	}
	return model
}

func (f *FakeLLM) Models() []llm.ModelInfo {
	return []llm.ModelInfo{{ID: f.defaultModel, Name: "Qwen Plus"}}
}

func (f *FakeLLM) DefaultModel() string {
	return f.defaultModel
}

type fakeStream struct {
	fragments []string
	pos       int
	done      bool
}

func (s *fakeStream) Recv() (string, error) {
	if s.pos >= len(s.fragments) {
		s.done = true
		return "", io.EOF
	}
	out := s.fragments[s.pos]
	s.pos++
	return out, nil
}

func (s *fakeStream) Usage() (domain.Usage, bool) {
	if !s.done {
		return domain.Usage{}, false
	}
	return domain.Usage{PromptTokens: 8, CompletionTokens: 3, TotalTokens: 11}, true
}

func (s *fakeStream) Close() error { return nil }

// FakeSearch returns a canned formatted result and records queries
type FakeSearch struct {
	Response string
	Queries  []string
}

func (f *FakeSearch) SearchFormatted(ctx context.Context, query string) string {
	f.Queries = append(f.Queries, query)
	return f.Response
}

// FakeEmbedder derives deterministic vectors from text content, so identical
// texts are perfectly similar and different texts are not.
type FakeEmbedder struct{}

func (f *FakeEmbedder) Embed(ctx context.Context, text string) (domain.Embedding, error) {
	return domain.NewEmbedding(0, textVector(text)), nil
}

func (f *FakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]domain.Embedding, error) {
	out := make([]domain.Embedding, len(texts))
	for i, t := range texts {
		out[i] = domain.NewEmbedding(i, textVector(t))
	}
	return out, nil
}

func textVector(text string) []float32 {
	v := make([]float32, 8)
	for i, b := range []byte(text) {
		v[i%8] += float32(b) / 255.0
	}
	// Never return the zero vector
	v[0] += 0.001
	return v
}
