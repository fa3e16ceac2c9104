package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/promptlab-ai/promptlab/internal/domain"
	"github.com/promptlab-ai/promptlab/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.ChatResult), args.Error(1)
}

func (m *MockChatService) ChatStream(ctx context.Context, req llm.ChatRequest) (llm.TokenStream, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(llm.TokenStream), args.Error(1)
}

func (m *MockChatService) ResolveModel(model string) string {
	if model == "" {
		return "qwen-plus"
	}
	return model
}

func (m *MockChatService) Models() []llm.ModelInfo {
	return llm.DefaultModelCatalog
}

func (m *MockChatService) DefaultModel() string {
	return "qwen-plus"
}

// fakeTokenStream replays fragments, then the scripted terminal error
type fakeTokenStream struct {
	fragments []string
	finalErr  error
	usage     *domain.Usage
	closed    bool
}

func (f *fakeTokenStream) Recv() (string, error) {
	if len(f.fragments) == 0 {
		if f.finalErr != nil {
			return "", f.finalErr
		}
		return "", io.EOF
	}
	fragment := f.fragments[0]
	f.fragments = f.fragments[1:]
	return fragment, nil
}

func (f *fakeTokenStream) Usage() (domain.Usage, bool) {
	if f.usage == nil {
		return domain.Usage{}, false
	}
	return *f.usage, true
}

func (f *fakeTokenStream) Close() error {
	f.closed = true
	return nil
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var envelope struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestChatHandler_Models(t *testing.T) {
	handler := NewChatHandler(&MockChatService{})

	req := httptest.NewRequest(http.MethodGet, "/api/models", nil)
	w := httptest.NewRecorder()
	handler.Models(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "qwen-plus", data["default"])
	assert.NotEmpty(t, data["models"])
}

func TestChatHandler_Stage1Chat(t *testing.T) {
	svc := &MockChatService{}
	svc.On("Chat", mock.Anything, mock.MatchedBy(func(req llm.ChatRequest) bool {
		return len(req.Messages) == 1 &&
			req.Messages[0].Role == domain.RoleUser &&
			req.Messages[0].Content == "hello"
	})).Return(&llm.ChatResult{
		Content: "hi there",
		Usage:   domain.Usage{PromptTokens: 2, CompletionTokens: 3, TotalTokens: 5},
	}, nil)

	handler := NewChatHandler(svc)
	w := postJSON(t, handler.Stage1Chat, "/api/stage1/chat", ChatStageRequest{UserInput: "hello"})

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	steps := data["steps"].([]interface{})
	require.Len(t, steps, 3)

	first := steps[0].(map[string]interface{})
	assert.Equal(t, "input", first["id"])
	assert.Equal(t, "hello", first["data"])

	last := steps[2].(map[string]interface{})
	assert.Equal(t, "response", last["id"])
	svc.AssertExpectations(t)
}

func TestChatHandler_Stage1Chat_MissingInput(t *testing.T) {
	handler := NewChatHandler(&MockChatService{})

	w := postJSON(t, handler.Stage1Chat, "/api/stage1/chat", ChatStageRequest{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatHandler_Stage1Chat_RemoteFailure(t *testing.T) {
	svc := &MockChatService{}
	svc.On("Chat", mock.Anything, mock.Anything).
		Return(nil, domain.NewRemoteCallError("provider down", nil))

	handler := NewChatHandler(svc)
	w := postJSON(t, handler.Stage1Chat, "/api/stage1/chat", ChatStageRequest{UserInput: "hello"})

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestChatHandler_Stage2Chat_UsesPreset(t *testing.T) {
	svc := &MockChatService{}
	svc.On("Chat", mock.Anything, mock.MatchedBy(func(req llm.ChatRequest) bool {
		return len(req.Messages) == 2 && req.Messages[0].Role == domain.RoleSystem
	})).Return(&llm.ChatResult{Content: "styled answer"}, nil)

	handler := NewChatHandler(svc)
	w := postJSON(t, handler.Stage2Chat, "/api/stage2/chat", SystemPromptRequest{
		UserInput: "explain closures",
		Preset:    "coder",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	steps := data["steps"].([]interface{})
	require.Len(t, steps, 4)
	assert.Equal(t, "system_prompt", steps[0].(map[string]interface{})["id"])
	svc.AssertExpectations(t)
}

func TestChatHandler_Stage2Presets(t *testing.T) {
	handler := NewChatHandler(&MockChatService{})

	req := httptest.NewRequest(http.MethodGet, "/api/stage2/presets", nil)
	w := httptest.NewRecorder()
	handler.Stage2Presets(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.NotEmpty(t, data["presets"])
}

func TestChatHandler_Stage3Chat(t *testing.T) {
	svc := &MockChatService{}
	svc.On("Chat", mock.Anything, mock.MatchedBy(func(req llm.ChatRequest) bool {
		// system + two history turns + new input
		return len(req.Messages) == 4
	})).Return(&llm.ChatResult{
		Content: "third answer",
		Usage:   domain.Usage{TotalTokens: 42},
	}, nil)

	handler := NewChatHandler(svc)
	w := postJSON(t, handler.Stage3Chat, "/api/stage3/chat", MultiTurnRequest{
		UserInput:    "and then?",
		SystemPrompt: "You are terse.",
		History: []domain.ConversationTurn{
			{Role: domain.RoleUser, Content: "first"},
			{Role: domain.RoleAssistant, Content: "second"},
		},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, float64(4), data["message_count"])
	assert.Equal(t, "third answer", data["response"])
	svc.AssertExpectations(t)
}

func TestChatHandler_Stage3Chat_InvalidHistoryRole(t *testing.T) {
	handler := NewChatHandler(&MockChatService{})

	w := postJSON(t, handler.Stage3Chat, "/api/stage3/chat", MultiTurnRequest{
		UserInput: "q",
		History:   []domain.ConversationTurn{{Role: "robot", Content: "beep"}},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatHandler_Stage3Stream(t *testing.T) {
	stream := &fakeTokenStream{
		fragments: []string{"hel", "lo"},
		usage:     &domain.Usage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3},
	}
	svc := &MockChatService{}
	svc.On("ChatStream", mock.Anything, mock.Anything).Return(stream, nil)

	handler := NewChatHandler(svc)
	w := postJSON(t, handler.Stage3Stream, "/api/stage3/stream", MultiTurnRequest{UserInput: "hi"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Contains(t, body, "event: token\ndata: {\"content\":\"hel\"}")
	assert.Contains(t, body, "event: token\ndata: {\"content\":\"lo\"}")
	assert.Contains(t, body, "event: usage\n")
	assert.Contains(t, body, "event: done\ndata: [DONE]")
	assert.True(t, stream.closed)
}

func TestChatHandler_Stage3Stream_Interrupted(t *testing.T) {
	stream := &fakeTokenStream{
		fragments: []string{"par"},
		finalErr:  domain.ErrStreamInterrupted,
	}
	svc := &MockChatService{}
	svc.On("ChatStream", mock.Anything, mock.Anything).Return(stream, nil)

	handler := NewChatHandler(svc)
	w := postJSON(t, handler.Stage3Stream, "/api/stage3/stream", MultiTurnRequest{UserInput: "hi"})

	body := w.Body.String()
	assert.Contains(t, body, "event: error\n")
	assert.Contains(t, body, "event: done\n")
	assert.NotContains(t, body, "event: usage\n", "no usage after an interrupted stream")
}
