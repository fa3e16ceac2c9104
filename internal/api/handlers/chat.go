package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/promptlab-ai/promptlab/internal/api"
	"github.com/promptlab-ai/promptlab/internal/domain"
	"github.com/promptlab-ai/promptlab/internal/llm"
	"github.com/promptlab-ai/promptlab/internal/service"
)

// ChatService is the LLM capability the chat stages need
type ChatService interface {
	Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResult, error)
	ChatStream(ctx context.Context, req llm.ChatRequest) (llm.TokenStream, error)
	ResolveModel(model string) string
	Models() []llm.ModelInfo
	DefaultModel() string
}

type ChatHandler struct {
	svc ChatService
}

func NewChatHandler(svc ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

type ChatStageRequest struct {
	UserInput string `json:"user_input"`
	Model     string `json:"model"`
}

type SystemPromptRequest struct {
	UserInput    string `json:"user_input"`
	Preset       string `json:"preset"`
	CustomPrompt string `json:"custom_prompt"`
	Model        string `json:"model"`
}

type MultiTurnRequest struct {
	UserInput    string                    `json:"user_input"`
	History      []domain.ConversationTurn `json:"history"`
	SystemPrompt string                    `json:"system_prompt"`
	Model        string                    `json:"model"`
}

// WalkthroughStep is one visualized intermediate step of a stage pipeline
type WalkthroughStep struct {
	ID    string      `json:"id"`
	Label string      `json:"label"`
	Data  interface{} `json:"data"`
}

type StepsResponse struct {
	Steps []WalkthroughStep `json:"steps"`
}

type requestBodyView struct {
	Model    string        `json:"model"`
	Messages []messageView `json:"messages"`
}

type messageView struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func messagesView(msgs []llm.Message) []messageView {
	out := make([]messageView, len(msgs))
	for i, m := range msgs {
		out[i] = messageView{Role: string(m.Role), Content: m.Content}
	}
	return out
}

// Models returns the configured model catalog
func (h *ChatHandler) Models(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, map[string]interface{}{
		"models":  h.svc.Models(),
		"default": h.svc.DefaultModel(),
	})
}

// Stage1Chat performs a bare completion call and exposes every intermediate
// artifact: input, request body, response.
func (h *ChatHandler) Stage1Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatStageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserInput == "" {
		api.Error(w, http.StatusBadRequest, "user_input is required")
		return
	}

	messages := []llm.Message{{Role: domain.RoleUser, Content: req.UserInput}}
	result, err := h.svc.Chat(r.Context(), llm.ChatRequest{Model: req.Model, Messages: messages})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, StepsResponse{Steps: []WalkthroughStep{
		{ID: "input", Label: "User input", Data: req.UserInput},
		{ID: "request", Label: "API request body", Data: requestBodyView{
			Model:    h.svc.ResolveModel(req.Model),
			Messages: messagesView(messages),
		}},
		{ID: "response", Label: "API response", Data: map[string]interface{}{
			"content": result.Content,
			"usage":   result.Usage,
		}},
	}})
}

// Stage2Presets lists the system-prompt presets
func (h *ChatHandler) Stage2Presets(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, map[string]interface{}{"presets": service.Presets()})
}

// Stage2Chat steers the model with a preset or custom system prompt
func (h *ChatHandler) Stage2Chat(w http.ResponseWriter, r *http.Request) {
	var req SystemPromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserInput == "" {
		api.Error(w, http.StatusBadRequest, "user_input is required")
		return
	}

	systemPrompt := service.ResolveSystemPrompt(req.Preset, req.CustomPrompt)
	messages := []llm.Message{
		{Role: domain.RoleSystem, Content: systemPrompt},
		{Role: domain.RoleUser, Content: req.UserInput},
	}

	result, err := h.svc.Chat(r.Context(), llm.ChatRequest{Model: req.Model, Messages: messages})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, StepsResponse{Steps: []WalkthroughStep{
		{ID: "system_prompt", Label: "System prompt", Data: systemPrompt},
		{ID: "user_input", Label: "User input", Data: req.UserInput},
		{ID: "messages", Label: "Assembled messages", Data: requestBodyView{
			Model:    h.svc.ResolveModel(req.Model),
			Messages: messagesView(messages),
		}},
		{ID: "response", Label: "Model response", Data: map[string]interface{}{
			"content": result.Content,
			"usage":   result.Usage,
		}},
	}})
}

type MultiTurnResponse struct {
	MessagesSent []messageView `json:"messages_sent"`
	MessageCount int           `json:"message_count"`
	Response     string        `json:"response"`
	Usage        domain.Usage  `json:"usage"`
}

// Stage3Chat replays client-owned history plus the new input. The server
// keeps no turn state; the caller resends the full history each time.
func (h *ChatHandler) Stage3Chat(w http.ResponseWriter, r *http.Request) {
	var req MultiTurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserInput == "" {
		api.Error(w, http.StatusBadRequest, "user_input is required")
		return
	}
	if err := domain.ValidateConversation(req.History); err != nil {
		api.HandleError(w, err)
		return
	}

	messages := h.assembleTurns(req)

	result, err := h.svc.Chat(r.Context(), llm.ChatRequest{Model: req.Model, Messages: messages})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, MultiTurnResponse{
		MessagesSent: messagesView(messages),
		MessageCount: len(messages),
		Response:     result.Content,
		Usage:        result.Usage,
	})
}

// Stage3Stream is the streaming variant of Stage3Chat: token events as they
// arrive, one usage event after a clean end, then the terminal done event.
func (h *ChatHandler) Stage3Stream(w http.ResponseWriter, r *http.Request) {
	var req MultiTurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserInput == "" {
		api.Error(w, http.StatusBadRequest, "user_input is required")
		return
	}
	if err := domain.ValidateConversation(req.History); err != nil {
		api.HandleError(w, err)
		return
	}
	messages := h.assembleTurns(req)

	stream, err := h.svc.ChatStream(r.Context(), llm.ChatRequest{Model: req.Model, Messages: messages})
	if err != nil {
		api.HandleError(w, err)
		return
	}
	defer stream.Close()

	ew, err := api.NewEventWriter(w)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	for {
		fragment, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Client sees the interruption in-band; nothing completed
			ew.SendError(err)
			ew.Done()
			return
		}
		if err := ew.SendToken(fragment); err != nil {
			// Client went away; stream.Close stops the upstream read
			return
		}
	}

	if usage, ok := stream.Usage(); ok {
		ew.SendUsage(usage)
	}
	ew.Done()
}

func (h *ChatHandler) assembleTurns(req MultiTurnRequest) []llm.Message {
	messages := make([]llm.Message, 0, len(req.History)+2)
	if req.SystemPrompt != "" {
		messages = append(messages, llm.Message{Role: domain.RoleSystem, Content: req.SystemPrompt})
	}
	messages = append(messages, llm.FromTurns(req.History)...)
	messages = append(messages, llm.Message{Role: domain.RoleUser, Content: req.UserInput})
	return messages
}
