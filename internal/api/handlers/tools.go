package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/promptlab-ai/promptlab/internal/api"
	"github.com/promptlab-ai/promptlab/internal/domain"
	"github.com/promptlab-ai/promptlab/internal/llm"
)

// WebSearchService is the search capability tool execution needs
type WebSearchService interface {
	SearchFormatted(ctx context.Context, query string) string
}

// ToolChatService is the LLM capability the tool-calling stage needs
type ToolChatService interface {
	Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResult, error)
	ResolveModel(model string) string
}

type ToolsHandler struct {
	svc    ToolChatService
	search WebSearchService
}

func NewToolsHandler(svc ToolChatService, search WebSearchService) *ToolsHandler {
	return &ToolsHandler{svc: svc, search: search}
}

// toolResultCap bounds the tool output fed back to the model
const toolResultCap = 2000

// toolDefs are the tools offered to the model in stage 4
var toolDefs = []llm.ToolSpec{
	{
		Name:        "web_search",
		Description: "Search the internet for up-to-date information",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{"type": "string", "description": "search keywords"},
			},
			"required": []string{"query"},
		},
	},
	{
		Name:        "get_weather",
		Description: "Get the current weather for a city",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"city": map[string]interface{}{"type": "string", "description": "city name"},
			},
			"required": []string{"city"},
		},
	},
}

// primaryParam is each tool's first required parameter, the fallback slot for
// unparseable argument payloads.
var primaryParam = map[string]string{
	"web_search":  "query",
	"get_weather": "city",
}

// ToolStep is one visualized step of the tool-calling flow
type ToolStep struct {
	ID    string      `json:"id"`
	Type  string      `json:"type"`
	Label string      `json:"label"`
	Data  interface{} `json:"data"`
}

type ToolStepsResponse struct {
	Steps []ToolStep `json:"steps"`
}

// Stage4Chat walks through one complete function-calling round trip: first
// call with tool definitions, model decision, real tool execution, second
// call with the tool result folded in. When the model answers directly the
// flow is two steps.
func (h *ToolsHandler) Stage4Chat(w http.ResponseWriter, r *http.Request) {
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
	steps := []ToolStep{{
		ID:    "first_call",
		Type:  "request",
		Label: "First call (with tool definitions)",
		Data: map[string]interface{}{
			"model":    h.svc.ResolveModel(req.Model),
			"messages": messagesView(messages),
			"tools":    toolDefs,
		},
	}}

	result, err := h.svc.Chat(r.Context(), llm.ChatRequest{Model: req.Model, Messages: messages, Tools: toolDefs})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	if len(result.ToolCalls) == 0 {
		steps = append(steps, ToolStep{
			ID:    "direct_answer",
			Type:  "response",
			Label: "Model answered directly (no tool call)",
			Data:  map[string]interface{}{"content": result.Content, "usage": result.Usage},
		})
		api.Success(w, http.StatusOK, ToolStepsResponse{Steps: steps})
		return
	}

	call := result.ToolCalls[0]
	args := decodeToolArgs(call)

	steps = append(steps, ToolStep{
		ID:    "model_decision",
		Type:  "decision",
		Label: fmt.Sprintf("Model decision: call %s()", call.Name),
		Data: map[string]interface{}{
			"tool_calls":  result.ToolCalls,
			"explanation": fmt.Sprintf("The model decided to call %s with arguments %v", call.Name, args),
		},
	})

	toolResult := h.executeTool(r.Context(), call.Name, args)
	toolResult = clipRunes(toolResult, toolResultCap)

	steps = append(steps, ToolStep{
		ID:    "tool_exec",
		Type:  "tool",
		Label: fmt.Sprintf("Executing tool: %s()", call.Name),
		Data: map[string]interface{}{
			"function":  call.Name,
			"arguments": args,
			"result":    toolResult,
		},
	})

	// Second round: the assistant's tool election plus the tool's result
	followUp := append(messages,
		llm.Message{Role: domain.RoleAssistant, ToolCalls: result.ToolCalls},
		llm.Message{Role: domain.RoleTool, ToolCallID: call.ID, Content: toolResult},
	)

	final, err := h.svc.Chat(r.Context(), llm.ChatRequest{Model: req.Model, Messages: followUp})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	steps = append(steps, ToolStep{
		ID:    "final_answer",
		Type:  "response",
		Label: "Final answer from the tool result",
		Data: map[string]interface{}{
			"messages_count": len(followUp),
			"content":        final.Content,
			"usage":          final.Usage,
		},
	})

	api.Success(w, http.StatusOK, ToolStepsResponse{Steps: steps})
}

// decodeToolArgs parses a tool call's JSON arguments. Malformed payloads fall
// back to stuffing the raw text into the tool's primary parameter.
func decodeToolArgs(call llm.ToolCall) map[string]string {
	var args map[string]string
	if err := json.Unmarshal([]byte(call.Arguments), &args); err == nil && args != nil {
		return args
	}

	key, ok := primaryParam[call.Name]
	if !ok {
		key = "query"
	}
	return map[string]string{key: call.Arguments}
}

func (h *ToolsHandler) executeTool(ctx context.Context, name string, args map[string]string) string {
	switch name {
	case "web_search":
		return h.search.SearchFormatted(ctx, args["query"])
	case "get_weather":
		return h.search.SearchFormatted(ctx, args["city"]+" weather today")
	default:
		return fmt.Sprintf("unknown tool: %s", name)
	}
}

func clipRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
