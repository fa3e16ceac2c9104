package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/promptlab-ai/promptlab/internal/agent"
	"github.com/promptlab-ai/promptlab/internal/api"
	"github.com/promptlab-ai/promptlab/internal/domain"
	"github.com/promptlab-ai/promptlab/internal/telemetry"
)

// IndexProbe reports whether a document has an index entry
type IndexProbe interface {
	Has(docID string) bool
}

type AgentHandler struct {
	model     agent.Model
	search    WebSearchService
	retriever RetrieverService
	probe     IndexProbe
	maxRounds int
}

func NewAgentHandler(model agent.Model, search WebSearchService, retriever RetrieverService, probe IndexProbe, maxRounds int) *AgentHandler {
	if maxRounds <= 0 {
		maxRounds = agent.DefaultMaxRounds
	}
	return &AgentHandler{model: model, search: search, retriever: retriever, probe: probe, maxRounds: maxRounds}
}

type AgentRunRequest struct {
	Query string `json:"query"`
	DocID string `json:"doc_id"`
	Model string `json:"model"`
}

// Stage6Run streams one agent run as SSE step events. The leading system
// step announces the run setup; every loop transition follows as its own
// step; the terminal done event closes the stream.
func (h *AgentHandler) Stage6Run(w http.ResponseWriter, r *http.Request) {
	var req AgentRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.DocID == "" {
		req.DocID = defaultDocID
	}

	ctx, span := telemetry.StartSpan(r.Context(), "Agent.Run", telemetry.SpanAttributes{
		DocID:     req.DocID,
		Stage:     "stage6",
		Operation: "run",
	})
	defer span.End()

	hasKnowledgeBase := h.probe.Has(req.DocID)

	ew, err := api.NewEventWriter(w)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	availableTools := "web_search"
	if hasKnowledgeBase {
		availableTools += ", knowledge_base"
	}
	ew.SendStep(domain.NewAgentStep(domain.StepSystem, "Agent initialized",
		fmt.Sprintf("Available tools: %s\nMax rounds: %d", availableTools, h.maxRounds)))

	orch := agent.NewOrchestrator(h.model, h.toolTable(req.DocID), agent.Config{MaxRounds: h.maxRounds})
	_, err = orch.Run(ctx, agent.Request{
		Query:              req.Query,
		Model:              req.Model,
		KnowledgeBaseReady: hasKnowledgeBase,
	}, func(step domain.AgentStep) {
		ew.SendStep(step)
	})
	if err != nil {
		span.SetError(err)
		ew.SendError(err)
	}
	ew.Done()
}

func (h *AgentHandler) toolTable(docID string) map[agent.ActionKind]agent.ToolFunc {
	return map[agent.ActionKind]agent.ToolFunc{
		agent.ActionWebSearch: func(ctx context.Context, input string) (string, error) {
			return h.search.SearchFormatted(ctx, input), nil
		},
		agent.ActionKnowledgeBase: func(ctx context.Context, input string) (string, error) {
			result, err := h.retriever.Query(ctx, docID, input, defaultTopK)
			if err != nil {
				return "", err
			}
			if len(result.Results) == 0 {
				return "No relevant content found in the knowledge base.", nil
			}
			parts := make([]string, len(result.Results))
			for i, r := range result.Results {
				parts[i] = fmt.Sprintf("[similarity %.2f] %s", r.Score, r.Text)
			}
			return strings.Join(parts, "\n\n"), nil
		},
	}
}
