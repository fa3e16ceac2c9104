package agent

import (
	"encoding/json"
	"regexp"
	"strings"
)

// ActionKind tags the action a planning turn requested
type ActionKind string

const (
	ActionWebSearch     ActionKind = "web_search"
	ActionKnowledgeBase ActionKind = "knowledge_base"
	ActionFinish        ActionKind = "finish"
)

// Action is the model's decision for one round, decoded exactly once and
// dispatched through the orchestrator's tool table.
type Action struct {
	Kind    ActionKind
	Input   string
	Thought string
}

var (
	decisionJSON = regexp.MustCompile(`(?s)\{[^{}]*"thought"[^{}]*\}`)
	quotedInput  = regexp.MustCompile(`["']([^"']+)["']`)
)

// ParseDecision decodes a planning reply into an Action. Models do not always
// honor the requested JSON shape, so parsing is tolerant: a JSON object is
// extracted and decoded when present, otherwise the reply text is scanned for
// a known tool name and a quoted argument. A reply matching neither is treated
// as a final answer.
func ParseDecision(text string) Action {
	if match := decisionJSON.FindString(text); match != "" {
		var parsed struct {
			Thought     string `json:"thought"`
			Action      string `json:"action"`
			ActionInput string `json:"action_input"`
		}
		if err := json.Unmarshal([]byte(match), &parsed); err == nil {
			kind := ActionKind(parsed.Action)
			if parsed.Action == "" {
				kind = ActionFinish
			}
			return Action{Kind: kind, Input: parsed.ActionInput, Thought: parsed.Thought}
		}
	}

	lower := strings.ToLower(text)
	for _, kind := range []ActionKind{ActionWebSearch, ActionKnowledgeBase} {
		if strings.Contains(lower, string(kind)) {
			input := ""
			if m := quotedInput.FindStringSubmatch(text); m != nil {
				input = m[1]
			}
			return Action{Kind: kind, Input: input, Thought: clip(text, 200)}
		}
	}

	return Action{Kind: ActionFinish, Input: text, Thought: text}
}

func clip(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
