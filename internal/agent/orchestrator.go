// Package agent runs a bounded plan/act/observe loop over an LLM and a table
// of tools. The step trace emitted through the caller's sink is the loop's
// only side effect besides the final answer.
package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/promptlab-ai/promptlab/internal/domain"
	"github.com/promptlab-ai/promptlab/internal/llm"
	"github.com/promptlab-ai/promptlab/internal/service"
)

// Model is the planning/synthesis capability the loop drives.
// *llm.Client satisfies it.
type Model interface {
	Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResult, error)
}

// ToolFunc executes one tool invocation and returns its textual result
type ToolFunc func(ctx context.Context, input string) (string, error)

// StepSink receives trace steps as the loop produces them
type StepSink func(domain.AgentStep)

type state int

const (
	statePlan state = iota
	stateAct
	stateObserve
	stateDone
)

const (
	// DefaultMaxRounds bounds the loop when configuration names no cap
	DefaultMaxRounds = 3

	// recentObservations limits how many observations the plan prompt carries
	recentObservations = 3
	// observationCap bounds a single folded observation
	observationCap = 1500
	// observeStepCap bounds the content shown in an observe step
	observeStepCap = 2000
)

// Config tunes an Orchestrator
type Config struct {
	MaxRounds int
}

// Request is one agent run
type Request struct {
	Query string
	Model string
	// KnowledgeBaseReady marks the knowledge_base tool as backed by an
	// indexed document; when false the plan prompt discourages it.
	KnowledgeBaseReady bool
}

// Orchestrator sequences model calls and tool executions until the model
// emits a final answer or the round cap forces one.
type Orchestrator struct {
	model     Model
	tools     map[ActionKind]ToolFunc
	maxRounds int
}

// NewOrchestrator creates an Orchestrator over the given model and tool table
func NewOrchestrator(model Model, tools map[ActionKind]ToolFunc, cfg Config) *Orchestrator {
	maxRounds := cfg.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	return &Orchestrator{model: model, tools: tools, maxRounds: maxRounds}
}

// MaxRounds returns the configured round cap
func (o *Orchestrator) MaxRounds() int {
	return o.maxRounds
}

// Run executes the loop for req and returns the final answer. Each transition
// emits one step (think, tool, observe, result) through emit. Tool failures
// are folded into context as observations and the loop continues; only a
// failed model call aborts the run.
func (o *Orchestrator) Run(ctx context.Context, req Request, emit StepSink) (string, error) {
	if strings.TrimSpace(req.Query) == "" {
		return "", domain.ErrEmptyQuery
	}
	if emit == nil {
		emit = func(domain.AgentStep) {}
	}

	var (
		observations []string
		usedQueries  = make(map[string]struct{})
		round        int
		action       Action
		observation  string
		answer       string
	)

	current := statePlan
	for current != stateDone {
		if err := ctx.Err(); err != nil {
			return "", domain.NewTimeoutError("agent run cancelled", err)
		}

		switch current {
		case statePlan:
			if round >= o.maxRounds {
				forced, err := o.synthesize(ctx, req, observations, emit)
				if err != nil {
					return "", err
				}
				answer, current = forced, stateDone
				continue
			}
			round++

			result, err := o.model.Chat(ctx, llm.ChatRequest{
				Model:    req.Model,
				Messages: []llm.Message{{Role: domain.RoleUser, Content: planPrompt(req, usedQueries, observations)}},
			})
			if err != nil {
				return "", err
			}
			action = ParseDecision(result.Content)

			if action.Kind == ActionFinish {
				emit(domain.NewAgentStep(domain.StepResult,
					fmt.Sprintf("Finished after %d rounds", round), action.Input))
				answer, current = action.Input, stateDone
				continue
			}

			emit(domain.NewAgentStep(domain.StepThink,
				fmt.Sprintf("Round %d: thinking", round),
				fmt.Sprintf("Thought: %s\n\nDecision: %s(%s)", action.Thought, action.Kind, clip(action.Input, 100))))
			current = stateAct

		case stateAct:
			tool, ok := o.tools[action.Kind]
			if !ok {
				emit(domain.NewAgentStep(domain.StepThink, "Unknown action",
					fmt.Sprintf("The model requested unknown action %q, replanning", action.Kind)))
				current = statePlan
				continue
			}
			if _, dup := usedQueries[action.Input]; dup {
				emit(domain.NewAgentStep(domain.StepThink, "Duplicate query",
					fmt.Sprintf("Query %q was already used, trying another angle", action.Input)))
				current = statePlan
				continue
			}
			usedQueries[action.Input] = struct{}{}

			emit(domain.NewAgentStep(domain.StepTool,
				fmt.Sprintf("Calling %s", action.Kind),
				fmt.Sprintf("Query: %s", action.Input)))

			output, err := tool(ctx, action.Input)
			if err != nil {
				// A failed tool is still information for the next plan
				output = fmt.Sprintf("[tool %s failed: %v]", action.Kind, err)
			}
			observations = append(observations,
				fmt.Sprintf("[%s: %s]\n%s", action.Kind, action.Input, clip(output, observationCap)))
			observation = output
			current = stateObserve

		case stateObserve:
			emit(domain.NewAgentStep(domain.StepObserve, "Observation",
				clip(observation, observeStepCap)))
			current = statePlan
		}
	}

	return answer, nil
}

// synthesize forces a final answer from accumulated observations once the
// round cap is reached.
func (o *Orchestrator) synthesize(ctx context.Context, req Request, observations []string, emit StepSink) (string, error) {
	emit(domain.NewAgentStep(domain.StepThink, "Round cap reached",
		"Generating an answer from the information gathered so far"))

	result, err := o.model.Chat(ctx, llm.ChatRequest{
		Model:    req.Model,
		Messages: []llm.Message{{Role: domain.RoleUser, Content: service.AssembleSynthesisPrompt(req.Query, observations)}},
	})
	if err != nil {
		return "", err
	}

	emit(domain.NewAgentStep(domain.StepResult, "Finished at round cap", result.Content))
	return result.Content, nil
}

func planPrompt(req Request, usedQueries map[string]struct{}, observations []string) string {
	var sb strings.Builder

	sb.WriteString("You are an assistant answering a question by reasoning in rounds.\n\n")
	sb.WriteString("[Question]\n")
	sb.WriteString(req.Query)
	sb.WriteString("\n\n[Available tools]\n")
	sb.WriteString("1. web_search: search the internet, parameter: query\n")
	sb.WriteString("2. knowledge_base: search the indexed document, parameter: query")
	if !req.KnowledgeBaseReady {
		sb.WriteString(" (currently empty, not recommended)")
	}

	sb.WriteString("\n\n[Queries already used]\n")
	if len(usedQueries) == 0 {
		sb.WriteString("none")
	} else {
		queries := make([]string, 0, len(usedQueries))
		for q := range usedQueries {
			queries = append(queries, q)
		}
		sort.Strings(queries)
		sb.WriteString(strings.Join(queries, ", "))
	}

	if len(observations) > 0 {
		recent := observations
		if len(recent) > recentObservations {
			recent = recent[len(recent)-recentObservations:]
		}
		sb.WriteString("\n\n[Information gathered]\n")
		sb.WriteString(strings.Join(recent, "\n---\n"))
	}

	sb.WriteString("\n\nDecide the next step. Reply with exactly this JSON shape:\n")
	sb.WriteString(`{"thought": "your reasoning", "action": "tool name or finish", "action_input": "tool parameter or final answer"}`)
	sb.WriteString("\n\n- If you have enough information, set action to \"finish\" and put the final answer in action_input.\n")
	sb.WriteString("- If you need more information, set action to a tool name and put the query in action_input.\n")
	sb.WriteString("- Never repeat a query you already used.")

	return sb.String()
}
