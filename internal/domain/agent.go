package domain

// AgentStepType tags one record in an orchestrator run's trace
type AgentStepType string

const (
	// StepSystem announces run setup (available tools, round cap). Emitted by
	// the transport layer before the loop starts, never by the loop itself.
	StepSystem AgentStepType = "system"
	// StepThink records the model's reasoning and chosen action
	StepThink AgentStepType = "think"
	// StepTool records a tool invocation with its input
	StepTool AgentStepType = "tool"
	// StepObserve records a tool result (success or failure) folded back into context
	StepObserve AgentStepType = "observe"
	// StepResult records the final answer and terminates the trace
	StepResult AgentStepType = "result"
)

// IsValid returns true if the step type is one of the known values
func (t AgentStepType) IsValid() bool {
	switch t {
	case StepSystem, StepThink, StepTool, StepObserve, StepResult:
		return true
	default:
		return false
	}
}

// AgentStep is one append-only record of an orchestration round. Steps form
// the visible trace of a single run and are discarded once the run completes.
type AgentStep struct {
	Type    AgentStepType `json:"type"`
	Label   string        `json:"label"`
	Content string        `json:"content"`
}

// NewAgentStep creates an AgentStep
func NewAgentStep(stepType AgentStepType, label, content string) AgentStep {
	return AgentStep{Type: stepType, Label: label, Content: content}
}

// ValidateAgentStep validates an AgentStep instance
func ValidateAgentStep(s AgentStep) error {
	if !s.Type.IsValid() {
		return NewValidationError("unknown agent step type")
	}
	if s.Label == "" {
		return NewValidationError("agent step label is required")
	}
	return nil
}
