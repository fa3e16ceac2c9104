package domain

// Role identifies the author of a conversation turn
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// IsValid returns true if the role is one of the known values
func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	default:
		return false
	}
}

// ConversationTurn is one message in an ordered conversation. The server
// holds no turn state; callers resend the full sequence on every request.
type ConversationTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewTurn creates a ConversationTurn
func NewTurn(role Role, content string) ConversationTurn {
	return ConversationTurn{Role: role, Content: content}
}

// ValidateTurn validates a ConversationTurn instance
func ValidateTurn(t ConversationTurn) error {
	if !t.Role.IsValid() {
		return ErrInvalidRole
	}
	return nil
}

// ValidateConversation validates an ordered sequence of turns
func ValidateConversation(turns []ConversationTurn) error {
	for _, t := range turns {
		if err := ValidateTurn(t); err != nil {
			return err
		}
	}
	return nil
}

// Usage holds the token accounting a completion provider reports for one call
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
