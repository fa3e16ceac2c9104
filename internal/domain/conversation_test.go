package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleIsValid(t *testing.T) {
	assert.True(t, RoleSystem.IsValid())
	assert.True(t, RoleUser.IsValid())
	assert.True(t, RoleAssistant.IsValid())
	assert.True(t, RoleTool.IsValid())
	assert.False(t, Role("moderator").IsValid())
	assert.False(t, Role("").IsValid())
}

func TestValidateConversation(t *testing.T) {
	tests := []struct {
		name    string
		turns   []ConversationTurn
		wantErr bool
	}{
		{
			name: "valid conversation",
			turns: []ConversationTurn{
				NewTurn(RoleSystem, "You are a helpful assistant."),
				NewTurn(RoleUser, "hello"),
				NewTurn(RoleAssistant, "hi there"),
			},
			wantErr: false,
		},
		{
			name:    "empty conversation",
			turns:   nil,
			wantErr: false,
		},
		{
			name: "unknown role",
			turns: []ConversationTurn{
				{Role: "narrator", Content: "once upon a time"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConversation(tt.turns)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidRole)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateAgentStep(t *testing.T) {
	tests := []struct {
		name    string
		step    AgentStep
		wantErr bool
	}{
		{
			name:    "valid step",
			step:    NewAgentStep(StepThink, "round 1", "considering tools"),
			wantErr: false,
		},
		{
			name:    "unknown type",
			step:    AgentStep{Type: "dream", Label: "x"},
			wantErr: true,
		},
		{
			name:    "missing label",
			step:    AgentStep{Type: StepTool},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAgentStep(tt.step)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
