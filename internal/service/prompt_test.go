package service

import (
	"strings"
	"testing"

	"github.com/promptlab-ai/promptlab/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestAssembleRAGPrompt(t *testing.T) {
	results := []domain.SearchResult{
		{ChunkID: 4, Text: "Go ships a race detector.", Score: 0.91},
		{ChunkID: 1, Text: "Channels synchronize goroutines.", Score: 0.72},
	}

	prompt := AssembleRAGPrompt("how do I find data races?", results)

	assert.Contains(t, prompt, "[1] Go ships a race detector.")
	assert.Contains(t, prompt, "[2] Channels synchronize goroutines.")
	assert.Contains(t, prompt, "how do I find data races?")
	// Supplied order is preserved, not re-sorted
	assert.Less(t, strings.Index(prompt, "race detector"), strings.Index(prompt, "Channels"))
}

func TestAssembleRAGPrompt_Deterministic(t *testing.T) {
	results := []domain.SearchResult{{ChunkID: 0, Text: "fact", Score: 1}}

	assert.Equal(t,
		AssembleRAGPrompt("q", results),
		AssembleRAGPrompt("q", results))
}

func TestAssembleRAGPrompt_NeverTruncates(t *testing.T) {
	long := strings.Repeat("verbose reference text ", 5000)
	results := []domain.SearchResult{{ChunkID: 0, Text: long, Score: 1}}

	prompt := AssembleRAGPrompt("q", results)

	assert.Contains(t, prompt, long)
}

func TestAssembleSynthesisPrompt(t *testing.T) {
	prompt := AssembleSynthesisPrompt("what happened?", []string{"obs one", "obs two"})

	assert.Contains(t, prompt, "obs one")
	assert.Contains(t, prompt, "obs two")
	assert.Contains(t, prompt, "what happened?")
}

func TestAssembleSynthesisPrompt_NoObservations(t *testing.T) {
	prompt := AssembleSynthesisPrompt("q", nil)

	assert.Contains(t, prompt, "none")
}

func TestResolveSystemPrompt(t *testing.T) {
	tests := []struct {
		name     string
		preset   string
		custom   string
		expected string
	}{
		{name: "known preset", preset: "coder", expected: "senior software engineer"},
		{name: "unknown preset falls back to custom", preset: "poet", custom: "You are a poet.", expected: "You are a poet."},
		{name: "unknown preset without custom falls back to default", preset: "poet", expected: "helpful assistant"},
		{name: "empty preset with custom", preset: "", custom: "Custom persona.", expected: "Custom persona."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveSystemPrompt(tt.preset, tt.custom)
			assert.Contains(t, got, tt.expected)
		})
	}
}

func TestPresets_ContainsDefault(t *testing.T) {
	all := Presets()

	assert.NotEmpty(t, all)
	assert.Equal(t, DefaultPresetID, all[0].ID)
}
