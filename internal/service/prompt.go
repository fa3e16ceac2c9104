package service

import (
	"fmt"
	"strings"

	"github.com/promptlab-ai/promptlab/internal/domain"
)

// AssembleRAGPrompt formats retrieved chunks plus the user query into a single
// generation prompt. Results are rendered in the order supplied (typically
// score-descending) and are never truncated here; length capping is the
// caller's job before assembly.
func AssembleRAGPrompt(query string, results []domain.SearchResult) string {
	var refs strings.Builder
	for i, r := range results {
		if i > 0 {
			refs.WriteString("\n\n")
		}
		fmt.Fprintf(&refs, "[%d] %s", i+1, r.Text)
	}

	return fmt.Sprintf(`Answer the user's question using only the reference material below. If the material does not contain the answer, say so plainly instead of guessing.

[Reference material]
%s

[Question]
%s`, refs.String(), query)
}

// AssembleSynthesisPrompt builds the forced final-answer prompt the agent loop
// uses when the round cap is reached with observations still on hand.
func AssembleSynthesisPrompt(query string, observations []string) string {
	collected := "none"
	if len(observations) > 0 {
		collected = strings.Join(observations, "\n---\n")
	}

	return fmt.Sprintf(`Answer the user's question based on the information collected below. If the information is insufficient, say so plainly.

[Collected information]
%s

[Question]
%s`, collected, query)
}
