package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// AgentAPIRequest represents the agent run API request.
type AgentAPIRequest struct {
	Query string `json:"query"`
	DocID string `json:"doc_id,omitempty"`
	Model string `json:"model,omitempty"`
}

// AgentStepEvent represents one streamed agent step.
type AgentStepEvent struct {
	Type    string `json:"type"`
	Label   string `json:"label"`
	Content string `json:"content"`
}

// AgentCmd creates the agent command.
func AgentCmd() *cobra.Command {
	var (
		docID string
		model string
	)

	cmd := &cobra.Command{
		Use:   "agent <query>",
		Short: "Run the agent loop on a query",
		Long:  "Runs the bounded plan/act/observe loop and prints every step as it streams in. The final result step carries the answer.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgent(cmd, args[0], docID, model)
		},
	}

	cmd.Flags().StringVarP(&docID, "doc-id", "d", "", "Document id whose index the agent may consult")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Model to use (default: server default)")

	return cmd
}

func runAgent(cmd *cobra.Command, query, docID, model string) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	return api.PostStream("/api/stage6/run", AgentAPIRequest{
		Query: query,
		DocID: docID,
		Model: model,
	}, func(event string, data json.RawMessage) error {
		switch event {
		case "step":
			var step AgentStepEvent
			if err := json.Unmarshal(data, &step); err != nil {
				return fmt.Errorf("failed to parse step event: %w", err)
			}
			printAgentStep(step)
		case "error":
			var payload struct {
				Error string `json:"error"`
			}
			if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
				return fmt.Errorf("agent run failed: %s", payload.Error)
			}
			return fmt.Errorf("agent run failed")
		}
		return nil
	})
}

func printAgentStep(step AgentStepEvent) {
	header := fmt.Sprintf("── %s: %s", strings.ToUpper(step.Type), step.Label)
	fmt.Println(header)
	if step.Content != "" {
		for _, line := range strings.Split(step.Content, "\n") {
			fmt.Println("   " + line)
		}
	}
}
