package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// ModelEntry represents one model of the server's catalog.
type ModelEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ModelsResponse represents the models API response.
type ModelsResponse struct {
	Models  []ModelEntry `json:"models"`
	Default string       `json:"default"`
}

// ModelsCmd creates the models command.
func ModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List available models",
		Long:  "Lists the models the server offers and which one is the default.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runModels(cmd, outputJSON)
		},
	}

	return cmd
}

func runModels(cmd *cobra.Command, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/api/models")
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	var models ModelsResponse
	if err := json.Unmarshal(resp.Data, &models); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		out, _ := json.MarshalIndent(models, "", "  ")
		fmt.Println(string(out))
		return nil
	}

	for _, m := range models.Models {
		marker := " "
		if m.ID == models.Default {
			marker = "*"
		}
		fmt.Printf("%s %-20s %s\n", marker, m.ID, m.Name)
	}
	return nil
}
