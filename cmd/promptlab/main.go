package main

import (
	"fmt"
	"os"

	"github.com/promptlab-ai/promptlab/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "promptlab",
		Short: "Promptlab CLI - explore LLM building blocks from the terminal",
		Long: `Promptlab CLI talks to a running promptlabd server.

Environment variables:
  PROMPTLAB_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env)")

	rootCmd.AddCommand(client.ModelsCmd())
	rootCmd.AddCommand(client.PresetsCmd())
	rootCmd.AddCommand(client.ChatCmd())
	rootCmd.AddCommand(client.IndexCmd())
	rootCmd.AddCommand(client.SearchCmd())
	rootCmd.AddCommand(client.AgentCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
