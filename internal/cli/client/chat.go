package client

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// ChatAPIRequest represents the multi-turn chat API request.
type ChatAPIRequest struct {
	UserInput    string `json:"user_input"`
	SystemPrompt string `json:"system_prompt,omitempty"`
	Model        string `json:"model,omitempty"`
}

// ChatAPIResponse represents the multi-turn chat API response.
type ChatAPIResponse struct {
	Response string `json:"response"`
	Usage    struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// PresetsResponse represents the preset catalog API response.
type PresetsResponse struct {
	Presets []struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Prompt string `json:"prompt"`
	} `json:"presets"`
}

// ChatCmd creates the chat command.
func ChatCmd() *cobra.Command {
	var (
		model        string
		preset       string
		systemPrompt string
		stream       bool
		showUsage    bool
	)

	cmd := &cobra.Command{
		Use:   "chat <question>",
		Short: "Ask the model a question",
		Long:  "Sends a one-shot question to the model, optionally steered by a preset persona or a custom system prompt.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, args[0], model, preset, systemPrompt, stream, showUsage)
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "Model to use (default: server default)")
	cmd.Flags().StringVar(&preset, "preset", "", "System-prompt preset persona (see 'presets')")
	cmd.Flags().StringVarP(&systemPrompt, "system", "s", "", "Custom system prompt")
	cmd.Flags().BoolVar(&stream, "stream", false, "Stream the answer token by token")
	cmd.Flags().BoolVar(&showUsage, "usage", false, "Print token usage after the answer")

	return cmd
}

func runChat(cmd *cobra.Command, question, model, preset, systemPrompt string, stream, showUsage bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	if preset != "" {
		systemPrompt, err = resolvePreset(api, preset)
		if err != nil {
			return err
		}
	}

	req := ChatAPIRequest{
		UserInput:    question,
		SystemPrompt: systemPrompt,
		Model:        model,
	}

	if stream {
		return streamChat(api, req, showUsage)
	}

	resp, err := api.Post("/api/stage3/chat", req)
	if err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}

	var chat ChatAPIResponse
	if err := json.Unmarshal(resp.Data, &chat); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	fmt.Println(chat.Response)
	if showUsage {
		fmt.Fprintf(os.Stderr, "\n[tokens: %d prompt + %d completion = %d total]\n",
			chat.Usage.PromptTokens, chat.Usage.CompletionTokens, chat.Usage.TotalTokens)
	}
	return nil
}

func streamChat(api *APIClient, req ChatAPIRequest, showUsage bool) error {
	err := api.PostStream("/api/stage3/stream", req, func(event string, data json.RawMessage) error {
		switch event {
		case "token":
			var payload struct {
				Content string `json:"content"`
			}
			if err := json.Unmarshal(data, &payload); err != nil {
				return fmt.Errorf("failed to parse token event: %w", err)
			}
			fmt.Print(payload.Content)
		case "usage":
			if showUsage {
				var usage struct {
					PromptTokens     int `json:"prompt_tokens"`
					CompletionTokens int `json:"completion_tokens"`
					TotalTokens      int `json:"total_tokens"`
				}
				if json.Unmarshal(data, &usage) == nil {
					fmt.Fprintf(os.Stderr, "\n[tokens: %d prompt + %d completion = %d total]",
						usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens)
				}
			}
		case "error":
			var payload struct {
				Error string `json:"error"`
			}
			if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
				return fmt.Errorf("stream failed: %s", payload.Error)
			}
			return fmt.Errorf("stream failed")
		}
		return nil
	})
	fmt.Println()
	return err
}

func resolvePreset(api *APIClient, preset string) (string, error) {
	resp, err := api.Get("/api/stage2/presets")
	if err != nil {
		return "", fmt.Errorf("failed to fetch presets: %w", err)
	}

	var presets PresetsResponse
	if err := json.Unmarshal(resp.Data, &presets); err != nil {
		return "", fmt.Errorf("failed to parse presets: %w", err)
	}

	for _, p := range presets.Presets {
		if p.ID == preset {
			return p.Prompt, nil
		}
	}

	known := make([]string, len(presets.Presets))
	for i, p := range presets.Presets {
		known[i] = p.ID
	}
	return "", fmt.Errorf("unknown preset %q (available: %v)", preset, known)
}

// PresetsCmd creates the presets command.
func PresetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List system-prompt presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Get("/api/stage2/presets")
			if err != nil {
				return fmt.Errorf("failed to fetch presets: %w", err)
			}

			var presets PresetsResponse
			if err := json.Unmarshal(resp.Data, &presets); err != nil {
				return fmt.Errorf("failed to parse presets: %w", err)
			}

			for _, p := range presets.Presets {
				fmt.Printf("%-10s %-10s %s\n", p.ID, p.Name, p.Prompt)
			}
			return nil
		},
	}

	return cmd
}
