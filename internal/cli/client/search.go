package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// SearchAPIRequest represents the similarity-search API request.
type SearchAPIRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
	DocID string `json:"doc_id,omitempty"`
}

// SearchHit represents one similarity-search result.
type SearchHit struct {
	ChunkID int     `json:"chunk_id"`
	Text    string  `json:"text"`
	Score   float64 `json:"score"`
}

// SearchAPIResponse represents the similarity-search API response.
type SearchAPIResponse struct {
	Results []SearchHit `json:"results"`
}

// SearchCmd creates the search command.
func SearchCmd() *cobra.Command {
	var (
		docID string
		topK  int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search an indexed document",
		Long:  "Embeds the query and returns the most similar chunks of an indexed document.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runSearch(cmd, args[0], docID, topK, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&docID, "doc-id", "d", "", "Document id to search (default: \"default\")")
	cmd.Flags().IntVarP(&topK, "top-k", "k", 3, "Number of results")

	return cmd
}

func runSearch(cmd *cobra.Command, query, docID string, topK int, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post("/api/stage5/search", SearchAPIRequest{
		Query: query,
		TopK:  topK,
		DocID: docID,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	var result SearchAPIResponse
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		out, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(out))
		return nil
	}

	if len(result.Results) == 0 {
		fmt.Println("No results.")
		return nil
	}

	for i, hit := range result.Results {
		if i > 0 {
			fmt.Println()
		}
		fmt.Printf("[%d] chunk %d (similarity %.3f)\n%s\n", i+1, hit.ChunkID, hit.Score, hit.Text)
	}
	return nil
}
