package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// IndexAPIRequest represents the index API request.
type IndexAPIRequest struct {
	Content      string `json:"content"`
	ChunkSize    int    `json:"chunk_size,omitempty"`
	ChunkOverlap int    `json:"chunk_overlap,omitempty"`
	DocID        string `json:"doc_id,omitempty"`
}

// IndexAPIResponse represents the index API response.
type IndexAPIResponse struct {
	DocID       string `json:"doc_id"`
	TotalChunks int    `json:"total_chunks"`
	ChunkSize   int    `json:"chunk_size"`
	Overlap     int    `json:"chunk_overlap"`
}

// IndexCmd creates the index command.
func IndexCmd() *cobra.Command {
	var (
		docID     string
		chunkSize int
		overlap   int
	)

	cmd := &cobra.Command{
		Use:   "index <file>",
		Short: "Index a document for retrieval",
		Long:  "Reads a plain-text or markdown file, chunks and embeds it server-side, and stores it under the given document id.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd, args[0], docID, chunkSize, overlap)
		},
	}

	cmd.Flags().StringVarP(&docID, "doc-id", "d", "", "Document id (default: file name without extension)")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Chunk size in characters (default: server default)")
	cmd.Flags().IntVar(&overlap, "overlap", 0, "Chunk overlap in characters")

	return cmd
}

func runIndex(cmd *cobra.Command, path, docID string, chunkSize, overlap int) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".txt" && ext != ".md" && ext != ".markdown" {
		return fmt.Errorf("unsupported file type %q (expected .txt, .md, or .markdown)", ext)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if len(content) == 0 {
		return fmt.Errorf("file is empty: %s", path)
	}

	if docID == "" {
		base := filepath.Base(path)
		docID = strings.TrimSuffix(base, filepath.Ext(base))
	}

	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post("/api/stage5/index", IndexAPIRequest{
		Content:      string(content),
		ChunkSize:    chunkSize,
		ChunkOverlap: overlap,
		DocID:        docID,
	})
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	var result IndexAPIResponse
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	fmt.Printf("Indexed %q as %d chunks (size %d, overlap %d)\n",
		result.DocID, result.TotalChunks, result.ChunkSize, result.Overlap)
	return nil
}
