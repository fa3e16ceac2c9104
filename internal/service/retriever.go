package service

import (
	"context"
	"fmt"

	"github.com/promptlab-ai/promptlab/internal/domain"
	"github.com/promptlab-ai/promptlab/internal/telemetry"
	"github.com/promptlab-ai/promptlab/internal/vectorstore"
)

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	Embed(ctx context.Context, text string) (domain.Embedding, error)
	EmbedBatch(ctx context.Context, texts []string) ([]domain.Embedding, error)
}

// EmbeddingPreviewLen caps how many vector components are echoed back to the
// UI; full vectors are far too wide to visualize.
const EmbeddingPreviewLen = 16

// IndexedChunk is the per-chunk metadata returned from indexing
type IndexedChunk struct {
	ID               int       `json:"chunk_id"`
	Text             string    `json:"text"`
	CharCount        int       `json:"char_count"`
	TokenEstimate    int       `json:"token_estimate"`
	EmbeddingPreview []float32 `json:"embedding_preview"`
	Norm             float64   `json:"norm"`
}

// IndexResult summarizes one completed indexing run
type IndexResult struct {
	DocID       string         `json:"doc_id"`
	TotalChunks int            `json:"total_chunks"`
	ChunkSize   int            `json:"chunk_size"`
	Overlap     int            `json:"chunk_overlap"`
	Chunks      []IndexedChunk `json:"chunks"`
}

// QueryResult carries search results plus the query's own embedding preview
type QueryResult struct {
	Results      []domain.SearchResult `json:"results"`
	QueryPreview []float32             `json:"query_embedding_preview"`
	QueryNorm    float64               `json:"query_norm"`
}

// Retriever orchestrates chunker, embedding client, and vector store to
// answer "given a query, return the top-k most relevant chunks".
type Retriever struct {
	emb   EmbeddingClient
	store vectorstore.Store
}

// NewRetriever creates a Retriever over the given embedding client and store
func NewRetriever(emb EmbeddingClient, store vectorstore.Store) *Retriever {
	return &Retriever{emb: emb, store: store}
}

// Index chunks text, embeds every chunk, and replaces docID's store entry as
// one logical unit. If embedding fails partway nothing is committed; the
// store keeps whatever entry it had before.
func (r *Retriever) Index(ctx context.Context, docID, text string, chunkSize, overlap int) (*IndexResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "Retriever.Index", telemetry.SpanAttributes{
		DocID:     docID,
		Operation: "index",
	})
	defer span.End()

	chunks, err := ChunkText(text, chunkSize, overlap)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	embeddings, err := r.emb.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed %d chunks: %w", len(chunks), err)
	}

	if err := r.store.Upsert(docID, chunks, embeddings); err != nil {
		return nil, err
	}

	result := &IndexResult{
		DocID:       docID,
		TotalChunks: len(chunks),
		ChunkSize:   chunkSize,
		Overlap:     overlap,
		Chunks:      make([]IndexedChunk, len(chunks)),
	}
	for i, c := range chunks {
		result.Chunks[i] = IndexedChunk{
			ID:               c.ID,
			Text:             c.Text,
			CharCount:        c.CharCount,
			TokenEstimate:    c.TokenEstimate,
			EmbeddingPreview: PreviewVector(embeddings[i].Vector),
			Norm:             embeddings[i].Norm,
		}
	}
	return result, nil
}

// Query embeds the query text once and delegates to the store's similarity
// search. Querying a never-indexed document returns empty results.
func (r *Retriever) Query(ctx context.Context, docID, query string, topK int) (*QueryResult, error) {
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}

	ctx, span := telemetry.StartSpan(ctx, "Retriever.Query", telemetry.SpanAttributes{
		DocID:     docID,
		Operation: "query",
	})
	defer span.End()

	queryEmb, err := r.emb.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := r.store.Search(docID, queryEmb.Vector, topK)
	if err != nil {
		return nil, err
	}

	return &QueryResult{
		Results:      results,
		QueryPreview: PreviewVector(queryEmb.Vector),
		QueryNorm:    queryEmb.Norm,
	}, nil
}

// PreviewVector returns the leading components of a vector for display
func PreviewVector(v []float32) []float32 {
	if len(v) <= EmbeddingPreviewLen {
		return v
	}
	return v[:EmbeddingPreviewLen]
}
