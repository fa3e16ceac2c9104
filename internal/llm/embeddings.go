package llm

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/promptlab-ai/promptlab/internal/domain"
	openai "github.com/sashabaranov/go-openai"
)

// EmbeddingAPI defines the slice of the provider client used for embeddings
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// Embedder turns text into fixed-length vectors via a remote embedding API.
// The vector dimension is whatever the provider model returns; it is recorded
// per response and never assumed.
type Embedder struct {
	api        EmbeddingAPI
	model      string
	batchLimit int
	timeout    time.Duration
}

// NewEmbedder creates an Embedder. batchLimit caps how many texts are sent in
// one remote call; larger inputs are split and the results concatenated in
// input order. timeout bounds each remote call; zero disables it.
func NewEmbedder(api EmbeddingAPI, model string, batchLimit int, timeout time.Duration) *Embedder {
	if batchLimit <= 0 {
		batchLimit = 10
	}
	return &Embedder{
		api:        api,
		model:      model,
		batchLimit: batchLimit,
		timeout:    timeout,
	}
}

// Embed generates a single embedding. The embedding's ChunkID is 0; callers
// indexing chunks should use EmbedBatch, which assigns positional ids.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.Embedding, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return domain.Embedding{}, err
	}
	return out[0], nil
}

// EmbedBatch generates one embedding per input text, order-preserving.
// ChunkID on each result is the input's position. A remote failure aborts the
// whole call with no partial results; callers wanting retries wrap this call.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([]domain.Embedding, error) {
	if len(texts) == 0 {
		return []domain.Embedding{}, nil
	}

	out := make([]domain.Embedding, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchLimit {
		end := start + e.batchLimit
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		resp, err := e.createEmbeddings(ctx, batch)
		if err != nil {
			return nil, wrapProviderError("embedding request failed", err)
		}
		if len(resp.Data) != len(batch) {
			return nil, domain.NewRemoteCallError(
				fmt.Sprintf("embedding provider returned %d vectors for %d inputs", len(resp.Data), len(batch)), nil)
		}

		// Providers may reorder results within a batch; Index restores input order.
		data := make([]openai.Embedding, len(resp.Data))
		copy(data, resp.Data)
		sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })

		for i, d := range data {
			out = append(out, domain.NewEmbedding(start+i, d.Embedding))
		}
	}

	return out, nil
}

func (e *Embedder) createEmbeddings(ctx context.Context, batch []string) (openai.EmbeddingResponse, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	return e.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: batch,
		Model: openai.EmbeddingModel(e.model),
	})
}
