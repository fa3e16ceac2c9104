package service

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"testing"

	"github.com/promptlab-ai/promptlab/internal/domain"
	"github.com/promptlab-ai/promptlab/internal/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hashEmbedder is a deterministic fake: similar texts map to similar vectors
// because identical texts map to identical vectors.
type hashEmbedder struct {
	failAfter int // fail the batch once this many texts were embedded; -1 disables
	embedded  int
}

func newHashEmbedder() *hashEmbedder {
	return &hashEmbedder{failAfter: -1}
}

func (h *hashEmbedder) vector(text string) []float32 {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(text))
	sum := hasher.Sum64()
	v := make([]float32, 8)
	for i := range v {
		v[i] = float32((sum>>(i*8))&0xff) / 255.0
	}
	return v
}

func (h *hashEmbedder) Embed(ctx context.Context, text string) (domain.Embedding, error) {
	out, err := h.EmbedBatch(ctx, []string{text})
	if err != nil {
		return domain.Embedding{}, err
	}
	return out[0], nil
}

func (h *hashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]domain.Embedding, error) {
	out := make([]domain.Embedding, 0, len(texts))
	for i, t := range texts {
		if h.failAfter >= 0 && h.embedded >= h.failAfter {
			return nil, domain.NewRemoteCallError("embedding provider unavailable", errors.New("boom"))
		}
		h.embedded++
		out = append(out, domain.NewEmbedding(i, h.vector(t)))
	}
	return out, nil
}

func TestRetriever_IndexThenQueryRoundTrip(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	retriever := NewRetriever(newHashEmbedder(), store)

	text := strings.Join([]string{
		strings.Repeat("alpha ", 100),
		strings.Repeat("bravo ", 100),
		strings.Repeat("charlie ", 100),
	}, "")

	indexed, err := retriever.Index(context.Background(), "doc-1", text, 500, 100)
	require.NoError(t, err)
	require.Greater(t, indexed.TotalChunks, 1)
	assert.Equal(t, "doc-1", indexed.DocID)
	assert.Equal(t, 500, indexed.ChunkSize)

	// Query with the exact text of a known chunk: it must rank first
	probe := indexed.Chunks[1].Text
	result, err := retriever.Query(context.Background(), "doc-1", probe, 1)
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.Equal(t, indexed.Chunks[1].ID, result.Results[0].ChunkID)
	assert.InDelta(t, 1.0, result.Results[0].Score, 1e-6)
	assert.NotEmpty(t, result.QueryPreview)
}

func TestRetriever_Index_EmbedFailureCommitsNothing(t *testing.T) {
	store := vectorstore.NewMemoryStore()

	// Seed an existing entry that must survive the failed re-index
	seed := newHashEmbedder()
	retriever := NewRetriever(seed, store)
	_, err := retriever.Index(context.Background(), "doc-1", "original content here", 50, 0)
	require.NoError(t, err)

	failing := newHashEmbedder()
	failing.failAfter = 1
	retriever = NewRetriever(failing, store)
	_, err = retriever.Index(context.Background(), "doc-1", strings.Repeat("replacement text ", 50), 50, 0)
	require.Error(t, err)

	// Old entry intact: the original chunk still matches exactly
	probe := newHashEmbedder()
	retriever = NewRetriever(probe, store)
	result, err := retriever.Query(context.Background(), "doc-1", "original content here", 1)
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.InDelta(t, 1.0, result.Results[0].Score, 1e-6)
}

func TestRetriever_Index_InvalidConfigRejectedBeforeEmbedding(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	emb := newHashEmbedder()
	retriever := NewRetriever(emb, store)

	_, err := retriever.Index(context.Background(), "doc-1", "text", 100, 100)

	assert.ErrorIs(t, err, domain.ErrInvalidChunkOverlap)
	assert.Equal(t, 0, emb.embedded, "no remote call on invalid configuration")
}

func TestRetriever_Query_UnknownDocIsEmpty(t *testing.T) {
	retriever := NewRetriever(newHashEmbedder(), vectorstore.NewMemoryStore())

	result, err := retriever.Query(context.Background(), "never-indexed", "anything", 5)

	require.NoError(t, err)
	assert.Empty(t, result.Results)
}

func TestRetriever_Query_EmptyQueryRejected(t *testing.T) {
	retriever := NewRetriever(newHashEmbedder(), vectorstore.NewMemoryStore())

	_, err := retriever.Query(context.Background(), "doc", "", 5)

	assert.ErrorIs(t, err, domain.ErrEmptyQuery)
}

func TestRetriever_Index_EmptyText(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	retriever := NewRetriever(newHashEmbedder(), store)

	indexed, err := retriever.Index(context.Background(), "doc-1", "", 300, 50)

	require.NoError(t, err)
	assert.Equal(t, 0, indexed.TotalChunks)
	assert.False(t, store.Has("doc-1"))
}

func TestPreviewVector(t *testing.T) {
	long := make([]float32, EmbeddingPreviewLen*2)
	assert.Len(t, PreviewVector(long), EmbeddingPreviewLen)

	short := []float32{1, 2}
	assert.Equal(t, short, PreviewVector(short))
}
