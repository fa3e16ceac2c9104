// Package vectorstore holds chunk vectors in process memory and answers
// nearest-neighbor queries by cosine similarity. Contents live only for the
// process's lifetime; nothing is persisted across restarts.
package vectorstore

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/promptlab-ai/promptlab/internal/domain"
)

// Store is the vector index consumed by the retriever and the agent loop
type Store interface {
	Upsert(docID string, chunks []domain.Chunk, embeddings []domain.Embedding) error
	Search(docID string, query []float32, topK int) ([]domain.SearchResult, error)
	Has(docID string) bool
	Delete(docID string)
}

// DocStats describes one indexed document for introspection endpoints
type DocStats struct {
	DocID      string    `json:"doc_id"`
	ChunkCount int       `json:"chunk_count"`
	IndexedAt  time.Time `json:"indexed_at"`
}

// docEntry is one immutable index snapshot. Upsert swaps the whole entry
// pointer, so a search holding the old pointer keeps a consistent view.
type docEntry struct {
	chunks     []domain.Chunk
	embeddings []domain.Embedding
	indexedAt  time.Time
	lastAccess atomic.Int64 // unix nanos
}

func (e *docEntry) touch(now time.Time) {
	e.lastAccess.Store(now.UnixNano())
}

// MemoryStore is the in-memory Store implementation. Safe for concurrent use:
// upserts on one document are serialized against searches on the same
// document, while distinct documents proceed fully in parallel.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*docEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*docEntry),
		now:     time.Now,
	}
}

// Upsert atomically replaces the index entry for docID. Any prior entry is
// discarded wholesale; there is no merge and at most one version per docID.
// The chunk and embedding lists must be equal length and aligned by position.
func (s *MemoryStore) Upsert(docID string, chunks []domain.Chunk, embeddings []domain.Embedding) error {
	if docID == "" {
		return domain.NewValidationError("doc_id is required")
	}
	if len(chunks) != len(embeddings) {
		return domain.ErrMisalignedIndexEntry
	}
	for i := range chunks {
		if chunks[i].ID != embeddings[i].ChunkID {
			return domain.ErrMisalignedIndexEntry
		}
	}

	entry := &docEntry{
		chunks:     chunks,
		embeddings: embeddings,
		indexedAt:  s.now(),
	}
	entry.touch(entry.indexedAt)

	s.mu.Lock()
	s.entries[docID] = entry
	s.mu.Unlock()
	return nil
}

// Search scores every chunk of docID against the query vector and returns the
// topK best, ordered by descending score with ties broken by ascending chunk
// id. An unknown docID yields an empty result, not an error; topK beyond the
// stored chunk count returns everything available. The entry is snapshotted
// at call time, so a concurrent re-index does not affect a search in flight.
func (s *MemoryStore) Search(docID string, query []float32, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		return nil, domain.ErrInvalidTopK
	}

	s.mu.RLock()
	entry := s.entries[docID]
	s.mu.RUnlock()

	if entry == nil {
		return []domain.SearchResult{}, nil
	}
	entry.touch(s.now())

	queryNorm := domain.VectorNorm(query)
	results := make([]domain.SearchResult, 0, len(entry.chunks))
	for i, chunk := range entry.chunks {
		emb := entry.embeddings[i]
		results = append(results, domain.SearchResult{
			ChunkID: chunk.ID,
			Text:    chunk.Text,
			Score:   domain.CosineSimilarity(query, queryNorm, emb.Vector, emb.Norm),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ChunkID < results[j].ChunkID
	})

	if topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

// Has reports whether docID currently has a non-empty index entry
func (s *MemoryStore) Has(docID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry := s.entries[docID]
	return entry != nil && len(entry.chunks) > 0
}

// Delete removes the entry for docID, if any
func (s *MemoryStore) Delete(docID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, docID)
}

// Stats lists the indexed documents, sorted by docID for determinism
func (s *MemoryStore) Stats() []DocStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]DocStats, 0, len(s.entries))
	for docID, entry := range s.entries {
		out = append(out, DocStats{
			DocID:      docID,
			ChunkCount: len(entry.chunks),
			IndexedAt:  entry.indexedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocID < out[j].DocID })
	return out
}

// EvictIdle removes entries whose last access is before the cutoff and
// returns the evicted docIDs. Used by the index janitor.
func (s *MemoryStore) EvictIdle(cutoff time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var evicted []string
	for docID, entry := range s.entries {
		if time.Unix(0, entry.lastAccess.Load()).Before(cutoff) {
			delete(s.entries, docID)
			evicted = append(evicted, docID)
		}
	}
	sort.Strings(evicted)
	return evicted
}
