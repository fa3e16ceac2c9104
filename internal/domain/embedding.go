package domain

import "math"

// Embedding is a fixed-length vector representation of one chunk's text.
// One embedding belongs to exactly one chunk in one index snapshot; it must be
// recomputed whenever chunk boundaries change. The vector dimension is a
// provider/model property and is never assumed by this package.
type Embedding struct {
	ChunkID int
	Vector  []float32
	Norm    float64
}

// NewEmbedding creates an Embedding and precomputes its L2 norm.
func NewEmbedding(chunkID int, vector []float32) Embedding {
	return Embedding{
		ChunkID: chunkID,
		Vector:  vector,
		Norm:    VectorNorm(vector),
	}
}

// VectorNorm returns the L2 norm of a vector.
func VectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// CosineSimilarity returns the normalized dot product of two vectors given
// their precomputed norms. A zero vector on either side scores 0 rather than
// dividing by zero. Scores land in [-1, 1].
func CosineSimilarity(a []float32, normA float64, b []float32, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA * normB)
}

// SearchResult is one scored chunk returned from a similarity query.
// Score is the cosine similarity between the query embedding and the chunk
// embedding; results for a query are deterministic given the same index.
type SearchResult struct {
	ChunkID int     `json:"chunk_id"`
	Text    string  `json:"text"`
	Score   float64 `json:"score"`
}
