package service

import "github.com/promptlab-ai/promptlab/internal/domain"

// Defaults mirror the chunk request defaults exposed by the API.
const (
	DefaultChunkSize    = 300
	DefaultChunkOverlap = 50

	// MinChunkSize is the floor applied when clamping caller-supplied sizes.
	MinChunkSize = 50
)

// ChunkText splits text into overlapping fixed-size windows. The window
// advances size-overlap runes per step and the final window runs to the end
// of the text, so it may be shorter than size. Chunk ids are contiguous
// 0-based window positions.
//
// Empty text yields an empty slice. overlap >= size (a window that would
// never advance) and non-positive sizes are configuration errors, rejected
// before any work.
func ChunkText(text string, size, overlap int) ([]domain.Chunk, error) {
	if size <= 0 {
		return nil, domain.ErrInvalidChunkSize
	}
	if overlap < 0 || overlap >= size {
		return nil, domain.ErrInvalidChunkOverlap
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return []domain.Chunk{}, nil
	}

	step := size - overlap
	chunks := make([]domain.Chunk, 0, (len(runes)+step-1)/step)
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, domain.NewChunk(len(chunks), string(runes[start:end])))
		if end == len(runes) {
			break
		}
	}

	return chunks, nil
}

// ClampChunkParams coerces caller-supplied chunking parameters into a valid
// configuration and returns the effective values. The API clamps rather than
// rejects so the walkthrough UI can show what actually ran.
func ClampChunkParams(size, overlap int) (int, int) {
	if size < MinChunkSize {
		size = MinChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap > size-1 {
		overlap = size - 1
	}
	return size, overlap
}
