package domain

import "unicode/utf8"

// TokenCharRatio is the crude characters-per-token heuristic used for token
// estimates. It is an approximation only and will diverge from real provider
// tokenizer counts; callers must never treat the estimate as exact.
const TokenCharRatio = 2

// Chunk is a bounded contiguous slice of a document's text, the unit of
// retrieval. ID is the chunk's 0-based position within one chunking of one
// document. Chunks are never mutated after creation.
type Chunk struct {
	ID            int
	Text          string
	CharCount     int
	TokenEstimate int
}

// NewChunk creates a Chunk and derives its character count and token estimate.
// Counts are in runes, not bytes, so multi-byte text is measured consistently.
func NewChunk(id int, text string) Chunk {
	chars := utf8.RuneCountInString(text)
	return Chunk{
		ID:            id,
		Text:          text,
		CharCount:     chars,
		TokenEstimate: chars / TokenCharRatio,
	}
}

// ValidateChunk validates a Chunk instance
func ValidateChunk(c Chunk) error {
	if c.ID < 0 {
		return NewValidationError("chunk ID cannot be negative")
	}
	if c.CharCount != utf8.RuneCountInString(c.Text) {
		return NewValidationError("chunk CharCount does not match its text")
	}
	return nil
}

// Document is raw text plus a source identifier (upload filename or URL).
// Immutable once loaded; re-fetching a source replaces it wholesale.
type Document struct {
	Source    string
	Text      string
	CharCount int
}

// NewDocument creates a Document from a source identifier and its raw text
func NewDocument(source, text string) Document {
	return Document{
		Source:    source,
		Text:      text,
		CharCount: utf8.RuneCountInString(text),
	}
}
