package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChunk(t *testing.T) {
	chunk := NewChunk(3, "hello world")

	assert.Equal(t, 3, chunk.ID)
	assert.Equal(t, "hello world", chunk.Text)
	assert.Equal(t, 11, chunk.CharCount)
	assert.Equal(t, 5, chunk.TokenEstimate)
}

func TestNewChunk_MultiByte(t *testing.T) {
	// Counts are runes, not bytes
	chunk := NewChunk(0, "héllo")

	assert.Equal(t, 5, chunk.CharCount)
	assert.Equal(t, 2, chunk.TokenEstimate)
}

func TestNewChunk_Empty(t *testing.T) {
	chunk := NewChunk(0, "")

	assert.Equal(t, 0, chunk.CharCount)
	assert.Equal(t, 0, chunk.TokenEstimate)
}

func TestValidateChunk(t *testing.T) {
	tests := []struct {
		name    string
		chunk   Chunk
		wantErr bool
	}{
		{
			name:    "valid chunk",
			chunk:   NewChunk(0, "some text"),
			wantErr: false,
		},
		{
			name:    "negative ID",
			chunk:   Chunk{ID: -1, Text: "x", CharCount: 1},
			wantErr: true,
		},
		{
			name:    "char count mismatch",
			chunk:   Chunk{ID: 0, Text: "abc", CharCount: 7},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChunk(tt.chunk)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestNewDocument(t *testing.T) {
	doc := NewDocument("notes.md", "line one\nline two")

	assert.Equal(t, "notes.md", doc.Source)
	assert.Equal(t, 17, doc.CharCount)
}
