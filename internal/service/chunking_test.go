package service

import (
	"strings"
	"testing"

	"github.com/promptlab-ai/promptlab/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkText_SlidingWindow(t *testing.T) {
	chunks, err := ChunkText("ABCDEFGHIJ", 4, 1)

	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "ABCD", chunks[0].Text)
	assert.Equal(t, "DEFG", chunks[1].Text)
	assert.Equal(t, "GHIJ", chunks[2].Text)
	for i, c := range chunks {
		assert.Equal(t, i, c.ID, "ids are contiguous window positions")
	}
}

func TestChunkText_FinalWindowMayBeShort(t *testing.T) {
	chunks, err := ChunkText("ABCDEFG", 4, 1)

	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "ABCD", chunks[0].Text)
	assert.Equal(t, "DEFG", chunks[1].Text)

	chunks, err = ChunkText("ABCDEFGH", 4, 1)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "GH", chunks[2].Text)
}

func TestChunkText_EmptyTextYieldsEmpty(t *testing.T) {
	chunks, err := ChunkText("", 100, 10)

	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunkText_TextShorterThanSize(t *testing.T) {
	chunks, err := ChunkText("short", 100, 10)

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short", chunks[0].Text)
}

func TestChunkText_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name          string
		size, overlap int
		wantErr       error
	}{
		{name: "overlap equals size", size: 4, overlap: 4, wantErr: domain.ErrInvalidChunkOverlap},
		{name: "overlap exceeds size", size: 4, overlap: 9, wantErr: domain.ErrInvalidChunkOverlap},
		{name: "negative overlap", size: 4, overlap: -1, wantErr: domain.ErrInvalidChunkOverlap},
		{name: "zero size", size: 0, overlap: 0, wantErr: domain.ErrInvalidChunkSize},
		{name: "negative size", size: -5, overlap: 0, wantErr: domain.ErrInvalidChunkSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := ChunkText("some text", tt.size, tt.overlap)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, chunks)
		})
	}
}

func TestChunkText_ReconstructsOriginal(t *testing.T) {
	// Concatenating chunk texts with overlaps removed rebuilds the source
	tests := []struct {
		name          string
		text          string
		size, overlap int
	}{
		{name: "no overlap", text: "the quick brown fox jumps over the lazy dog", size: 7, overlap: 0},
		{name: "small overlap", text: "the quick brown fox jumps over the lazy dog", size: 10, overlap: 3},
		{name: "large overlap", text: strings.Repeat("abcdefghij", 20), size: 50, overlap: 49},
		{name: "multibyte runes", text: strings.Repeat("héllo wörld ", 30), size: 40, overlap: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := ChunkText(tt.text, tt.size, tt.overlap)
			require.NoError(t, err)

			var sb strings.Builder
			for i, c := range chunks {
				runes := []rune(c.Text)
				if i == 0 {
					sb.WriteString(c.Text)
				} else {
					sb.WriteString(string(runes[tt.overlap:]))
				}
			}
			assert.Equal(t, tt.text, sb.String())
		})
	}
}

func TestChunkText_TokenEstimateIsHeuristic(t *testing.T) {
	chunks, err := ChunkText("ABCDEFGHIJ", 10, 0)

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 10, chunks[0].CharCount)
	assert.Equal(t, 5, chunks[0].TokenEstimate)
}

func TestClampChunkParams(t *testing.T) {
	tests := []struct {
		name                         string
		size, overlap                int
		expectedSize, expectedOverlap int
	}{
		{name: "valid passthrough", size: 300, overlap: 50, expectedSize: 300, expectedOverlap: 50},
		{name: "size below floor", size: 10, overlap: 5, expectedSize: MinChunkSize, expectedOverlap: 5},
		{name: "overlap too large", size: 100, overlap: 250, expectedSize: 100, expectedOverlap: 99},
		{name: "negative overlap", size: 100, overlap: -4, expectedSize: 100, expectedOverlap: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size, overlap := ClampChunkParams(tt.size, tt.overlap)
			assert.Equal(t, tt.expectedSize, size)
			assert.Equal(t, tt.expectedOverlap, overlap)

			// The clamped configuration is always accepted by the chunker
			_, err := ChunkText("text", size, overlap)
			assert.NoError(t, err)
		})
	}
}
