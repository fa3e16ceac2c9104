package llm

import (
	"errors"
	"io"
	"testing"

	"github.com/promptlab-ai/promptlab/internal/domain"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReceiver replays a scripted sequence of provider chunks
type fakeReceiver struct {
	responses []openai.ChatCompletionStreamResponse
	errs      []error
	pos       int
	closed    bool
}

func (f *fakeReceiver) Recv() (openai.ChatCompletionStreamResponse, error) {
	if f.pos >= len(f.responses) {
		return openai.ChatCompletionStreamResponse{}, io.EOF
	}
	resp, err := f.responses[f.pos], f.errs[f.pos]
	f.pos++
	return resp, err
}

func (f *fakeReceiver) Close() error {
	f.closed = true
	return nil
}

func deltaChunk(content string) openai.ChatCompletionStreamResponse {
	return openai.ChatCompletionStreamResponse{
		Choices: []openai.ChatCompletionStreamChoice{
			{Delta: openai.ChatCompletionStreamChoiceDelta{Content: content}},
		},
	}
}

func usageChunk(total int) openai.ChatCompletionStreamResponse {
	return openai.ChatCompletionStreamResponse{
		Usage: &openai.Usage{TotalTokens: total},
	}
}

func TestStream_RecvToCompletion(t *testing.T) {
	inner := &fakeReceiver{
		responses: []openai.ChatCompletionStreamResponse{
			deltaChunk("Hel"), deltaChunk("lo"), usageChunk(12),
		},
		errs: []error{nil, nil, nil},
	}
	s := newStream(inner)

	var got string
	for {
		delta, err := s.Recv()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got += delta
	}

	assert.Equal(t, "Hello", got)

	usage, ok := s.Usage()
	require.True(t, ok)
	assert.Equal(t, 12, usage.TotalTokens)
}

func TestStream_UsageUnavailableBeforeEnd(t *testing.T) {
	inner := &fakeReceiver{
		responses: []openai.ChatCompletionStreamResponse{deltaChunk("hi")},
		errs:      []error{nil},
	}
	s := newStream(inner)

	_, err := s.Recv()
	require.NoError(t, err)

	_, ok := s.Usage()
	assert.False(t, ok)
}

func TestStream_Interrupted(t *testing.T) {
	inner := &fakeReceiver{
		responses: []openai.ChatCompletionStreamResponse{
			deltaChunk("partial "), {},
		},
		errs: []error{nil, errors.New("connection reset")},
	}
	s := newStream(inner)

	delta, err := s.Recv()
	require.NoError(t, err)
	assert.Equal(t, "partial ", delta)

	_, err = s.Recv()
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeStreamInterrupted, domainErr.Code)

	// Usage from an interrupted stream must never look valid
	_, ok := s.Usage()
	assert.False(t, ok)

	// Subsequent reads report exhaustion, not the same error again
	_, err = s.Recv()
	assert.Equal(t, io.EOF, err)
}

func TestStream_SkipsEmptyDeltas(t *testing.T) {
	inner := &fakeReceiver{
		responses: []openai.ChatCompletionStreamResponse{
			deltaChunk(""), deltaChunk("word"),
		},
		errs: []error{nil, nil},
	}
	s := newStream(inner)

	delta, err := s.Recv()
	require.NoError(t, err)
	assert.Equal(t, "word", delta)
}

func TestStream_Close(t *testing.T) {
	inner := &fakeReceiver{}
	s := newStream(inner)

	require.NoError(t, s.Close())
	assert.True(t, inner.closed)
}
