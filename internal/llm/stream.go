package llm

import (
	"context"
	"errors"
	"io"

	"github.com/promptlab-ai/promptlab/internal/domain"
	openai "github.com/sashabaranov/go-openai"
)

// TokenStream is a finite, non-restartable sequence of text increments.
// Recv returns io.EOF after the final increment; Usage is only valid once the
// stream has ended cleanly. A stream that errors mid-flight must not be
// folded into history as a completed turn.
type TokenStream interface {
	Recv() (string, error)
	Usage() (domain.Usage, bool)
	Close() error
}

// streamReceiver is the slice of the provider stream we consume.
// *openai.ChatCompletionStream satisfies it; tests substitute a fake.
type streamReceiver interface {
	Recv() (openai.ChatCompletionStreamResponse, error)
	Close() error
}

// Stream adapts a provider completion stream to TokenStream
type Stream struct {
	inner streamReceiver
	usage *domain.Usage
	done  bool
}

func newStream(inner streamReceiver) *Stream {
	return &Stream{inner: inner}
}

// Recv returns the next non-empty text increment. It returns io.EOF on clean
// completion, a timeout error when the deadline expires, and a
// stream-interrupted error for any other mid-flight failure.
func (s *Stream) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}

	for {
		resp, err := s.inner.Recv()
		if errors.Is(err, io.EOF) {
			s.done = true
			return "", io.EOF
		}
		if err != nil {
			// Interrupted: usage stays unavailable so callers cannot
			// mistake the partial output for a complete turn.
			s.usage = nil
			s.done = true
			if errors.Is(err, context.DeadlineExceeded) {
				return "", domain.NewTimeoutError("completion stream timed out", err)
			}
			return "", domain.NewDomainErrorWithCause(domain.ErrCodeStreamInterrupted, "completion stream interrupted", err)
		}

		// The usage summary arrives as a trailing chunk with no choices.
		if resp.Usage != nil {
			u := fromProviderUsage(*resp.Usage)
			s.usage = &u
		}

		if len(resp.Choices) > 0 {
			if delta := resp.Choices[0].Delta.Content; delta != "" {
				return delta, nil
			}
		}
	}
}

// Usage reports the provider's token accounting. The second return is false
// until the stream has ended cleanly.
func (s *Stream) Usage() (domain.Usage, bool) {
	if !s.done || s.usage == nil {
		return domain.Usage{}, false
	}
	return *s.usage, true
}

// Close releases the underlying provider stream. Safe to call at any point;
// closing early cancels the remote stream rather than draining it.
func (s *Stream) Close() error {
	return s.inner.Close()
}
