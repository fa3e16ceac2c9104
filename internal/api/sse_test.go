package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/promptlab-ai/promptlab/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventWriter(t *testing.T) {
	w := httptest.NewRecorder()

	ew, err := NewEventWriter(w)
	require.NoError(t, err)

	require.NoError(t, ew.SendToken("hel"))
	require.NoError(t, ew.SendToken("lo"))
	require.NoError(t, ew.SendUsage(domain.Usage{PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5}))
	require.NoError(t, ew.Done())

	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))

	body := w.Body.String()
	assert.Contains(t, body, "event: token\ndata: {\"content\":\"hel\"}\n\n")
	assert.Contains(t, body, "event: token\ndata: {\"content\":\"lo\"}\n\n")
	assert.Contains(t, body, "event: usage\n")
	assert.Contains(t, body, "\"total_tokens\":5")
	assert.Contains(t, body, "event: done\ndata: [DONE]\n\n")
	assert.True(t, w.Flushed)
}

func TestEventWriter_Step(t *testing.T) {
	w := httptest.NewRecorder()

	ew, err := NewEventWriter(w)
	require.NoError(t, err)

	step := domain.NewAgentStep(domain.StepThink, "Round 1: thinking", "reasoning")
	require.NoError(t, ew.SendStep(step))

	assert.Contains(t, w.Body.String(), "event: step\n")
	assert.Contains(t, w.Body.String(), "\"type\":\"think\"")
}

// nonFlusher exposes only the http.ResponseWriter surface of the recorder
type nonFlusher struct {
	rec *httptest.ResponseRecorder
}

func (n nonFlusher) Header() http.Header         { return n.rec.Header() }
func (n nonFlusher) Write(b []byte) (int, error) { return n.rec.Write(b) }
func (n nonFlusher) WriteHeader(statusCode int)  { n.rec.WriteHeader(statusCode) }

func TestEventWriter_RequiresFlusher(t *testing.T) {
	_, err := NewEventWriter(nonFlusher{httptest.NewRecorder()})

	require.Error(t, err)
}
