package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/promptlab-ai/promptlab/internal/domain"
)

// SSE event names used by the streaming endpoints
const (
	EventStep  = "step"
	EventToken = "token"
	EventUsage = "usage"
	EventDone  = "done"
	EventError = "error"
)

// EventWriter writes named server-sent events over one long-lived response
type EventWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewEventWriter prepares w for server-sent events and returns a writer for
// them. Fails when the underlying writer cannot be flushed incrementally.
func NewEventWriter(w http.ResponseWriter) (*EventWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, domain.NewDomainError(domain.ErrCodeInternalError, "response writer does not support streaming")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	// Disables proxy buffering so events reach the client as they happen
	w.Header().Set("X-Accel-Buffering", "no")

	return &EventWriter{w: w, flusher: flusher}, nil
}

// Send writes one named event with a JSON payload and flushes it
func (e *EventWriter) Send(event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event, err)
	}
	if _, err := fmt.Fprintf(e.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	e.flusher.Flush()
	return nil
}

// SendToken writes one token event carrying a text fragment
func (e *EventWriter) SendToken(fragment string) error {
	return e.Send(EventToken, map[string]string{"content": fragment})
}

// SendStep writes one step event carrying an agent trace step
func (e *EventWriter) SendStep(step domain.AgentStep) error {
	return e.Send(EventStep, step)
}

// SendUsage writes the usage summary event
func (e *EventWriter) SendUsage(usage domain.Usage) error {
	return e.Send(EventUsage, usage)
}

// SendError writes an error event; streaming responses have already committed
// their status line, so failures surface in-band.
func (e *EventWriter) SendError(err error) error {
	return e.Send(EventError, map[string]string{"error": err.Error()})
}

// Done writes the terminal event closing the logical stream
func (e *EventWriter) Done() error {
	if _, err := fmt.Fprintf(e.w, "event: %s\ndata: [DONE]\n\n", EventDone); err != nil {
		return err
	}
	e.flusher.Flush()
	return nil
}
