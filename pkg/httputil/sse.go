package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	apperrors "github.com/utafrali/BookReviewGo/pkg/errors"
)

// SSEKeepAlive is how often an idle stream writes a comment line.
const SSEKeepAlive = 15 * time.Second

// SSEWriter writes server-sent events.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	nextID  uint64
}

// NewSSEWriter sends the event-stream headers. It fails when w cannot flush.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, apperrors.Internal(fmt.Errorf("response writer does not support streaming"))
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// Event writes v as a JSON data line under the given event name.
func (s *SSEWriter) Event(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", name, err)
	}
	s.nextID++
	if _, err := fmt.Fprintf(s.w, "id: %d\nevent: %s\ndata: %s\n\n", s.nextID, name, data); err != nil {
		return fmt.Errorf("write event %s: %w", name, err)
	}
	s.flusher.Flush()
	return nil
}

// KeepAlive writes a comment line.
func (s *SSEWriter) KeepAlive() error {
	if _, err := fmt.Fprint(s.w, ": keep-alive\n\n"); err != nil {
		return fmt.Errorf("write keep-alive: %w", err)
	}
	s.flusher.Flush()
	return nil
}
