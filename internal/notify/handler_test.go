package notify

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-dist/meridian/internal/rbac"
)

// streamWriter records writes and deadline changes for the SSE handler.
type streamWriter struct {
	mu        sync.Mutex
	header    http.Header
	buf       bytes.Buffer
	deadlines []time.Time
}

func newStreamWriter() *streamWriter {
	return &streamWriter{header: make(http.Header)}
}

func (w *streamWriter) Header() http.Header { return w.header }

func (w *streamWriter) WriteHeader(int) {}

func (w *streamWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func (w *streamWriter) Flush() {}

func (w *streamWriter) SetWriteDeadline(t time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.deadlines = append(w.deadlines, t)
	return nil
}

func (w *streamWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

func (w *streamWriter) clearedDeadline() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, d := range w.deadlines {
		if d.IsZero() {
			return true
		}
	}
	return false
}

func TestStreamClearsWriteDeadlineAndForwardsSignals(t *testing.T) {
	broker := newTestBroker(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, broker, rbac.Middleware{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := newStreamWriter()

	done := make(chan struct{})
	go func() {
		h.handleStream(w, req)
		close(done)
	}()

	// Publish until the subscription is live and the event shows up.
	require.Eventually(t, func() bool {
		_ = broker.Changed(context.Background(), "orders")
		return strings.Contains(w.String(), "event: changed")
	}, 2*time.Second, 20*time.Millisecond)

	// The stream must outlive the server write timeout.
	require.True(t, w.clearedDeadline())
	require.Contains(t, w.String(), "data: orders")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop on context cancel")
	}
}
