package notify

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-dist/meridian/internal/rbac"
)

// Handler streams change signals to browser sessions over SSE.
type Handler struct {
	logger *slog.Logger
	broker *Broker
	rbac   rbac.Middleware
}

// NewHandler constructs notify handler.
func NewHandler(logger *slog.Logger, broker *Broker, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, broker: broker, rbac: rbac}
}

// MountRoutes registers the event stream route.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.Authenticate)
	r.Get("/", h.handleStream)
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	// The stream outlives the server's write timeout; clear the deadline so
	// heartbeats keep flowing past it.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Warn("clear write deadline", slog.Any("error", err))
	}

	signals, err := h.broker.Subscribe(r.Context())
	if err != nil {
		h.logger.Error("subscribe change signals", slog.Any("error", err))
		http.Error(w, "subscription failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Heartbeats keep proxies from closing an idle stream.
	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case entity, ok := <-signals:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: changed\ndata: %s\n\n", entity)
			flusher.Flush()
		}
	}
}
