// Package sse streams output region updates via Server-Sent Events, so every
// open page follows the shared results region.
package sse

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/felixgeelhaar/triage/internal/infrastructure/render"
)

// EventRegion is the event name sent after every region replacement.
const EventRegion = "region"

// Handler streams region versions to connected clients.
type Handler struct {
	region *render.Region
	logger *zap.Logger

	mu      sync.RWMutex
	clients map[chan uint64]struct{}
	closed  chan struct{}
	once    sync.Once
}

// NewHandler creates a handler subscribed to region.
func NewHandler(region *render.Region, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		region:  region,
		logger:  logger,
		clients: make(map[chan uint64]struct{}),
		closed:  make(chan struct{}),
	}

	region.Subscribe(func(version uint64) {
		h.mu.RLock()
		defer h.mu.RUnlock()
		for ch := range h.clients {
			// Keep only the newest version for slow clients.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- version:
			default:
			}
		}
	})
	return h
}

// Clients returns the number of connected streams.
func (h *Handler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close ends every open stream. Streams opened afterwards end immediately.
func (h *Handler) Close() {
	h.once.Do(func() { close(h.closed) })
}

// ServeHTTP handles SSE connections. The current version is sent first.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	// Streams outlive the server's write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan uint64, 1)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, ch)
		h.mu.Unlock()
	}()

	if err := h.send(w, rc, h.region.Version()); err != nil {
		h.logger.Debug("streaming unsupported", zap.Error(err))
		return
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.closed:
			return
		case version := <-ch:
			if err := h.send(w, rc, version); err != nil {
				h.logger.Debug("stream closed", zap.Error(err))
				return
			}
		}
	}
}

func (h *Handler) send(w http.ResponseWriter, rc *http.ResponseController, version uint64) error {
	if _, err := fmt.Fprintf(w, "id: %d\nevent: %s\ndata: {\"version\":%d}\n\n", version, EventRegion, version); err != nil {
		return err
	}
	return rc.Flush()
}
