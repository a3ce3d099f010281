// ABOUTME: In-process registry of live client connections implementing Channel
// ABOUTME: Sends are non-blocking; a slow connection loses fragments instead of stalling a turn

package push

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/2389/scribe-gateway/internal/metrics"
)

// defaultSendBuffer is the per-connection queue length used when none is configured.
const defaultSendBuffer = 64

// finalSlots is queue capacity past the send buffer that only DeliverFinal may
// use, so a client whose buffer filled up still learns the response ended.
const finalSlots = 4

// Conn is a registered client connection. Its queue is drained by a writer
// goroutine, normally the WebSocket write pump.
type Conn struct {
	ID        string
	SessionID string

	send chan []byte
}

// Send returns the connection's outbound queue. It is closed on Unregister.
func (c *Conn) Send() <-chan []byte {
	return c.send
}

// Hub tracks open connections by id.
type Hub struct {
	mu         sync.RWMutex
	conns      map[string]*Conn
	bufferSize int
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewHub creates a Hub. Pass nil logger for default.
func NewHub(bufferSize int, m *metrics.Metrics, logger *slog.Logger) *Hub {
	if bufferSize <= 0 {
		bufferSize = defaultSendBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		conns:      make(map[string]*Conn),
		bufferSize: bufferSize,
		metrics:    m,
		logger:     logger.With("component", "hub"),
	}
}

// Register adds a new connection bound to sessionID and returns it.
func (h *Hub) Register(sessionID string) *Conn {
	c := &Conn{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		send:      make(chan []byte, h.bufferSize+finalSlots),
	}

	h.mu.Lock()
	h.conns[c.ID] = c
	h.mu.Unlock()

	h.metrics.ConnectionOpened()
	h.logger.Debug("connection registered", "connection_id", c.ID, "session_id", sessionID)
	return c
}

// Unregister removes the connection and closes its queue. Safe to call twice.
func (h *Hub) Unregister(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[c.ID]; !ok {
		return
	}
	delete(h.conns, c.ID)
	close(c.send)

	h.metrics.ConnectionClosed()
	h.logger.Debug("connection unregistered", "connection_id", c.ID)
}

// Deliver queues payload for the connection without blocking.
func (h *Hub) Deliver(_ context.Context, connectionID string, payload []byte) error {
	return h.deliver(connectionID, payload, false)
}

// DeliverFinal queues the last payload of a response. It may use the reserved
// slots beyond the send buffer.
func (h *Hub) DeliverFinal(_ context.Context, connectionID string, payload []byte) error {
	return h.deliver(connectionID, payload, true)
}

func (h *Hub) deliver(connectionID string, payload []byte, final bool) error {
	// The read lock is held across the send so Unregister cannot close the
	// queue underneath it.
	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.conns[connectionID]
	if !ok {
		return ErrConnectionGone
	}
	if !final && len(c.send) >= h.bufferSize {
		return ErrBufferFull
	}

	select {
	case c.send <- payload:
		return nil
	default:
		return ErrBufferFull
	}
}

// Count returns the number of open connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Close unregisters every connection.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, c := range h.conns {
		close(c.send)
		delete(h.conns, id)
		h.metrics.ConnectionClosed()
	}
	h.logger.Debug("hub closed")
}
