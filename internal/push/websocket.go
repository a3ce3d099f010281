// ABOUTME: WebSocket read and write pumps for connections registered with the Hub
// ABOUTME: The write pump drains the connection queue and keeps the socket alive with pings

package push

import (
	"time"

	"github.com/gorilla/websocket"
)

// WSOptions tunes a served WebSocket connection.
type WSOptions struct {
	WriteTimeout time.Duration
	PingInterval time.Duration
	ReadLimit    int64
}

// WSHandler receives connection lifecycle callbacks from ServeWS.
type WSHandler interface {
	// OnOpen runs after registration and before any inbound frame is read.
	OnOpen(c *Conn)
	// OnMessage runs on the read goroutine for each inbound text frame.
	OnMessage(c *Conn, data []byte)
}

// ServeWS registers ws with the hub and pumps frames until the peer goes away.
// It blocks for the lifetime of the connection.
func (h *Hub) ServeWS(ws *websocket.Conn, sessionID string, opts WSOptions, handler WSHandler) {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = 64 * 1024
	}

	c := h.Register(sessionID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writePump(ws, c, opts)
	}()

	handler.OnOpen(c)
	h.readPump(ws, c, opts, handler)

	h.Unregister(c)
	<-done
	ws.Close()
}

func (h *Hub) readPump(ws *websocket.Conn, c *Conn, opts WSOptions, handler WSHandler) {
	readTimeout := 2 * opts.PingInterval
	ws.SetReadLimit(opts.ReadLimit)
	ws.SetReadDeadline(time.Now().Add(readTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		msgType, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket read error", "error", err, "connection_id", c.ID)
			}
			return
		}
		ws.SetReadDeadline(time.Now().Add(readTimeout))
		if msgType != websocket.TextMessage {
			continue
		}
		handler.OnMessage(c, data)
	}
}

func (h *Hub) writePump(ws *websocket.Conn, c *Conn, opts WSOptions) {
	ticker := time.NewTicker(opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case payload, ok := <-c.Send():
			ws.SetWriteDeadline(time.Now().Add(opts.WriteTimeout))
			if !ok {
				ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.logger.Warn("websocket write failed", "error", err, "connection_id", c.ID)
				// Unblock the read pump so the connection is torn down.
				ws.Close()
				return
			}

		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(opts.WriteTimeout))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				ws.Close()
				return
			}
		}
	}
}
