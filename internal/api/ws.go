// ABOUTME: WebSocket endpoint: handshake, keep-alive, and per-frame dispatch of turns and tasks
// ABOUTME: Each frame runs on its own goroutine so a long review never blocks the read loop

package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/2389/scribe-gateway/internal/pipeline"
	"github.com/2389/scribe-gateway/internal/prompts"
	"github.com/2389/scribe-gateway/internal/push"
	"github.com/2389/scribe-gateway/internal/turn"
)

// ActionKeepAlive is the frame action clients send to keep idle sockets open.
const ActionKeepAlive = "default"

// Handshake is the first frame sent on every connection.
type Handshake struct {
	StatusCode   int    `json:"statusCode"`
	ConnectionID string `json:"connectionId"`
}

// Frame is an inbound client message. Items carries the numbered submissions
// for the report tasks.
type Frame struct {
	Action    string               `json:"action"`
	MessageID string               `json:"message_id"`
	SessionID string               `json:"session_id"`
	Query     string               `json:"query"`
	Items     []prompts.ReportItem `json:"items"`
	Period    string               `json:"period"`
}

func (s *Server) handleWS(c echo.Context) error {
	sessionID := c.QueryParam("SessionId")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "SessionId is required")
	}

	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written the error response.
		s.logger.Warn("websocket upgrade failed", "error", err)
		return nil
	}

	sess := &wsSession{
		server: s,
		ctx:    context.WithoutCancel(c.Request().Context()),
	}
	s.hub.ServeWS(ws, sessionID, s.cfg.WS, sess)
	return nil
}

type wsSession struct {
	server *Server
	ctx    context.Context
}

func (w *wsSession) OnOpen(c *push.Conn) {
	payload, _ := json.Marshal(Handshake{StatusCode: http.StatusOK, ConnectionID: c.ID})
	if err := w.server.hub.Deliver(w.ctx, c.ID, payload); err != nil {
		w.server.logger.Warn("failed to send handshake", "error", err, "connection_id", c.ID)
	}
}

func (w *wsSession) OnMessage(c *push.Conn, data []byte) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		w.reject(c, &f, "malformed frame")
		return
	}
	if f.Action == ActionKeepAlive || f.Action == "" {
		return
	}
	if f.SessionID == "" {
		f.SessionID = c.SessionID
	}

	run, ok := w.dispatcher(c, &f)
	if !ok {
		w.reject(c, &f, "unknown action "+f.Action)
		return
	}

	if !w.server.admit() {
		w.reject(c, &f, "server is shutting down")
		return
	}
	go func() {
		defer w.server.inflight.Done()
		run()
	}()
}

// dispatcher returns the work for a frame, or false when the action is unknown.
func (w *wsSession) dispatcher(c *push.Conn, f *Frame) (func(), bool) {
	target := &push.Target{ConnectionID: c.ID, MessageID: f.MessageID, Action: f.Action}
	logger := w.server.logger.With("connection_id", c.ID, "message_id", f.MessageID, "action", f.Action)

	if set, ok := prompts.LookupGuidelineSet(f.Action); ok {
		return func() {
			_, err := w.server.turns.HandleTurn(w.ctx, &turn.Turn{
				SessionID:  f.SessionID,
				MessageID:  f.MessageID,
				Text:       f.Query,
				Target:     target,
				Guidelines: set,
				Period:     f.Period,
			})
			w.report(c, f, logger, err)
		}, true
	}

	if task, err := pipeline.ParseTask(f.Action); err == nil {
		return func() {
			_, err := w.server.turns.HandleTask(w.ctx, &turn.TaskRequest{
				Task:      task,
				MessageID: f.MessageID,
				Text:      f.Query,
				Items:     f.Items,
				Target:    target,
			})
			w.report(c, f, logger, err)
		}, true
	}
	return nil, false
}

// report tells the client about errors the orchestrator did not push itself.
func (w *wsSession) report(c *push.Conn, f *Frame, logger *slog.Logger, err error) {
	var oerr *turn.OrchestrationError
	if err == nil || errors.As(err, &oerr) {
		return
	}
	if errors.Is(err, turn.ErrDuplicateTurn) {
		logger.Warn("duplicate frame ignored")
		return
	}
	w.reject(c, f, err.Error())
}

func (w *wsSession) reject(c *push.Conn, f *Frame, msg string) {
	payload, _ := json.Marshal(push.Fragment{
		Action:    f.Action,
		MessageID: f.MessageID,
		Text:      push.ErrorPrefix + msg,
	})
	if err := w.server.hub.DeliverFinal(w.ctx, c.ID, payload); err != nil {
		w.server.logger.Debug("failed to send rejection", "error", err, "connection_id", c.ID)
	}
}
