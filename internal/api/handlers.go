// ABOUTME: REST handlers for turns, direct tasks, and session administration
// ABOUTME: Request and response bodies use snake_case JSON

package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/2389/scribe-gateway/internal/auth"
	"github.com/2389/scribe-gateway/internal/feedback"
	"github.com/2389/scribe-gateway/internal/intent"
	"github.com/2389/scribe-gateway/internal/pipeline"
	"github.com/2389/scribe-gateway/internal/prompts"
	"github.com/2389/scribe-gateway/internal/push"
	"github.com/2389/scribe-gateway/internal/turn"
)

// TurnRequest is the body of POST /api/turns.
type TurnRequest struct {
	SessionID    string `json:"session_id"`
	MessageID    string `json:"message_id"`
	Query        string `json:"query"`
	Kind         string `json:"kind"`
	Period       string `json:"period"`
	ConnectionID string `json:"connection_id"`
	Action       string `json:"action"`
}

// TurnResponse is the body returned for a completed turn.
type TurnResponse struct {
	SessionID    string             `json:"session_id"`
	Intent       string             `json:"intent"`
	Text         string             `json:"text"`
	Persisted    bool               `json:"persisted"`
	PersistError string             `json:"persist_error,omitempty"`
	Feedback     *feedback.Feedback `json:"feedback,omitempty"`
}

// TaskRequest is the body of POST /api/tasks/:task. The report tasks read
// Items instead of Query.
type TaskRequest struct {
	MessageID    string               `json:"message_id"`
	Query        string               `json:"query"`
	Items        []prompts.ReportItem `json:"items"`
	ConnectionID string               `json:"connection_id"`
	Action       string               `json:"action"`
}

// TaskResponse is the body returned for a completed task.
type TaskResponse struct {
	Task           string                   `json:"task"`
	Text           string                   `json:"text"`
	Recommendation *feedback.Recommendation `json:"recommendation,omitempty"`
}

// MessageResponse is one history entry.
type MessageResponse struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
}

func (s *Server) handleHealth(c echo.Context) error {
	resp := HealthResponse{Status: "ok"}
	if s.hub != nil {
		resp.Connections = s.hub.Count()
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleTurn(c echo.Context) error {
	var req TurnRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	set, err := s.guidelines(req.Kind)
	if err != nil {
		return err
	}

	t := &turn.Turn{
		SessionID:  req.SessionID,
		MessageID:  req.MessageID,
		Text:       req.Query,
		Guidelines: set,
		Period:     req.Period,
	}
	if req.ConnectionID != "" {
		action := req.Action
		if action == "" {
			action = set.Name
		}
		t.Target = &push.Target{ConnectionID: req.ConnectionID, MessageID: req.MessageID, Action: action}
	}

	res, err := s.turns.HandleTurn(c.Request().Context(), t)
	if err != nil {
		return s.turnError(c, err)
	}
	return c.JSON(http.StatusOK, s.turnResponse(req.SessionID, set, res))
}

func (s *Server) turnResponse(sessionID string, set prompts.GuidelineSet, res *turn.Result) *TurnResponse {
	resp := &TurnResponse{
		SessionID: sessionID,
		Intent:    res.Intent.String(),
		Text:      res.Text,
		Persisted: res.Persisted,
	}
	if res.PersistErr != nil {
		resp.PersistError = "conversation history was not saved"
	}
	if res.Intent == intent.Submission {
		fb, err := feedback.Parse(res.Text, set.ValidationKeys...)
		if err != nil {
			s.logger.Warn("failed to parse review", "error", err, "session_id", sessionID)
		} else {
			resp.Feedback = fb
		}
	}
	return resp
}

func (s *Server) handleTask(c echo.Context) error {
	task, err := pipeline.ParseTask(c.Param("task"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}

	var req TaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	tr := &turn.TaskRequest{Task: task, MessageID: req.MessageID, Text: req.Query, Items: req.Items}
	if req.ConnectionID != "" {
		action := req.Action
		if action == "" {
			action = string(task)
		}
		tr.Target = &push.Target{ConnectionID: req.ConnectionID, MessageID: req.MessageID, Action: action}
	}

	text, err := s.turns.HandleTask(c.Request().Context(), tr)
	if err != nil {
		return s.turnError(c, err)
	}
	return c.JSON(http.StatusOK, s.taskResponse(tr, text))
}

func (s *Server) taskResponse(req *turn.TaskRequest, text string) TaskResponse {
	resp := TaskResponse{Task: string(req.Task), Text: text}
	if req.Task != pipeline.TaskRecommend {
		return resp
	}

	numbers := make([]int, 0, len(req.Items))
	for _, it := range req.Items {
		numbers = append(numbers, it.Number)
	}
	rec, err := feedback.ParseRecommendation(text, numbers...)
	if err != nil {
		s.logger.Warn("failed to parse recommendation", "error", err, "message_id", req.MessageID)
		return resp
	}
	resp.Recommendation = rec
	return resp
}

func (s *Server) handleHistory(c echo.Context) error {
	msgs, err := s.sessions.GetHistory(c.Request().Context(), c.Param("id"))
	if err != nil {
		s.logger.Error("failed to read history", "error", err, "session_id", c.Param("id"))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read history")
	}

	out := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, MessageResponse{
			ID:        m.ID,
			Role:      string(m.Role),
			Content:   m.Content,
			CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleClearSession(c echo.Context) error {
	id := c.Param("id")
	if err := s.sessions.ClearHistory(c.Request().Context(), id); err != nil {
		s.logger.Error("failed to clear session", "error", err, "session_id", id)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to clear session")
	}

	attrs := []any{"session_id", id}
	if u := auth.FromContext(c.Request().Context()); u != nil {
		attrs = append(attrs, "user", u.ID)
	}
	s.logger.Info("session cleared", attrs...)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) guidelines(kind string) (prompts.GuidelineSet, error) {
	if kind == "" {
		kind = s.cfg.DefaultKind
	}
	set, ok := prompts.LookupGuidelineSet(kind)
	if !ok {
		return prompts.GuidelineSet{}, echo.NewHTTPError(http.StatusBadRequest,
			"unknown kind "+kind+", expected one of "+strings.Join(prompts.GuidelineSetNames(), ", "))
	}
	return set, nil
}

// turnError maps orchestration errors to responses. Failure causes are logged
// by the orchestrator and never shown to the client.
func (s *Server) turnError(c echo.Context, err error) error {
	var oerr *turn.OrchestrationError
	switch {
	case errors.Is(err, turn.ErrInvalidTurn):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, turn.ErrDuplicateTurn):
		return echo.NewHTTPError(http.StatusConflict, "duplicate message id")
	case errors.As(err, &oerr):
		return echo.NewHTTPError(http.StatusInternalServerError, turn.FailureMessage)
	default:
		s.logger.Error("unexpected turn error", "error", err, "path", c.Path())
		return echo.NewHTTPError(http.StatusInternalServerError, turn.FailureMessage)
	}
}
