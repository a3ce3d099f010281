// ABOUTME: REST handlers for saving finalized submissions and listing them for reports
// ABOUTME: Authors see their own by exact name; managers filter by category, name, and customer

package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/2389/scribe-gateway/internal/auth"
	"github.com/2389/scribe-gateway/internal/store"
)

// dateLayout is the format of the start_date and end_date query parameters.
const dateLayout = "2006-01-02"

// SubmissionRequest is the body of POST /api/submissions. Name defaults to
// the authenticated user and SubmittedAt to now.
type SubmissionRequest struct {
	Name        string `json:"name"`
	Text        string `json:"text"`
	Role        string `json:"role"`
	Category    string `json:"category"`
	Customer    string `json:"customer"`
	SubmittedAt string `json:"submission_ts"`
}

// SubmissionResponse is one saved submission.
type SubmissionResponse struct {
	Name        string `json:"name"`
	Text        string `json:"text"`
	Role        string `json:"role,omitempty"`
	Category    string `json:"category"`
	Customer    string `json:"customer"`
	SubmittedAt string `json:"submission_ts"`
}

func toSubmissionResponse(s *store.Submission) SubmissionResponse {
	return SubmissionResponse{
		Name:        s.Name,
		Text:        s.Text,
		Role:        s.Role,
		Category:    s.Category,
		Customer:    s.Customer,
		SubmittedAt: s.SubmittedAt.UTC().Format(time.RFC3339Nano),
	}
}

func (s *Server) handleSaveSubmission(c echo.Context) error {
	var req SubmissionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		if u := auth.FromContext(c.Request().Context()); u != nil {
			req.Name = u.ID
		}
	}
	if req.Name == "" || req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name and text are required")
	}

	sub := &store.Submission{
		Name:     req.Name,
		Text:     req.Text,
		Role:     req.Role,
		Category: req.Category,
		Customer: req.Customer,
	}
	if req.SubmittedAt != "" {
		t, err := time.Parse(time.RFC3339Nano, req.SubmittedAt)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "submission_ts must be an RFC 3339 timestamp")
		}
		sub.SubmittedAt = t
	}

	if err := s.submissions.SaveSubmission(c.Request().Context(), sub); err != nil {
		s.logger.Error("failed to save submission", "error", err, "name", sub.Name)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save submission")
	}
	s.logger.Info("submission saved", "name", sub.Name, "category", sub.Category)
	return c.JSON(http.StatusCreated, toSubmissionResponse(sub))
}

// handleAuthorSubmissions lists one author's submissions. The author comes
// from the name parameter or the authenticated user.
func (s *Server) handleAuthorSubmissions(c echo.Context) error {
	filter, err := dateRange(c)
	if err != nil {
		return err
	}
	filter.Name = c.QueryParam("name")
	if filter.Name == "" {
		if u := auth.FromContext(c.Request().Context()); u != nil {
			filter.Name = u.ID
		}
	}
	if filter.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	filter.Category = c.QueryParam("category")
	return s.listSubmissions(c, filter)
}

// handleTeamSubmissions lists everyone's submissions for a manager.
func (s *Server) handleTeamSubmissions(c echo.Context) error {
	filter, err := dateRange(c)
	if err != nil {
		return err
	}
	filter.Category = c.QueryParam("category")
	filter.NameContains = c.QueryParam("name")
	filter.CustomerContains = c.QueryParam("customer")
	return s.listSubmissions(c, filter)
}

func (s *Server) listSubmissions(c echo.Context, filter store.SubmissionFilter) error {
	subs, err := s.submissions.ListSubmissions(c.Request().Context(), filter)
	if err != nil {
		s.logger.Error("failed to list submissions", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list submissions")
	}

	out := make([]SubmissionResponse, 0, len(subs))
	for _, sub := range subs {
		out = append(out, toSubmissionResponse(sub))
	}
	return c.JSON(http.StatusOK, out)
}

// dateRange reads start_date and end_date as whole UTC days. A missing end
// date selects the start day alone.
func dateRange(c echo.Context) (store.SubmissionFilter, error) {
	var f store.SubmissionFilter

	startParam := c.QueryParam("start_date")
	if startParam == "" {
		return f, echo.NewHTTPError(http.StatusBadRequest, "start_date is required")
	}
	start, err := time.Parse(dateLayout, startParam)
	if err != nil {
		return f, echo.NewHTTPError(http.StatusBadRequest, "start_date must be YYYY-MM-DD")
	}

	end := start
	if endParam := c.QueryParam("end_date"); endParam != "" {
		end, err = time.Parse(dateLayout, endParam)
		if err != nil {
			return f, echo.NewHTTPError(http.StatusBadRequest, "end_date must be YYYY-MM-DD")
		}
	}
	if end.Before(start) {
		return f, echo.NewHTTPError(http.StatusBadRequest, "end_date is before start_date")
	}

	f.From = start
	f.To = end.Add(24*time.Hour - time.Microsecond)
	return f, nil
}
