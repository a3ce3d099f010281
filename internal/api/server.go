// ABOUTME: HTTP and WebSocket transport for the gateway built on echo
// ABOUTME: Maps requests onto turns and tasks and orchestration errors onto status codes

package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/2389/scribe-gateway/internal/auth"
	"github.com/2389/scribe-gateway/internal/push"
	"github.com/2389/scribe-gateway/internal/store"
	"github.com/2389/scribe-gateway/internal/turn"
)

// TurnHandler runs turns and direct tasks.
type TurnHandler interface {
	HandleTurn(ctx context.Context, t *turn.Turn) (*turn.Result, error)
	HandleTask(ctx context.Context, req *turn.TaskRequest) (string, error)
}

// SessionStore is the administrative view of conversation history.
type SessionStore interface {
	GetHistory(ctx context.Context, sessionID string) ([]*store.Message, error)
	ClearHistory(ctx context.Context, sessionID string) error
}

// Config holds transport settings.
type Config struct {
	// MetricsPath serves Prometheus metrics when set.
	MetricsPath string
	// DefaultKind names the guideline set used when a turn does not pick one.
	DefaultKind string
	WS          push.WSOptions
}

// Deps are the server's collaborators. Hub, Submissions and Verifier are
// optional: without a hub the /ws route is not served, without a submission
// store the /api/submissions routes are not served, without a verifier
// requests are not authenticated.
type Deps struct {
	Turns       TurnHandler
	Sessions    SessionStore
	Submissions store.SubmissionStore
	Hub         *push.Hub
	Verifier    auth.TokenVerifier
	Logger      *slog.Logger
}

// Server serves the gateway's HTTP API.
type Server struct {
	echo        *echo.Echo
	turns       TurnHandler
	sessions    SessionStore
	submissions store.SubmissionStore
	hub         *push.Hub
	upgrader    websocket.Upgrader
	cfg         Config
	logger      *slog.Logger

	// inflight tracks turns started from websocket frames. closing is set by
	// Shutdown; once set no new frame is admitted.
	mu       sync.Mutex
	closing  bool
	inflight sync.WaitGroup
}

// NewServer creates a Server and registers its routes.
func NewServer(deps Deps, cfg Config) (*Server, error) {
	if deps.Turns == nil {
		return nil, fmt.Errorf("turn handler is required")
	}
	if deps.Sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DefaultKind == "" {
		cfg.DefaultKind = "achievement"
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:        e,
		turns:       deps.Turns,
		sessions:    deps.Sessions,
		submissions: deps.Submissions,
		hub:         deps.Hub,
		cfg:         cfg,
		logger:      logger.With("component", "api"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Clients authenticate with a token, so any origin may connect.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(s.requestLogger)

	s.registerRoutes(deps.Verifier)
	return s, nil
}

func (s *Server) registerRoutes(verifier auth.TokenVerifier) {
	s.echo.GET("/health", s.handleHealth)
	if s.cfg.MetricsPath != "" {
		s.echo.GET(s.cfg.MetricsPath, echo.WrapHandler(promhttp.Handler()))
	}

	var protected []echo.MiddlewareFunc
	if verifier != nil {
		protected = append(protected, echo.WrapMiddleware(auth.Middleware(verifier)))
	}

	api := s.echo.Group("/api", protected...)
	api.POST("/turns", s.handleTurn)
	api.POST("/tasks/:task", s.handleTask)
	api.GET("/sessions/:id/messages", s.handleHistory)
	api.DELETE("/sessions/:id", s.handleClearSession)

	if s.submissions != nil {
		api.POST("/submissions", s.handleSaveSubmission)
		api.GET("/submissions/author", s.handleAuthorSubmissions)
		api.GET("/submissions/team", s.handleTeamSubmissions)
	}

	if s.hub != nil {
		s.echo.GET("/ws", s.handleWS, protected...)
	}
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}

		s.logger.Debug("http request",
			"method", c.Request().Method,
			"uri", c.Request().RequestURI,
			"status", c.Response().Status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
		)
		return nil
	}
}

// ServeHTTP lets the server be mounted or tested as a plain handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
	s.echo.Listener = ln
	if err := s.echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// admit reserves an inflight slot for a websocket turn. It reports false once
// Shutdown has started.
func (s *Server) admit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.inflight.Add(1)
	return true
}

// Shutdown stops accepting requests and waits for websocket turns to finish.
// Hijacked websocket connections stay open until the hub closes them, but
// frames arriving after this point are rejected.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()

	err := s.echo.Shutdown(ctx)

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("shutdown deadline reached with turns in flight")
	}
	return err
}
