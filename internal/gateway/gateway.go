// ABOUTME: Gateway assembly: wires config into the store, model client, push channel, and orchestrator
// ABOUTME: Owns the HTTP server lifecycle and shuts components down in dependency order

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/2389/scribe-gateway/internal/api"
	"github.com/2389/scribe-gateway/internal/auth"
	"github.com/2389/scribe-gateway/internal/config"
	"github.com/2389/scribe-gateway/internal/intent"
	"github.com/2389/scribe-gateway/internal/llm"
	"github.com/2389/scribe-gateway/internal/metrics"
	"github.com/2389/scribe-gateway/internal/pipeline"
	"github.com/2389/scribe-gateway/internal/prompts"
	"github.com/2389/scribe-gateway/internal/push"
	"github.com/2389/scribe-gateway/internal/store"
	"github.com/2389/scribe-gateway/internal/turn"
)

// Gateway owns the running components of scribe-gateway.
type Gateway struct {
	config       *config.Config
	store        store.ConversationStore
	hub          *push.Hub
	nc           *nats.Conn
	orchestrator *turn.Orchestrator
	server       *api.Server
	logger       *slog.Logger

	listener net.Listener
}

// initStore opens the conversation store.
func initStore(cfg *config.Config) (*store.SQLiteStore, error) {
	s, err := store.NewSQLiteStore(cfg.Database.ResolvedPath())
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}
	return s, nil
}

// newClient builds the model client for the configured provider.
func newClient(cfg *config.Config, logger *slog.Logger) (llm.Client, error) {
	switch cfg.LLM.Provider {
	case config.ProviderMock:
		logger.Warn("using the development model; responses are canned")
		return llm.NewMockClient(devReply), nil
	default:
		return llm.NewOpenAIClient(llm.OpenAIConfig{
			BaseURL:           cfg.LLM.BaseURL,
			APIKey:            cfg.LLM.APIKey,
			Model:             cfg.LLM.Model,
			RequestsPerSecond: cfg.LLM.RequestsPerSecond,
			Burst:             cfg.LLM.Burst,
		}, logger)
	}
}

func modelConfig(m config.ModelConfig) llm.ModelConfig {
	return llm.ModelConfig{
		Model:           m.Model,
		MaxOutputTokens: m.MaxOutputTokens,
		Temperature:     m.Temperature,
		TopP:            m.TopP,
		TopK:            m.TopK,
		StopSequences:   m.StopSequences,
	}
}

// newChannel picks the push channel. With the NATS backend an edge relay owns
// client sockets and the gateway serves no /ws route.
func (g *Gateway) newChannel(m *metrics.Metrics) (push.Channel, error) {
	if g.config.Push.Backend == config.PushNATS {
		nc, err := push.ConnectNATS(g.config.Push.NATSURL, g.logger)
		if err != nil {
			return nil, err
		}
		g.nc = nc
		return push.NewNATSChannel(nc, g.config.Push.SubjectPrefix), nil
	}

	g.hub = push.NewHub(g.config.Push.SendBuffer, m, g.logger)
	return g.hub, nil
}

// New creates a Gateway from cfg. Nothing listens until Run.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	defaults, ok := prompts.LookupGuidelineSet(cfg.Conversation.DefaultKind)
	if !ok {
		return nil, fmt.Errorf("conversation.default_kind %q is not a known guideline set", cfg.Conversation.DefaultKind)
	}

	var verifier *auth.JWTVerifier
	if cfg.Auth.JWTSecret != "" {
		v, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
		if err != nil {
			return nil, err
		}
		verifier = v
	} else {
		logger.Warn("auth.jwt_secret not set, API is unauthenticated")
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	client, err := newClient(cfg, logger)
	if err != nil {
		return nil, err
	}

	s, err := initStore(cfg)
	if err != nil {
		return nil, err
	}

	g := &Gateway{
		config: cfg,
		store:  s,
		logger: logger.With("component", "gateway"),
	}

	channel, err := g.newChannel(m)
	if err != nil {
		s.Close()
		return nil, err
	}

	generation := modelConfig(cfg.LLM.Generation)
	extraction := modelConfig(cfg.LLM.Extraction)

	orch, err := turn.New(turn.Deps{
		Classifier: intent.NewClassifier(client, modelConfig(cfg.LLM.Classifier), logger),
		Pipelines: &pipeline.Set{
			Submission: pipeline.NewSubmission(client, generation),
			Question:   pipeline.NewQuestion(client, generation, s, logger),
			Deflection: pipeline.Deflection{},
		},
		Tasks: map[pipeline.Task]pipeline.Pipeline{
			pipeline.TaskRephrase:        pipeline.NewDirect(pipeline.TaskRephrase, client, generation),
			pipeline.TaskExtractCustomer: pipeline.NewDirect(pipeline.TaskExtractCustomer, client, extraction),
			pipeline.TaskRecommend:       pipeline.NewDirect(pipeline.TaskRecommend, client, generation),
			pipeline.TaskCombine:         pipeline.NewDirect(pipeline.TaskCombine, client, generation),
		},
		History: s,
		Sink:    push.NewSink(channel, m, logger),
		Metrics: m,
		Logger:  logger,
	}, turn.Config{
		SerializeSessions: cfg.Conversation.Serialize(),
		TurnTimeout:       cfg.Conversation.TurnTimeout,
		PersistTimeout:    cfg.Conversation.PersistTimeout,
		DedupeTTL:         cfg.Conversation.DedupeTTL,
		DedupeSize:        cfg.Conversation.DedupeSize,
		DefaultGuidelines: defaults,
	})
	if err != nil {
		g.closeComponents()
		return nil, fmt.Errorf("creating orchestrator: %w", err)
	}
	g.orchestrator = orch

	apiCfg := api.Config{
		DefaultKind: cfg.Conversation.DefaultKind,
		WS: push.WSOptions{
			WriteTimeout: cfg.Push.WriteTimeout,
			PingInterval: cfg.Push.PingInterval,
		},
	}
	if cfg.Metrics.Enabled {
		apiCfg.MetricsPath = cfg.Metrics.Path
	}
	deps := api.Deps{
		Turns:       orch,
		Sessions:    s,
		Submissions: s,
		Hub:         g.hub,
		Logger:      logger,
	}
	if verifier != nil {
		deps.Verifier = verifier
	}
	g.server, err = api.NewServer(deps, apiCfg)
	if err != nil {
		g.closeComponents()
		return nil, fmt.Errorf("creating API server: %w", err)
	}

	return g, nil
}

// Handler returns the HTTP handler, for tests and embedding.
func (g *Gateway) Handler() http.Handler {
	return g.server
}

// Addr returns the listening address once Run has started, or "".
func (g *Gateway) Addr() string {
	if g.listener == nil {
		return ""
	}
	return g.listener.Addr().String()
}

// Listen binds the configured HTTP address. Run calls it when needed.
func (g *Gateway) Listen() error {
	if g.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", g.config.Server.HTTPAddr, err)
	}
	g.listener = ln
	return nil
}

// Run serves until ctx is cancelled or the server fails, then shuts down.
func (g *Gateway) Run(ctx context.Context) error {
	if err := g.Listen(); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		if err := g.server.Serve(g.listener); err != nil {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		g.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := g.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown uses a fresh context since the run context is already done.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return g.Shutdown(ctx)
}

// Shutdown stops the server, waits for in-flight turns, and closes components.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	var errs []error
	if err := g.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
	}
	if err := g.closeComponents(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (g *Gateway) closeComponents() error {
	if g.orchestrator != nil {
		g.orchestrator.Close()
	}
	if g.hub != nil {
		g.hub.Close()
	}
	if g.nc != nil {
		if err := g.nc.Drain(); err != nil {
			g.logger.Warn("failed to drain NATS connection", "error", err)
		}
	}
	if err := g.store.Close(); err != nil {
		return fmt.Errorf("store close: %w", err)
	}
	return nil
}
