// ABOUTME: Turn orchestrator: classify, route, stream, then record the exchange
// ABOUTME: Work runs detached from the caller so a disconnect only loses pushes

package turn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/2389/scribe-gateway/internal/dedupe"
	"github.com/2389/scribe-gateway/internal/intent"
	"github.com/2389/scribe-gateway/internal/metrics"
	"github.com/2389/scribe-gateway/internal/pipeline"
	"github.com/2389/scribe-gateway/internal/prompts"
	"github.com/2389/scribe-gateway/internal/push"
	"github.com/2389/scribe-gateway/internal/store"
)

// FailureMessage follows the error sentinel when a turn fails.
const FailureMessage = "Something went wrong while generating a response. Please try again."

// Classifier decides a turn's intent.
type Classifier interface {
	Classify(ctx context.Context, text string) (intent.Intent, error)
}

// HistoryWriter is the write side of the conversation store.
type HistoryWriter interface {
	AppendMessage(ctx context.Context, sessionID string, msg *store.Message) error
}

// Sink receives text fragments for a push target.
type Sink interface {
	Push(ctx context.Context, target *push.Target, text string)
	PushEnd(ctx context.Context, target *push.Target)
	PushError(ctx context.Context, target *push.Target, message string)
}

// Turn is one unit of user input.
type Turn struct {
	SessionID string
	// MessageID is the client's correlation id. When set it is echoed in
	// pushed fragments and used to reject replays.
	MessageID string
	Text      string
	// Target, when set, selects streaming mode and receives fragments.
	Target *push.Target

	// Guidelines defaults to the orchestrator's configured set.
	Guidelines prompts.GuidelineSet
	// Period defaults to the current month, e.g. "March 2024".
	Period string
}

// Result is the outcome of a turn that produced text. PersistErr is set when
// generation succeeded but recording the exchange did not.
type Result struct {
	Text       string
	Intent     intent.Intent
	Persisted  bool
	PersistErr error
}

// Config tunes the orchestrator.
type Config struct {
	SerializeSessions bool
	TurnTimeout       time.Duration
	PersistTimeout    time.Duration
	DedupeTTL         time.Duration
	DedupeSize        int
	DefaultGuidelines prompts.GuidelineSet
}

// Deps are the orchestrator's collaborators. Sink, Tasks, Metrics and Logger
// are optional.
type Deps struct {
	Classifier Classifier
	Pipelines  *pipeline.Set
	Tasks      map[pipeline.Task]pipeline.Pipeline
	History    HistoryWriter
	Sink       Sink
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// Orchestrator drives turns through their lifecycle. It is safe for
// concurrent use.
type Orchestrator struct {
	classifier Classifier
	pipelines  *pipeline.Set
	tasks      map[pipeline.Task]pipeline.Pipeline
	history    HistoryWriter
	sink       Sink
	metrics    *metrics.Metrics
	logger     *slog.Logger

	cfg    Config
	locker *SessionLocker
	seen   *dedupe.Cache
	now    func() time.Time
}

// New creates an Orchestrator.
func New(deps Deps, cfg Config) (*Orchestrator, error) {
	if deps.Classifier == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	if deps.Pipelines == nil || deps.Pipelines.Submission == nil || deps.Pipelines.Question == nil || deps.Pipelines.Deflection == nil {
		return nil, fmt.Errorf("a pipeline for every intent is required")
	}
	if deps.History == nil {
		return nil, fmt.Errorf("history writer is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sink := deps.Sink
	if sink == nil {
		sink = discardSink{}
	}
	if cfg.DefaultGuidelines.Name == "" {
		cfg.DefaultGuidelines = prompts.Achievement
	}

	o := &Orchestrator{
		classifier: deps.Classifier,
		pipelines:  deps.Pipelines,
		tasks:      deps.Tasks,
		history:    deps.History,
		sink:       sink,
		metrics:    deps.Metrics,
		logger:     logger.With("component", "orchestrator"),
		cfg:        cfg,
		now:        time.Now,
	}
	if cfg.SerializeSessions {
		o.locker = NewSessionLocker()
	}
	if cfg.DedupeTTL > 0 {
		o.seen = dedupe.New(cfg.DedupeTTL, cfg.DedupeSize, 0)
	}
	return o, nil
}

// Close releases background resources.
func (o *Orchestrator) Close() {
	if o.seen != nil {
		o.seen.Close()
	}
}

// HandleTurn classifies the turn, runs the matching pipeline, forwards its
// output to the turn's target, and records submissions and questions in the
// session history. Cancelling ctx does not abort the turn.
func (o *Orchestrator) HandleTurn(ctx context.Context, t *Turn) (*Result, error) {
	if strings.TrimSpace(t.Text) == "" {
		return nil, fmt.Errorf("%w: text is required", ErrInvalidTurn)
	}
	if t.SessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrInvalidTurn)
	}
	if err := o.claim(t.MessageID); err != nil {
		return nil, err
	}

	start := o.now()
	work, cancel := o.detach(ctx)
	defer cancel()

	logger := o.logger.With("session_id", t.SessionID, "message_id", t.MessageID)

	// CLASSIFYING
	kind, err := o.classifier.Classify(work, t.Text)
	if err != nil {
		return nil, o.failTurn(work, logger, t, StateClassifying, intent.Other, err)
	}
	o.metrics.ObserveClassification(kind.String())

	// ROUTED
	p := o.pipelines.For(kind)
	logger.Debug("turn routed", "intent", kind.String(), "streaming", t.Target != nil)

	if kind.Conversational() && o.locker != nil {
		unlock, err := o.locker.Lock(work, t.SessionID)
		if err != nil {
			return nil, o.failTurn(work, logger, t, StateRouted, kind, err)
		}
		defer unlock()
	}

	// STREAMING
	text, err := o.stream(work, p, o.request(t), t.Target)
	if err != nil {
		return nil, o.failTurn(work, logger, t, StateStreaming, kind, err)
	}

	// COMPLETED
	res := &Result{Text: text, Intent: kind}
	if kind.Conversational() {
		if err := o.persist(work, t.SessionID, t.Text, text); err != nil {
			res.PersistErr = err
			o.metrics.PersistFailed()
			logger.Error("failed to persist turn", "error", err, "intent", kind.String())
		} else {
			res.Persisted = true
		}
	}

	elapsed := o.now().Sub(start)
	o.metrics.ObserveTurn(kind.String(), StateCompleted.String(), elapsed.Seconds())
	logger.Info("turn completed",
		"intent", kind.String(),
		"persisted", res.Persisted,
		"duration_ms", elapsed.Milliseconds(),
	)
	return res, nil
}

// TaskRequest asks for one direct task. No history is read or written.
// Report tasks read Items instead of Text.
type TaskRequest struct {
	Task      pipeline.Task
	MessageID string
	Text      string
	Items     []prompts.ReportItem
	Target    *push.Target
}

// HandleTask runs a direct task with the same delivery semantics as a turn.
func (o *Orchestrator) HandleTask(ctx context.Context, req *TaskRequest) (string, error) {
	p, ok := o.tasks[req.Task]
	if !ok {
		return "", fmt.Errorf("%w: unknown task %q", ErrInvalidTurn, req.Task)
	}
	if req.Task.UsesItems() {
		if len(req.Items) == 0 {
			return "", fmt.Errorf("%w: at least one submission is required", ErrInvalidTurn)
		}
	} else if strings.TrimSpace(req.Text) == "" {
		return "", fmt.Errorf("%w: text is required", ErrInvalidTurn)
	}
	if err := o.claim(req.MessageID); err != nil {
		return "", err
	}

	work, cancel := o.detach(ctx)
	defer cancel()

	logger := o.logger.With("task", string(req.Task), "message_id", req.MessageID)

	text, err := o.stream(work, p, &pipeline.Request{Text: req.Text, Items: req.Items}, req.Target)
	if err != nil {
		o.metrics.ObserveTask(string(req.Task), StateFailed.String())
		return "", o.fail(work, logger, req.MessageID, req.Target, StateStreaming, intent.Other, err)
	}

	o.metrics.ObserveTask(string(req.Task), StateCompleted.String())
	logger.Info("task completed")
	return text, nil
}

func (o *Orchestrator) claim(messageID string) error {
	if messageID == "" || o.seen == nil {
		return nil
	}
	if !o.seen.Claim(messageID) {
		o.metrics.DuplicateTurn()
		return fmt.Errorf("%w: message %s", ErrDuplicateTurn, messageID)
	}
	return nil
}

// detach returns a context that survives the caller's cancellation, bounded by
// the configured turn timeout.
func (o *Orchestrator) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	work := context.WithoutCancel(ctx)
	if o.cfg.TurnTimeout > 0 {
		return context.WithTimeout(work, o.cfg.TurnTimeout)
	}
	return context.WithCancel(work)
}

func (o *Orchestrator) request(t *Turn) *pipeline.Request {
	req := &pipeline.Request{
		SessionID:  t.SessionID,
		Text:       t.Text,
		Guidelines: t.Guidelines,
		Period:     t.Period,
	}
	if req.Guidelines.Name == "" {
		req.Guidelines = o.cfg.DefaultGuidelines
	}
	if req.Period == "" {
		req.Period = prompts.PeriodLabel(o.now())
	}
	return req
}

// stream runs the pipeline and forwards its output. Without a target the
// pipeline runs in blocking mode and nothing is pushed.
func (o *Orchestrator) stream(ctx context.Context, p pipeline.Pipeline, req *pipeline.Request, target *push.Target) (string, error) {
	mode := pipeline.Blocking
	if target != nil {
		mode = pipeline.Streaming
	}

	gen, err := p.Run(ctx, req, mode)
	if err != nil {
		return "", err
	}

	if gen.Stream == nil {
		if target != nil {
			o.sink.Push(ctx, target, gen.Text)
			o.sink.PushEnd(ctx, target)
		}
		return gen.Text, nil
	}

	var buf strings.Builder
	for chunk := range gen.Stream {
		if chunk.Err != nil {
			return "", chunk.Err
		}
		buf.WriteString(chunk.Text)
		o.sink.Push(ctx, target, chunk.Text)
	}
	if err := ctx.Err(); err != nil {
		// The producer stopped because the turn timed out, not because it finished.
		return "", fmt.Errorf("generation interrupted: %w", err)
	}
	o.sink.PushEnd(ctx, target)
	return buf.String(), nil
}

// persist records the exchange as two appends, user first. A failure of the
// second append leaves the user message in place.
func (o *Orchestrator) persist(ctx context.Context, sessionID, userText, assistantText string) error {
	if o.cfg.PersistTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.PersistTimeout)
		defer cancel()
	}

	if err := o.history.AppendMessage(ctx, sessionID, &store.Message{Role: store.RoleUser, Content: userText}); err != nil {
		return fmt.Errorf("saving user message: %w", err)
	}
	if err := o.history.AppendMessage(ctx, sessionID, &store.Message{Role: store.RoleAssistant, Content: assistantText}); err != nil {
		return fmt.Errorf("saving assistant message: %w", err)
	}
	return nil
}

func (o *Orchestrator) failTurn(ctx context.Context, logger *slog.Logger, t *Turn, state State, kind intent.Intent, err error) error {
	o.metrics.ObserveTurn(kind.String(), StateFailed.String(), 0)
	return o.fail(ctx, logger, t.MessageID, t.Target, state, kind, err)
}

func (o *Orchestrator) fail(ctx context.Context, logger *slog.Logger, messageID string, target *push.Target, state State, kind intent.Intent, err error) error {
	if messageID != "" && o.seen != nil {
		// A failed turn may be retried with the same id.
		o.seen.Release(messageID)
	}

	o.sink.PushError(ctx, target, FailureMessage)

	level := slog.LevelError
	if errors.Is(err, context.DeadlineExceeded) {
		level = slog.LevelWarn
	}
	logger.Log(ctx, level, "turn failed", "error", err, "state", state.String(), "intent", kind.String())

	return &OrchestrationError{State: state, Intent: kind, Err: err}
}

type discardSink struct{}

func (discardSink) Push(context.Context, *push.Target, string)      {}
func (discardSink) PushEnd(context.Context, *push.Target)           {}
func (discardSink) PushError(context.Context, *push.Target, string) {}
