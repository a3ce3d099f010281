// ABOUTME: Streaming sink that forwards generated text to a client as fragments
// ABOUTME: Delivery failures are logged and counted but never returned to the caller

package push

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/2389/scribe-gateway/internal/metrics"
)

// Sink wraps a Channel with fire-and-forget semantics.
type Sink struct {
	channel Channel
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewSink creates a Sink. m may be nil.
func NewSink(channel Channel, m *metrics.Metrics, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{
		channel: channel,
		metrics: m,
		logger:  logger.With("component", "sink"),
	}
}

// Push delivers one text fragment. A nil target is a no-op.
func (s *Sink) Push(ctx context.Context, target *Target, text string) {
	s.send(ctx, target, text, false)
}

// PushEnd tells the client the response is complete.
func (s *Sink) PushEnd(ctx context.Context, target *Target) {
	s.send(ctx, target, EndSentinel, true)
}

// PushError tells the client the response failed.
func (s *Sink) PushError(ctx context.Context, target *Target, message string) {
	s.send(ctx, target, ErrorPrefix+message, true)
}

func (s *Sink) send(ctx context.Context, target *Target, text string, final bool) {
	if target == nil || target.ConnectionID == "" {
		return
	}

	payload, err := json.Marshal(Fragment{
		Action:    target.Action,
		MessageID: target.MessageID,
		Text:      text,
	})
	if err != nil {
		s.logger.Error("failed to encode fragment", "error", err)
		return
	}

	deliver := s.channel.Deliver
	if fd, ok := s.channel.(FinalDeliverer); ok && final {
		deliver = fd.DeliverFinal
	}
	if err := deliver(ctx, target.ConnectionID, payload); err != nil {
		s.metrics.PushFailed()
		s.logger.Warn("failed to push fragment",
			"error", err,
			"connection_id", target.ConnectionID,
			"message_id", target.MessageID,
		)
	}
}
