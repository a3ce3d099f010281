// ABOUTME: Intent classifier that routes a user turn to a response pipeline
// ABOUTME: One blocking model call; output without exactly one marker maps to Other

package intent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/2389/scribe-gateway/internal/llm"
	"github.com/2389/scribe-gateway/internal/prompts"
)

// Intent is the classification of a user turn.
type Intent int

const (
	Other Intent = iota
	Submission
	Question
)

func (i Intent) String() string {
	switch i {
	case Submission:
		return "submission"
	case Question:
		return "question"
	default:
		return "other"
	}
}

// Conversational reports whether turns of this intent are recorded in history.
func (i Intent) Conversational() bool {
	return i == Submission || i == Question
}

var markers = []struct {
	marker string
	intent Intent
}{
	{prompts.MarkerSubmission, Submission},
	{prompts.MarkerQuestion, Question},
	{prompts.MarkerOther, Other},
}

// Parse maps raw classifier output to an Intent. Output naming zero markers, or
// more than one distinct marker, is ambiguous and yields Other.
func Parse(output string) Intent {
	found := Other
	count := 0
	for _, m := range markers {
		if strings.Contains(output, m.marker) {
			found = m.intent
			count++
		}
	}
	if count != 1 {
		return Other
	}
	return found
}

// Classifier decides the intent of a turn using the model.
type Classifier struct {
	client llm.Client
	config llm.ModelConfig
	logger *slog.Logger
}

// NewClassifier creates a Classifier. cfg should allow only a handful of output tokens.
func NewClassifier(client llm.Client, cfg llm.ModelConfig, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		client: client,
		config: cfg,
		logger: logger.With("component", "intent"),
	}
}

// Classify returns the intent of text. A failed model call is returned as an
// error wrapping llm.ErrInference, never folded into Other.
func (c *Classifier) Classify(ctx context.Context, text string) (Intent, error) {
	prompt, err := prompts.Classification(text)
	if err != nil {
		return Other, fmt.Errorf("building classification prompt: %w", err)
	}

	output, err := c.client.Invoke(ctx, prompt, c.config)
	if err != nil {
		return Other, fmt.Errorf("classifying turn: %w", err)
	}

	kind := Parse(output)
	c.logger.Debug("classified turn", "intent", kind.String(), "raw", strings.TrimSpace(output))
	return kind, nil
}
