// ABOUTME: Conversational QA pipeline answering process questions with session history
// ABOUTME: Reads history but never writes it; an unreadable history degrades to empty

package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/2389/scribe-gateway/internal/llm"
	"github.com/2389/scribe-gateway/internal/prompts"
	"github.com/2389/scribe-gateway/internal/store"
)

// HistoryReader is the read side of a conversation store.
type HistoryReader interface {
	GetHistory(ctx context.Context, sessionID string) ([]*store.Message, error)
}

// Question answers questions about the submission process.
type Question struct {
	client  llm.Client
	config  llm.ModelConfig
	history HistoryReader
	logger  *slog.Logger
}

// NewQuestion creates a Question pipeline.
func NewQuestion(client llm.Client, cfg llm.ModelConfig, history HistoryReader, logger *slog.Logger) *Question {
	if logger == nil {
		logger = slog.Default()
	}
	return &Question{
		client:  client,
		config:  cfg,
		history: history,
		logger:  logger.With("component", "pipeline.question"),
	}
}

// Run answers req.Text in the context of the session's prior exchanges.
func (q *Question) Run(ctx context.Context, req *Request, mode Mode) (*Generation, error) {
	msgs, err := q.history.GetHistory(ctx, req.SessionID)
	if err != nil {
		q.logger.Warn("failed to load history, answering without it",
			"error", err,
			"session_id", req.SessionID,
		)
		msgs = nil
	}

	p, err := prompts.Question(req.Guidelines.QuestionPreamble, toPromptHistory(msgs), req.Text)
	if err != nil {
		return nil, fmt.Errorf("building question prompt: %w", err)
	}
	return generate(ctx, q.client, p, q.config, mode)
}

func toPromptHistory(msgs []*store.Message) []llm.Message {
	out := make([]llm.Message, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case store.RoleUser:
			out = append(out, llm.Human(m.Content))
		case store.RoleAssistant:
			out = append(out, llm.AI(m.Content))
		}
	}
	return out
}
