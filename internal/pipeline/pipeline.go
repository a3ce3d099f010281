// ABOUTME: Response pipeline contract and intent-based routing
// ABOUTME: A pipeline turns one request into text, either whole or as a chunk stream

package pipeline

import (
	"context"

	"github.com/2389/scribe-gateway/internal/intent"
	"github.com/2389/scribe-gateway/internal/llm"
	"github.com/2389/scribe-gateway/internal/prompts"
)

// Mode selects how a pipeline delivers its output.
type Mode int

const (
	Blocking Mode = iota
	Streaming
)

// Request is everything a pipeline may need from a turn.
type Request struct {
	SessionID  string
	Text       string
	Guidelines prompts.GuidelineSet
	Period     string
	// Items is the input of report tasks, which read no Text.
	Items []prompts.ReportItem
}

// Generation is the output of a pipeline run. Exactly one of Text and Stream
// is meaningful: Stream is set when the pipeline produced a live sequence.
type Generation struct {
	Text   string
	Stream <-chan llm.Chunk
}

// Pipeline produces a response for a routed request.
type Pipeline interface {
	Run(ctx context.Context, req *Request, mode Mode) (*Generation, error)
}

// Set holds one pipeline per intent.
type Set struct {
	Submission Pipeline
	Question   Pipeline
	Deflection Pipeline
}

// For returns the pipeline that handles kind.
func (s *Set) For(kind intent.Intent) Pipeline {
	switch kind {
	case intent.Submission:
		return s.Submission
	case intent.Question:
		return s.Question
	default:
		return s.Deflection
	}
}

func generate(ctx context.Context, client llm.Client, p llm.Prompt, cfg llm.ModelConfig, mode Mode) (*Generation, error) {
	if mode == Streaming {
		ch, err := client.Stream(ctx, p, cfg)
		if err != nil {
			return nil, err
		}
		return &Generation{Stream: ch}, nil
	}

	text, err := client.Invoke(ctx, p, cfg)
	if err != nil {
		return nil, err
	}
	return &Generation{Text: text}, nil
}
