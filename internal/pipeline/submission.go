// ABOUTME: Submission feedback pipeline: reviews a write-up against its guideline set
// ABOUTME: Stateless; the model output, validation block included, is returned verbatim

package pipeline

import (
	"context"
	"fmt"

	"github.com/2389/scribe-gateway/internal/llm"
	"github.com/2389/scribe-gateway/internal/prompts"
)

// Submission reviews submissions. It never touches conversation history.
type Submission struct {
	client llm.Client
	config llm.ModelConfig
}

// NewSubmission creates a Submission pipeline.
func NewSubmission(client llm.Client, cfg llm.ModelConfig) *Submission {
	return &Submission{client: client, config: cfg}
}

// Run renders the rubric for req and generates the review.
func (s *Submission) Run(ctx context.Context, req *Request, mode Mode) (*Generation, error) {
	p, err := prompts.Submission(req.Guidelines, req.Period, req.Text)
	if err != nil {
		return nil, fmt.Errorf("building submission prompt: %w", err)
	}
	return generate(ctx, s.client, p, s.config, mode)
}
