// ABOUTME: Deflection pipeline for turns outside the writing domain
// ABOUTME: Returns a fixed refusal without calling the model or the store

package pipeline

import (
	"context"

	"github.com/2389/scribe-gateway/internal/prompts"
)

// Deflection politely refuses off-topic turns.
type Deflection struct{}

// Run always returns prompts.Deflection as a single piece, in either mode.
func (Deflection) Run(context.Context, *Request, Mode) (*Generation, error) {
	return &Generation{Text: prompts.Deflection}, nil
}
