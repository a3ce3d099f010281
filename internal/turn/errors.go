// ABOUTME: Turn lifecycle states and the errors the orchestrator surfaces
// ABOUTME: OrchestrationError records the state a failed turn was in

package turn

import (
	"errors"
	"fmt"

	"github.com/2389/scribe-gateway/internal/intent"
)

var (
	// ErrInvalidTurn is returned for turns missing required fields.
	ErrInvalidTurn = errors.New("invalid turn")

	// ErrDuplicateTurn is returned when a message id was already accepted.
	ErrDuplicateTurn = errors.New("duplicate turn")
)

// State is a step of the turn lifecycle.
type State int

const (
	StateClassifying State = iota
	StateRouted
	StateStreaming
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateClassifying:
		return "classifying"
	case StateRouted:
		return "routed"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// OrchestrationError reports a turn that moved to StateFailed. State is the
// step that was running when it failed; Err is the cause.
type OrchestrationError struct {
	State  State
	Intent intent.Intent
	Err    error
}

func (e *OrchestrationError) Error() string {
	return fmt.Sprintf("turn failed while %s: %v", e.State, e.Err)
}

func (e *OrchestrationError) Unwrap() error {
	return e.Err
}
