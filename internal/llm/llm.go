// ABOUTME: Inference client contract: prompts, model configuration, and streamed chunks
// ABOUTME: Every failure surfaced by a Client wraps ErrInference

package llm

import (
	"errors"
	"strings"
)

// ErrInference is wrapped by every error a Client returns, whether the call
// failed up front or the stream broke midway.
var ErrInference = errors.New("inference failed")

// Role is the author of one prompt message.
type Role string

const (
	RoleSystem Role = "system"
	RoleHuman  Role = "human"
	RoleAI     Role = "ai"
)

// Message is one rendered prompt message.
type Message struct {
	Role    Role
	Content string
}

// Prompt is an ordered list of rendered messages.
type Prompt []Message

// System returns a system message.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// Human returns a human message.
func Human(content string) Message { return Message{Role: RoleHuman, Content: content} }

// AI returns an assistant message.
func AI(content string) Message { return Message{Role: RoleAI, Content: content} }

// LastHuman returns the content of the final human message, or "".
func (p Prompt) LastHuman() string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i].Role == RoleHuman {
			return p[i].Content
		}
	}
	return ""
}

// String flattens the prompt for logging and test assertions.
func (p Prompt) String() string {
	var b strings.Builder
	for i, m := range p {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(string(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
	}
	return b.String()
}

// ModelConfig carries the sampling parameters for a call. Zero values for
// TopP, TopK, and MaxOutputTokens leave the provider default in place.
type ModelConfig struct {
	Model           string
	MaxOutputTokens int
	Temperature     float64
	TopP            float64
	TopK            int
	StopSequences   []string
}

// Chunk is one increment of a streamed generation. A chunk with Err set is
// always the last value on the channel.
type Chunk struct {
	Text string
	Err  error
}
