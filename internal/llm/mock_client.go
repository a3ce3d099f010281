// ABOUTME: Deterministic in-memory Client for development mode and tests
// ABOUTME: Records every call and streams replies word by word

package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ReplyFunc decides what a MockClient answers for a prompt.
type ReplyFunc func(p Prompt, cfg ModelConfig) (string, error)

// MockCall records one call made to a MockClient.
type MockCall struct {
	Prompt   Prompt
	Config   ModelConfig
	Streamed bool
}

// MockClient implements Client without a provider. Streamed output is the
// reply split after each space, so the chunks always concatenate to the
// Invoke result.
type MockClient struct {
	mu    sync.Mutex
	reply ReplyFunc
	calls []MockCall

	// failAfter > 0 breaks a stream after that many chunks.
	failAfter int
	failErr   error
}

// NewMockClient creates a MockClient. A nil reply echoes the last human message.
func NewMockClient(reply ReplyFunc) *MockClient {
	if reply == nil {
		reply = func(p Prompt, _ ModelConfig) (string, error) {
			return "You said: " + p.LastHuman(), nil
		}
	}
	return &MockClient{reply: reply}
}

// FailStreamAfter makes subsequent streams emit n chunks and then err.
func (m *MockClient) FailStreamAfter(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAfter = n
	m.failErr = err
}

// Calls returns a copy of the recorded calls.
func (m *MockClient) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// Invoke returns the reply in one piece.
func (m *MockClient) Invoke(ctx context.Context, p Prompt, cfg ModelConfig) (string, error) {
	m.record(p, cfg, false)
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInference, err)
	}

	text, err := m.reply(p, cfg)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInference, err)
	}
	return text, nil
}

// Stream returns the reply as a sequence of word chunks.
func (m *MockClient) Stream(ctx context.Context, p Prompt, cfg ModelConfig) (<-chan Chunk, error) {
	m.record(p, cfg, true)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInference, err)
	}

	text, err := m.reply(p, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInference, err)
	}

	m.mu.Lock()
	failAfter, failErr := m.failAfter, m.failErr
	m.mu.Unlock()
	if failErr == nil {
		failErr = errors.New("stream interrupted")
	}

	chunks := SplitWords(text)
	out := make(chan Chunk)
	go func() {
		defer close(out)
		for i, c := range chunks {
			if failAfter > 0 && i == failAfter {
				break
			}
			select {
			case out <- Chunk{Text: c}:
			case <-ctx.Done():
				return
			}
		}
		if failAfter > 0 && failAfter <= len(chunks) {
			select {
			case out <- Chunk{Err: fmt.Errorf("%w: %w", ErrInference, failErr)}:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}

func (m *MockClient) record(p Prompt, cfg ModelConfig, streamed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make(Prompt, len(p))
	copy(cp, p)
	m.calls = append(m.calls, MockCall{Prompt: cp, Config: cfg, Streamed: streamed})
}

// SplitWords cuts s after every space; joining the parts yields s again.
func SplitWords(s string) []string {
	var parts []string
	for len(s) > 0 {
		i := strings.IndexByte(s, ' ')
		if i < 0 {
			parts = append(parts, s)
			break
		}
		parts = append(parts, s[:i+1])
		s = s[i+1:]
	}
	return parts
}
