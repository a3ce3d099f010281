// ABOUTME: Mock ConversationStore implementation for testing
// ABOUTME: Keeps session history and submissions in memory and counts calls for assertions

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockStore is an in-memory ConversationStore implementation for testing.
// GetErr and AppendErr, when set, are returned by the matching operations.
type MockStore struct {
	mu          sync.RWMutex
	sessions    map[string][]*Message
	submissions map[string]*Submission

	GetErr    error
	AppendErr error

	gets    int
	appends int
	clears  int
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		sessions:    make(map[string][]*Message),
		submissions: make(map[string]*Submission),
	}
}

// GetHistory returns copies of the session's messages in append order.
func (m *MockStore) GetHistory(ctx context.Context, sessionID string) ([]*Message, error) {
	m.mu.Lock()
	m.gets++
	getErr := m.GetErr
	m.mu.Unlock()

	if getErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, getErr)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	msgs := m.sessions[sessionID]
	result := make([]*Message, 0, len(msgs))
	for _, msg := range msgs {
		cp := *msg
		result = append(result, &cp)
	}
	return result, nil
}

// AppendMessage stores a copy of msg at the end of the session's history.
func (m *MockStore) AppendMessage(ctx context.Context, sessionID string, msg *Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.appends++
	if m.AppendErr != nil {
		return fmt.Errorf("%w: %w", ErrStore, m.AppendErr)
	}
	if !msg.Role.Valid() {
		return fmt.Errorf("appending message: invalid role %q", msg.Role)
	}

	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	msg.SessionID = sessionID

	cp := *msg
	m.sessions[sessionID] = append(m.sessions[sessionID], &cp)
	return nil
}

// ClearHistory drops the session.
func (m *MockStore) ClearHistory(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clears++
	delete(m.sessions, sessionID)
	return nil
}

// Close is a no-op.
func (m *MockStore) Close() error {
	return nil
}

// Calls reports how many times each operation has been invoked.
func (m *MockStore) Calls() (gets, appends, clears int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gets, m.appends, m.clears
}

func submissionKey(name string, at time.Time) string {
	return name + "|" + formatSubmittedAt(at)
}

// SaveSubmission stores a copy of sub, replacing one with the same key.
func (m *MockStore) SaveSubmission(ctx context.Context, sub *Submission) error {
	if err := validateSubmission(sub); err != nil {
		return err
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now()
	}
	sub.SubmittedAt = sub.SubmittedAt.UTC().Truncate(time.Microsecond)

	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *sub
	m.submissions[submissionKey(sub.Name, sub.SubmittedAt)] = &cp
	return nil
}

// GetSubmission returns a copy of the submission or ErrNotFound.
func (m *MockStore) GetSubmission(ctx context.Context, name string, at time.Time) (*Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sub, ok := m.submissions[submissionKey(name, at)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *sub
	return &cp, nil
}

// ListSubmissions returns copies of matching submissions, oldest first.
func (m *MockStore) ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]*Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []*Submission{}
	for _, sub := range m.submissions {
		if filter.matches(sub) {
			cp := *sub
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.Before(out[j].SubmittedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}
