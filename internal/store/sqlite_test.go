// ABOUTME: Tests for SQLite store implementation
// ABOUTME: Covers history ordering, lazy session creation, clearing, and store failures

package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir", "nested", "test.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "database file should exist")
}

func TestGetHistory_UnknownSessionIsEmpty(t *testing.T) {
	store := newTestStore(t)

	history, err := store.GetHistory(t.Context(), "never-seen")
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}

func TestAppendMessage_PreservesAppendOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	for i := range 6 {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		err := store.AppendMessage(ctx, "session-1", &Message{Role: role, Content: fmt.Sprintf("msg-%d", i)})
		require.NoError(t, err)
	}

	history, err := store.GetHistory(ctx, "session-1")
	require.NoError(t, err)
	require.Len(t, history, 6)
	for i, msg := range history {
		assert.Equal(t, fmt.Sprintf("msg-%d", i), msg.Content)
		assert.Equal(t, "session-1", msg.SessionID)
		assert.NotEmpty(t, msg.ID)
		assert.False(t, msg.CreatedAt.IsZero())
	}
	assert.Equal(t, RoleUser, history[0].Role)
	assert.Equal(t, RoleAssistant, history[1].Role)
}

func TestAppendMessage_SessionsAreIsolated(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	require.NoError(t, store.AppendMessage(ctx, "a", &Message{Role: RoleUser, Content: "for a"}))
	require.NoError(t, store.AppendMessage(ctx, "b", &Message{Role: RoleUser, Content: "for b"}))

	history, err := store.GetHistory(ctx, "a")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "for a", history[0].Content)
}

func TestAppendMessage_RejectsInvalidInput(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	err := store.AppendMessage(ctx, "", &Message{Role: RoleUser, Content: "x"})
	assert.Error(t, err)

	err = store.AppendMessage(ctx, "s", &Message{Role: "system", Content: "x"})
	assert.Error(t, err)
}

func TestAppendMessage_Concurrent(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := store.AppendMessage(ctx, "busy", &Message{Role: RoleUser, Content: fmt.Sprintf("m%d", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	history, err := store.GetHistory(ctx, "busy")
	require.NoError(t, err)
	assert.Len(t, history, 20)
}

func TestClearHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	require.NoError(t, store.AppendMessage(ctx, "s", &Message{Role: RoleUser, Content: "one"}))
	require.NoError(t, store.AppendMessage(ctx, "other", &Message{Role: RoleUser, Content: "two"}))

	require.NoError(t, store.ClearHistory(ctx, "s"))
	require.NoError(t, store.ClearHistory(ctx, "does-not-exist"))

	history, err := store.GetHistory(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, history)

	history, err = store.GetHistory(ctx, "other")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestSQLiteStore_ClosedDatabaseReportsErrStore(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	ctx := context.Background()
	_, err = store.GetHistory(ctx, "s")
	assert.True(t, errors.Is(err, ErrStore), "got %v", err)

	err = store.AppendMessage(ctx, "s", &Message{Role: RoleUser, Content: "x"})
	assert.True(t, errors.Is(err, ErrStore), "got %v", err)
}
