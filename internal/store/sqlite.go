// ABOUTME: SQLite implementation of the ConversationStore interface using modernc.org/sqlite
// ABOUTME: Session history lives in an append-ordered messages table, reports in submissions

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements ConversationStore using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL lets history reads proceed while a turn is being persisted
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist.
// seq is the authoritative ordering; created_at is informational only.
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS messages (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TEXT NOT NULL,

			CHECK (role IN ('user', 'assistant'))
		);

		CREATE INDEX IF NOT EXISTS idx_messages_session_seq
			ON messages(session_id, seq);

		CREATE TABLE IF NOT EXISTS submissions (
			name TEXT NOT NULL,
			submitted_at TEXT NOT NULL,
			text TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			customer TEXT NOT NULL DEFAULT '',

			PRIMARY KEY (name, submitted_at)
		);

		CREATE INDEX IF NOT EXISTS idx_submissions_category_time
			ON submissions(category, submitted_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// GetHistory returns all messages for a session ordered by append order
func (s *SQLiteStore) GetHistory(ctx context.Context, sessionID string) ([]*Message, error) {
	query := `
		SELECT id, session_id, role, content, created_at
		FROM messages
		WHERE session_id = ?
		ORDER BY seq ASC
	`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying messages: %w", ErrStore, err)
	}
	defer rows.Close()

	messages := []*Message{}
	for rows.Next() {
		var msg Message
		var role, createdAt string
		if err := rows.Scan(&msg.ID, &msg.SessionID, &role, &msg.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: scanning message: %w", ErrStore, err)
		}
		msg.Role = Role(role)
		msg.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("%w: parsing created_at %q: %w", ErrStore, createdAt, err)
		}
		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating messages: %w", ErrStore, err)
	}

	return messages, nil
}

// AppendMessage inserts a message at the end of the session's history
func (s *SQLiteStore) AppendMessage(ctx context.Context, sessionID string, msg *Message) error {
	if sessionID == "" {
		return fmt.Errorf("appending message: session id is required")
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

	query := `
		INSERT INTO messages (id, session_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		msg.ID,
		msg.SessionID,
		string(msg.Role),
		msg.Content,
		msg.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("%w: inserting message: %w", ErrStore, err)
	}

	return nil
}

// ClearHistory deletes every message belonging to the session
func (s *SQLiteStore) ClearHistory(ctx context.Context, sessionID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("%w: deleting messages: %w", ErrStore, err)
	}

	if n, err := res.RowsAffected(); err == nil {
		s.logger.Debug("cleared session history", "session_id", sessionID, "deleted", n)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
