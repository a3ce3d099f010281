// ABOUTME: Saved submissions for monthly reports, keyed by author and submission time
// ABOUTME: Authors list their own; managers filter by category, name, and customer

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// submittedAtLayout is fixed width so stored timestamps sort as text.
const submittedAtLayout = "2006-01-02T15:04:05.000000Z"

// Submission is a finalized write-up saved for reporting.
type Submission struct {
	Name        string
	SubmittedAt time.Time
	Text        string
	Role        string
	Category    string
	Customer    string
}

// SubmissionFilter selects saved submissions. Empty fields match everything;
// From and To are inclusive.
type SubmissionFilter struct {
	// Name matches the author exactly.
	Name string
	// NameContains and CustomerContains match substrings.
	NameContains     string
	CustomerContains string
	Category         string
	From             time.Time
	To               time.Time
}

func (f SubmissionFilter) matches(s *Submission) bool {
	switch {
	case f.Name != "" && s.Name != f.Name:
		return false
	case f.NameContains != "" && !strings.Contains(s.Name, f.NameContains):
		return false
	case f.CustomerContains != "" && !strings.Contains(s.Customer, f.CustomerContains):
		return false
	case f.Category != "" && s.Category != f.Category:
		return false
	case !f.From.IsZero() && s.SubmittedAt.Before(f.From):
		return false
	case !f.To.IsZero() && s.SubmittedAt.After(f.To):
		return false
	}
	return true
}

// SubmissionStore persists saved submissions.
type SubmissionStore interface {
	// SaveSubmission stores sub, replacing any submission with the same
	// author and time. A zero SubmittedAt is set to now.
	SaveSubmission(ctx context.Context, sub *Submission) error

	// GetSubmission returns ErrNotFound when nothing matches.
	GetSubmission(ctx context.Context, name string, at time.Time) (*Submission, error)

	// ListSubmissions returns matches ordered by submission time.
	ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]*Submission, error)
}

func validateSubmission(sub *Submission) error {
	if sub.Name == "" {
		return fmt.Errorf("saving submission: name is required")
	}
	if strings.TrimSpace(sub.Text) == "" {
		return fmt.Errorf("saving submission: text is required")
	}
	return nil
}

func formatSubmittedAt(t time.Time) string {
	return t.UTC().Format(submittedAtLayout)
}

// SaveSubmission upserts a submission.
func (s *SQLiteStore) SaveSubmission(ctx context.Context, sub *Submission) error {
	if err := validateSubmission(sub); err != nil {
		return err
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now()
	}
	sub.SubmittedAt = sub.SubmittedAt.UTC().Truncate(time.Microsecond)

	query := `
		INSERT INTO submissions (name, submitted_at, text, role, category, customer)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (name, submitted_at) DO UPDATE SET
			text = excluded.text,
			role = excluded.role,
			category = excluded.category,
			customer = excluded.customer
	`
	_, err := s.db.ExecContext(ctx, query,
		sub.Name,
		formatSubmittedAt(sub.SubmittedAt),
		sub.Text,
		sub.Role,
		sub.Category,
		sub.Customer,
	)
	if err != nil {
		return fmt.Errorf("%w: inserting submission: %w", ErrStore, err)
	}
	return nil
}

// GetSubmission looks up one submission by its key.
func (s *SQLiteStore) GetSubmission(ctx context.Context, name string, at time.Time) (*Submission, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT name, submitted_at, text, role, category, customer
		FROM submissions
		WHERE name = ? AND submitted_at = ?
	`, name, formatSubmittedAt(at))

	sub, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// ListSubmissions returns the submissions matching filter, oldest first.
func (s *SQLiteStore) ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]*Submission, error) {
	var (
		where []string
		args  []any
	)
	if filter.Name != "" {
		where = append(where, "name = ?")
		args = append(args, filter.Name)
	}
	if filter.NameContains != "" {
		where = append(where, "instr(name, ?) > 0")
		args = append(args, filter.NameContains)
	}
	if filter.CustomerContains != "" {
		where = append(where, "instr(customer, ?) > 0")
		args = append(args, filter.CustomerContains)
	}
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}
	if !filter.From.IsZero() {
		where = append(where, "submitted_at >= ?")
		args = append(args, formatSubmittedAt(filter.From))
	}
	if !filter.To.IsZero() {
		where = append(where, "submitted_at <= ?")
		args = append(args, formatSubmittedAt(filter.To))
	}

	query := `SELECT name, submitted_at, text, role, category, customer FROM submissions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY submitted_at ASC, name ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying submissions: %w", ErrStore, err)
	}
	defer rows.Close()

	subs := []*Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating submissions: %w", ErrStore, err)
	}
	return subs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(r rowScanner) (*Submission, error) {
	var sub Submission
	var submittedAt string
	if err := r.Scan(&sub.Name, &submittedAt, &sub.Text, &sub.Role, &sub.Category, &sub.Customer); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: scanning submission: %w", ErrStore, err)
	}
	t, err := time.Parse(submittedAtLayout, submittedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing submitted_at %q: %w", ErrStore, submittedAt, err)
	}
	sub.SubmittedAt = t
	return &sub, nil
}
