// Package audit keeps a SQLite log of deletion passes.
package audit

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/idelchi/dirclean/internal/classify"
	"github.com/idelchi/dirclean/internal/cleanup"
)

//go:embed schema.sql
var schema string

// Row is one audited file.
type Row struct {
	ScanID  string            `json:"scan_id"  yaml:"scan_id"`
	Root    string            `json:"root"     yaml:"root"`
	Path    string            `json:"path"     yaml:"path"`
	Size    int64             `json:"size"     yaml:"size"`
	Reasons []classify.Reason `json:"reasons"  yaml:"reasons"`
	Deleted bool              `json:"deleted"  yaml:"deleted"`
	Error   string            `json:"error"    yaml:"error"`
	At      time.Time         `json:"at"       yaml:"at"`
}

// Store is an open audit database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the audit database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening audit database %q: %w", path, err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()

		return nil, fmt.Errorf("initializing audit database %q: %w", path, err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores every file of outcome under scanID in a single transaction.
func (s *Store) Record(ctx context.Context, scanID, root string, outcome cleanup.Outcome) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting audit transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO deletions (scan_id, root, path, size, reasons, deleted, error, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing audit insert: %w", err)
	}
	defer stmt.Close()

	at := s.now().UnixNano()

	insert := func(c classify.Candidate, deleted bool, message string) error {
		_, err := stmt.ExecContext(ctx, scanID, root, c.Path, c.Size, joinReasons(c.Reasons), deleted, message, at)

		return err
	}

	for _, c := range outcome.Deleted {
		if err := insert(c, true, ""); err != nil {
			return fmt.Errorf("recording %q: %w", c.Path, err)
		}
	}

	for _, f := range outcome.Failed {
		if err := insert(f.Candidate, false, f.Message); err != nil {
			return fmt.Errorf("recording %q: %w", f.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing audit records: %w", err)
	}

	return nil
}

// List returns the rows recorded for scanID, or all rows when scanID is empty,
// in insertion order.
func (s *Store) List(ctx context.Context, scanID string) ([]Row, error) {
	query := `SELECT scan_id, root, path, size, reasons, deleted, error, at FROM deletions`
	args := []any{}

	if scanID != "" {
		query += ` WHERE scan_id = ?`
		args = append(args, scanID)
	}

	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit records: %w", err)
	}
	defer rows.Close()

	var out []Row

	for rows.Next() {
		var (
			row     Row
			reasons string
			at      int64
		)

		if err := rows.Scan(&row.ScanID, &row.Root, &row.Path, &row.Size, &reasons, &row.Deleted, &row.Error, &at); err != nil {
			return nil, fmt.Errorf("reading audit record: %w", err)
		}

		row.Reasons = splitReasons(reasons)
		row.At = time.Unix(0, at)

		out = append(out, row)
	}

	return out, rows.Err()
}

func joinReasons(reasons []classify.Reason) string {
	parts := make([]string, len(reasons))
	for i, r := range reasons {
		parts[i] = string(r)
	}

	return strings.Join(parts, ",")
}

func splitReasons(s string) []classify.Reason {
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	out := make([]classify.Reason, len(parts))

	for i, p := range parts {
		out[i] = classify.Reason(p)
	}

	return out
}
