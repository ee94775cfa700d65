package exchangelog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	dashboard "github.com/agrik/agrik-dashboard/components/dashboard"
)

const schema = `
CREATE TABLE IF NOT EXISTS exchanges (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session TEXT NOT NULL,
	seq INTEGER NOT NULL,
	prompt TEXT NOT NULL,
	response TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	stale INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_exchanges_session ON exchanges(session, seq);
`

// Store persists assistant exchanges in SQLite.
type Store struct {
	db    *sql.DB
	owned bool
}

var _ dashboard.ExchangeRecorder = (*Store)(nil)

// Open creates (or reuses) the database file at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("exchangelog: create directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("exchangelog: open database: %w", err)
	}
	store, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	store.owned = true
	return store, nil
}

// New wraps an existing handle and ensures the schema exists.
func New(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("exchangelog: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// RecordExchange inserts one completed exchange.
func (s *Store) RecordExchange(ctx context.Context, record dashboard.ExchangeRecord) error {
	at := record.At
	if at.IsZero() {
		at = time.Now()
	}
	stale := 0
	if record.Stale {
		stale = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exchanges (session, seq, prompt, response, status, reason, stale, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.SessionID, int64(record.Seq), record.Prompt, record.Response,
		string(record.Status), string(record.Reason), stale, at.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("exchangelog: insert: %w", err)
	}
	return nil
}

// Recent returns up to limit exchanges, newest first. sessionID filters when non-empty.
func (s *Store) Recent(ctx context.Context, sessionID string, limit int) ([]dashboard.ExchangeRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT session, seq, prompt, response, status, reason, stale, created_at FROM exchanges`
	args := []any{}
	if sessionID != "" {
		query += ` WHERE session = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("exchangelog: query: %w", err)
	}
	defer rows.Close()

	var records []dashboard.ExchangeRecord
	for rows.Next() {
		var (
			rec            dashboard.ExchangeRecord
			seq            int64
			status, reason string
			stale          int
			createdAt      string
		)
		if err := rows.Scan(&rec.SessionID, &seq, &rec.Prompt, &rec.Response, &status, &reason, &stale, &createdAt); err != nil {
			return nil, fmt.Errorf("exchangelog: scan: %w", err)
		}
		rec.Seq = uint64(seq)
		rec.Status = dashboard.ChatStatus(status)
		rec.Reason = dashboard.FailureReason(reason)
		rec.Stale = stale != 0
		if at, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			rec.At = at
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("exchangelog: rows: %w", err)
	}
	return records, nil
}

// Close releases the database when the store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}
