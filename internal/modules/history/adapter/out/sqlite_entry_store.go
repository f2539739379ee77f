package out

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"timekit/internal/modules/history/domain"
)

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

type SQLiteEntryStore struct {
	db *sql.DB
}

func NewSQLiteEntryStore(dbPath string) (*SQLiteEntryStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	store := &SQLiteEntryStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteEntryStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS history (
  id TEXT PRIMARY KEY,
  type TEXT NOT NULL,
  timer_key TEXT NOT NULL,
  session_id TEXT,
  widget TEXT,
  phase_kind TEXT,
  elapsed_ms INTEGER NOT NULL,
  skipped INTEGER NOT NULL,
  at_ms INTEGER NOT NULL,
  at TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create history table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS history_at ON history(at_ms)`); err != nil {
		return fmt.Errorf("create history index: %w", err)
	}
	return nil
}

func (s *SQLiteEntryStore) Append(ctx context.Context, e domain.Entry) error {
	const stmt = `
INSERT INTO history (id, type, timer_key, session_id, widget, phase_kind, elapsed_ms, skipped, at_ms, at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO NOTHING;
`
	skipped := 0
	if e.Skipped {
		skipped = 1
	}
	_, err := s.db.ExecContext(ctx, stmt,
		e.ID,
		e.Type,
		e.Key,
		e.SessionID,
		e.Widget,
		e.PhaseKind,
		e.ElapsedMs,
		skipped,
		e.At.UnixMilli(),
		e.At.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

// List returns the newest entries first, optionally for one key.
func (s *SQLiteEntryStore) List(ctx context.Context, key string, limit int) ([]domain.Entry, error) {
	query := `SELECT id, type, timer_key, session_id, widget, phase_kind, elapsed_ms, skipped, at_ms FROM history`
	args := []any{}
	if key != "" {
		query += ` WHERE timer_key = ?`
		args = append(args, key)
	}
	query += ` ORDER BY at_ms DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()
	var out []domain.Entry
	for rows.Next() {
		var (
			e       domain.Entry
			skipped int
			atMs    int64
		)
		if err := rows.Scan(&e.ID, &e.Type, &e.Key, &e.SessionID, &e.Widget, &e.PhaseKind, &e.ElapsedMs, &skipped, &atMs); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.Skipped = skipped == 1
		e.At = time.UnixMilli(atMs).UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

// Totals sums phase time per kind since the given instant.
func (s *SQLiteEntryStore) Totals(ctx context.Context, since time.Time) ([]domain.Stat, error) {
	const query = `
SELECT phase_kind, COUNT(*), COALESCE(SUM(elapsed_ms), 0)
FROM history
WHERE type = ? AND at_ms >= ?
GROUP BY phase_kind
ORDER BY SUM(elapsed_ms) DESC, phase_kind;
`
	rows, err := s.db.QueryContext(ctx, query, domain.EntryPhase, since.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query history totals: %w", err)
	}
	defer rows.Close()
	var out []domain.Stat
	for rows.Next() {
		var st domain.Stat
		if err := rows.Scan(&st.PhaseKind, &st.Count, &st.TotalMs); err != nil {
			return nil, fmt.Errorf("scan history totals: %w", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history totals: %w", err)
	}
	return out, nil
}

func (s *SQLiteEntryStore) Close() error {
	return s.db.Close()
}
