package out

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStateStore keeps timer records in a single table, for setups that
// prefer one database file over a directory of JSON files.
type SQLiteStateStore struct {
	db *sql.DB
}

func NewSQLiteStateStore(dbPath string) (*SQLiteStateStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	store := &SQLiteStateStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStateStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS timer_state (
  key TEXT PRIMARY KEY,
  record TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create timer_state table: %w", err)
	}
	return nil
}

func (s *SQLiteStateStore) Get(ctx context.Context, key string) (string, bool, error) {
	var record string
	err := s.db.QueryRowContext(ctx, `SELECT record FROM timer_state WHERE key = ?`, key).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query timer record: %w", err)
	}
	return record, true, nil
}

func (s *SQLiteStateStore) Set(ctx context.Context, key, value string) error {
	const stmt = `
INSERT INTO timer_state (key, record, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
  record=excluded.record,
  updated_at=excluded.updated_at;
`
	if _, err := s.db.ExecContext(ctx, stmt, key, value, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("upsert timer record: %w", err)
	}
	return nil
}

func (s *SQLiteStateStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM timer_state WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete timer record: %w", err)
	}
	return nil
}

func (s *SQLiteStateStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM timer_state ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list timer keys: %w", err)
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan timer key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate timer keys: %w", err)
	}
	return keys, nil
}

func (s *SQLiteStateStore) Close() error {
	return s.db.Close()
}
