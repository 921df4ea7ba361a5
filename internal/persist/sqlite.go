package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// SQLiteKV persists buckets to a single SQLite table as JSON blobs.
type SQLiteKV struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewSQLiteKV opens (or creates) the store at the given path.
func NewSQLiteKV(path string) (*SQLiteKV, error) {
	if path == "" {
		path = "molscene.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	return &SQLiteKV{db: db, path: path}, nil
}

func (s *SQLiteKV) Get(ctx context.Context, bucket string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM state WHERE bucket = ?`, bucket).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select %s: %w", bucket, err)
	}
	return payload, true, nil
}

func (s *SQLiteKV) Put(ctx context.Context, bucket string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO state (bucket, payload) VALUES (?, ?)
		 ON CONFLICT(bucket) DO UPDATE SET payload = excluded.payload`,
		bucket, payload); err != nil {
		return fmt.Errorf("upsert %s: %w", bucket, err)
	}
	return nil
}

func (s *SQLiteKV) Delete(ctx context.Context, bucket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM state WHERE bucket = ?`, bucket); err != nil {
		return fmt.Errorf("delete %s: %w", bucket, err)
	}
	return nil
}

func (s *SQLiteKV) Close() error {
	return s.db.Close()
}
