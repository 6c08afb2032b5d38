// Package storage persists resolved selections so `ava history` can show
// what the user chose recently.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SelectionRecord is one resolved selection.
type SelectionRecord struct {
	ID        int64
	SessionID string
	Title     string
	ItemText  string
	ItemKind  string
	ChildText string // empty when the parent itself was chosen
	ChosenAt  time.Time
}

// Store is a SQLite-backed selection history.
type Store struct {
	db        *sql.DB
	closeOnce sync.Once
	closeErr  error
}

// Open opens (creating if necessary) the history database at dbPath.
// The database uses WAL mode and a single writer connection.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// modernc.org/sqlite uses _pragma=name(value) syntax.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite handles concurrency better with a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

// Close closes the database. Safe to call multiple times.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

func (s *Store) migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS selections (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT NOT NULL,
	title       TEXT NOT NULL,
	item_text   TEXT NOT NULL,
	item_kind   TEXT NOT NULL,
	child_text  TEXT NOT NULL DEFAULT '',
	chosen_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_selections_chosen_at ON selections(chosen_at DESC);
`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Record appends one resolved selection.
func (s *Store) Record(ctx context.Context, rec SelectionRecord) error {
	chosenAt := rec.ChosenAt
	if chosenAt.IsZero() {
		chosenAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO selections (session_id, title, item_text, item_kind, child_text, chosen_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.Title, rec.ItemText, rec.ItemKind, rec.ChildText, chosenAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record selection: %w", err)
	}
	return nil
}

// Recent returns up to limit selections, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]SelectionRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, title, item_text, item_kind, child_text, chosen_at
		 FROM selections ORDER BY chosen_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query selections: %w", err)
	}
	defer rows.Close()

	var out []SelectionRecord
	for rows.Next() {
		var rec SelectionRecord
		var chosenMs int64
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Title, &rec.ItemText,
			&rec.ItemKind, &rec.ChildText, &chosenMs); err != nil {
			return nil, fmt.Errorf("scan selection: %w", err)
		}
		rec.ChosenAt = time.UnixMilli(chosenMs)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Prune deletes records older than keep, returning how many were
// removed.
func (s *Store) Prune(ctx context.Context, keep time.Duration) (int64, error) {
	cutoff := time.Now().Add(-keep).UnixMilli()
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM selections WHERE chosen_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune selections: %w", err)
	}
	return res.RowsAffected()
}
