// Package history records finished reductions in SQLite.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Run is one finished reduction. Intermediate passes are not stored.
type Run struct {
	ID            int64
	DocumentID    string
	Title         string
	Source        string
	URL           string
	Model         string
	InitialTokens int
	FinalTokens   int
	Iterations    int
	Termination   string
	CreatedAt     time.Time
}

// Store handles SQLite persistence for runs.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) a SQLite database at the given path and runs migrations.
func OpenStore(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	ddl := `
	CREATE TABLE IF NOT EXISTS runs (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		document_id     TEXT NOT NULL,
		title           TEXT NOT NULL,
		source          TEXT DEFAULT '',
		url             TEXT DEFAULT '',
		model           TEXT DEFAULT '',
		initial_tokens  INTEGER NOT NULL,
		final_tokens    INTEGER NOT NULL,
		iterations      INTEGER NOT NULL,
		termination     TEXT NOT NULL,
		created_at      TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_document ON runs(document_id);`
	_, err := s.db.Exec(ddl)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun stores r and returns its row id. A zero CreatedAt is set to now.
func (s *Store) SaveRun(r Run) (int64, error) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	res, err := s.db.Exec(
		`INSERT INTO runs (document_id, title, source, url, model, initial_tokens, final_tokens, iterations, termination, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.DocumentID, r.Title, r.Source, r.URL, r.Model,
		r.InitialTokens, r.FinalTokens, r.Iterations, r.Termination,
		r.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListRuns returns the latest runs, newest first. A non-positive limit returns all.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(
		`SELECT id, document_id, title, source, url, model, initial_tokens, final_tokens, iterations, termination, created_at
		 FROM runs ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var created string
		if err := rows.Scan(&r.ID, &r.DocumentID, &r.Title, &r.Source, &r.URL, &r.Model,
			&r.InitialTokens, &r.FinalTokens, &r.Iterations, &r.Termination, &created); err != nil {
			return nil, err
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("parse created_at of run %d: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// CountRuns returns how many runs were stored for documentID.
func (s *Store) CountRuns(documentID string) (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM runs WHERE document_id = ?", documentID).Scan(&count)
	return count, err
}
