// Package history keeps a log of fetch runs in a SQLite database.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/warpdl/murl/common"
	_ "modernc.org/sqlite"
)

// ErrRunNotFound is returned by Get for an unknown run ID.
var ErrRunNotFound = errors.New("history: run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    mode TEXT NOT NULL,
    started INTEGER NOT NULL,
    duration_ms INTEGER NOT NULL,
    result TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS items (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    pos INTEGER NOT NULL,
    url TEXT NOT NULL,
    status TEXT NOT NULL,
    bytes INTEGER NOT NULL,
    response_code INTEGER NOT NULL DEFAULT 0,
    error TEXT NOT NULL DEFAULT '',
    saved_to TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (run_id, pos)
);
`

// Store is an open history database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path, creating its directory.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("error: cannot create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("error: cannot open history database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("error: cannot initialize history database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores run and its items. A run without an ID is given one.
func (s *Store) Record(run *common.Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("error: cannot begin history transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO runs (id, mode, started, duration_ms, result) VALUES (?, ?, ?, ?, ?)`,
		run.ID, string(run.Mode), run.Started.UnixNano(), run.Duration.Milliseconds(), run.Result)
	if err != nil {
		return fmt.Errorf("error: failed to record run: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO items (run_id, pos, url, status, bytes, response_code, error, saved_to) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error: failed to prepare item insert: %w", err)
	}
	defer stmt.Close()
	for i, it := range run.Items {
		if _, err := stmt.Exec(run.ID, i, it.URL, it.Status, it.Bytes, it.ResponseCode, it.Error, it.SavedTo); err != nil {
			return fmt.Errorf("error: failed to record %s: %w", it.URL, err)
		}
	}
	return tx.Commit()
}

// List returns up to limit runs, newest first, without their items. A
// non-positive limit returns every run.
func (s *Store) List(limit int) ([]*common.Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
        SELECT id, mode, started, duration_ms, result
        FROM runs
        ORDER BY started DESC
        LIMIT ?
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("error: failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*common.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error: failed to iterate runs: %w", err)
	}
	return runs, nil
}

// Get returns one run with its items.
func (s *Store) Get(id string) (*common.Run, error) {
	row := s.db.QueryRow(`SELECT id, mode, started, duration_ms, result FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
        SELECT url, status, bytes, response_code, error, saved_to
        FROM items
        WHERE run_id = ?
        ORDER BY pos
    `, id)
	if err != nil {
		return nil, fmt.Errorf("error: failed to query items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		it := &common.FetchResult{}
		if err := rows.Scan(&it.URL, &it.Status, &it.Bytes, &it.ResponseCode, &it.Error, &it.SavedTo); err != nil {
			return nil, fmt.Errorf("error: failed to scan item row: %w", err)
		}
		run.Items = append(run.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error: failed to iterate items: %w", err)
	}
	return run, nil
}

// Clear removes every recorded run.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM items; DELETE FROM runs;`); err != nil {
		return fmt.Errorf("error: failed to clear history: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(sc scanner) (*common.Run, error) {
	var (
		run      common.Run
		mode     string
		started  int64
		duration int64
	)
	if err := sc.Scan(&run.ID, &mode, &started, &duration, &run.Result); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("error: failed to scan run row: %w", err)
	}
	run.Mode = common.Mode(mode)
	run.Started = time.Unix(0, started)
	run.Duration = time.Duration(duration) * time.Millisecond
	return &run, nil
}
