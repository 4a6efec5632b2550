// Package journal keeps a local history of migration runs in a SQLite file.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Entry records the outcome of one migration run.
type Entry struct {
	ID             int64
	StartedAt      time.Time
	SourceHost     string
	SourceDB       string
	DestHost       string
	DestDB         string
	Success        bool
	TablesMigrated int
	Message        string
}

// Journal is an open history file.
type Journal struct {
	db *sql.DB
}

// DefaultPath returns the history file location under the user's home
// directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".dbmove", "history.db"), nil
}

// Open opens (creating if necessary) the history file at path.
func Open(path string) (*Journal, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize journal schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close closes the history file.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends one run to the history.
func (j *Journal) Record(e Entry) error {
	_, err := j.db.Exec(
		`INSERT INTO runs (started_at, source_host, source_db, dest_host, dest_db, success, tables_migrated, message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.StartedAt.UTC().Format(time.RFC3339),
		e.SourceHost,
		e.SourceDB,
		e.DestHost,
		e.DestDB,
		e.Success,
		e.TablesMigrated,
		e.Message,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// Entries returns all recorded runs, newest first.
func (j *Journal) Entries() ([]Entry, error) {
	rows, err := j.db.Query(
		`SELECT id, started_at, source_host, source_db, dest_host, dest_db, success, tables_migrated, message
		 FROM runs ORDER BY id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var startedAt string
		if err := rows.Scan(&e.ID, &startedAt, &e.SourceHost, &e.SourceDB, &e.DestHost, &e.DestDB, &e.Success, &e.TablesMigrated, &e.Message); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, startedAt); err == nil {
			e.StartedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
