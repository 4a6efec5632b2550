package journal

import "database/sql"

const (
	// SQLite schema for the run history file
	createRunsTable = `
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at TEXT NOT NULL,
			source_host TEXT NOT NULL,
			source_db TEXT NOT NULL,
			dest_host TEXT NOT NULL,
			dest_db TEXT NOT NULL,
			success INTEGER NOT NULL,
			tables_migrated INTEGER NOT NULL,
			message TEXT NOT NULL
		);
	`

	createRunsIndex = `
		CREATE INDEX IF NOT EXISTS idx_runs_started_at
		ON runs(started_at);
	`
)

func initializeSchema(db *sql.DB) error {
	schemas := []string{
		createRunsTable,
		createRunsIndex,
	}

	for _, schema := range schemas {
		if _, err := db.Exec(schema); err != nil {
			return err
		}
	}

	return nil
}
