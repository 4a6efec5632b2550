// Package migrate copies every base table of one MySQL database onto a
// freshly recreated database on another server, rewriting each table's DDL
// for cross-version compatibility and moving rows in bounded batches.
package migrate

import (
	"fmt"

	"github.com/CaptainASIC/dbmove/internal/database"
	"github.com/CaptainASIC/dbmove/internal/rewrite"
)

// BatchSize is the maximum number of rows written per insert. Each batch is
// committed before the next one is built.
const BatchSize = 1000

// Outcome is the terminal result of one migration run. Failures already
// carry a classified, human-readable message; partial progress committed
// before a failure is left in place.
type Outcome struct {
	Success        bool
	Message        string
	TablesMigrated int
}

// Migrate reproduces every base table of sourceDB onto dst under destDB.
// Both connections must already be open and authenticated; the caller keeps
// them open for the full duration of the call and closes them afterwards.
//
// The destination database is dropped and recreated, so a pre-existing
// destDB is destroyed. Tables are processed strictly sequentially in server
// listing order, with no dependency ordering and no retries: every error is
// terminal except a "table already exists" response to rewritten DDL, which
// is skipped for idempotent re-runs. Migrate never returns an error; all
// failures are folded into the Outcome.
func Migrate(src, dst *database.Conn, sourceDB, destDB string) Outcome {
	// Both sessions must interpret values identically during the copy, and
	// the rewritten DDL relies on relaxed strict-mode enforcement.
	if err := src.Normalize(); err != nil {
		return failure(err)
	}
	if err := dst.Normalize(); err != nil {
		return failure(err)
	}

	// The destination is always recreated from scratch; a run never merges
	// into an existing database of the same name.
	if err := dst.Exec("DROP DATABASE IF EXISTS `" + destDB + "`"); err != nil {
		return failure(err)
	}
	if err := dst.Exec("CREATE DATABASE `" + destDB + "`"); err != nil {
		return failure(err)
	}

	if err := src.Use(sourceDB); err != nil {
		return failure(err)
	}
	tables, err := src.Tables()
	if err != nil {
		return failure(err)
	}

	for _, table := range tables {
		if err := migrateTable(src, dst, destDB, table); err != nil {
			return failure(err)
		}
	}

	return Outcome{
		Success:        true,
		Message:        fmt.Sprintf("Migration completed successfully. Migrated %d tables.", len(tables)),
		TablesMigrated: len(tables),
	}
}

func migrateTable(src, dst *database.Conn, destDB, table string) error {
	ddl, err := src.ShowCreateTable(table)
	if err != nil {
		return err
	}
	ddl = rewrite.Rewrite(ddl)

	if err := dst.Use(destDB); err != nil {
		return err
	}
	if err := dst.Exec(ddl); err != nil {
		if Classify(err) != KindTableExists {
			return err
		}
		// Table survived an earlier partial run; keep going.
	}

	rows, err := src.FetchRows(table)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	columns, err := src.Columns(table)
	if err != nil {
		return err
	}

	for start := 0; start < len(rows); start += BatchSize {
		end := start + BatchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := dst.InsertBatch(table, len(columns), rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}
