package database

import (
	"context"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// Conn is an open session against one MySQL server. Every statement runs on
// a single pinned connection, so the session state set by Normalize and Use
// (sql_mode, time zone, selected database) applies to every later statement;
// a pooled handle would scatter them across connections. A Conn is owned by
// a single role (source or destination) and is never shared across
// concurrent callers; the owner opens it before a migration and closes it
// after.
type Conn struct {
	db   *sqlx.DB
	sess *sqlx.Conn
}

// Connect opens a connection to the configured server, verifies it with a
// ping and normalizes the session (relaxed sql_mode, UTC time zone).
func Connect(cfg Config) (*Conn, error) {
	db, err := sqlx.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}

	conn, err := NewConn(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping server: %w", err)
	}
	if err := conn.Normalize(); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// NewConn wraps an already-open database handle, pinning one connection for
// the whole session.
func NewConn(db *sqlx.DB) (*Conn, error) {
	sess, err := db.Connx(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to pin connection: %w", err)
	}
	return &Conn{db: db, sess: sess}, nil
}

// Normalize relaxes strict-mode enforcement and forces UTC on the session so
// both ends of a copy interpret values identically.
func (c *Conn) Normalize() error {
	ctx := context.Background()
	if _, err := c.sess.ExecContext(ctx, "SET SESSION sql_mode=''"); err != nil {
		return fmt.Errorf("failed to set sql_mode: %w", err)
	}
	if _, err := c.sess.ExecContext(ctx, "SET SESSION time_zone='+00:00'"); err != nil {
		return fmt.Errorf("failed to set time_zone: %w", err)
	}
	return nil
}

// Ping verifies the pinned connection is alive.
func (c *Conn) Ping() error {
	return c.sess.PingContext(context.Background())
}

// Close releases the pinned connection and the underlying handle.
func (c *Conn) Close() error {
	var firstErr error
	if c.sess != nil {
		if err := c.sess.Close(); err != nil {
			firstErr = err
		}
	}
	if c.db != nil {
		if err := c.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Exec runs a single statement.
func (c *Conn) Exec(query string) error {
	_, err := c.sess.ExecContext(context.Background(), query)
	return err
}

// Use selects the active database for the session.
func (c *Conn) Use(name string) error {
	if _, err := c.sess.ExecContext(context.Background(), "USE `"+name+"`"); err != nil {
		return fmt.Errorf("failed to select database %s: %w", name, err)
	}
	return nil
}

// Databases lists the databases visible to the connected user.
func (c *Conn) Databases() ([]string, error) {
	rows, err := c.sess.QueryContext(context.Background(), "SHOW DATABASES")
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan database name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Tables lists the base tables of the active database in server order.
// Views are excluded; only base tables are migrated.
func (c *Conn) Tables() ([]string, error) {
	rows, err := c.sess.QueryContext(context.Background(), "SHOW FULL TABLES WHERE Table_type = 'BASE TABLE'")
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name, tableType string
		if err := rows.Scan(&name, &tableType); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// ShowCreateTable returns the server's native DDL for a table.
func (c *Conn) ShowCreateTable(table string) (string, error) {
	var name, ddl string
	query := fmt.Sprintf("SHOW CREATE TABLE `%s`", table)
	if err := c.sess.QueryRowContext(context.Background(), query).Scan(&name, &ddl); err != nil {
		return "", fmt.Errorf("failed to fetch DDL for %s: %w", table, err)
	}
	return ddl, nil
}

// Columns returns the column names of a table in definition order.
func (c *Conn) Columns(table string) ([]string, error) {
	query := fmt.Sprintf("SHOW COLUMNS FROM `%s`", table)
	rows, err := c.sess.QueryContext(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns for %s: %w", table, err)
	}
	defer rows.Close()

	fields, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read column metadata: %w", err)
	}

	var columns []string
	for rows.Next() {
		values := make([]interface{}, len(fields))
		valuePtrs := make([]interface{}, len(fields))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan column row: %w", err)
		}

		// First field of SHOW COLUMNS is the column name.
		switch v := values[0].(type) {
		case []byte:
			columns = append(columns, string(v))
		case string:
			columns = append(columns, v)
		default:
			return nil, fmt.Errorf("unexpected column name type %T", values[0])
		}
	}
	return columns, rows.Err()
}

// FetchRows reads every row of a table in server fetch order. Values are
// returned positionally and untyped so they can be replayed verbatim on the
// destination.
func (c *Conn) FetchRows(table string) ([][]interface{}, error) {
	query := fmt.Sprintf("SELECT * FROM `%s`", table)
	rows, err := c.sess.QueryContext(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read column metadata: %w", err)
	}

	var data [][]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		data = append(data, values)
	}
	return data, rows.Err()
}

// InsertBatch writes one batch of rows into a table with a positional
// multi-row insert, committing before it returns. All rows must have
// columnCount values. The transaction runs on the pinned connection.
func (c *Conn) InsertBatch(table string, columnCount int, batch [][]interface{}) error {
	if len(batch) == 0 {
		return nil
	}

	placeholders := "(" + strings.TrimSuffix(strings.Repeat("?, ", columnCount), ", ") + ")"
	rowMarks := make([]string, len(batch))
	args := make([]interface{}, 0, len(batch)*columnCount)
	for i, row := range batch {
		rowMarks[i] = placeholders
		args = append(args, row...)
	}

	query := fmt.Sprintf("INSERT INTO `%s` VALUES %s", table, strings.Join(rowMarks, ", "))

	tx, err := c.sess.BeginTx(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if _, err := tx.Exec(query, args...); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch for %s: %w", table, err)
	}
	return nil
}
