package source

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-itree/internal/index"
)

// DuckDBLoader reads and writes interval records in a DuckDB "intervals" table.
type DuckDBLoader struct {
	db   *sql.DB
	path string
}

// NewDuckDBLoader opens or creates a DuckDB database.
// Use an empty string for an in-memory database.
func NewDuckDBLoader(path string) (*DuckDBLoader, error) {
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	return &DuckDBLoader{db: db, path: path}, nil
}

// OpenDuckDBLoader opens an existing database read-only. Unlike
// NewDuckDBLoader it fails when path does not exist instead of creating it.
func OpenDuckDBLoader(path string) (*DuckDBLoader, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open interval database: %w", err)
	}

	db, err := sql.Open("duckdb", path+"?access_mode=read_only")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	return &DuckDBLoader{db: db, path: path}, nil
}

// Close closes the database connection.
func (l *DuckDBLoader) Close() error {
	return l.db.Close()
}

// CreateSchema creates the intervals table.
func (l *DuckDBLoader) CreateSchema() error {
	_, err := l.db.Exec(`
		CREATE TABLE IF NOT EXISTS intervals (
			id VARCHAR,
			label VARCHAR,
			start BIGINT,
			end_ BIGINT,
			name VARCHAR
		);
		CREATE INDEX IF NOT EXISTS idx_intervals_pos ON intervals(label, start, end_);
	`)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// InsertRecords batch-inserts records using the Appender API.
func (l *DuckDBLoader) InsertRecords(ctx context.Context, records []*index.Record) error {
	if len(records) == 0 {
		return nil
	}

	conn, err := l.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "intervals")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, r := range records {
		if err := appender.AppendRow(r.ID, r.Label, r.Start, r.End, r.Name); err != nil {
			return fmt.Errorf("append record: %w", err)
		}
	}
	return appender.Flush()
}

// Each calls fn for every record, ordered by label and start.
func (l *DuckDBLoader) Each(ctx context.Context, fn func(*index.Record) error) error {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, label, start, end_, name
		FROM intervals
		ORDER BY label, start, end_
	`)
	if err != nil {
		return fmt.Errorf("query intervals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r        index.Record
			id, name sql.NullString
		)
		if err := rows.Scan(&id, &r.Label, &r.Start, &r.End, &name); err != nil {
			return fmt.Errorf("scan interval: %w", err)
		}
		r.ID = id.String
		r.Name = name.String
		if err := fn(&r); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Count returns the total number of rows in the intervals table.
func (l *DuckDBLoader) Count() (int, error) {
	var count int
	err := l.db.QueryRow("SELECT COUNT(*) FROM intervals").Scan(&count)
	return count, err
}

// Labels returns a sorted list of labels in the database.
func (l *DuckDBLoader) Labels() ([]string, error) {
	rows, err := l.db.Query("SELECT DISTINCT label FROM intervals ORDER BY label")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, err
		}
		labels = append(labels, label)
	}
	return labels, rows.Err()
}

// IsDuckDB checks if a path is a DuckDB database file.
func IsDuckDB(path string) bool {
	return strings.HasSuffix(path, ".duckdb") || strings.HasSuffix(path, ".db")
}
