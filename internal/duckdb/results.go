package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-itree/internal/index"
	"github.com/inodb/vibe-itree/internal/interval"
)

// Result is one hit of one query.
type Result struct {
	Label string
	Query interval.Interval[int64]
	Hit   index.Hit
}

// ResultsFromBatch flattens a batch result for label into rows. Bins without
// hits produce no rows.
func ResultsFromBatch(label string, batch map[interval.Interval[int64]][]index.Hit) []Result {
	var results []Result
	for q, hits := range batch {
		for _, h := range hits {
			results = append(results, Result{Label: label, Query: q, Hit: h})
		}
	}
	return results
}

// WriteResults batch-inserts results into DuckDB using the Appender API.
func (s *Store) WriteResults(ctx context.Context, results []Result) error {
	if len(results) == 0 {
		return nil
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "query_results")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, r := range results {
		rec := r.Hit.Record
		if err := appender.AppendRow(
			r.Label, r.Query.Start, r.Query.End,
			rec.ID, rec.Label, r.Hit.Interval.Start, r.Hit.Interval.End, rec.Name,
		); err != nil {
			return fmt.Errorf("append result: %w", err)
		}
	}

	return appender.Flush()
}

// ClearResults removes all stored query results.
func (s *Store) ClearResults() error {
	_, err := s.db.Exec("DELETE FROM query_results")
	return err
}

// LookupQuery returns the stored hits of one query, ordered by start.
func (s *Store) LookupQuery(label string, q interval.Interval[int64]) ([]index.Hit, error) {
	rows, err := s.db.Query(`SELECT id, label, start, end_, name
		FROM query_results
		WHERE query_label=? AND query_start=? AND query_end=?
		ORDER BY start, end_, id`,
		label, q.Start, q.End)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var hits []index.Hit
	for rows.Next() {
		var r index.Record
		if err := rows.Scan(&r.ID, &r.Label, &r.Start, &r.End, &r.Name); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		iv, err := r.Interval()
		if err != nil {
			return nil, fmt.Errorf("stored result %s: %w", r.ID, err)
		}
		hits = append(hits, index.Hit{Interval: iv, Record: &r})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return hits, nil
}

// ResultCount returns the number of stored result rows.
func (s *Store) ResultCount() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM query_results").Scan(&count)
	return count, err
}
