// Package output provides query result formatters.
package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-itree/internal/index"
)

// TabWriter writes query results in tab-delimited format, one row per hit.
// A query without hits gets a single row with "-" in the hit columns.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			"#Query",
			"Query_label",
			"Query_start",
			"Query_end",
			"ID",
			"Label",
			"Start",
			"End",
			"Name",
		},
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// Write writes every hit of a single query.
func (tw *TabWriter) Write(q *index.Record, hits []index.Hit) error {
	prefix := []string{
		orDash(q.ID),
		q.Label,
		strconv.FormatInt(q.Start, 10),
		strconv.FormatInt(q.End, 10),
	}

	if len(hits) == 0 {
		return tw.writeRow(append(prefix, "-", "-", "-", "-", "-"))
	}

	for _, h := range hits {
		row := append(prefix[:4:4],
			orDash(h.Record.ID),
			h.Record.Label,
			strconv.FormatInt(h.Interval.Start, 10),
			strconv.FormatInt(h.Interval.End, 10),
			orDash(h.Record.Name),
		)
		if err := tw.writeRow(row); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

func (tw *TabWriter) writeRow(values []string) error {
	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
