package output

import (
	"bufio"
	"io"

	json "github.com/goccy/go-json"

	"github.com/inodb/vibe-itree/internal/index"
)

type jsonRecord struct {
	ID    string `json:"id,omitempty"`
	Label string `json:"label"`
	Start int64  `json:"start"`
	End   int64  `json:"end"`
	Name  string `json:"name,omitempty"`
}

type jsonResult struct {
	Query jsonRecord   `json:"query"`
	Hits  []jsonRecord `json:"hits"`
}

// JSONWriter writes one JSON object per query (JSON Lines).
type JSONWriter struct {
	w   *bufio.Writer
	enc *json.Encoder
}

// NewJSONWriter creates a new JSON Lines writer.
func NewJSONWriter(w io.Writer) *JSONWriter {
	bw := bufio.NewWriter(w)
	return &JSONWriter{w: bw, enc: json.NewEncoder(bw)}
}

// WriteHeader is a no-op; JSON Lines has no header.
func (jw *JSONWriter) WriteHeader() error {
	return nil
}

// Write writes a single query and its hits.
func (jw *JSONWriter) Write(q *index.Record, hits []index.Hit) error {
	res := jsonResult{
		Query: toJSON(q),
		Hits:  make([]jsonRecord, 0, len(hits)),
	}
	for _, h := range hits {
		res.Hits = append(res.Hits, toJSON(h.Record))
	}
	return jw.enc.Encode(res)
}

// Flush flushes any buffered data to the underlying writer.
func (jw *JSONWriter) Flush() error {
	return jw.w.Flush()
}

func toJSON(r *index.Record) jsonRecord {
	return jsonRecord{ID: r.ID, Label: r.Label, Start: r.Start, End: r.End, Name: r.Name}
}
