package output

import (
	"bufio"
	"io"
	"slices"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/inodb/vibe-itree/internal/index"
	"github.com/inodb/vibe-itree/internal/interval"
)

// WriteBatch writes a batch result as tab-delimited rows ordered by bin.
// Each row is one bin with a comma-separated list of hit IDs (or names when
// the record has no ID) and the hit count.
func WriteBatch(w io.Writer, label string, result map[interval.Interval[int64]][]index.Hit) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("#Label\tStart\tEnd\tCount\tHits\n"); err != nil {
		return err
	}

	for _, bin := range SortedBins(result) {
		hits := result[bin]
		names := make([]string, 0, len(hits))
		for _, h := range hits {
			names = append(names, hitName(h))
		}
		list := "-"
		if len(names) > 0 {
			list = strings.Join(names, ",")
		}

		row := []string{
			label,
			strconv.FormatInt(bin.Start, 10),
			strconv.FormatInt(bin.End, 10),
			strconv.Itoa(len(hits)),
			list,
		}
		if _, err := bw.WriteString(strings.Join(row, "\t") + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// SortedBins returns the keys of a batch result ordered by (start, end).
func SortedBins[V any](result map[interval.Interval[int64]]V) []interval.Interval[int64] {
	bins := make([]interval.Interval[int64], 0, len(result))
	for bin := range result {
		bins = append(bins, bin)
	}
	slices.SortFunc(bins, interval.Interval[int64].Compare)
	return bins
}

func hitName(h index.Hit) string {
	switch {
	case h.Record.ID != "":
		return h.Record.ID
	case h.Record.Name != "":
		return h.Record.Name
	}
	return h.Interval.String()
}

type jsonBin struct {
	Start int64        `json:"start"`
	End   int64        `json:"end"`
	Count int          `json:"count"`
	Hits  []jsonRecord `json:"hits"`
}

type jsonBatch struct {
	Label string    `json:"label"`
	Bins  []jsonBin `json:"bins"`
}

// WriteBatchJSON writes a batch result as a single JSON document with bins
// ordered by (start, end).
func WriteBatchJSON(w io.Writer, label string, result map[interval.Interval[int64]][]index.Hit) error {
	doc := jsonBatch{Label: label, Bins: make([]jsonBin, 0, len(result))}
	for _, bin := range SortedBins(result) {
		hits := result[bin]
		jb := jsonBin{
			Start: bin.Start,
			End:   bin.End,
			Count: len(hits),
			Hits:  make([]jsonRecord, 0, len(hits)),
		}
		for _, h := range hits {
			jb.Hits = append(jb.Hits, toJSON(h.Record))
		}
		doc.Bins = append(doc.Bins, jb)
	}
	return json.NewEncoder(w).Encode(doc)
}
