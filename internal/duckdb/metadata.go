package duckdb

import (
	"fmt"
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// RecordSource notes which input file the stored results came from,
// replacing any earlier entry for the same path.
func (s *Store) RecordSource(fp FileFingerprint, records int) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO sources (path, size, mod_time, records) VALUES (?, ?, ?, ?)`,
		fp.Path, fp.Size, fp.ModTime.UTC(), records)
	if err != nil {
		return fmt.Errorf("record source: %w", err)
	}
	return nil
}

// Source is a recorded input file and the number of records it contributed.
type Source struct {
	FileFingerprint
	Records int
}

// Sources returns the recorded input files ordered by path.
func (s *Store) Sources() ([]Source, error) {
	rows, err := s.db.Query("SELECT path, size, mod_time, records FROM sources ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	var out []Source
	for rows.Next() {
		var src Source
		if err := rows.Scan(&src.Path, &src.Size, &src.ModTime, &src.Records); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		out = append(out, src)
	}
	return out, rows.Err()
}
