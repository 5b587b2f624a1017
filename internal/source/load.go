package source

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/vibe-itree/internal/index"
	"github.com/inodb/vibe-itree/internal/interval"
)

// LoadOptions controls how records are added to an index.
type LoadOptions struct {
	// Strict makes an invalid range or duplicate ID fail the load instead of
	// being skipped with a warning.
	Strict bool
	Logger *zap.Logger
}

// FileSummary counts what a load did for one path.
type FileSummary struct {
	Path    string
	Loaded  int
	Skipped int
}

// Summary counts what a load did.
type Summary struct {
	Files   int
	Loaded  int
	Skipped int
	PerFile []FileSummary // same order as the paths given to LoadFiles
}

// sourceRecord is a parsed record and where it came from.
type sourceRecord struct {
	record *index.Record
	line   int
}

// LoadFiles loads every path into x. Paths ending in .duckdb or .db are read
// from their intervals table; anything else is parsed as TSV.
//
// Files are read concurrently but added to the index in path order, so when
// two files hold the same ID the record from the earlier path is kept and the
// later one is skipped as a duplicate.
func LoadFiles(ctx context.Context, x *index.Index, paths []string, opts LoadOptions) (Summary, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	summary := Summary{Files: len(paths)}

	parsed := make([][]sourceRecord, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			var (
				recs []sourceRecord
				err  error
			)
			if IsDuckDB(path) {
				recs, err = readDuckDB(gctx, path)
			} else {
				recs, err = readTSV(gctx, path)
			}
			if err != nil {
				return fmt.Errorf("load %s: %w", path, err)
			}
			parsed[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}

	for i, path := range paths {
		fs := FileSummary{Path: path}
		for _, sr := range parsed[i] {
			err := x.Add(sr.record)
			switch {
			case err == nil:
				fs.Loaded++
			case opts.Strict || !isRejected(err):
				return summary, fmt.Errorf("load %s: line %d: %w", path, sr.line, err)
			default:
				fs.Skipped++
				logger.Warn("skipping record",
					zap.String("path", path),
					zap.Int("line", sr.line),
					zap.String("id", sr.record.ID),
					zap.String("label", sr.record.Label),
					zap.Int64("start", sr.record.Start),
					zap.Int64("end", sr.record.End),
					zap.Error(err))
			}
		}
		parsed[i] = nil

		summary.Loaded += fs.Loaded
		summary.Skipped += fs.Skipped
		summary.PerFile = append(summary.PerFile, fs)
		logger.Info("loaded intervals",
			zap.String("path", path),
			zap.Int("loaded", fs.Loaded),
			zap.Int("skipped", fs.Skipped))
	}
	return summary, nil
}

func readTSV(ctx context.Context, path string) ([]sourceRecord, error) {
	p, err := NewTSVParser(path)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	var recs []sourceRecord
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := p.Next()
		if err != nil {
			return nil, err
		}
		if r == nil {
			return recs, nil
		}
		recs = append(recs, sourceRecord{record: r, line: p.LineNumber()})
	}
}

func readDuckDB(ctx context.Context, path string) ([]sourceRecord, error) {
	db, err := OpenDuckDBLoader(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var recs []sourceRecord
	err = db.Each(ctx, func(r *index.Record) error {
		recs = append(recs, sourceRecord{record: r, line: len(recs) + 1})
		return nil
	})
	return recs, err
}

func isRejected(err error) bool {
	return errors.Is(err, interval.ErrInvalidRange) || errors.Is(err, index.ErrDuplicateID)
}
