package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-itree/internal/duckdb"
	"github.com/inodb/vibe-itree/internal/index"
	"github.com/inodb/vibe-itree/internal/metrics"
	"github.com/inodb/vibe-itree/internal/source"
)

// session is what every query-style command sets up: a logger, a loaded
// index and its metrics.
type session struct {
	logger  *zap.Logger
	index   *index.Index
	metrics *metrics.Metrics
	loaded  []source.FileSummary
	closed  bool
}

func newSession(ctx context.Context, paths []string) (*session, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	s := &session{
		logger:  logger,
		index:   index.New(),
		metrics: metrics.New(),
	}
	s.index.SetLogger(logger)
	s.index.SetMetrics(s.metrics)

	summary, err := source.LoadFiles(ctx, s.index, paths, source.LoadOptions{
		Strict: viper.GetBool("strict"),
		Logger: logger,
	})
	if err != nil {
		logger.Sync()
		return nil, err
	}
	s.loaded = summary.PerFile

	logger.Info("index ready",
		zap.Int("files", summary.Files),
		zap.String("records", humanize.Comma(int64(summary.Loaded))),
		zap.Int("skipped", summary.Skipped),
		zap.Strings("labels", s.index.Labels()))
	return s, nil
}

// close writes metrics if requested and flushes the logger. Only the first
// call does anything.
func (s *session) close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	defer s.logger.Sync()

	if path := viper.GetString("metrics_out"); path != "" {
		if err := s.metrics.WriteFile(path); err != nil {
			return err
		}
		s.logger.Info("wrote metrics", zap.String("path", path))
	}
	return nil
}

// openStore opens the results database and records each input file with
// the number of records it contributed.
func (s *session) openStore(path string) (*duckdb.Store, error) {
	store, err := duckdb.Open(path)
	if err != nil {
		return nil, err
	}
	for _, fs := range s.loaded {
		fp, err := duckdb.StatFile(fs.Path)
		if err != nil {
			s.logger.Warn("cannot stat source", zap.String("path", fs.Path), zap.Error(err))
			continue
		}
		if err := store.RecordSource(fp, fs.Loaded); err != nil {
			store.Close()
			return nil, err
		}
	}
	return store, nil
}

// logStored reports how many result rows the database now holds.
func (s *session) logStored(store *duckdb.Store, path string) {
	n, err := store.ResultCount()
	if err != nil {
		s.logger.Warn("cannot count stored results", zap.String("db", path), zap.Error(err))
		return
	}
	s.logger.Info("stored results", zap.String("db", path), zap.String("rows", humanize.Comma(int64(n))))
}

// openOutput returns stdout (through w) when path is empty, otherwise a new
// file. The returned func closes the file.
func openOutput(path string, w io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return w, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return f, f.Close, nil
}
