package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-itree/internal/index"
	"github.com/inodb/vibe-itree/internal/interval"
	"github.com/inodb/vibe-itree/internal/source"
)

// convertBatch is the number of records appended per DuckDB round trip.
const convertBatch = 50000

func newConvertCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "convert -o <out.duckdb> <intervals.tsv>...",
		Short: "Convert interval TSV files to a DuckDB table",
		Long: `Read BED-like interval files and write them to the "intervals" table of a
DuckDB database. The database can then be passed to query, batch and stats
in place of the TSV files.`,
		Example: `  vibe-itree convert -o genes.duckdb genes.bed.gz
  vibe-itree convert -o all.duckdb genes.bed exons.bed`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputPath == "" {
				return fmt.Errorf("--output is required")
			}
			logger, err := newLogger()
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			defer logger.Sync()

			loader, err := source.NewDuckDBLoader(outputPath)
			if err != nil {
				return err
			}
			defer loader.Close()
			if err := loader.CreateSchema(); err != nil {
				return err
			}

			total := 0
			for _, path := range args {
				n, err := convertFile(cmd.Context(), loader, path, viper.GetBool("strict"), logger)
				if err != nil {
					return fmt.Errorf("convert %s: %w", path, err)
				}
				total += n
			}

			rows, err := loader.Count()
			if err != nil {
				return fmt.Errorf("count intervals: %w", err)
			}
			labels, err := loader.Labels()
			if err != nil {
				return fmt.Errorf("list labels: %w", err)
			}

			size := "?"
			if fi, err := os.Stat(outputPath); err == nil {
				size = humanize.Bytes(uint64(fi.Size()))
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %s records to %s (%s)\n",
				humanize.Comma(int64(total)), outputPath, size)
			fmt.Fprintf(out, "Table intervals now holds %s rows in %d labels: %s\n",
				humanize.Comma(int64(rows)), len(labels), strings.Join(labels, ", "))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output DuckDB database")
	return cmd
}

// convertFile appends the valid records of one TSV file and returns how many
// were written.
func convertFile(ctx context.Context, loader *source.DuckDBLoader, path string, strict bool, logger *zap.Logger) (int, error) {
	parser, err := source.NewTSVParser(path)
	if err != nil {
		return 0, err
	}
	defer parser.Close()

	written := 0
	batch := make([]*index.Record, 0, convertBatch)
	flush := func() error {
		if err := loader.InsertRecords(ctx, batch); err != nil {
			return err
		}
		written += len(batch)
		batch = batch[:0]
		return nil
	}

	for {
		r, err := parser.Next()
		if err != nil {
			return written, err
		}
		if r == nil {
			break
		}
		if _, err := r.Interval(); err != nil {
			if strict || !errors.Is(err, interval.ErrInvalidRange) {
				return written, fmt.Errorf("line %d: %w", parser.LineNumber(), err)
			}
			logger.Warn("skipping record",
				zap.String("path", path),
				zap.Int("line", parser.LineNumber()),
				zap.Error(err))
			continue
		}
		batch = append(batch, r)
		if len(batch) == convertBatch {
			if err := flush(); err != nil {
				return written, err
			}
		}
	}
	return written, flush()
}
