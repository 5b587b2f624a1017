package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-itree/internal/duckdb"
	"github.com/inodb/vibe-itree/internal/output"
)

func newBatchCmd() *cobra.Command {
	var (
		label       string
		breakpoints []int64
		step        int64
		outputFile  string
		dbPath      string
	)

	cmd := &cobra.Command{
		Use:   "batch [options] <intervals>...",
		Short: "Report overlaps for adjacent bins between breakpoints",
		Long: `Split a label into adjacent bins [b0,b1), [b1,b2), ... and report the
intervals overlapping each bin. Each distinct bin is searched once; pairs that
do not form a valid bin (b[i] >= b[i+1]) are skipped.

Breakpoints are given explicitly with --breakpoints, or generated with --step
across the span of the label.`,
		Example: `  vibe-itree batch --label chr1 --breakpoints 0,1000,2000,5000 genes.bed
  vibe-itree batch --label chr1 --step 1000000 genes.bed
  vibe-itree batch -f json --label chr1 --step 1000000 genes.duckdb`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if label == "" {
				return fmt.Errorf("--label is required")
			}
			if len(breakpoints) == 0 && step <= 0 {
				return fmt.Errorf("one of --breakpoints or --step is required")
			}
			format := viper.GetString("batch.output_format")
			if err := checkFormat(format); err != nil {
				return err
			}

			s, err := newSession(cmd.Context(), args)
			if err != nil {
				return err
			}
			defer s.close()

			if len(breakpoints) == 0 {
				breakpoints = stepBreakpoints(s, label, step)
			}

			result := s.index.BatchFind(label, breakpoints)
			s.logger.Info("batch done",
				zap.String("label", label),
				zap.Int("breakpoints", len(breakpoints)),
				zap.Int("bins", len(result)))

			out, closeOut, err := openOutput(outputFile, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer closeOut()

			write := output.WriteBatch
			if format == "json" {
				write = output.WriteBatchJSON
			}
			if err := write(out, label, result); err != nil {
				return fmt.Errorf("write batch: %w", err)
			}

			if dbPath != "" {
				store, err := s.openStore(dbPath)
				if err != nil {
					return err
				}
				defer store.Close()
				if err := store.WriteResults(cmd.Context(), duckdb.ResultsFromBatch(label, result)); err != nil {
					return err
				}
				s.logStored(store, dbPath)
			}
			return s.close()
		},
	}

	cmd.Flags().StringVarP(&label, "label", "l", "", "Label to query (e.g. chr1)")
	cmd.Flags().Int64SliceVarP(&breakpoints, "breakpoints", "b", nil, "Ascending breakpoints, comma separated")
	cmd.Flags().Int64Var(&step, "step", 0, "Generate breakpoints every N positions across the label")
	cmd.Flags().StringP("output-format", "f", "tab", "Output format: tab, json")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&dbPath, "db", "", "Also store hits in this DuckDB database")
	_ = viper.BindPFlag("batch.output_format", cmd.Flags().Lookup("output-format"))

	return cmd
}

// stepBreakpoints covers the label's span with bins of width step.
func stepBreakpoints(s *session, label string, step int64) []int64 {
	for _, st := range s.index.Stats() {
		if st.Label != label {
			continue
		}
		var bps []int64
		for b := st.Span.Start; b < st.Span.End; b += step {
			bps = append(bps, b)
		}
		return append(bps, st.Span.End)
	}
	return nil
}
