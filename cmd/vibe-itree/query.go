package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-itree/internal/duckdb"
	"github.com/inodb/vibe-itree/internal/output"
	"github.com/inodb/vibe-itree/internal/query"
	"github.com/inodb/vibe-itree/internal/source"
)

func newQueryCmd() *cobra.Command {
	var (
		outputFile string
		dbPath     string
	)

	cmd := &cobra.Command{
		Use:   "query [options] <queries> <intervals>...",
		Short: "Find stored intervals overlapping each query",
		Long: `Load one or more interval files (BED-like TSV, optionally gzipped, or
DuckDB) and report every stored interval overlapping each query.

Queries use the same format: label, start, end and an optional query name.
Use '-' to read queries from stdin.`,
		Example: `  vibe-itree query queries.bed genes.bed
  vibe-itree query -f json -o hits.jsonl queries.bed genes.bed.gz
  vibe-itree query --db results.duckdb queries.bed genes.duckdb
  cut -f1-3 regions.bed | vibe-itree query - genes.bed`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args[0], args[1:], outputFile, dbPath)
		},
	}

	cmd.Flags().StringP("output-format", "f", "tab", "Output format: tab, json")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&dbPath, "db", "", "Also store hits in this DuckDB database")
	_ = viper.BindPFlag("query.output_format", cmd.Flags().Lookup("output-format"))

	return cmd
}

func runQuery(cmd *cobra.Command, queriesPath string, intervalPaths []string, outputFile, dbPath string) error {
	ctx := cmd.Context()
	outputFormat := viper.GetString("query.output_format")
	if err := checkFormat(outputFormat); err != nil {
		return err
	}

	s, err := newSession(ctx, intervalPaths)
	if err != nil {
		return err
	}
	defer s.close()

	parser, err := source.NewTSVParser(queriesPath)
	if err != nil {
		return err
	}
	defer parser.Close()

	out, closeOut, err := openOutput(outputFile, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeOut()

	var writer query.ResultWriter = output.NewTabWriter(out)
	if outputFormat == "json" {
		writer = output.NewJSONWriter(out)
	}

	var store *duckdb.Store
	if dbPath != "" {
		if store, err = s.openStore(dbPath); err != nil {
			return err
		}
		defer store.Close()
		writer = output.Tee(writer, duckdb.NewResultWriter(ctx, store))
	}

	runner := query.NewRunner(s.index)
	runner.SetWorkers(viper.GetInt("workers"))
	runner.SetLogger(s.logger)

	summary, err := runner.RunAll(ctx, parser, writer)
	if err != nil {
		return err
	}

	s.logger.Info("queries done",
		zap.Int("queries", summary.Queries),
		zap.Int("failed", summary.Failed),
		zap.Int("hits", summary.Hits))
	if store != nil {
		s.logStored(store, dbPath)
	}
	return s.close()
}
