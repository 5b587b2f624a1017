package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/inodb/vibe-itree/internal/duckdb"
	"github.com/inodb/vibe-itree/internal/index"
	"github.com/inodb/vibe-itree/internal/interval"
	"github.com/inodb/vibe-itree/internal/output"
)

func newResultsCmd() *cobra.Command {
	var (
		label       string
		start, end  int64
		clearAll    bool
		listSources bool
	)

	cmd := &cobra.Command{
		Use:   "results [options] <results.duckdb>",
		Short: "Inspect hits stored by query or batch --db",
		Long: `Inspect a results database written with --db.

Without options the number of stored hits is printed. --label, --start and
--end look up the stored hits of one query; --sources lists the interval files
the results were computed from; --clear removes every stored hit.`,
		Example: `  vibe-itree results results.duckdb
  vibe-itree results --label chr1 --start 1000 --end 2000 results.duckdb
  vibe-itree results --sources results.duckdb
  vibe-itree results --clear results.duckdb`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := duckdb.OpenExisting(args[0])
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			switch {
			case clearAll:
				return clearResults(out, store)
			case listSources:
				return printSources(out, store)
			case label != "":
				q, err := interval.New(start, end)
				if err != nil {
					return fmt.Errorf("--start/--end: %w", err)
				}
				return lookupResults(out, store, label, q)
			}

			n, err := store.ResultCount()
			if err != nil {
				return fmt.Errorf("count results: %w", err)
			}
			fmt.Fprintf(out, "%s stored hits\n", humanize.Comma(int64(n)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&label, "label", "l", "", "Query label to look up")
	cmd.Flags().Int64Var(&start, "start", 0, "Query start")
	cmd.Flags().Int64Var(&end, "end", 0, "Query end")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Remove all stored hits")
	cmd.Flags().BoolVar(&listSources, "sources", false, "List the interval files behind the results")
	cmd.MarkFlagsMutuallyExclusive("clear", "sources", "label")
	cmd.MarkFlagsRequiredTogether("label", "start", "end")

	return cmd
}

func clearResults(w io.Writer, store *duckdb.Store) error {
	n, err := store.ResultCount()
	if err != nil {
		return fmt.Errorf("count results: %w", err)
	}
	if err := store.ClearResults(); err != nil {
		return fmt.Errorf("clear results: %w", err)
	}
	fmt.Fprintf(w, "Removed %s stored hits\n", humanize.Comma(int64(n)))
	return nil
}

func printSources(w io.Writer, store *duckdb.Store) error {
	sources, err := store.Sources()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tRECORDS\tSIZE\tMODIFIED")
	for _, src := range sources {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			src.Path, humanize.Comma(int64(src.Records)),
			humanize.Bytes(uint64(src.Size)), humanize.Time(src.ModTime))
	}
	return tw.Flush()
}

func lookupResults(w io.Writer, store *duckdb.Store, label string, q interval.Interval[int64]) error {
	hits, err := store.LookupQuery(label, q)
	if err != nil {
		return err
	}
	tab := output.NewTabWriter(w)
	if err := tab.WriteHeader(); err != nil {
		return err
	}
	if err := tab.Write(&index.Record{Label: label, Start: q.Start, End: q.End}, hits); err != nil {
		return err
	}
	return tab.Flush()
}
