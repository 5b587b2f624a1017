package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <intervals>...",
		Short: "Show record counts and tree shape per label",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd.Context(), args)
			if err != nil {
				return err
			}
			defer s.close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "LABEL\tRECORDS\tHEIGHT\tBALANCED\tSPAN")
			total := 0
			for _, st := range s.index.Stats() {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%t\t%s\n",
					st.Label, humanize.Comma(int64(st.Count)), st.Height, st.Balanced, st.Span)
				total += st.Count
			}
			fmt.Fprintf(tw, "total\t%s\t\t\t\n", humanize.Comma(int64(total)))
			if err := tw.Flush(); err != nil {
				return err
			}
			return s.close()
		},
	}
}
