package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"zerosum/internal/common"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent reductions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runs, err := a.openHistory()
			if err != nil {
				return err
			}
			list, err := runs.ListRuns(limit)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(a.out, "no runs recorded")
				return nil
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "WHEN\tTITLE\tSOURCE\tMODEL\tTOKENS\tPASSES\tRESULT")
			for _, r := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d -> %d\t%d\t%s\n",
					r.CreatedAt.Local().Format(time.DateTime),
					common.TruncateStr(r.Title, 40),
					r.Source, r.Model,
					r.InitialTokens, r.FinalTokens, r.Iterations, r.Termination)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show (0 for all)")
	return cmd
}
