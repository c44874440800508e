package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var (
		entity string
		limit  int
		asCSV  bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded import runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			if asCSV {
				return e.service.ExportHistory(ctx, cmd.OutOrStdout(), entity)
			}

			runs, err := e.service.History(ctx, entity, limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STARTED\tENTITY\tFILE\tPHASE\tWRITTEN\tSKIPPED\tOPERATOR\tMESSAGE")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
					r.StartedAt.Local().Format("2006-01-02 15:04:05"),
					r.Entity, r.FileName, r.Phase, r.Written, r.Skipped, r.Operator, r.Message)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&entity, "entity", "e", "", "Only runs for this entity")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to show (0 for all)")
	cmd.Flags().BoolVar(&asCSV, "csv", false, "Write every matching run as CSV")
	return cmd
}
