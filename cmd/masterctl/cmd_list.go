package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/masterconsole/internal/core"
	"github.com/JonMunkholm/masterconsole/internal/labels"
)

func newListCmd() *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "list <entity>",
		Short: "List an entity's documents in sort order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := lookupSchema(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			items, err := e.service.List(ctx, args[0], search)
			if err != nil {
				return err
			}

			catalog := labels.MustDefault()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for i, c := range sc.Columns {
				if i > 0 {
					fmt.Fprint(tw, "\t")
				}
				fmt.Fprint(tw, c.Title)
			}
			fmt.Fprintln(tw)
			for _, item := range items {
				for i, c := range sc.Columns {
					if i > 0 {
						fmt.Fprint(tw, "\t")
					}
					fmt.Fprint(tw, cell(catalog, sc, item, c))
				}
				fmt.Fprintln(tw)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "Keep documents whose code, name or search fields contain this text")
	return cmd
}

func cell(catalog *labels.Catalog, sc *core.Schema, item core.Item, c core.Column) string {
	if c.Path == "" {
		return labels.Plain(item.Name)
	}
	v, _ := core.Lookup(item.Doc, c.Path)
	return catalog.FormatField(sc.Collection, c.Path, v)
}

func newEntitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "entities",
		Short: "List the importable entities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tLABEL\tCOLLECTION\tLAYOUT\tACCOUNTS")
			for _, sc := range core.All() {
				info := sc.Info()
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%v\n", info.Key, info.Label, info.Collection, info.Layout, info.CreatesUsers)
			}
			return tw.Flush()
		},
	}
}
