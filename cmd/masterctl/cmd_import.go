package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/masterconsole/internal/core"
)

type importOptions struct {
	operator string
	quiet    bool
	dryRun   bool
	limit    int
}

func newImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <entity> <file>",
		Short: "Import one CSV file into an entity's collection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], args[1], opts)
		},
	}
	cmd.Flags().StringVar(&opts.operator, "operator", defaultOperator(), "Operator recorded in the import history")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Print only the final message")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Parse the file and print the documents it would write")
	cmd.Flags().IntVar(&opts.limit, "limit", 10, "Documents to print with --dry-run (0 for all)")
	return cmd
}

func runImport(cmd *cobra.Command, entity, path string, opts importOptions) error {
	sc, err := lookupSchema(entity)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if opts.dryRun {
		return runPreview(cmd, sc, f, opts.limit)
	}

	ctx := cmd.Context()
	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx = core.ContextWithOperator(ctx, opts.operator)
	ctx = core.ContextWithUserAgent(ctx, "masterctl")

	out := cmd.OutOrStdout()
	last := -1
	res, err := e.service.RunImport(ctx, entity, filepath.Base(path), f, func(p core.Progress) {
		if opts.quiet || p.Phase != core.PhaseImporting {
			return
		}
		// One line per 10% step.
		if pct := p.Percent() / 10; pct != last {
			last = pct
			fmt.Fprintf(out, "%3d%% %d/%d\n", p.Percent(), p.Processed, p.Total)
		}
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(out, res.Message)
	if !opts.quiet {
		fmt.Fprintf(out, "run %s: written %d, skipped %d, took %s\n",
			res.RunID, res.Written, res.Skipped, res.Duration.Round(time.Millisecond))
	}
	if res.Failed() {
		return fmt.Errorf("import failed: %s", res.Error)
	}
	return nil
}

func defaultOperator() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "masterctl"
}

// runPreview prints the first documents of r as JSON lines, then a summary.
func runPreview(cmd *cobra.Command, sc *core.Schema, r io.Reader, limit int) error {
	recs, skipped, err := core.Preview(sc, r, limit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	for _, rec := range recs {
		if err := enc.Encode(map[string]any{"key": rec.Key, "doc": rec.Doc}); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "dry run: %d shown, %d skipped, nothing written to %s\n", len(recs), skipped, sc.Collection)
	return nil
}
