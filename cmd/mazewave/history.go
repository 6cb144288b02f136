package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lawnchairsociety/mazewave/internal/database"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit int
		show  int64
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored runs",
		Long: `List the most recent stored runs, or print one run with its maze.

Examples:
  mazewave history --limit 5
  mazewave history --show 12`,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.OpenWithConfig(a.cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if show > 0 {
				return showRun(cmd.OutOrStdout(), db, show)
			}
			return listRuns(cmd.OutOrStdout(), db, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", database.DefaultListLimit, "Number of runs to list")
	cmd.Flags().Int64Var(&show, "show", 0, "Print the run with this ID")
	return cmd
}

func listRuns(out io.Writer, db *database.Database, limit int) error {
	runs, err := db.ListRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs stored.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSIZE\tSEED\tATTEMPTS\tRESULT\tSOURCE\tFINGERPRINT")
	for _, r := range runs {
		result := "ok"
		if !r.OK {
			result = "failed"
		}
		fmt.Fprintf(tw, "%d\t%dx%d\t%d\t%d\t%s\t%s\t%s\n",
			r.ID, r.Width, r.Height, r.Seed, r.Attempts, result, r.Source, shortFingerprint(r.Fingerprint))
	}
	return tw.Flush()
}

func showRun(out io.Writer, db *database.Database, id int64) error {
	run, err := db.GetRun(id)
	if err != nil {
		return fmt.Errorf("run %d: %w", id, err)
	}

	fmt.Fprintf(out, "Run %d (%s, %s)\n", run.ID, run.Source, run.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "  Size:     %dx%d\n", run.Width, run.Height)
	fmt.Fprintf(out, "  Seed:     %d\n", run.Seed)
	fmt.Fprintf(out, "  Attempts: %d\n", run.Attempts)
	if !run.OK {
		fmt.Fprintf(out, "  Error:    %s\n", run.Error)
		return nil
	}

	fmt.Fprintf(out, "  Fingerprint: %s\n", run.Fingerprint)
	if others, err := db.FindRunsByFingerprint(run.Fingerprint); err == nil && len(others) > 1 {
		fmt.Fprintf(out, "  Same maze as %d other run(s)\n", len(others)-1)
	}
	fmt.Fprintln(out)
	_, err = io.WriteString(out, run.Grid)
	return err
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
