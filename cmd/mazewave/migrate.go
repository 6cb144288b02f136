package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lawnchairsociety/mazewave/internal/database"
	"github.com/lawnchairsociety/mazewave/internal/logger"
)

type migrateOptions struct {
	sqlitePath string
	target     string
	dryRun     bool
}

func newMigrateCmd(a *app) *cobra.Command {
	opts := &migrateOptions{}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy stored runs from a SQLite file into the configured database",
		Long: `Copy every stored maze and run from a SQLite file into the database
named by the config file (usually PostgreSQL). Run IDs are kept and rows
already present are skipped, so the command can be repeated.

Examples:
  mazewave migrate --config postgres.yaml --sqlite data/mazewave.db
  mazewave migrate --sqlite old.db --to-sqlite new.db --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, a, opts)
		},
	}

	cmd.Flags().StringVar(&opts.sqlitePath, "sqlite", "data/mazewave.db", "SQLite file to copy from")
	cmd.Flags().StringVar(&opts.target, "to-sqlite", "", "Copy into this SQLite file instead of the configured database")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Count what would be copied without writing")
	return cmd
}

func runMigrate(cmd *cobra.Command, a *app, opts *migrateOptions) error {
	dstConfig := a.cfg.Database
	if opts.target != "" {
		dstConfig = database.DefaultConfig(opts.target)
	}
	if dstConfig.Driver == string(database.DialectSQLite) && dstConfig.SQLitePath == opts.sqlitePath {
		return fmt.Errorf("source and destination are the same file: %s", opts.sqlitePath)
	}

	src, err := database.Open(opts.sqlitePath)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer src.Close()

	dst, err := database.OpenWithConfig(dstConfig)
	if err != nil {
		return fmt.Errorf("failed to open destination: %w", err)
	}
	defer dst.Close()

	logger.Info("Copying runs", "from", opts.sqlitePath, "to", dstConfig.Driver, "dry_run", opts.dryRun)
	stats, err := database.CopyRuns(src, dst, opts.dryRun)
	if err != nil {
		return err
	}

	verb := "Copied"
	if opts.dryRun {
		verb = "Would copy"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %d mazes and %d runs.\n", verb, stats.Mazes, stats.Runs)
	return nil
}
