package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/lawnchairsociety/mazewave/internal/database"
	"github.com/lawnchairsociety/mazewave/internal/logger"
	"github.com/lawnchairsociety/mazewave/internal/maze"
	"github.com/lawnchairsociety/mazewave/internal/wfc"
)

type generateOptions struct {
	width      int
	height     int
	seed       int64
	attempts   int
	rulesFile  string
	outputFile string
	save       bool
	trace      bool
}

func newGenerateCmd(a *app) *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a maze and print it",
		Long: `Generate one maze and print it to stdout.

Flags left unset fall back to the generation block of the config file.

Examples:
  mazewave generate --width 30 --height 12
  mazewave generate --seed 42 --output maze.yaml
  mazewave generate --rules my_rules.yaml --attempts 50 --save`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.applyDefaults(cmd, a)
			return runGenerate(cmd.OutOrStdout(), a, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.width, "width", "W", 0, "Maze width in cells")
	cmd.Flags().IntVarP(&opts.height, "height", "H", 0, "Maze height in cells")
	cmd.Flags().Int64VarP(&opts.seed, "seed", "s", 0, "Random seed (0 derives one from the clock)")
	cmd.Flags().IntVarP(&opts.attempts, "attempts", "a", 0, "Fresh waves to try before giving up")
	cmd.Flags().StringVarP(&opts.rulesFile, "rules", "r", "", "YAML rule file replacing the default maze rules")
	cmd.Flags().StringVarP(&opts.outputFile, "output", "o", "", "Write the run as YAML to this file")
	cmd.Flags().BoolVar(&opts.save, "save", false, "Store the run in the database")
	cmd.Flags().BoolVar(&opts.trace, "trace", false, "Log every cell assignment at DEBUG level")

	return cmd
}

// applyDefaults fills flags the user did not set from the config file
func (o *generateOptions) applyDefaults(cmd *cobra.Command, a *app) {
	gen := a.cfg.Generation
	flags := cmd.Flags()
	if !flags.Changed("width") {
		o.width = gen.Width
	}
	if !flags.Changed("height") {
		o.height = gen.Height
	}
	if !flags.Changed("seed") {
		o.seed = gen.Seed
	}
	if !flags.Changed("attempts") {
		o.attempts = gen.MaxAttempts
	}
	if !flags.Changed("rules") {
		o.rulesFile = gen.RulesFile
	}
}

// loadRules returns the rules in path, or the default maze rules when path
// is empty.
func loadRules(path string) (*wfc.RuleSet[maze.Tile], error) {
	if path == "" {
		return maze.DefaultRules(), nil
	}
	rules, err := maze.LoadRules(path)
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded rule file", "path", path, "rules", rules.Len())
	return rules, nil
}

func runGenerate(out io.Writer, a *app, opts *generateOptions) error {
	if opts.width <= 0 || opts.height <= 0 {
		return fmt.Errorf("width and height must be positive, got %dx%d", opts.width, opts.height)
	}

	rules, err := loadRules(opts.rulesFile)
	if err != nil {
		return err
	}

	gen := wfc.NewGenerator(&wfc.GeneratorConfig{
		Width:       opts.width,
		Height:      opts.height,
		Seed:        opts.seed,
		MaxAttempts: opts.attempts,
	}, rules)

	if opts.trace {
		gen.Observe(func(attempt int, step wfc.Step[maze.Tile]) {
			logger.Debug("Cell collapsed",
				"attempt", attempt,
				"x", step.X,
				"y", step.Y,
				"tile", step.Tile.String(),
				"collapsed", step.Collapsed,
				"total", step.Total)
		})
	}
	gen.OnFailure(func(attempt int, seed int64, err error) {
		logger.Warning("Generation attempt failed", "attempt", attempt, "seed", seed, "error", err)
	})

	start := time.Now()
	result, genErr := gen.Generate()

	run := &database.Run{
		Seed:     gen.Config().Seed,
		Width:    opts.width,
		Height:   opts.height,
		Attempts: gen.Config().MaxAttempts,
		Source:   "cli",
	}
	if genErr != nil {
		run.Error = genErr.Error()
	} else {
		run.OK = true
		run.Seed = result.Seed
		run.Attempts = result.Attempts
		run.Grid = result.Wave.String()
		run.Fingerprint = database.Fingerprint(run.Grid)
	}

	logger.Info("Generation finished",
		"width", opts.width,
		"height", opts.height,
		"ok", run.OK,
		"seed", run.Seed,
		"attempts", run.Attempts,
		"duration", time.Since(start))

	if opts.save {
		if err := saveRun(a, run); err != nil {
			return err
		}
	}

	if genErr != nil {
		return genErr
	}

	if opts.outputFile != "" {
		if err := writeRunFile(opts.outputFile, run, result.Wave); err != nil {
			return err
		}
		logger.Info("Run written", "path", opts.outputFile)
	}

	return result.Wave.Render(out)
}

// saveRun stores run in the configured database
func saveRun(a *app, run *database.Run) error {
	db, err := database.OpenWithConfig(a.cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.SaveRun(run); err != nil {
		return err
	}
	logger.Info("Run saved", "id", run.ID, "fingerprint", run.Fingerprint)
	return nil
}
