// Command mazewave generates box-drawing mazes with wave function collapse,
// serves them over WebSocket and keeps a history of generated runs.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lawnchairsociety/mazewave/internal/config"
	"github.com/lawnchairsociety/mazewave/internal/logger"
)

// app holds state shared by every subcommand once the root command has
// loaded the configuration.
type app struct {
	configPath string
	cfg        *config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "mazewave",
		Short: "Wave function collapse maze generator",
		Long: `Generate mazes of box-drawing tiles with wave function collapse.

Examples:
  mazewave generate --width 30 --height 12 --seed 42
  mazewave generate --rules my_rules.yaml --save
  mazewave rules --output rules.yaml
  mazewave serve --config mazewave.yaml
  mazewave history --limit 5
  mazewave migrate --sqlite data/mazewave.db
  mazewave request --url ws://localhost:8080/ws --seed 7`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "mazewave.yaml", "Path to config YAML file")

	rootCmd.AddCommand(
		newGenerateCmd(a),
		newRulesCmd(a),
		newServeCmd(a),
		newHistoryCmd(a),
		newMigrateCmd(a),
		newRequestCmd(a),
	)
	return rootCmd
}

// setup loads the config file and initializes logging from its logging block
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logConfig, err := logger.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if err := logger.Initialize(logConfig); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}
