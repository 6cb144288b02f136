package main

import (
	"github.com/spf13/cobra"

	"github.com/lawnchairsociety/mazewave/internal/logger"
	"github.com/lawnchairsociety/mazewave/internal/maze"
)

func newRulesCmd(a *app) *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Write the default maze rule table as YAML",
		Long: `Write the default maze adjacency rules in the format accepted by
"generate --rules". Edit the file to forbid or allow tile pairs.

Examples:
  mazewave rules > rules.yaml
  mazewave rules --output data/rules.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rules := maze.DefaultRules()
			if outputFile == "" {
				return maze.WriteRules(cmd.OutOrStdout(), rules)
			}
			if err := maze.SaveRules(outputFile, rules); err != nil {
				return err
			}
			logger.Info("Rule table written", "path", outputFile, "rules", rules.Len())
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default stdout)")
	return cmd
}
