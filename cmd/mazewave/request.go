package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/lawnchairsociety/mazewave/internal/client"
	"github.com/lawnchairsociety/mazewave/internal/logger"
	"github.com/lawnchairsociety/mazewave/internal/server"
)

type requestOptions struct {
	url     string
	req     server.Request
	timeout time.Duration
}

func newRequestCmd(a *app) *cobra.Command {
	opts := &requestOptions{}

	cmd := &cobra.Command{
		Use:   "request",
		Short: "Ask a running mazewave service for a maze",
		Long: `Connect to a mazewave service, send one generation request and print
the maze it returns.

Examples:
  mazewave request --url ws://localhost:8080/ws --width 20 --height 8
  mazewave request --seed 42 --trace`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.url, "url", "ws://localhost:8080/ws", "Service WebSocket URL")
	cmd.Flags().IntVarP(&opts.req.Width, "width", "W", 20, "Maze width in cells")
	cmd.Flags().IntVarP(&opts.req.Height, "height", "H", 8, "Maze height in cells")
	cmd.Flags().Int64VarP(&opts.req.Seed, "seed", "s", 0, "Random seed (0 lets the server pick)")
	cmd.Flags().BoolVar(&opts.req.Trace, "trace", false, "Log every cell assignment at DEBUG level")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Give up after this long")
	return cmd
}

func runRequest(ctx context.Context, out io.Writer, opts *requestOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	c, err := client.Dial(ctx, opts.url, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	res, err := c.Generate(ctx, opts.req, func(s server.StepMessage) {
		logger.Debug("Cell collapsed", "attempt", s.Attempt, "x", s.X, "y", s.Y, "tile", s.Tile,
			"collapsed", s.Collapsed, "total", s.Total)
	})
	if err != nil {
		return err
	}
	if !res.OK {
		return fmt.Errorf("generation failed after %d attempts (seed %d): %s", res.Attempts, res.Seed, res.Error)
	}

	logger.Info("Maze received", "seed", res.Seed, "attempts", res.Attempts, "run_id", res.RunID)
	_, err = io.WriteString(out, res.Grid)
	return err
}
