package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lawnchairsociety/mazewave/internal/database"
	"github.com/lawnchairsociety/mazewave/internal/logger"
	"github.com/lawnchairsociety/mazewave/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var noHistory bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve maze generation over WebSocket",
		Long: `Start the WebSocket generation service on server.address.
Clients connect to /ws and send {"width":W,"height":H,"seed":S,"trace":bool}.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(a, noHistory)
		},
	}

	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not store generated runs")
	return cmd
}

func runServe(a *app, noHistory bool) error {
	rules, err := loadRules(a.cfg.Generation.RulesFile)
	if err != nil {
		return err
	}

	var store server.RunStore
	if !noHistory {
		db, err := database.OpenWithConfig(a.cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		store = db
		logger.Info("Run history enabled", "driver", a.cfg.Database.Driver)
	}

	srv := server.NewServer(a.cfg, rules, store)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigChan:
		logger.Info("Shutting down server", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
