package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/mazewave/internal/database"
	"github.com/lawnchairsociety/mazewave/internal/maze"
	"github.com/lawnchairsociety/mazewave/internal/wfc"
)

// RunYAML represents a generated maze in YAML format
type RunYAML struct {
	Seed        int64      `yaml:"seed"`
	Width       int        `yaml:"width"`
	Height      int        `yaml:"height"`
	Attempts    int        `yaml:"attempts"`
	Fingerprint string     `yaml:"fingerprint"`
	GeneratedAt time.Time  `yaml:"generated_at"`
	Rows        []string   `yaml:"rows"`
	Tiles       [][]string `yaml:"tiles"`
}

// newRunYAML converts a run and its collapsed wave to the export format
func newRunYAML(run *database.Run, wave *wfc.Wave[maze.Tile]) *RunYAML {
	out := &RunYAML{
		Seed:        run.Seed,
		Width:       run.Width,
		Height:      run.Height,
		Attempts:    run.Attempts,
		Fingerprint: run.Fingerprint,
		GeneratedAt: time.Now().UTC().Truncate(time.Second),
		Rows:        strings.Split(strings.TrimSuffix(run.Grid, "\n"), "\n"),
	}

	for _, row := range wave.Rows() {
		names := make([]string, len(row))
		for x, cell := range row {
			names[x] = cell.Tile.String()
		}
		out.Tiles = append(out.Tiles, names)
	}
	return out
}

// writeRunFile writes the run as YAML, creating the parent directory
func writeRunFile(path string, run *database.Run, wave *wfc.Wave[maze.Tile]) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	data, err := yaml.Marshal(newRunYAML(run, wave))
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	header := fmt.Sprintf("# Maze %dx%d (seed %d)\n", run.Width, run.Height, run.Seed)
	if err := os.WriteFile(path, append([]byte(header), data...), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
