package main

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/mazewave/internal/config"
	"github.com/lawnchairsociety/mazewave/internal/maze"
	"github.com/lawnchairsociety/mazewave/internal/server"
	"github.com/lawnchairsociety/mazewave/internal/wfc"
)

// writeTestConfig writes a config file whose database lives in dir
func writeTestConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "mazewave.yaml")
	content := `generation:
  width: 6
  height: 2
  max_attempts: 10
database:
  driver: sqlite
  sqlite_path: ` + filepath.Join(dir, "runs.db") + `
logging:
  level: ERROR
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs the CLI with args and returns what it wrote to stdout
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func gridLines(out string) []string {
	return strings.Split(strings.TrimSuffix(out, "\n"), "\n")
}

func TestGenerateUsesConfigDefaults(t *testing.T) {
	cfgPath := writeTestConfig(t, t.TempDir())

	out, err := execute(t, "--config", cfgPath, "generate", "--seed", "7")
	require.NoError(t, err)

	lines := gridLines(out)
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.Len(t, []rune(line), 6)
		assert.NotContains(t, line, string(wfc.Placeholder))
	}
}

func TestGenerateIsReproducible(t *testing.T) {
	cfgPath := writeTestConfig(t, t.TempDir())

	first, err := execute(t, "--config", cfgPath, "generate", "-W", "9", "-H", "1", "--seed", "123")
	require.NoError(t, err)
	second, err := execute(t, "--config", cfgPath, "generate", "-W", "9", "-H", "1", "--seed", "123")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, []rune(strings.TrimSuffix(first, "\n")), 9)
}

func TestGenerateRejectsBadSize(t *testing.T) {
	cfgPath := writeTestConfig(t, t.TempDir())

	_, err := execute(t, "--config", cfgPath, "generate", "--width", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "width and height must be positive")
}

func TestGenerateWritesOutputFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, dir)
	outPath := filepath.Join(dir, "exports", "maze.yaml")

	out, err := execute(t, "--config", cfgPath, "generate", "--width", "4", "--height", "2", "--seed", "5", "--output", outPath)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# Maze 4x2 (seed 5)\n"))

	var run RunYAML
	require.NoError(t, yaml.Unmarshal(data, &run))
	assert.Equal(t, int64(5), run.Seed)
	assert.Equal(t, 1, run.Attempts)
	assert.Equal(t, gridLines(out), run.Rows)
	require.Len(t, run.Tiles, 2)
	for y, row := range run.Tiles {
		require.Len(t, row, 4)
		for x, name := range row {
			tile, ok := maze.ParseTile(name)
			require.True(t, ok, "unknown tile %q", name)
			assert.Equal(t, tile.Glyph(), []rune(run.Rows[y])[x])
		}
	}
	assert.Len(t, run.Fingerprint, 64)
}

func TestGenerateSaveAndHistory(t *testing.T) {
	cfgPath := writeTestConfig(t, t.TempDir())

	grid, err := execute(t, "--config", cfgPath, "generate", "--seed", "11", "--save")
	require.NoError(t, err)
	_, err = execute(t, "--config", cfgPath, "generate", "--seed", "11", "--save")
	require.NoError(t, err)

	list, err := execute(t, "--config", cfgPath, "history")
	require.NoError(t, err)
	lines := gridLines(list)
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.True(t, strings.HasPrefix(lines[1], "2 "))
	assert.Contains(t, lines[1], "6x2")
	assert.Contains(t, lines[1], "cli")

	shown, err := execute(t, "--config", cfgPath, "history", "--show", "1")
	require.NoError(t, err)
	assert.Contains(t, shown, "Seed:     11")
	assert.Contains(t, shown, "Same maze as 1 other run(s)")
	assert.True(t, strings.HasSuffix(shown, grid))

	limited, err := execute(t, "--config", cfgPath, "history", "-n", "1")
	require.NoError(t, err)
	assert.Len(t, gridLines(limited), 2)
}

func TestHistoryEmptyAndMissingRun(t *testing.T) {
	cfgPath := writeTestConfig(t, t.TempDir())

	out, err := execute(t, "--config", cfgPath, "history")
	require.NoError(t, err)
	assert.Equal(t, "No runs stored.\n", out)

	_, err = execute(t, "--config", cfgPath, "history", "--show", "42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run 42")
}

func TestRulesCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, dir)

	out, err := execute(t, "--config", cfgPath, "rules")
	require.NoError(t, err)
	rules, err := maze.ReadRules(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, maze.DefaultRules().Len(), rules.Len())

	rulesPath := filepath.Join(dir, "rules.yaml")
	_, err = execute(t, "--config", cfgPath, "rules", "--output", rulesPath)
	require.NoError(t, err)
	saved, err := maze.LoadRules(rulesPath)
	require.NoError(t, err)
	assert.Equal(t, rules.Rules(), saved.Rules())
}

func TestGenerateWithRuleFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, dir)
	rulesPath := filepath.Join(dir, "none.yaml")
	require.NoError(t, os.WriteFile(rulesPath, []byte("rules: []\n"), 0644))

	_, err := execute(t, "--config", cfgPath, "generate", "--width", "2", "--height", "1",
		"--seed", "3", "--attempts", "2", "--rules", rulesPath, "--save")
	require.Error(t, err)
	assert.True(t, errors.Is(err, wfc.ErrNoSolution))

	// Failed runs are still recorded
	out, err := execute(t, "--config", cfgPath, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "failed")
}

func TestInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("generation:\n  width: -3\n"), 0644))

	_, err := execute(t, "--config", path, "rules")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestMigrateCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, dir)

	_, err := execute(t, "--config", cfgPath, "generate", "--seed", "2", "--save")
	require.NoError(t, err)

	src := filepath.Join(dir, "runs.db")
	dst := filepath.Join(dir, "copy.db")

	out, err := execute(t, "--config", cfgPath, "migrate", "--sqlite", src, "--to-sqlite", dst, "--dry-run")
	require.NoError(t, err)
	assert.Equal(t, "Would copy 1 mazes and 1 runs.\n", out)

	out, err = execute(t, "--config", cfgPath, "migrate", "--sqlite", src, "--to-sqlite", dst)
	require.NoError(t, err)
	assert.Equal(t, "Copied 1 mazes and 1 runs.\n", out)

	_, err = execute(t, "--config", cfgPath, "migrate", "--sqlite", src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "same file")
}

func TestRequestCommand(t *testing.T) {
	cfgPath := writeTestConfig(t, t.TempDir())

	srv := server.NewServer(config.DefaultConfig(), nil, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Shutdown(context.Background())
		ts.Close()
	})
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	remote, err := execute(t, "--config", cfgPath, "request", "--url", url, "-W", "7", "-H", "2", "--seed", "13", "--trace")
	require.NoError(t, err)
	local, err := execute(t, "--config", cfgPath, "generate", "-W", "7", "-H", "2", "--seed", "13")
	require.NoError(t, err)
	assert.Equal(t, local, remote)

	_, err = execute(t, "--config", cfgPath, "request", "--url", url, "--width", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server refused request")
}
