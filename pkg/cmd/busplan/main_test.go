package main

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/gilchrisn/busplan/pkg/generator"
	"github.com/gilchrisn/busplan/pkg/parser"
	"github.com/gilchrisn/busplan/pkg/partition"
)

func TestSolveInstanceWritesSolution(t *testing.T) {
	root := t.TempDir()
	inst, err := generator.Generate(generator.Params{
		Name:       "gen",
		NumBuses:   3,
		BusSize:    5,
		NumKids:    12,
		NumFriends: 30,
		NumRowdy:   2,
	}, rand.New(rand.NewSource(11)))
	require.NoError(t, err)
	require.NoError(t, parser.WriteInstance(filepath.Join(root, "inputs", "small", "gen"), inst))

	config := partition.NewConfig()
	config.Set("logging.level", "disabled")
	config.Set("algorithm.random_seed", int64(11))
	config.Set("algorithm.iteration_budget", 200)

	outDir := filepath.Join(root, "outputs", "small")
	_, result, err := solveInstance(context.Background(), filepath.Join(root, "inputs", "small", "gen"), outDir, true, config)
	require.NoError(t, err)
	require.NoError(t, result.Buses.Validate(inst.Graph, inst.Capacity))

	data, err := os.ReadFile(filepath.Join(outDir, "gen.out"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 3)
	for _, line := range lines {
		labels, err := parser.ParseLabels(line)
		require.NoError(t, err)
		assert.NotEmpty(t, labels)
	}
	assert.FileExists(t, filepath.Join(outDir, "gen.stats.json"))
}

func TestSolveInstanceMissingFolder(t *testing.T) {
	config := partition.NewConfig()
	config.Set("logging.level", "disabled")

	_, _, err := solveInstance(context.Background(), filepath.Join(t.TempDir(), "nope"), t.TempDir(), false, config)
	assert.Error(t, err)
}

// configFromArgs parses args with the global flags and returns the
// resulting algorithm config
func configFromArgs(t *testing.T, args ...string) *partition.Config {
	t.Helper()
	var config *partition.Config
	app := &cli.App{
		Name:  "busplan",
		Flags: GlobalFlags,
		Action: func(cCtx *cli.Context) error {
			var err error
			config, err = loadConfig(cCtx)
			return err
		},
	}
	require.NoError(t, app.Run(append([]string{"busplan"}, args...)))
	require.NotNil(t, config)
	return config
}

func TestLoadConfigKeepsFileLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "busplan.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: warn\nalgorithm:\n  strategy: mincut\n"), 0644))

	config := configFromArgs(t, "--config", path)
	assert.Equal(t, "warn", config.LogLevel())
	assert.Equal(t, partition.StrategyMinCut, config.Strategy())

	config = configFromArgs(t, "--config", path, "--log-level", "debug", "--seed", "5")
	assert.Equal(t, "debug", config.LogLevel())
	assert.Equal(t, int64(5), config.RandomSeed())

	config = configFromArgs(t)
	assert.Equal(t, "info", config.LogLevel())
}

func TestSolveInstanceWritesUnbalancedPartial(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "inputs", "small", "tight")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, parser.GraphFile), []byte(tightGML), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, parser.ParametersFile), []byte("2\n1\n"), 0644))

	config := partition.NewConfig()
	config.Set("logging.level", "disabled")
	config.Set("algorithm.random_seed", int64(3))

	outDir := filepath.Join(root, "outputs", "small")
	_, result, err := solveInstance(context.Background(), dir, outDir, false, config)
	require.ErrorIs(t, err, partition.ErrUnbalanceable)
	require.NotNil(t, result)
	assert.Equal(t, partition.StatusUnbalanced, result.Status)

	data, err := os.ReadFile(filepath.Join(outDir, "tight.out"))
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 2)
}

const tightGML = `graph [
  node [
    id 0
    label "a"
  ]
  node [
    id 1
    label "b"
  ]
  node [
    id 2
    label "c"
  ]
  edge [
    source 0
    target 1
  ]
  edge [
    source 1
    target 2
  ]
]
`
