package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/gilchrisn/busplan/pkg/partition"
)

const (
	ConfigFlag     = "config"
	LogLevelFlag   = "log-level"
	SeedFlag       = "seed"
	StrategyFlag   = "strategy"
	NoRefineFlag   = "no-refine"
	IterationsFlag = "iterations"
	TrackMovesFlag = "track-moves"
	StatsFlag      = "stats"
)

var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    ConfigFlag,
		Aliases: []string{"c"},
		Usage:   "Load algorithm settings from a config file (yaml, json or toml)",
	},
	&cli.StringFlag{
		Name:  LogLevelFlag,
		Value: "info",
		Usage: "Log level: debug, info, warn, error or disabled",
	},
	&cli.Int64Flag{
		Name:  SeedFlag,
		Usage: "Random seed; a fixed seed reproduces a run",
	},
	&cli.StringFlag{
		Name:  StrategyFlag,
		Usage: "Construction strategy: cluster or mincut",
	},
	&cli.BoolFlag{
		Name:  NoRefineFlag,
		Usage: "Skip the local search",
	},
	&cli.IntFlag{
		Name:  IterationsFlag,
		Usage: "Local search iteration budget",
	},
	&cli.StringFlag{
		Name:  TrackMovesFlag,
		Usage: "Write accepted local search moves as JSON lines to this file",
	},
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	app := &cli.App{
		Name:  "busplan",
		Usage: "Assign kids to buses, keeping friends together and rowdy groups apart",
		Flags: GlobalFlags,
		Before: func(cCtx *cli.Context) error {
			if !cCtx.IsSet(LogLevelFlag) {
				return nil
			}
			level, err := zerolog.ParseLevel(cCtx.String(LogLevelFlag))
			if err != nil {
				return err
			}
			zerolog.SetGlobalLevel(level)
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "solve",
				Aliases:   []string{"s"},
				Usage:     "Solve one instance folder",
				ArgsUsage: "<instance-dir>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Value:   "./outputs",
						Usage:   "Directory receiving <instance>.out",
					},
					&cli.BoolFlag{
						Name:  StatsFlag,
						Usage: "Also write <instance>.stats.json",
					},
				},
				Action: solve,
			},
			{
				Name:      "batch",
				Aliases:   []string{"b"},
				Usage:     "Solve every instance under the size category folders",
				ArgsUsage: "<inputs-dir>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Value:   "./outputs",
						Usage:   "Directory receiving <category>/<instance>.out",
					},
					&cli.StringSliceFlag{
						Name:  "category",
						Value: cli.NewStringSlice("small", "medium", "large"),
						Usage: "Size categories to solve",
					},
					&cli.BoolFlag{
						Name:  StatsFlag,
						Usage: "Also write <instance>.stats.json",
					},
				},
				Action: batch,
			},
			{
				Name:      "check",
				Aliases:   []string{"c"},
				Usage:     "Validate and score a solution file against its instance",
				ArgsUsage: "<instance-dir> <solution.out>",
				Action:    check,
			},
			{
				Name:      "generate",
				Aliases:   []string{"g"},
				Usage:     "Generate a random instance folder",
				ArgsUsage: "<name>",
				Flags:     generateFlags,
				Action:    generate,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("busplan failed")
	}
}

// loadConfig builds the algorithm config from the config file and flags
func loadConfig(cCtx *cli.Context) (*partition.Config, error) {
	config := partition.NewConfig()
	if path := cCtx.String(ConfigFlag); path != "" {
		if err := config.LoadFromFile(path); err != nil {
			return nil, err
		}
	}

	if cCtx.IsSet(LogLevelFlag) {
		config.Set("logging.level", cCtx.String(LogLevelFlag))
	}
	if cCtx.IsSet(SeedFlag) {
		config.Set("algorithm.random_seed", cCtx.Int64(SeedFlag))
	}
	if cCtx.IsSet(StrategyFlag) {
		config.Set("algorithm.strategy", cCtx.String(StrategyFlag))
	}
	if cCtx.Bool(NoRefineFlag) {
		config.Set("algorithm.refine", false)
	}
	if cCtx.IsSet(IterationsFlag) {
		config.Set("algorithm.iteration_budget", cCtx.Int(IterationsFlag))
	}
	if path := cCtx.String(TrackMovesFlag); path != "" {
		config.Set("analysis.track_moves", true)
		config.Set("analysis.output_file", path)
	}
	return config, nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sig:
			log.Warn().Msg("Interrupted, keeping the best solution found so far")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sig)
	}()
	return ctx, cancel
}
