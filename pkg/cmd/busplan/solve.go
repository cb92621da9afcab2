package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/gilchrisn/busplan/pkg/models"
	"github.com/gilchrisn/busplan/pkg/parser"
	"github.com/gilchrisn/busplan/pkg/partition"
	"github.com/gilchrisn/busplan/pkg/validation"
)

func solve(cCtx *cli.Context) error {
	if cCtx.NArg() != 1 {
		return cli.Exit("usage: busplan solve <instance-dir>", 1)
	}
	config, err := loadConfig(cCtx)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cCtx.Context)
	defer cancel()

	inst, result, err := solveInstance(ctx, cCtx.Args().First(), cCtx.String("out"), cCtx.Bool(StatsFlag), config)
	if result == nil {
		return err
	}

	fmt.Printf("Score: %.6f (%s)\n", result.Score, result.Status)
	for i, labels := range result.Buses.Labels(inst.Graph) {
		fmt.Printf("  bus %d: %s\n", i, parser.FormatLabels(labels))
	}
	return err
}

func batch(cCtx *cli.Context) error {
	if cCtx.NArg() != 1 {
		return cli.Exit("usage: busplan batch <inputs-dir>", 1)
	}
	config, err := loadConfig(cCtx)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cCtx.Context)
	defer cancel()

	inputs := cCtx.Args().First()
	outputs := cCtx.String("out")
	batchID := uuid.New().String()
	logger := log.With().Str("batch", batchID).Logger()
	start := time.Now()
	if err := validation.ValidateOutputDirectory(outputs); err != nil {
		return err
	}

	solved, failed := 0, 0
	for _, category := range cCtx.StringSlice("category") {
		categoryPath := filepath.Join(inputs, category)
		if _, err := os.Stat(categoryPath); os.IsNotExist(err) {
			logger.Warn().Str("category", category).Msg("Category folder missing, skipping")
			continue
		}
		dirs, err := parser.ListInstances(categoryPath)
		if err != nil {
			return fmt.Errorf("failed to list %s: %w", categoryPath, err)
		}

		for _, dir := range dirs {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Info().Str("category", category).Str("instance", filepath.Base(dir)).Msg("Solving")
			if _, _, err := solveInstance(ctx, dir, filepath.Join(outputs, category), cCtx.Bool(StatsFlag), config); err != nil {
				logger.Error().Err(err).Str("instance", dir).Msg("Instance failed")
				failed++
				continue
			}
			solved++
		}
	}

	logger.Info().
		Int("solved", solved).
		Int("failed", failed).
		Dur("elapsed", time.Since(start)).
		Msg("Batch completed")
	if failed > 0 {
		return fmt.Errorf("%d of %d instances failed", failed, solved+failed)
	}
	return nil
}

// solveInstance reads one instance folder, runs the pipeline and writes
// the solution. An unbalanced partial result is still written before the
// error is returned.
func solveInstance(ctx context.Context, dir, outputDir string, withStats bool, config *partition.Config) (*models.Instance, *partition.Result, error) {
	inst, err := parser.ReadInstance(dir)
	if err != nil {
		return nil, nil, err
	}

	result, runErr := partition.Run(ctx, inst, config)
	if runErr != nil && !errors.Is(runErr, partition.ErrUnbalanceable) {
		return inst, nil, runErr
	}

	writer := partition.NewFileWriter()
	if withStats {
		err = writer.WriteAll(result, inst.Graph, outputDir, inst.Name)
	} else {
		err = os.MkdirAll(outputDir, 0755)
		if err == nil {
			err = writer.WriteSolution(result, inst.Graph, filepath.Join(outputDir, inst.Name+".out"))
		}
	}
	if err != nil {
		return inst, nil, fmt.Errorf("failed to write solution for %s: %w", inst.Name, err)
	}

	log.Info().
		Str("instance", inst.Name).
		Str("run_id", result.RunID).
		Str("status", string(result.Status)).
		Float64("score", result.Score).
		Int("violations", len(result.Violations)).
		Msg("Solution written")
	return inst, result, runErr
}

func check(cCtx *cli.Context) error {
	if cCtx.NArg() != 2 {
		return cli.Exit("usage: busplan check <instance-dir> <solution.out>", 1)
	}

	report, err := validation.ScoreSolution(cCtx.Args().Get(0), cCtx.Args().Get(1))
	if err != nil {
		return err
	}

	fmt.Printf("Instance: %s\n", report.Instance)
	fmt.Printf("Score: %.6f\n", report.Score)
	for _, group := range report.Violations {
		fmt.Printf("  rowdy group on one bus: %s\n", parser.FormatLabels(group))
	}
	return nil
}
