package partition

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/gilchrisn/busplan/pkg/mincut"
	"github.com/gilchrisn/busplan/pkg/models"
)

// Status tells a complete result apart from a partial one
type Status string

const (
	StatusOK         Status = "ok"
	StatusUnbalanced Status = "unbalanced"
)

// Result represents the algorithm output
type Result struct {
	RunID      string              `json:"run_id"`
	Instance   string              `json:"instance"`
	Status     Status              `json:"status"`
	Strategy   Strategy            `json:"strategy"`
	Buses      models.Partition    `json:"buses"`
	Score      float64             `json:"score"`
	Violations []models.RowdyGroup `json:"-"`
	Statistics Statistics          `json:"statistics"`
}

// Statistics contains algorithm performance metrics
type Statistics struct {
	NumClusters      int         `json:"num_clusters"`
	ConstructionMS   int64       `json:"construction_ms"`
	BalanceMS        int64       `json:"balance_ms"`
	RefineMS         int64       `json:"refine_ms"`
	RuntimeMS        int64       `json:"runtime_ms"`
	MemoryPeakMB     int64       `json:"memory_peak_mb"`
	BalancedScore    float64     `json:"balanced_score"`
	FinalScore       float64     `json:"final_score"`
	Modularity       float64     `json:"modularity"`
	NumViolations    int         `json:"num_violations"`
	ViolatedGroupIDs []int       `json:"violated_group_ids,omitempty"`
	BusSizeMean      float64     `json:"bus_size_mean"`
	BusSizeStdDev    float64     `json:"bus_size_std_dev"`
	Refinement       RefineStats `json:"refinement"`
}

// CheckCapacity fails with ErrInfeasibleCapacity when g has too few nodes
// to put at least one on every bus
func CheckCapacity(g *models.Graph, capacity models.Capacity) error {
	if capacity.NumBuses > g.NumNodes {
		return fmt.Errorf("%w: %d buses for %d nodes", ErrInfeasibleCapacity, capacity.NumBuses, g.NumNodes)
	}
	return nil
}

// shortOfSeats reports whether numBuses buses of busSize seats cannot hold
// n nodes, without multiplying the two
func shortOfSeats(n int, capacity models.Capacity) bool {
	return capacity.NumBuses > 0 && capacity.BusSize < (n+capacity.NumBuses-1)/capacity.NumBuses
}

// Run executes the complete pipeline: construct clusters, balance them into
// buses and optionally refine. When balancing cannot relieve an
// over-capacity bus, Run returns the partial result with StatusUnbalanced
// together with an error wrapping ErrUnbalanceable.
func Run(ctx context.Context, inst *models.Instance, config *Config) (*Result, error) {
	startTime := time.Now()
	logger := config.CreateLogger()

	if err := inst.Validate(); err != nil {
		return nil, fmt.Errorf("invalid instance: %w", err)
	}
	g, groups, capacity := inst.Graph, inst.RowdyGroups, inst.Capacity
	if err := CheckCapacity(g, capacity); err != nil {
		return nil, err
	}
	if shortOfSeats(g.NumNodes, capacity) {
		logger.Warn().
			Int("nodes", g.NumNodes).
			Int("buses", capacity.NumBuses).
			Int("bus_size", capacity.BusSize).
			Msg("Fleet has fewer seats than nodes, expect an unbalanced result")
	}

	result := &Result{
		RunID:    uuid.New().String(),
		Instance: inst.Name,
		Status:   StatusOK,
	}
	logger = logger.With().Str("run_id", result.RunID).Logger()
	rng := rand.New(rand.NewSource(config.RandomSeed()))

	logger.Info().
		Str("instance", inst.Name).
		Int("nodes", g.NumNodes).
		Int("edges", g.NumEdges).
		Int("buses", capacity.NumBuses).
		Int("bus_size", capacity.BusSize).
		Int("rowdy_groups", len(groups)).
		Msg("Starting bus partitioning")

	// Phase 1: construction
	phaseStart := time.Now()
	clusters, strategy, err := construct(ctx, inst, config, rng, logger)
	if err != nil {
		return nil, fmt.Errorf("construction failed: %w", err)
	}
	result.Strategy = strategy
	result.Statistics.NumClusters = len(clusters)
	result.Statistics.ConstructionMS = time.Since(phaseStart).Milliseconds()

	// Phase 2: balancing
	phaseStart = time.Now()
	scorer := NewScorer(g, groups)
	balancer := NewBalancer(g, groups, capacity, scorer, logger)
	buses, err := balancer.Reconcile(clusters)
	result.Statistics.BalanceMS = time.Since(phaseStart).Milliseconds()
	if err != nil {
		if !errors.Is(err, ErrUnbalanceable) {
			return nil, fmt.Errorf("balancing failed: %w", err)
		}
		result.Status = StatusUnbalanced
		result.Buses = buses
		finalize(result, g, groups, startTime, logger)
		return result, err
	}
	result.Statistics.BalancedScore = scorer(buses)

	// Phase 3: refinement
	if config.Refine() {
		phaseStart = time.Now()
		var tracker *MoveTracker
		if config.EnableMoveTracking() {
			tracker = NewMoveTracker(config.TrackingOutputFile())
			if tracker == nil {
				logger.Warn().Str("file", config.TrackingOutputFile()).Msg("Cannot create move log, tracking disabled")
			}
			defer tracker.Close()
		}

		opts := RefineOptions{
			IterationBudget:   config.IterationBudget(),
			TargetScore:       config.TargetScore(),
			EscapeProbability: config.EscapeProbability(),
			MoveRetries:       config.MoveRetries(),
			Tracker:           tracker,
			Logger:            logger,
		}
		if config.EnableProgress() {
			opts.ProgressInterval = config.ProgressInterval()
		}

		refiner := NewRefiner(g, groups, capacity, rng, opts)
		refined, _, stats := refiner.Refine(ctx, buses)
		buses = refined
		result.Statistics.Refinement = stats
		result.Statistics.RefineMS = time.Since(phaseStart).Milliseconds()
	}

	result.Buses = buses
	finalize(result, g, groups, startTime, logger)

	logger.Info().
		Str("strategy", string(result.Strategy)).
		Float64("score", result.Score).
		Int("violations", result.Statistics.NumViolations).
		Int64("runtime_ms", result.Statistics.RuntimeMS).
		Msg("Bus partitioning completed")

	return result, nil
}

// construct builds the initial clusters with the configured strategy. A
// min-cut decomposition that cannot reach the bus count falls back to
// cluster growth.
func construct(ctx context.Context, inst *models.Instance, config *Config, rng *rand.Rand, logger zerolog.Logger) ([][]int, Strategy, error) {
	g, capacity := inst.Graph, inst.Capacity

	switch config.Strategy() {
	case StrategyMinCut:
		decomposed, err := mincut.Decompose(ctx, g, capacity.NumBuses, logger)
		if err == nil {
			return decomposed.ConnectedComponents(), StrategyMinCut, nil
		}
		if !errors.Is(err, mincut.ErrInfeasible) {
			return nil, StrategyMinCut, err
		}
		logger.Warn().Err(err).Msg("Min-cut decomposition infeasible, falling back to cluster growth")
	case StrategyCluster:
	default:
		return nil, "", fmt.Errorf("unknown strategy %q", config.Strategy())
	}

	maxClusterSize := capacity.BusSize
	if limit := g.NumNodes - capacity.NumBuses + 1; limit < maxClusterSize {
		maxClusterSize = limit
	}
	var tieRng *rand.Rand
	if config.RandomizeSeedTies() {
		tieRng = rng
	}
	return BuildClusters(g, maxClusterSize, inst.RowdyGroups, tieRng, logger), StrategyCluster, nil
}

// finalize fills in score, violations and summary statistics
func finalize(result *Result, g *models.Graph, groups []models.RowdyGroup, startTime time.Time, logger zerolog.Logger) {
	result.Score = Score(result.Buses, g, groups)
	result.Violations = Violations(result.Buses, groups)

	stats := &result.Statistics
	stats.FinalScore = result.Score
	stats.Modularity = g.Modularity(result.Buses)
	stats.NumViolations = len(result.Violations)
	stats.ViolatedGroupIDs = nil
	for _, rg := range result.Violations {
		stats.ViolatedGroupIDs = append(stats.ViolatedGroupIDs, rg.ID)
		logger.Warn().Int("group", rg.ID).Strs("members", rg.Labels(g)).Msg("Rowdy group shares a bus")
	}

	sizes := make([]float64, len(result.Buses))
	for i, n := range result.Buses.Sizes() {
		sizes[i] = float64(n)
	}
	if len(sizes) > 0 {
		stats.BusSizeMean = stat.Mean(sizes, nil)
	}
	if len(sizes) > 1 {
		stats.BusSizeStdDev = stat.StdDev(sizes, nil)
	}

	stats.RuntimeMS = time.Since(startTime).Milliseconds()
	stats.MemoryPeakMB = getMemoryUsage()
}

// getMemoryUsage returns current memory usage in MB
func getMemoryUsage() int64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return int64(m.Alloc / 1024 / 1024)
}
