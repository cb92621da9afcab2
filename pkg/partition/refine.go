package partition

import (
	"context"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/busplan/pkg/models"
)

const (
	moveSwap = "swap"
	moveNode = "move"
)

// RefineOptions controls the local search
type RefineOptions struct {
	IterationBudget   int
	TargetScore       float64
	EscapeProbability float64
	MoveRetries       int
	ProgressInterval  int // 0 disables progress logging
	Tracker           *MoveTracker
	Logger            zerolog.Logger
}

// DefaultRefineOptions returns the reference search parameters
func DefaultRefineOptions() RefineOptions {
	return RefineOptions{
		IterationBudget:   10000,
		TargetScore:       1.0,
		EscapeProbability: 0.1,
		MoveRetries:       10,
		Logger:            zerolog.Nop(),
	}
}

// RefineStats summarizes one refinement run
type RefineStats struct {
	Iterations   int     `json:"iterations"`
	Accepted     int     `json:"accepted"`
	Improvements int     `json:"improvements"`
	Escapes      int     `json:"escapes"`
	NoOps        int     `json:"no_ops"`
	InitialScore float64 `json:"initial_score"`
	BestScore    float64 `json:"best_score"`
	GoalReached  bool    `json:"goal_reached"`
	Skipped      bool    `json:"skipped"`
}

// Refiner improves a partition by random swaps and single-node moves
type Refiner struct {
	graph    *models.Graph
	capacity models.Capacity
	score    ScoreFunc
	rng      *rand.Rand
	opts     RefineOptions
}

// NewRefiner creates a refiner scoring partitions of g against groups
func NewRefiner(g *models.Graph, groups []models.RowdyGroup, capacity models.Capacity, rng *rand.Rand, opts RefineOptions) *Refiner {
	return &Refiner{
		graph:    g,
		capacity: capacity,
		score:    NewScorer(g, groups),
		rng:      rng,
		opts:     opts,
	}
}

// perturbation describes a neighbor of the current partition
type perturbation struct {
	kind  string
	nodes []int
	from  int
	to    int
}

// Refine runs the local search from p and returns the best partition seen
// and its score. The input partition is not modified. Cancelling ctx stops
// the search early with the best result so far.
func (r *Refiner) Refine(ctx context.Context, p models.Partition) (models.Partition, float64, RefineStats) {
	current := p.Clone()
	currentScore := r.score(current)
	best, bestScore := current, currentScore

	stats := RefineStats{InitialScore: currentScore, BestScore: currentScore}
	logger := r.opts.Logger

	if r.graph.NumEdges < 1 || len(current) < 2 {
		stats.Skipped = true
		return best, bestScore, stats
	}
	if currentScore >= r.opts.TargetScore {
		stats.GoalReached = true
		return best, bestScore, stats
	}

	for iteration := 0; iteration < r.opts.IterationBudget; iteration++ {
		select {
		case <-ctx.Done():
			logger.Debug().Int("iteration", iteration).Msg("Refinement cancelled")
			return best, bestScore, stats
		default:
		}
		stats.Iterations++
		if r.opts.ProgressInterval > 0 && iteration%r.opts.ProgressInterval == 0 {
			logger.Info().
				Int("iteration", iteration).
				Float64("score", currentScore).
				Float64("best", bestScore).
				Int("accepted", stats.Accepted).
				Msg("Refinement progress")
		}

		neighbor := current.Clone()
		var move perturbation
		var ok bool
		if r.rng.Intn(2) == 0 {
			move, ok = r.swap(neighbor)
		} else {
			move, ok = r.move(neighbor)
		}
		if !ok {
			stats.NoOps++
			continue
		}

		newScore := r.score(neighbor)
		escape := false
		switch {
		case newScore >= r.opts.TargetScore:
			stats.GoalReached = true
		case newScore > currentScore:
			stats.Improvements++
		case r.rng.Float64() < r.opts.EscapeProbability:
			escape = true
			stats.Escapes++
		default:
			continue
		}

		current, currentScore = neighbor, newScore
		stats.Accepted++
		if currentScore > bestScore {
			best, bestScore = current, currentScore
			stats.BestScore = bestScore
		}
		r.opts.Tracker.LogMove(MoveEvent{
			Iteration: iteration,
			Kind:      move.kind,
			Nodes:     r.labels(move.nodes),
			FromBus:   move.from,
			ToBus:     move.to,
			Score:     currentScore,
			Best:      bestScore,
			Escape:    escape,
		})

		if stats.GoalReached {
			logger.Info().Int("iteration", iteration).Float64("score", currentScore).Msg("Target score reached")
			break
		}
	}

	return best, bestScore, stats
}

// swap exchanges one random node between two distinct random buses
func (r *Refiner) swap(p models.Partition) (perturbation, bool) {
	i, j := r.distinctPair(len(p))
	if len(p[i]) == 0 || len(p[j]) == 0 {
		return perturbation{}, false
	}
	a := r.rng.Intn(len(p[i]))
	b := r.rng.Intn(len(p[j]))
	p[i][a], p[j][b] = p[j][b], p[i][a]
	return perturbation{kind: moveSwap, nodes: []int{p[j][b], p[i][a]}, from: i, to: j}, true
}

// move relocates one random node to another bus with a free seat, leaving
// at least one node behind
func (r *Refiner) move(p models.Partition) (perturbation, bool) {
	for attempt := 0; attempt < r.opts.MoveRetries; attempt++ {
		src, dst := r.distinctPair(len(p))
		if len(p[dst]) >= r.capacity.BusSize || len(p[src]) < 2 {
			continue
		}
		k := r.rng.Intn(len(p[src]))
		node := p[src][k]
		p[src] = removeAt(p[src], k)
		p[dst] = append(p[dst], node)
		return perturbation{kind: moveNode, nodes: []int{node}, from: src, to: dst}, true
	}
	return perturbation{}, false
}

// distinctPair draws an ordered pair of distinct bus indices uniformly
func (r *Refiner) distinctPair(n int) (int, int) {
	i := r.rng.Intn(n)
	j := r.rng.Intn(n - 1)
	if j >= i {
		j++
	}
	return i, j
}

func (r *Refiner) labels(nodes []int) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = r.graph.Label(n)
	}
	return out
}
