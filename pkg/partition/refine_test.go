package partition_test

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/gilchrisn/busplan/pkg/models"
	"github.com/gilchrisn/busplan/pkg/partition"
)

// RefinerSuite exercises the local search on the barbell graph.
type RefinerSuite struct {
	suite.Suite
	graph    *models.Graph
	capacity models.Capacity
	start    models.Partition
	opts     partition.RefineOptions
}

func (s *RefinerSuite) SetupTest() {
	s.graph = barbell(s.T())
	s.capacity = models.Capacity{NumBuses: 2, BusSize: 3}
	s.start = models.Partition{{0, 1, 3}, {2, 4, 5}}
	s.opts = partition.DefaultRefineOptions()
	s.opts.IterationBudget = 500
}

func (s *RefinerSuite) refiner(seed int64) *partition.Refiner {
	return partition.NewRefiner(s.graph, nil, s.capacity, rand.New(rand.NewSource(seed)), s.opts)
}

func (s *RefinerSuite) TestBestScoreNeverDecreases() {
	var buf bytes.Buffer
	s.opts.Tracker = partition.NewMoveTrackerWriter(&buf)

	best, score, stats := s.refiner(1).Refine(context.Background(), s.start)

	initial := partition.Score(s.start, s.graph, nil)
	require.GreaterOrEqual(s.T(), score, initial)
	require.Equal(s.T(), stats.BestScore, score)
	require.InDelta(s.T(), partition.Score(best, s.graph, nil), score, 1e-12)
	require.NoError(s.T(), best.Validate(s.graph, s.capacity))

	decoder := json.NewDecoder(&buf)
	previous := initial
	events := 0
	for decoder.More() {
		var event partition.MoveEvent
		require.NoError(s.T(), decoder.Decode(&event))
		require.GreaterOrEqual(s.T(), event.Best, previous)
		previous = event.Best
		events++
	}
	require.Equal(s.T(), stats.Accepted, events)
}

func (s *RefinerSuite) TestReachesOptimum() {
	s.opts.TargetScore = 6.0 / 7.0
	s.opts.IterationBudget = 10000

	best, score, stats := s.refiner(7).Refine(context.Background(), s.start)
	require.True(s.T(), stats.GoalReached)
	require.InDelta(s.T(), 6.0/7.0, score, 1e-12)
	require.Equal(s.T(), [][]string{{"0", "1", "2"}, {"3", "4", "5"}}, sortBuses(best.Labels(s.graph)))
}

func (s *RefinerSuite) TestDeterministicForSeed() {
	first, firstScore, firstStats := s.refiner(42).Refine(context.Background(), s.start)
	second, secondScore, secondStats := s.refiner(42).Refine(context.Background(), s.start)

	require.Equal(s.T(), first, second)
	require.Equal(s.T(), firstScore, secondScore)
	require.Equal(s.T(), firstStats, secondStats)
}

func (s *RefinerSuite) TestInputNotModified() {
	before := s.start.Clone()
	s.refiner(3).Refine(context.Background(), s.start)
	require.Equal(s.T(), before, s.start)
}

func (s *RefinerSuite) TestCancelledContextReturnsStart() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	best, score, stats := s.refiner(1).Refine(ctx, s.start)
	require.Equal(s.T(), s.start, best)
	require.Equal(s.T(), partition.Score(s.start, s.graph, nil), score)
	require.Zero(s.T(), stats.Iterations)
}

func (s *RefinerSuite) TestTargetAlreadyMet() {
	s.opts.TargetScore = 0.5
	start := models.Partition{{0, 1, 2}, {3, 4, 5}}

	_, _, stats := s.refiner(1).Refine(context.Background(), start)
	require.True(s.T(), stats.GoalReached)
	require.Zero(s.T(), stats.Iterations)
}

func (s *RefinerSuite) TestSkippedWithoutEdgesOrBuses() {
	empty := models.NewGraph(4)
	r := partition.NewRefiner(empty, nil, models.Capacity{NumBuses: 2, BusSize: 2}, rand.New(rand.NewSource(1)), s.opts)
	_, score, stats := r.Refine(context.Background(), models.Partition{{0, 1}, {2, 3}})
	require.True(s.T(), stats.Skipped)
	require.Zero(s.T(), score)

	one := models.Partition{{0, 1, 2, 3, 4, 5}}
	r = partition.NewRefiner(s.graph, nil, models.Capacity{NumBuses: 1, BusSize: 6}, rand.New(rand.NewSource(1)), s.opts)
	_, _, stats = r.Refine(context.Background(), one)
	require.True(s.T(), stats.Skipped)
}

// decodeMoves reads every tracked move from buf
func decodeMoves(t *testing.T, buf *bytes.Buffer) []partition.MoveEvent {
	t.Helper()
	var events []partition.MoveEvent
	decoder := json.NewDecoder(buf)
	for decoder.More() {
		var event partition.MoveEvent
		require.NoError(t, decoder.Decode(&event))
		events = append(events, event)
	}
	return events
}

func TestRefineFullBusesTurnsMovesIntoNoOps(t *testing.T) {
	g := cycle4(t)
	capacity := models.Capacity{NumBuses: 2, BusSize: 2}
	var buf bytes.Buffer

	opts := partition.DefaultRefineOptions()
	opts.IterationBudget = 200
	opts.MoveRetries = 10
	opts.Tracker = partition.NewMoveTrackerWriter(&buf)
	r := partition.NewRefiner(g, nil, capacity, rand.New(rand.NewSource(4)), opts)

	best, score, stats := r.Refine(context.Background(), models.Partition{{0, 1}, {2, 3}})

	assert.Greater(t, stats.NoOps, 0)
	assert.Equal(t, 200, stats.Iterations, "a no-op does not end the search")
	assert.False(t, stats.GoalReached)
	assert.InDelta(t, 0.5, score, 1e-12)
	require.NoError(t, best.Validate(g, capacity))
	for _, event := range decodeMoves(t, &buf) {
		assert.Equal(t, "swap", event.Kind, "every bus is full so only swaps apply")
	}
}

func TestRefineEscapesKeepBest(t *testing.T) {
	g := cycle4(t)
	capacity := models.Capacity{NumBuses: 2, BusSize: 2}
	var buf bytes.Buffer

	opts := partition.DefaultRefineOptions()
	opts.IterationBudget = 200
	opts.EscapeProbability = 1.0
	opts.Tracker = partition.NewMoveTrackerWriter(&buf)
	r := partition.NewRefiner(g, nil, capacity, rand.New(rand.NewSource(9)), opts)

	_, score, stats := r.Refine(context.Background(), models.Partition{{0, 1}, {2, 3}})

	assert.Greater(t, stats.Escapes, 0)
	assert.Equal(t, stats.Accepted, stats.Escapes+stats.Improvements)
	assert.InDelta(t, 0.5, score, 1e-12)
	assert.InDelta(t, 0.5, stats.BestScore, 1e-12)

	worse := 0
	for _, event := range decodeMoves(t, &buf) {
		assert.InDelta(t, 0.5, event.Best, 1e-12, "best never drops below the start")
		if event.Escape && event.Score < event.Best {
			worse++
		}
	}
	assert.Greater(t, worse, 0, "escapes accept strictly worse neighbors")
}

func TestRefineLogsProgressEveryInterval(t *testing.T) {
	var buf bytes.Buffer

	opts := partition.DefaultRefineOptions()
	opts.IterationBudget = 100
	opts.ProgressInterval = 10
	opts.EscapeProbability = 0
	opts.Logger = zerolog.New(&buf)
	r := partition.NewRefiner(cycle4(t), nil, models.Capacity{NumBuses: 2, BusSize: 2}, rand.New(rand.NewSource(2)), opts)

	_, _, stats := r.Refine(context.Background(), models.Partition{{0, 1}, {2, 3}})
	require.Equal(t, 100, stats.Iterations)
	assert.Equal(t, 10, strings.Count(buf.String(), "Refinement progress"))
}

func TestRefinerSuite(t *testing.T) {
	suite.Run(t, new(RefinerSuite))
}

func TestMoveTrackerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moves.jsonl")
	tracker := partition.NewMoveTracker(path)
	require.NotNil(t, tracker)

	tracker.LogMove(partition.MoveEvent{Iteration: 3, Kind: "swap", Nodes: []string{"a", "b"}, FromBus: 0, ToBus: 1, Score: 0.5, Best: 0.5})
	tracker.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var event partition.MoveEvent
	require.NoError(t, json.Unmarshal(data, &event))
	assert.Equal(t, 3, event.Iteration)
	assert.Equal(t, []string{"a", "b"}, event.Nodes)
	assert.NotZero(t, event.Timestamp)
}

func TestNilMoveTrackerIsNoop(t *testing.T) {
	var tracker *partition.MoveTracker
	assert.NotPanics(t, func() {
		tracker.LogMove(partition.MoveEvent{})
		tracker.Close()
	})
	assert.Nil(t, partition.NewMoveTracker(filepath.Join(t.TempDir(), "missing", "moves.jsonl")))
}
