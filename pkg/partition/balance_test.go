package partition_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/busplan/pkg/models"
	"github.com/gilchrisn/busplan/pkg/partition"
)

func reconcile(t *testing.T, g *models.Graph, groups []models.RowdyGroup, capacity models.Capacity, clusters [][]int) (models.Partition, error) {
	t.Helper()
	return partition.NewBalancer(g, groups, capacity, nil, zerolog.Nop()).Reconcile(clusters)
}

func TestReconcileExactCount(t *testing.T) {
	g := barbell(t)
	capacity := models.Capacity{NumBuses: 2, BusSize: 3}

	buses, err := reconcile(t, g, nil, capacity, [][]int{{3, 4, 5}, {0, 1, 2}})
	require.NoError(t, err)
	assert.Equal(t, models.Partition{{3, 4, 5}, {0, 1, 2}}, buses)
	require.NoError(t, buses.Validate(g, capacity))
}

func TestReconcileMergeAvoidsRowdyGroup(t *testing.T) {
	g := models.NewGraph(5)
	groups := []models.RowdyGroup{models.NewRowdyGroup(0, 0, 2)}
	capacity := models.Capacity{NumBuses: 2, BusSize: 3}

	buses, err := reconcile(t, g, groups, capacity, [][]int{{0, 1}, {2}, {3}, {4}})
	require.NoError(t, err)
	assert.Equal(t, models.Partition{{0, 1, 3}, {2, 4}}, buses)
	assert.Empty(t, partition.Violations(buses, groups))
}

func TestReconcileMergeSpillsNodeByNode(t *testing.T) {
	g := models.NewGraph(6)
	capacity := models.Capacity{NumBuses: 2, BusSize: 3}

	buses, err := reconcile(t, g, nil, capacity, [][]int{{0, 1}, {2, 3}, {4, 5}})
	require.NoError(t, err)
	assert.Equal(t, models.Partition{{0, 1, 4}, {2, 3, 5}}, buses)
	require.NoError(t, buses.Validate(g, capacity))
}

func TestReconcileFillsEmptyBus(t *testing.T) {
	g := buildGraph(t, 4, [][2]int{{0, 1}, {1, 2}, {2, 3}})
	capacity := models.Capacity{NumBuses: 2, BusSize: 4}

	buses, err := reconcile(t, g, nil, capacity, [][]int{{0, 1}, {2}, {3}})
	require.NoError(t, err)
	assert.Equal(t, models.Partition{{1, 2, 3}, {0}}, buses)
}

func TestReconcileSplitsShortfall(t *testing.T) {
	g := buildGraph(t, 3, [][2]int{{0, 1}, {1, 2}})
	capacity := models.Capacity{NumBuses: 2, BusSize: 2}

	buses, err := reconcile(t, g, nil, capacity, [][]int{{0, 1, 2}})
	require.NoError(t, err)
	assert.Equal(t, models.Partition{{1, 2}, {0}}, buses)
}

func TestReconcileRepairsOverCapacity(t *testing.T) {
	g := buildGraph(t, 4, [][2]int{{0, 1}, {1, 2}, {2, 3}})
	capacity := models.Capacity{NumBuses: 2, BusSize: 2}

	buses, err := reconcile(t, g, nil, capacity, [][]int{{0, 1, 2}, {3}})
	require.NoError(t, err)
	assert.Equal(t, models.Partition{{1, 2}, {3, 0}}, buses)
	require.NoError(t, buses.Validate(g, capacity))
}

func TestReconcileUnbalanceable(t *testing.T) {
	g := models.NewGraph(5)
	capacity := models.Capacity{NumBuses: 2, BusSize: 2}

	buses, err := reconcile(t, g, nil, capacity, [][]int{{0, 1, 2}, {3, 4}})
	require.ErrorIs(t, err, partition.ErrUnbalanceable)
	require.Len(t, buses, 2, "partial partition is returned")
	assert.Equal(t, []int{3, 2}, buses.Sizes())
}

func TestReconcileTooFewNodes(t *testing.T) {
	g := models.NewGraph(1)
	capacity := models.Capacity{NumBuses: 2, BusSize: 2}

	_, err := reconcile(t, g, nil, capacity, [][]int{{0}})
	require.ErrorIs(t, err, partition.ErrInfeasibleCapacity)
}

func TestReconcileDoesNotAliasInput(t *testing.T) {
	g := models.NewGraph(4)
	capacity := models.Capacity{NumBuses: 2, BusSize: 2}
	clusters := [][]int{{0, 1, 2}, {3}}

	_, err := reconcile(t, g, nil, capacity, clusters)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 1, 2}, {3}}, clusters)
}
