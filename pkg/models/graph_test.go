package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cycle4(t *testing.T) *Graph {
	t.Helper()
	g := NewGraph(4)
	require.NoError(t, g.AddEdge(0, 1))
	require.NoError(t, g.AddEdge(1, 2))
	require.NoError(t, g.AddEdge(2, 3))
	require.NoError(t, g.AddEdge(3, 0))
	return g
}

func TestAddEdgeSymmetric(t *testing.T) {
	g := cycle4(t)

	assert.Equal(t, 4, g.NumNodes)
	assert.Equal(t, 4, g.NumEdges)
	assert.True(t, g.HasEdge(0, 1))
	assert.True(t, g.HasEdge(1, 0))
	assert.False(t, g.HasEdge(0, 2))
	assert.Equal(t, []int{1, 3}, g.Neighbors(0))
	assert.Equal(t, 2, g.Degree(2))
	require.NoError(t, g.Validate())
}

func TestAddEdgeRejectsInvalid(t *testing.T) {
	g := NewGraph(3)
	require.NoError(t, g.AddEdge(0, 1))

	assert.Error(t, g.AddEdge(0, 1), "duplicate edge")
	assert.Error(t, g.AddEdge(1, 0), "duplicate edge in reverse")
	assert.Error(t, g.AddEdge(2, 2), "self-loop")
	assert.Error(t, g.AddEdge(0, 7), "out of range")
	assert.Equal(t, 1, g.NumEdges)
}

func TestLabels(t *testing.T) {
	g, err := NewLabeledGraph([]string{"alice", "bob", "carol"})
	require.NoError(t, err)

	idx, ok := g.IndexOf("bob")
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, "carol", g.Label(2))
	assert.Equal(t, 0, g.AddNode("alice"), "existing label keeps its index")

	_, err = NewLabeledGraph([]string{"x", "x"})
	assert.Error(t, err)
}

func TestCloneIsIndependent(t *testing.T) {
	g := cycle4(t)
	clone := g.Clone()

	require.True(t, clone.RemoveEdge(0, 1))
	assert.True(t, g.HasEdge(0, 1), "original must keep its edge")
	assert.False(t, clone.HasEdge(1, 0))
	assert.Equal(t, 3, clone.NumEdges)
	assert.Equal(t, 4, g.NumEdges)
	assert.False(t, clone.RemoveEdge(0, 1))
	require.NoError(t, clone.Validate())
}

func TestValidateDetectsAsymmetry(t *testing.T) {
	g := cycle4(t)
	g.Adjacency[0] = []int{1, 2, 3}

	err := g.Validate()
	require.Error(t, err)
	var verrs ValidationErrors
	assert.True(t, errors.As(err, &verrs))
}

func TestConnectedComponents(t *testing.T) {
	g := NewGraph(6)
	require.NoError(t, g.AddEdge(0, 1))
	require.NoError(t, g.AddEdge(1, 2))
	require.NoError(t, g.AddEdge(4, 5))

	assert.Equal(t, [][]int{{0, 1, 2}, {3}, {4, 5}}, g.ConnectedComponents())
}

func TestModularity(t *testing.T) {
	g := NewGraph(6)
	for _, e := range [][2]int{{0, 1}, {1, 2}, {2, 0}, {3, 4}, {4, 5}, {5, 3}, {2, 3}} {
		require.NoError(t, g.AddEdge(e[0], e[1]))
	}

	together := g.Modularity(Partition{{0, 1, 2, 3, 4, 5}})
	split := g.Modularity(Partition{{0, 1, 2}, {3, 4, 5}})
	assert.InDelta(t, 0.0, together, 1e-9)
	assert.Greater(t, split, together)
	assert.Equal(t, 0.0, NewGraph(3).Modularity(Partition{{0}, {1, 2}}))
}

func TestPartitionValidate(t *testing.T) {
	g := cycle4(t)
	capacity := Capacity{NumBuses: 2, BusSize: 2}

	require.NoError(t, Partition{{0, 1}, {2, 3}}.Validate(g, capacity))
	assert.Error(t, Partition{{0, 1, 2}, {3}}.Validate(g, capacity), "over capacity")
	assert.Error(t, Partition{{0, 1}, {2}}.Validate(g, capacity), "missing node")
	assert.Error(t, Partition{{0, 1}, {1, 3}}.Validate(g, capacity), "duplicate node")
	assert.Error(t, Partition{{0, 1, 2, 3}}.Validate(g, capacity), "wrong bus count")
}

func TestPartitionHelpers(t *testing.T) {
	g := cycle4(t)
	p := Partition{{3, 0}, {2, 1}}

	assert.Equal(t, []int{0, 1, 1, 0}, p.Assignment(4))
	assert.Equal(t, [][]string{{"0", "3"}, {"1", "2"}}, p.Labels(g))
	assert.Equal(t, []int{2, 2}, p.Sizes())

	clone := p.Clone()
	clone[0][0] = 1
	assert.Equal(t, 3, p[0][0])
}

func TestInstanceValidate(t *testing.T) {
	inst := &Instance{
		Graph:       cycle4(t),
		Capacity:    Capacity{NumBuses: 2, BusSize: 2},
		RowdyGroups: []RowdyGroup{NewRowdyGroup(0, 0, 1)},
	}
	require.NoError(t, inst.Validate())

	inst.RowdyGroups = append(inst.RowdyGroups, NewRowdyGroup(1, 2, 9))
	assert.Error(t, inst.Validate())

	inst.RowdyGroups = nil
	inst.Capacity = Capacity{NumBuses: 0, BusSize: 2}
	assert.Error(t, inst.Validate())
}

func TestRowdyGroupHelpers(t *testing.T) {
	g := cycle4(t)
	rg := NewRowdyGroup(3, 2, 0)

	assert.Equal(t, 2, rg.Size())
	assert.Equal(t, []int{0, 2}, rg.Sorted())
	assert.Equal(t, []string{"0", "2"}, rg.Labels(g))
	assert.Equal(t, 0, RowdyGroup{}.Size())
}

func TestValidationErrorsMessage(t *testing.T) {
	single := ValidationError{Field: "bus_size", Message: "must be positive", Value: "0"}
	assert.Equal(t, "bus_size: must be positive [0]", single.Error())
	assert.Equal(t, "graph: graph cannot be nil", ValidationError{Field: "graph", Message: "graph cannot be nil"}.Error())

	errs := ValidationErrors{single, {Field: "buses", Message: "node not assigned", Value: "kid7"}}
	assert.Equal(t, "2 problems: bus_size: must be positive [0]; buses: node not assigned [kid7]", errs.Error())
	assert.Equal(t, single.Error(), ValidationErrors{single}.Error())
}
