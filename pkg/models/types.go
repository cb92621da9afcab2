package models

import (
	"fmt"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
)

// NodeSet is an unordered set of node indices
type NodeSet = mapset.Set[int]

// NewNodeSet creates a set holding the given nodes
func NewNodeSet(nodes ...int) NodeSet {
	return mapset.NewThreadUnsafeSet(nodes...)
}

// RowdyGroup is a set of nodes that must not ride the same bus together
type RowdyGroup struct {
	ID      int     `json:"id"`
	Members NodeSet `json:"-"`
}

// NewRowdyGroup creates a rowdy group from node indices
func NewRowdyGroup(id int, members ...int) RowdyGroup {
	return RowdyGroup{ID: id, Members: NewNodeSet(members...)}
}

// Size returns the number of members
func (rg RowdyGroup) Size() int {
	if rg.Members == nil {
		return 0
	}
	return rg.Members.Cardinality()
}

// Sorted returns the members in ascending index order
func (rg RowdyGroup) Sorted() []int {
	if rg.Members == nil {
		return nil
	}
	members := rg.Members.ToSlice()
	sort.Ints(members)
	return members
}

// Labels returns the member labels in ascending index order
func (rg RowdyGroup) Labels(g *Graph) []string {
	members := rg.Sorted()
	labels := make([]string, len(members))
	for i, m := range members {
		labels[i] = g.Label(m)
	}
	return labels
}

// Capacity describes the bus fleet
type Capacity struct {
	NumBuses int `json:"num_buses"`
	BusSize  int `json:"bus_size"`
}

// Validate checks that both values are positive
func (c Capacity) Validate() error {
	var errs ValidationErrors
	if c.NumBuses <= 0 {
		errs = append(errs, ValidationError{Field: "num_buses", Message: "must be positive", Value: fmt.Sprint(c.NumBuses)})
	}
	if c.BusSize <= 0 {
		errs = append(errs, ValidationError{Field: "bus_size", Message: "must be positive", Value: fmt.Sprint(c.BusSize)})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Instance is a complete problem: friendship graph, fleet and rowdy groups
type Instance struct {
	Name        string       `json:"name"`
	Graph       *Graph       `json:"graph"`
	Capacity    Capacity     `json:"capacity"`
	RowdyGroups []RowdyGroup `json:"-"`
}

// Validate checks the graph, the capacity and that every rowdy member exists
func (inst *Instance) Validate() error {
	if inst.Graph == nil {
		return ValidationError{Field: "graph", Message: "graph cannot be nil"}
	}
	if err := inst.Graph.Validate(); err != nil {
		return err
	}
	if err := inst.Capacity.Validate(); err != nil {
		return err
	}

	var errs ValidationErrors
	for _, rg := range inst.RowdyGroups {
		if rg.Size() == 0 {
			errs = append(errs, ValidationError{Field: "rowdy_groups", Message: "empty rowdy group", Value: fmt.Sprint(rg.ID)})
			continue
		}
		for _, m := range rg.Sorted() {
			if m < 0 || m >= inst.Graph.NumNodes {
				errs = append(errs, ValidationError{
					Field:   "rowdy_groups",
					Message: fmt.Sprintf("rowdy group %d references unknown node", rg.ID),
					Value:   fmt.Sprint(m),
				})
			}
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Bus is the list of nodes assigned to one bus
type Bus []int

// Partition is an ordered assignment of nodes to buses
type Partition []Bus

// NewPartition creates a partition with numBuses empty buses
func NewPartition(numBuses int) Partition {
	p := make(Partition, numBuses)
	for i := range p {
		p[i] = Bus{}
	}
	return p
}

// Clone creates a deep copy of the partition
func (p Partition) Clone() Partition {
	clone := make(Partition, len(p))
	for i, bus := range p {
		clone[i] = make(Bus, len(bus))
		copy(clone[i], bus)
	}
	return clone
}

// Sizes returns the number of nodes on each bus
func (p Partition) Sizes() []int {
	sizes := make([]int, len(p))
	for i, bus := range p {
		sizes[i] = len(bus)
	}
	return sizes
}

// Assignment returns node -> bus index for a graph of numNodes nodes.
// Unassigned nodes map to -1.
func (p Partition) Assignment(numNodes int) []int {
	assign := make([]int, numNodes)
	for i := range assign {
		assign[i] = -1
	}
	for b, bus := range p {
		for _, node := range bus {
			if node >= 0 && node < numNodes {
				assign[node] = b
			}
		}
	}
	return assign
}

// Labels returns each bus as sorted node labels, in bus index order
func (p Partition) Labels(g *Graph) [][]string {
	out := make([][]string, len(p))
	for i, bus := range p {
		nodes := make([]int, len(bus))
		copy(nodes, bus)
		sort.Ints(nodes)
		out[i] = make([]string, len(nodes))
		for j, n := range nodes {
			out[i][j] = g.Label(n)
		}
	}
	return out
}

// Validate checks that the partition covers every node exactly once,
// has the expected number of buses, and respects the bus size
func (p Partition) Validate(g *Graph, c Capacity) error {
	var errs ValidationErrors
	if len(p) != c.NumBuses {
		errs = append(errs, ValidationError{
			Field:   "buses",
			Message: fmt.Sprintf("expected %d buses, got %d", c.NumBuses, len(p)),
		})
	}

	seen := make([]bool, g.NumNodes)
	for b, bus := range p {
		if len(bus) > c.BusSize {
			errs = append(errs, ValidationError{
				Field:   "buses",
				Message: fmt.Sprintf("bus %d holds %d nodes, capacity %d", b, len(bus), c.BusSize),
			})
		}
		for _, node := range bus {
			if node < 0 || node >= g.NumNodes {
				errs = append(errs, ValidationError{Field: "buses", Message: "unknown node", Value: fmt.Sprint(node)})
				continue
			}
			if seen[node] {
				errs = append(errs, ValidationError{Field: "buses", Message: "node assigned twice", Value: g.Label(node)})
			}
			seen[node] = true
		}
	}
	for node, ok := range seen {
		if !ok {
			errs = append(errs, ValidationError{Field: "buses", Message: "node not assigned", Value: g.Label(node)})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
