package partition

import (
	"github.com/gilchrisn/busplan/pkg/models"
)

// IsViolated returns the first rowdy group that is a subset of candidate
func IsViolated(candidate models.NodeSet, groups []models.RowdyGroup) (models.RowdyGroup, bool) {
	for _, rg := range groups {
		if rg.Size() == 0 {
			continue
		}
		if rg.Members.IsSubset(candidate) {
			return rg, true
		}
	}
	return models.RowdyGroup{}, false
}

// IsViolatedWith is IsViolated on candidate ∪ {extra}, without building the union
func IsViolatedWith(candidate models.NodeSet, extra int, groups []models.RowdyGroup) (models.RowdyGroup, bool) {
	for _, rg := range groups {
		if rg.Size() == 0 {
			continue
		}
		contained := true
		rg.Members.Each(func(m int) bool {
			if m != extra && !candidate.Contains(m) {
				contained = false
				return true
			}
			return false
		})
		if contained {
			return rg, true
		}
	}
	return models.RowdyGroup{}, false
}

// Violations lists every rowdy group that rides a single bus, in group order
func Violations(p models.Partition, groups []models.RowdyGroup) []models.RowdyGroup {
	var violated []models.RowdyGroup
	sets := make([]models.NodeSet, len(p))
	for i, bus := range p {
		sets[i] = models.NewNodeSet(bus...)
	}
	for _, rg := range groups {
		if rg.Size() == 0 {
			continue
		}
		for _, set := range sets {
			if rg.Members.IsSubset(set) {
				violated = append(violated, rg)
				break
			}
		}
	}
	return violated
}

func unionOf(bus models.Bus, extra []int) models.NodeSet {
	set := models.NewNodeSet(bus...)
	for _, n := range extra {
		set.Add(n)
	}
	return set
}
