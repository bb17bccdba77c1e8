package timetable

import "github.com/cinsalaco/roydon-crossing/pkg/trains"

// DedupeTrains collapses duplicate records by identifier, keeping the first
// occurrence. The extract announces some physical services more than once.
func DedupeTrains(candidates []*trains.Train) []*trains.Train {
	seen := map[string]bool{}
	unique := []*trains.Train{}

	for _, train := range candidates {
		if seen[train.RID] {
			continue
		}

		seen[train.RID] = true
		unique = append(unique, train)
	}

	return unique
}
