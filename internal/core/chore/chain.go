package chore

import (
	"fmt"
	"sort"
)

// LinkContext provides context for successor link guards.
// Successors maps every known chore id to its current next_chore_id;
// chores without a successor are absent from the map.
type LinkContext struct {
	ChoreID         uint64
	SuccessorID     uint64
	SuccessorExists bool
	Successors      map[uint64]uint64
}

// CanLinkSuccessor evaluates whether ChoreID may point at SuccessorID.
// Rules:
// - A chore cannot be its own successor
// - The successor must exist
// - Following the chain from the successor must never reach ChoreID
func CanLinkSuccessor(ctx LinkContext) GuardResult {
	if ctx.ChoreID == ctx.SuccessorID {
		return GuardResult{
			Reason: fmt.Sprintf("chore %d cannot be its own successor", ctx.ChoreID),
		}
	}
	if !ctx.SuccessorExists {
		return GuardResult{
			Reason: fmt.Sprintf("successor chore %d not found", ctx.SuccessorID),
		}
	}
	if path, ok := chainReaches(ctx.Successors, ctx.SuccessorID, ctx.ChoreID); ok {
		return GuardResult{
			Reason: fmt.Sprintf("linking chore %d to %d would create a cycle (%s)", ctx.ChoreID, ctx.SuccessorID, formatPath(append([]uint64{ctx.ChoreID}, path...))),
		}
	}
	return GuardResult{Allowed: true}
}

// chainReaches follows successors from start and reports the path walked if
// target is reached. Walking stops on any id already seen.
func chainReaches(successors map[uint64]uint64, start, target uint64) ([]uint64, bool) {
	seen := make(map[uint64]bool)
	path := []uint64{}
	for cur := start; ; {
		path = append(path, cur)
		if cur == target {
			return path, true
		}
		if seen[cur] {
			return nil, false
		}
		seen[cur] = true
		next, ok := successors[cur]
		if !ok {
			return nil, false
		}
		cur = next
	}
}

// FindCycles returns every cycle in the successor graph. Each cycle is listed
// once, starting from its smallest id, and cycles are ordered by that id.
func FindCycles(successors map[uint64]uint64) [][]uint64 {
	ids := make([]uint64, 0, len(successors))
	for id := range successors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	const (
		unvisited = iota
		onPath
		done
	)
	state := make(map[uint64]int, len(successors))
	var cycles [][]uint64

	for _, start := range ids {
		if state[start] != unvisited {
			continue
		}
		var path []uint64
		cur := start
		for {
			if state[cur] == done {
				break
			}
			if state[cur] == onPath {
				// cur closes a loop; the cycle is the path suffix starting at cur.
				for i, id := range path {
					if id == cur {
						cycles = append(cycles, rotateToMin(path[i:]))
						break
					}
				}
				break
			}
			state[cur] = onPath
			path = append(path, cur)
			next, ok := successors[cur]
			if !ok {
				break
			}
			cur = next
		}
		for _, id := range path {
			state[id] = done
		}
	}

	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles
}

func rotateToMin(cycle []uint64) []uint64 {
	minIdx := 0
	for i, id := range cycle {
		if id < cycle[minIdx] {
			minIdx = i
		}
	}
	out := make([]uint64, 0, len(cycle))
	out = append(out, cycle[minIdx:]...)
	out = append(out, cycle[:minIdx]...)
	return out
}

func formatPath(path []uint64) string {
	s := ""
	for i, id := range path {
		if i > 0 {
			s += " -> "
		}
		s += fmt.Sprintf("%d", id)
	}
	return s
}
