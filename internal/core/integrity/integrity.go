// Package integrity contains the pure consistency checks run across the
// active and completed chore logs.
//
// Check never touches storage. It describes each problem found together with
// the repair that resolves it; the application layer applies the repairs.
package integrity

import (
	"fmt"
	"sort"

	"github.com/example/chore/internal/core/chore"
)

// Store names used in violations.
const (
	StoreActive    = "active"
	StoreCompleted = "completed"
)

// Kind identifies a class of violation.
type Kind string

const (
	KindDuplicateAcrossStores  Kind = "duplicate_across_stores"
	KindDuplicateInCompleted   Kind = "duplicate_in_completed"
	KindTerminalInActive       Kind = "terminal_in_active"
	KindNonTerminalInCompleted Kind = "non_terminal_in_completed"
	KindDanglingReference      Kind = "dangling_reference"
	KindCycle                  Kind = "cycle"
)

// Action identifies the repair applied for a violation.
type Action string

const (
	ActionRemoveFromActive             Action = "remove-from-active"
	ActionRemoveFromCompletedDuplicate Action = "remove-from-completed-duplicate"
	ActionRestoreToActive              Action = "restore-to-active"
	ActionClearDanglingReference       Action = "clear-dangling-reference"
	ActionBreakCycleAtID               Action = "break-cycle-at-id"
)

// Record is the part of a chore the checks look at.
type Record struct {
	ID          uint64
	Status      chore.Status
	NextChoreID *uint64
}

// Violation is one inconsistency and the repair for it.
// ChoreID is the record the Action applies to and Store is where it lives.
type Violation struct {
	Kind    Kind
	ChoreID uint64
	Store   string
	Action  Action
	Detail  string
	Cycle   []uint64 // set for KindCycle
}

// Check scans both logs and returns every violation found, grouped by kind
// in a fixed order and sorted by id within a kind. completed is given in log
// order, duplicates included; active is already collapsed to one record per id.
func Check(active, completed []Record) []Violation {
	var out []Violation

	inActive := make(map[uint64]Record, len(active))
	for _, r := range active {
		inActive[r.ID] = r
	}

	// First completed copy of each id, and how many copies there are.
	firstCompleted := make(map[uint64]Record, len(completed))
	copies := make(map[uint64]int, len(completed))
	for _, r := range completed {
		if copies[r.ID] == 0 {
			firstCompleted[r.ID] = r
		}
		copies[r.ID]++
	}

	for _, id := range sortedKeys(inActive) {
		if _, ok := firstCompleted[id]; ok {
			out = append(out, Violation{
				Kind:    KindDuplicateAcrossStores,
				ChoreID: id,
				Store:   StoreActive,
				Action:  ActionRemoveFromActive,
				Detail:  fmt.Sprintf("chore %d is in both logs; the completed copy is kept", id),
			})
		}
	}

	for _, id := range sortedKeys(firstCompleted) {
		if n := copies[id]; n > 1 {
			out = append(out, Violation{
				Kind:    KindDuplicateInCompleted,
				ChoreID: id,
				Store:   StoreCompleted,
				Action:  ActionRemoveFromCompletedDuplicate,
				Detail:  fmt.Sprintf("chore %d appears %d times in the completed log; the first copy is kept", id, n),
			})
		}
	}

	for _, id := range sortedKeys(inActive) {
		r := inActive[id]
		if _, dup := firstCompleted[id]; dup || !r.Status.IsTerminal() {
			continue
		}
		out = append(out, Violation{
			Kind:    KindTerminalInActive,
			ChoreID: id,
			Store:   StoreActive,
			Action:  ActionRemoveFromActive,
			Detail:  fmt.Sprintf("chore %d is %s but still in the active log", id, r.Status),
		})
	}

	for _, id := range sortedKeys(firstCompleted) {
		r := firstCompleted[id]
		if _, dup := inActive[id]; dup || r.Status.IsTerminal() {
			continue
		}
		out = append(out, Violation{
			Kind:    KindNonTerminalInCompleted,
			ChoreID: id,
			Store:   StoreCompleted,
			Action:  ActionRestoreToActive,
			Detail:  fmt.Sprintf("chore %d is %s but in the completed log", id, r.Status),
		})
	}

	// The chain graph uses the surviving copy of each id: the completed
	// copy wins over the active one.
	effective := make(map[uint64]Record, len(inActive)+len(firstCompleted))
	storeOf := make(map[uint64]string, len(effective))
	for id, r := range inActive {
		effective[id] = r
		storeOf[id] = StoreActive
	}
	for id, r := range firstCompleted {
		effective[id] = r
		storeOf[id] = StoreCompleted
	}

	successors := make(map[uint64]uint64)
	for _, id := range sortedKeys(effective) {
		r := effective[id]
		if r.NextChoreID == nil {
			continue
		}
		next := *r.NextChoreID
		if _, ok := effective[next]; !ok {
			out = append(out, Violation{
				Kind:    KindDanglingReference,
				ChoreID: id,
				Store:   storeOf[id],
				Action:  ActionClearDanglingReference,
				Detail:  fmt.Sprintf("chore %d points at missing chore %d", id, next),
			})
			continue
		}
		successors[id] = next
	}

	for _, cycle := range chore.FindCycles(successors) {
		at := breakPoint(cycle, storeOf)
		out = append(out, Violation{
			Kind:    KindCycle,
			ChoreID: at,
			Store:   storeOf[at],
			Action:  ActionBreakCycleAtID,
			Detail:  fmt.Sprintf("chain cycle %s is broken at chore %d", formatCycle(cycle), at),
			Cycle:   cycle,
		})
	}

	return out
}

// breakPoint picks the highest active id in the cycle, or the highest id when
// every member is completed.
func breakPoint(cycle []uint64, storeOf map[uint64]string) uint64 {
	var highestActive, highest uint64
	for _, id := range cycle {
		if id > highest {
			highest = id
		}
		if storeOf[id] == StoreActive && id > highestActive {
			highestActive = id
		}
	}
	if highestActive != 0 {
		return highestActive
	}
	return highest
}

func formatCycle(cycle []uint64) string {
	s := ""
	for _, id := range cycle {
		s += fmt.Sprintf("%d -> ", id)
	}
	return s + fmt.Sprintf("%d", cycle[0])
}

func sortedKeys(m map[uint64]Record) []uint64 {
	keys := make([]uint64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
