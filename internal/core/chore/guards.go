package chore

import (
	"fmt"
	"strings"
)

// Role identifies who is acting on a chore.
type Role string

const (
	RoleProducer Role = "producer" // writes design, plan, and work
	RoleReviewer Role = "reviewer" // approves or rejects review states
)

// ParseRole converts a role name into a Role.
func ParseRole(name string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(name))) {
	case RoleProducer:
		return RoleProducer, nil
	case RoleReviewer:
		return RoleReviewer, nil
	}
	return "", fmt.Errorf("%w: unknown role %q (want producer or reviewer)", ErrInvalidInput, name)
}

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an ErrInvalidInput error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, r.Reason)
}

// TransitionContext provides context for status transition guards.
type TransitionContext struct {
	ChoreID   uint64
	Current   Status
	Requested Status
	Role      Role
}

// TransitionGuard is the result of CanTransition. It wraps GuardResult so the
// error it produces is always ErrInvalidTransition.
type TransitionGuard struct {
	GuardResult
}

// Error converts the guard to an ErrInvalidTransition error if not allowed.
func (g TransitionGuard) Error() error {
	if g.Allowed {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidTransition, g.Reason)
}

// IsLegalEdge reports whether from -> to is in the transition graph.
// Forward edges advance exactly one step; the only backward edges are a
// review state rejecting to the state before it.
func IsLegalEdge(from, to Status) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if to == from+1 {
		return true
	}
	return from.IsReview() && to == from-1
}

// EdgeOwner returns the role allowed to move a chore out of from.
// Every edge leaving a review state (approve or reject) belongs to the
// reviewer; edges leaving producing and gate states belong to the producer.
func EdgeOwner(from Status) Role {
	if from.IsReview() {
		return RoleReviewer
	}
	return RoleProducer
}

// NextStatus returns the forward successor of s, or false for WORK_DONE.
func NextStatus(s Status) (Status, bool) {
	if !s.Valid() || s.IsTerminal() {
		return 0, false
	}
	return s + 1, true
}

// RejectStatus returns the state a review state rejects back to.
func RejectStatus(s Status) (Status, bool) {
	if !s.IsReview() {
		return 0, false
	}
	return s - 1, true
}

// CanTransition evaluates whether a chore may move to the requested status.
// Rules:
// - Requested must be a valid status
// - The edge current -> requested must be in the transition graph
// - The acting role must own the edge
func CanTransition(ctx TransitionContext) TransitionGuard {
	if !ctx.Requested.Valid() {
		return TransitionGuard{GuardResult{
			Reason: fmt.Sprintf("chore %d: unknown requested status %s", ctx.ChoreID, ctx.Requested),
		}}
	}
	if ctx.Current.IsTerminal() {
		return TransitionGuard{GuardResult{
			Reason: fmt.Sprintf("chore %d is %s and cannot change status", ctx.ChoreID, ctx.Current),
		}}
	}
	if !IsLegalEdge(ctx.Current, ctx.Requested) {
		return TransitionGuard{GuardResult{
			Reason: fmt.Sprintf("chore %d cannot move from %s to %s", ctx.ChoreID, ctx.Current, ctx.Requested),
		}}
	}
	if owner := EdgeOwner(ctx.Current); ctx.Role != owner {
		return TransitionGuard{GuardResult{
			Reason: fmt.Sprintf("chore %d: %s -> %s belongs to the %s, not the %q role", ctx.ChoreID, ctx.Current, ctx.Requested, owner, ctx.Role),
		}}
	}
	return TransitionGuard{GuardResult{Allowed: true}}
}

// DeleteContext provides context for delete guards.
type DeleteContext struct {
	ChoreID   uint64
	Status    Status
	Completed bool

	// CompletedPredecessor is a completed chore whose next_chore_id is ChoreID,
	// 0 if there is none.
	CompletedPredecessor uint64
}

// CanDeleteChore evaluates whether a chore can be deleted.
// Rules:
// - Completed chores are permanent
// - Only active, non-terminal chores can be deleted
// - A chore referenced by a completed chore stays, since completed records are not rewritten
func CanDeleteChore(ctx DeleteContext) GuardResult {
	if ctx.Completed {
		return GuardResult{
			Reason: fmt.Sprintf("chore %d is completed; completed chores cannot be deleted", ctx.ChoreID),
		}
	}
	if ctx.Status.IsTerminal() {
		return GuardResult{
			Reason: fmt.Sprintf("chore %d is %s and awaits archival; run validate --repair", ctx.ChoreID, ctx.Status),
		}
	}
	if ctx.CompletedPredecessor != 0 {
		return GuardResult{
			Reason: fmt.Sprintf("chore %d is the successor of completed chore %d and cannot be deleted", ctx.ChoreID, ctx.CompletedPredecessor),
		}
	}
	return GuardResult{Allowed: true}
}

// CanNameChore evaluates whether a name is acceptable for a chore.
func CanNameChore(name string) GuardResult {
	if strings.TrimSpace(name) == "" {
		return GuardResult{Reason: "chore name must not be empty"}
	}
	if strings.ContainsAny(name, "\n\r") {
		return GuardResult{Reason: "chore name must be a single line"}
	}
	return GuardResult{Allowed: true}
}

// AppendInfo applies an info-field write. In append mode the addition goes on
// a new line after the existing text; otherwise it replaces it.
func AppendInfo(existing, addition string, appendMode bool) string {
	if !appendMode || existing == "" {
		return addition
	}
	if addition == "" {
		return existing
	}
	return existing + "\n" + addition
}
