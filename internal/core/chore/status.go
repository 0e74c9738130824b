// Package chore contains the pure business logic for chore lifecycle operations.
// This is part of the Functional Core - no I/O, only pure functions.
package chore

import (
	"fmt"
	"strings"
)

// Status is one of the nine workflow stages a chore moves through.
// The zero value is not a valid status.
type Status int

const (
	StatusDesign Status = iota + 1
	StatusDesignReview
	StatusDesignReady
	StatusPlan
	StatusPlanReview
	StatusPlanReady
	StatusWork
	StatusWorkReview
	StatusWorkDone
)

var statusNames = [...]string{
	StatusDesign:       "design",
	StatusDesignReview: "design_review",
	StatusDesignReady:  "design_ready",
	StatusPlan:         "plan",
	StatusPlanReview:   "plan_review",
	StatusPlanReady:    "plan_ready",
	StatusWork:         "work",
	StatusWorkReview:   "work_review",
	StatusWorkDone:     "work_done",
}

// AllStatuses returns every status in workflow order.
func AllStatuses() []Status {
	out := make([]Status, 0, len(statusNames)-1)
	for s := StatusDesign; s <= StatusWorkDone; s++ {
		out = append(out, s)
	}
	return out
}

// InitialStatus returns the status every new chore starts in.
func InitialStatus() Status {
	return StatusDesign
}

// Valid reports whether s is one of the nine defined statuses.
func (s Status) Valid() bool {
	return s >= StatusDesign && s <= StatusWorkDone
}

func (s Status) String() string {
	if !s.Valid() {
		return fmt.Sprintf("status(%d)", int(s))
	}
	return statusNames[s]
}

// IsTerminal reports whether s is WORK_DONE.
func (s Status) IsTerminal() bool {
	return s == StatusWorkDone
}

// IsReview reports whether s is one of the review states.
func (s Status) IsReview() bool {
	return s == StatusDesignReview || s == StatusPlanReview || s == StatusWorkReview
}

// IsGate reports whether s is a review-approval gate (DESIGN_READY, PLAN_READY).
func (s Status) IsGate() bool {
	return s == StatusDesignReady || s == StatusPlanReady
}

// IsProducing reports whether s is a state where the producing role writes work.
func (s Status) IsProducing() bool {
	return s == StatusDesign || s == StatusPlan || s == StatusWork
}

// ParseStatus converts a status name into a Status.
// Matching ignores case and surrounding whitespace, so "WORK_DONE" and
// "work_done" are the same status.
func ParseStatus(name string) (Status, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for s := StatusDesign; s <= StatusWorkDone; s++ {
		if statusNames[s] == n {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, name)
}

// MarshalText encodes the status as its lowercase name.
func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: cannot encode %s", ErrInvalidInput, s)
	}
	return []byte(statusNames[s]), nil
}

// UnmarshalText decodes a lowercase (or upper-case) status name.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
