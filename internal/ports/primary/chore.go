// Package primary defines the primary ports (driving adapters) for the application.
package primary

import (
	"context"
	"time"

	"github.com/example/chore/internal/core/chore"
)

// ChoreService defines the primary port for chore operations.
type ChoreService interface {
	// CreateChore creates a new chore at the initial status.
	CreateChore(ctx context.Context, req CreateChoreRequest) (*Chore, error)

	// GetChore retrieves a chore by ID from either log.
	GetChore(ctx context.Context, choreID uint64) (*Chore, error)

	// UpdateChore updates the non-status fields of an active chore.
	UpdateChore(ctx context.Context, req UpdateChoreRequest) (*Chore, error)

	// ReplaceChore overwrites an active chore's name and description.
	ReplaceChore(ctx context.Context, req ReplaceChoreRequest) (*Chore, error)

	// DeleteChore deletes an active, non-terminal chore.
	DeleteChore(ctx context.Context, choreID uint64) error

	// ListChores lists chores from both logs ordered by ID.
	ListChores(ctx context.Context, filters ChoreFilters) ([]*Chore, error)

	// FindByStatus lists every chore at the given status.
	FindByStatus(ctx context.Context, status chore.Status) ([]*Chore, error)

	// TransitionChore moves a chore one step through the workflow.
	TransitionChore(ctx context.Context, req TransitionRequest) (*TransitionResult, error)

	// ArchiveChores moves active chores already at work_done to the completed log.
	ArchiveChores(ctx context.Context, dryRun bool) (*ArchiveResult, error)
}

// IntegrityService defines the primary port for cross-log validation.
type IntegrityService interface {
	// Validate scans both logs. With repair set, every violation found is
	// repaired before returning.
	Validate(ctx context.Context, repair bool) (*IntegrityReport, error)
}

// EventService defines the primary port for reading the event journal.
type EventService interface {
	// ListEvents lists journal events, oldest first.
	ListEvents(ctx context.Context, filters EventFilters) ([]*Event, error)
}

// CreateChoreRequest contains parameters for creating a chore.
type CreateChoreRequest struct {
	Name        string
	Description string
}

// UpdateChoreRequest contains parameters for updating a chore.
// Nil fields are left unchanged. Status is not updatable here.
type UpdateChoreRequest struct {
	ChoreID      uint64
	Name         *string
	Description  *string
	ProgressInfo *string
	ReviewInfo   *string
	NextChoreID  *uint64
	ClearNext    bool // unlink the successor; wins over NextChoreID
}

// ReplaceChoreRequest contains parameters for replacing a chore's content.
type ReplaceChoreRequest struct {
	ChoreID     uint64
	Name        string
	Description string
}

// ChoreFilters contains filter options for listing chores.
type ChoreFilters struct {
	Status *chore.Status
}

// TransitionRequest contains parameters for a status transition.
type TransitionRequest struct {
	ChoreID uint64
	Status  chore.Status
	Role    chore.Role
	Note    string // appended to progress_info (producer) or review_info (reviewer)
}

// TransitionResult describes what a successful transition did.
type TransitionResult struct {
	Chore    *Chore
	From     chore.Status
	Archived bool
	// Activated is the successor made eligible for work, 0 if none.
	Activated uint64
	Warning   *ChainIntegrityWarning
}

// ChainIntegrityWarning reports a successor that could not be activated.
// It is logged and journaled but never returned as an error.
type ChainIntegrityWarning struct {
	ChoreID     uint64
	SuccessorID uint64
	Reason      string
}

func (w ChainIntegrityWarning) String() string {
	return w.Reason
}

// ArchiveResult lists the chores archived by a sweep.
type ArchiveResult struct {
	DryRun   bool
	Archived []*Chore
}

// IntegrityReport is the outcome of a validation run.
type IntegrityReport struct {
	ActiveCount    int
	CompletedCount int
	Violations     []Violation
	Repairs        []Repair
}

// Clean reports whether nothing was found or repaired.
func (r *IntegrityReport) Clean() bool {
	return len(r.Violations) == 0 && len(r.Repairs) == 0
}

// Violation is one integrity problem and the repair that resolves it.
type Violation struct {
	Kind    string
	ChoreID uint64
	Store   string
	Action  string
	Detail  string
}

// Repair is one applied repair action.
type Repair struct {
	Action  string
	ChoreID uint64
	Store   string
}

// EventFilters contains filter options for listing events.
type EventFilters struct {
	ChoreID uint64
	Kind    string
	Limit   int
}

// Event represents a journal event.
type Event struct {
	ID         string
	Kind       string
	ChoreID    uint64
	RelatedID  uint64
	FromStatus string
	ToStatus   string
	Actor      string
	Detail     string
	CreatedAt  string
}

// Chore represents a chore entity at the port boundary.
type Chore struct {
	ID           uint64
	Name         string
	Description  string
	Status       chore.Status
	NextChoreID  *uint64
	ProgressInfo string
	ReviewInfo   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Completed    bool // true when the chore lives in the completed log
}
