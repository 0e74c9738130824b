// Package secondary defines the secondary ports (driven adapters) for the application.
package secondary

import (
	"context"
	"fmt"
	"time"

	"github.com/example/chore/internal/core/chore"
)

// ChoreRecord represents a chore as stored in persistence.
// One record is encoded as one JSON line in a store log.
type ChoreRecord struct {
	ID           uint64       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Status       chore.Status `json:"status"`
	NextChoreID  *uint64      `json:"next_chore_id"` // nil means no successor
	ProgressInfo string       `json:"progress_info"`
	ReviewInfo   string       `json:"review_info"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Clone returns a deep copy of the record.
func (r *ChoreRecord) Clone() *ChoreRecord {
	if r == nil {
		return nil
	}
	c := *r
	if r.NextChoreID != nil {
		next := *r.NextChoreID
		c.NextChoreID = &next
	}
	return &c
}

// Location identifies which store a record resides in.
type Location int

const (
	LocationNone Location = iota
	LocationActive
	LocationCompleted
)

func (l Location) String() string {
	switch l {
	case LocationActive:
		return "active"
	case LocationCompleted:
		return "completed"
	}
	return "none"
}

// ChoreStore defines the secondary port for the two chore logs.
// Every operation on the logs happens inside View or Update so lock scope is
// explicit: View holds shared locks, Update holds exclusive locks on the active
// log and then the completed log for the whole callback.
type ChoreStore interface {
	// View runs fn against a read-only transaction. Mutating calls fail.
	View(ctx context.Context, fn func(tx ChoreTx) error) error

	// Update runs fn against a writable transaction. Each mutating call is
	// applied to disk immediately as one atomic file operation; there is no
	// rollback if fn fails part way.
	Update(ctx context.Context, fn func(tx ChoreTx) error) error
}

// ChoreTx is the view of both logs while their locks are held.
// Returned records are copies; changing them has no effect until written back.
type ChoreTx interface {
	// Active returns every active record in log order.
	Active() ([]*ChoreRecord, error)

	// Completed returns every completed record in log order, duplicates included.
	Completed() ([]*ChoreRecord, error)

	// Find looks up id in the completed log, then the active log. An id in
	// both logs is reported as completed with its first completed copy.
	// Returns LocationNone and a nil record when absent from both.
	Find(id uint64) (*ChoreRecord, Location, error)

	// InsertActive appends a new record to the active log.
	InsertActive(rec *ChoreRecord) error

	// ReplaceActive rewrites the active log with the given records replacing
	// the ones with matching ids. Unknown ids fail with chore.ErrNotFound.
	ReplaceActive(recs ...*ChoreRecord) error

	// RemoveActive removes id from the active log if present. Any records in
	// replace are written over their matching ids in the same rewrite.
	RemoveActive(id uint64, replace ...*ChoreRecord) (bool, error)

	// AppendCompleted appends rec to the completed log unless a record with
	// the same id is already there.
	AppendCompleted(rec *ChoreRecord) (bool, error)

	// RewriteCompleted replaces the whole completed log. Only integrity
	// repair uses it; normal operation never rewrites completed records.
	RewriteCompleted(recs []*ChoreRecord) error
}

// StoreIOError reports a failed read, write, or decode of a store log.
type StoreIOError struct {
	Op   string // "open", "read", "decode", "append", "rewrite", "lock"
	Path string
	Err  error
}

func (e *StoreIOError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StoreIOError) Unwrap() error { return e.Err }
