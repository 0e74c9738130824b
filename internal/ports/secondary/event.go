package secondary

import "context"

// Event kinds recorded in the journal.
const (
	EventCreated      = "created"
	EventUpdated      = "updated"
	EventDeleted      = "deleted"
	EventTransition   = "transition"
	EventActivation   = "activation"
	EventChainWarning = "chain_warning"
	EventRepair       = "repair"
)

// EventJournal defines the secondary port for the chore event journal.
// Events are immutable audit records of lifecycle activity.
type EventJournal interface {
	// Record persists an event. Activation events are unique per chore:
	// recording a second one for the same chore returns false and no error.
	Record(ctx context.Context, event *EventRecord) (bool, error)

	// List retrieves events matching the given filters, oldest first.
	List(ctx context.Context, filters EventFilters) ([]*EventRecord, error)
}

// EventRecord represents a journal event as stored in persistence.
type EventRecord struct {
	ID         string
	Kind       string
	ChoreID    uint64
	RelatedID  uint64 // successor for activation/chain_warning, 0 means null
	FromStatus string // Empty string means null
	ToStatus   string // Empty string means null
	Actor      string // Empty string means null
	Detail     string // Empty string means null
	CreatedAt  string
}

// EventFilters contains filter options for querying events.
type EventFilters struct {
	ChoreID uint64
	Kind    string
	Limit   int
}
