package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/chore/internal/ports/primary"
	"github.com/example/chore/internal/ports/secondary"
)

// EventServiceImpl implements the EventService interface.
type EventServiceImpl struct {
	journal secondary.EventJournal
}

// NewEventService creates a new EventService with injected dependencies.
func NewEventService(journal secondary.EventJournal) *EventServiceImpl {
	return &EventServiceImpl{journal: journal}
}

// ListEvents lists journal events, oldest first.
func (s *EventServiceImpl) ListEvents(ctx context.Context, filters primary.EventFilters) ([]*primary.Event, error) {
	records, err := s.journal.List(ctx, secondary.EventFilters{
		ChoreID: filters.ChoreID,
		Kind:    filters.Kind,
		Limit:   filters.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	events := make([]*primary.Event, len(records))
	for i, r := range records {
		events[i] = &primary.Event{
			ID:         r.ID,
			Kind:       r.Kind,
			ChoreID:    r.ChoreID,
			RelatedID:  r.RelatedID,
			FromStatus: r.FromStatus,
			ToStatus:   r.ToStatus,
			Actor:      r.Actor,
			Detail:     r.Detail,
			CreatedAt:  r.CreatedAt,
		}
	}
	return events, nil
}

// recordEvent writes an event to the journal and reports whether it was
// stored. The journal is an audit trail: a failed write is logged and the
// operation that produced the event still succeeds.
func recordEvent(ctx context.Context, journal secondary.EventJournal, logger *slog.Logger, event *secondary.EventRecord) bool {
	if journal == nil {
		return false
	}
	inserted, err := journal.Record(ctx, event)
	if err != nil {
		logger.Warn("failed to record event",
			"kind", event.Kind,
			"chore_id", event.ChoreID,
			"error", err)
		return false
	}
	return inserted
}

// Ensure EventServiceImpl implements the interface
var _ primary.EventService = (*EventServiceImpl)(nil)
