// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/chore/internal/ports/secondary"
)

var knownKinds = map[string]bool{
	secondary.EventCreated:      true,
	secondary.EventUpdated:      true,
	secondary.EventDeleted:      true,
	secondary.EventTransition:   true,
	secondary.EventActivation:   true,
	secondary.EventChainWarning: true,
	secondary.EventRepair:       true,
}

// EventRepository implements secondary.EventJournal with SQLite.
type EventRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewEventRepository creates a new SQLite event journal.
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db, now: time.Now}
}

// Record persists a new event. Missing IDs are filled with a UUID and a
// missing CreatedAt with the current time.
func (r *EventRepository) Record(ctx context.Context, event *secondary.EventRecord) (bool, error) {
	if !knownKinds[event.Kind] {
		return false, fmt.Errorf("unknown event kind %q", event.Kind)
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt == "" {
		event.CreatedAt = r.now().UTC().Format(time.RFC3339Nano)
	}

	var relatedID sql.NullInt64
	var fromStatus, toStatus, actor, detail sql.NullString
	if event.RelatedID != 0 {
		relatedID = sql.NullInt64{Int64: int64(event.RelatedID), Valid: true}
	}
	if event.FromStatus != "" {
		fromStatus = sql.NullString{String: event.FromStatus, Valid: true}
	}
	if event.ToStatus != "" {
		toStatus = sql.NullString{String: event.ToStatus, Valid: true}
	}
	if event.Actor != "" {
		actor = sql.NullString{String: event.Actor, Valid: true}
	}
	if event.Detail != "" {
		detail = sql.NullString{String: event.Detail, Valid: true}
	}

	// OR IGNORE only ever trips the partial unique index on activation events:
	// ids are fresh UUIDs and every NOT NULL column is set above.
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO chore_events (id, kind, chore_id, related_id, from_status, to_status, actor, detail, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.Kind,
		int64(event.ChoreID),
		relatedID,
		fromStatus,
		toStatus,
		actor,
		detail,
		event.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to record event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to record event: %w", err)
	}
	return n > 0, nil
}

// List retrieves events matching the given filters, oldest first.
func (r *EventRepository) List(ctx context.Context, filters secondary.EventFilters) ([]*secondary.EventRecord, error) {
	query := `SELECT id, kind, chore_id, related_id, from_status, to_status, actor, detail, created_at FROM chore_events WHERE 1=1`
	args := []any{}

	if filters.ChoreID != 0 {
		query += " AND (chore_id = ? OR related_id = ?)"
		args = append(args, int64(filters.ChoreID), int64(filters.ChoreID))
	}

	if filters.Kind != "" {
		query += " AND kind = ?"
		args = append(args, filters.Kind)
	}

	query += " ORDER BY seq ASC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*secondary.EventRecord
	for rows.Next() {
		var (
			choreID    int64
			relatedID  sql.NullInt64
			fromStatus sql.NullString
			toStatus   sql.NullString
			actor      sql.NullString
			detail     sql.NullString
		)

		record := &secondary.EventRecord{}
		err := rows.Scan(&record.ID,
			&record.Kind,
			&choreID,
			&relatedID,
			&fromStatus,
			&toStatus,
			&actor,
			&detail,
			&record.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		record.ChoreID = uint64(choreID)
		if relatedID.Valid {
			record.RelatedID = uint64(relatedID.Int64)
		}
		record.FromStatus = fromStatus.String
		record.ToStatus = toStatus.String
		record.Actor = actor.String
		record.Detail = detail.String

		events = append(events, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	return events, nil
}

// Ensure EventRepository implements the interface
var _ secondary.EventJournal = (*EventRepository)(nil)
