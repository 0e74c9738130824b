package app

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/chore/internal/core/chore"
	"github.com/example/chore/internal/ctxutil"
	"github.com/example/chore/internal/ports/primary"
	"github.com/example/chore/internal/ports/secondary"
)

// IDSource generates unique, increasing chore IDs.
type IDSource interface {
	Next() (uint64, error)
}

// ChoreServiceOptions holds optional settings for the chore service.
type ChoreServiceOptions struct {
	Logger *slog.Logger
	// ReplaceInfo makes progress_info and review_info writes overwrite the
	// existing text instead of appending a new line.
	ReplaceInfo bool
	Now         func() time.Time
}

// ChoreServiceImpl implements the ChoreService interface.
type ChoreServiceImpl struct {
	store      secondary.ChoreStore
	journal    secondary.EventJournal
	ids        IDSource
	chain      *chainActivator
	logger     *slog.Logger
	appendInfo bool
	now        func() time.Time
}

// NewChoreService creates a new ChoreService with injected dependencies.
func NewChoreService(store secondary.ChoreStore, journal secondary.EventJournal, ids IDSource, opts ChoreServiceOptions) *ChoreServiceImpl {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &ChoreServiceImpl{
		store:      store,
		journal:    journal,
		ids:        ids,
		chain:      newChainActivator(journal, logger),
		logger:     logger,
		appendInfo: !opts.ReplaceInfo,
		now:        now,
	}
}

// CreateChore creates a new chore at the initial status.
func (s *ChoreServiceImpl) CreateChore(ctx context.Context, req primary.CreateChoreRequest) (*primary.Chore, error) {
	if result := chore.CanNameChore(req.Name); !result.Allowed {
		return nil, result.Error()
	}

	id, err := s.ids.Next()
	if err != nil {
		return nil, fmt.Errorf("failed to generate chore ID: %w", err)
	}

	now := s.now().UTC()
	record := &secondary.ChoreRecord{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Status:      chore.InitialStatus(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.store.Update(ctx, func(tx secondary.ChoreTx) error {
		return tx.InsertActive(record)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chore: %w", err)
	}

	s.logger.Info("chore created", "chore_id", id, "name", req.Name)
	recordEvent(ctx, s.journal, s.logger, &secondary.EventRecord{
		Kind:     secondary.EventCreated,
		ChoreID:  id,
		ToStatus: record.Status.String(),
		Actor:    ctxutil.ActorFromContext(ctx, ""),
		Detail:   req.Name,
	})

	return recordToChore(record, false), nil
}

// GetChore retrieves a chore by ID from either log.
func (s *ChoreServiceImpl) GetChore(ctx context.Context, choreID uint64) (*primary.Chore, error) {
	var result *primary.Chore
	err := s.store.View(ctx, func(tx secondary.ChoreTx) error {
		record, loc, err := tx.Find(choreID)
		if err != nil {
			return fmt.Errorf("failed to read chore: %w", err)
		}
		if loc == secondary.LocationNone {
			return fmt.Errorf("%w: %d", chore.ErrNotFound, choreID)
		}
		result = recordToChore(record, loc == secondary.LocationCompleted)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateChore updates the non-status fields of an active chore.
func (s *ChoreServiceImpl) UpdateChore(ctx context.Context, req primary.UpdateChoreRequest) (*primary.Chore, error) {
	if req.Name != nil {
		if result := chore.CanNameChore(*req.Name); !result.Allowed {
			return nil, result.Error()
		}
	}

	var updated *secondary.ChoreRecord
	err := s.store.Update(ctx, func(tx secondary.ChoreTx) error {
		record, err := findActive(tx, req.ChoreID)
		if err != nil {
			return err
		}

		if req.Name != nil {
			record.Name = *req.Name
		}
		if req.Description != nil {
			record.Description = *req.Description
		}
		if req.ProgressInfo != nil {
			record.ProgressInfo = chore.AppendInfo(record.ProgressInfo, *req.ProgressInfo, s.appendInfo)
		}
		if req.ReviewInfo != nil {
			record.ReviewInfo = chore.AppendInfo(record.ReviewInfo, *req.ReviewInfo, s.appendInfo)
		}

		switch {
		case req.ClearNext:
			record.NextChoreID = nil
		case req.NextChoreID != nil:
			successorID := *req.NextChoreID
			successors, exists, err := successorGraph(tx, req.ChoreID, successorID)
			if err != nil {
				return err
			}
			result := chore.CanLinkSuccessor(chore.LinkContext{
				ChoreID:         req.ChoreID,
				SuccessorID:     successorID,
				SuccessorExists: exists,
				Successors:      successors,
			})
			if !result.Allowed {
				return result.Error()
			}
			record.NextChoreID = &successorID
		}

		record.UpdatedAt = s.now().UTC()
		if err := tx.ReplaceActive(record); err != nil {
			return fmt.Errorf("failed to update chore: %w", err)
		}
		updated = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("chore updated", "chore_id", req.ChoreID)
	recordEvent(ctx, s.journal, s.logger, &secondary.EventRecord{
		Kind:    secondary.EventUpdated,
		ChoreID: req.ChoreID,
		Actor:   ctxutil.ActorFromContext(ctx, ""),
		Detail:  describeUpdate(req),
	})

	return recordToChore(updated, false), nil
}

// ReplaceChore overwrites an active chore's name and description.
func (s *ChoreServiceImpl) ReplaceChore(ctx context.Context, req primary.ReplaceChoreRequest) (*primary.Chore, error) {
	if result := chore.CanNameChore(req.Name); !result.Allowed {
		return nil, result.Error()
	}

	var updated *secondary.ChoreRecord
	err := s.store.Update(ctx, func(tx secondary.ChoreTx) error {
		record, err := findActive(tx, req.ChoreID)
		if err != nil {
			return err
		}
		record.Name = req.Name
		record.Description = req.Description
		record.UpdatedAt = s.now().UTC()
		if err := tx.ReplaceActive(record); err != nil {
			return fmt.Errorf("failed to replace chore: %w", err)
		}
		updated = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("chore replaced", "chore_id", req.ChoreID, "name", req.Name)
	recordEvent(ctx, s.journal, s.logger, &secondary.EventRecord{
		Kind:    secondary.EventUpdated,
		ChoreID: req.ChoreID,
		Actor:   ctxutil.ActorFromContext(ctx, ""),
		Detail:  "replaced name and description",
	})

	return recordToChore(updated, false), nil
}

// DeleteChore deletes an active, non-terminal chore. Active chores pointing at
// it lose their successor link in the same rewrite.
func (s *ChoreServiceImpl) DeleteChore(ctx context.Context, choreID uint64) error {
	var unlinked []uint64
	err := s.store.Update(ctx, func(tx secondary.ChoreTx) error {
		record, loc, err := tx.Find(choreID)
		if err != nil {
			return fmt.Errorf("failed to read chore: %w", err)
		}
		if loc == secondary.LocationNone {
			return fmt.Errorf("%w: %d", chore.ErrNotFound, choreID)
		}

		completed, err := tx.Completed()
		if err != nil {
			return fmt.Errorf("failed to read completed chores: %w", err)
		}
		var predecessor uint64
		for _, c := range completed {
			if c.NextChoreID != nil && *c.NextChoreID == choreID {
				predecessor = c.ID
				break
			}
		}

		guardCtx := chore.DeleteContext{
			ChoreID:              choreID,
			Status:               record.Status,
			Completed:            loc == secondary.LocationCompleted,
			CompletedPredecessor: predecessor,
		}
		if result := chore.CanDeleteChore(guardCtx); !result.Allowed {
			return result.Error()
		}

		active, err := tx.Active()
		if err != nil {
			return fmt.Errorf("failed to read active chores: %w", err)
		}
		now := s.now().UTC()
		var cleared []*secondary.ChoreRecord
		for _, a := range active {
			if a.ID != choreID && a.NextChoreID != nil && *a.NextChoreID == choreID {
				a.NextChoreID = nil
				a.UpdatedAt = now
				cleared = append(cleared, a)
				unlinked = append(unlinked, a.ID)
			}
		}

		if _, err := tx.RemoveActive(choreID, cleared...); err != nil {
			return fmt.Errorf("failed to delete chore: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("chore deleted", "chore_id", choreID, "unlinked", unlinked)
	recordEvent(ctx, s.journal, s.logger, &secondary.EventRecord{
		Kind:    secondary.EventDeleted,
		ChoreID: choreID,
		Actor:   ctxutil.ActorFromContext(ctx, ""),
	})
	return nil
}

// ListChores lists chores from both logs ordered by ID. When an ID is in both
// logs only the completed copy is returned.
func (s *ChoreServiceImpl) ListChores(ctx context.Context, filters primary.ChoreFilters) ([]*primary.Chore, error) {
	var chores []*primary.Chore
	err := s.store.View(ctx, func(tx secondary.ChoreTx) error {
		active, err := tx.Active()
		if err != nil {
			return fmt.Errorf("failed to read active chores: %w", err)
		}
		completed, err := tx.Completed()
		if err != nil {
			return fmt.Errorf("failed to read completed chores: %w", err)
		}

		seen := make(map[uint64]bool, len(active)+len(completed))
		for _, r := range completed {
			if seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			chores = append(chores, recordToChore(r, true))
		}
		for _, r := range active {
			if seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			chores = append(chores, recordToChore(r, false))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if filters.Status != nil {
		filtered := chores[:0]
		for _, c := range chores {
			if c.Status == *filters.Status {
				filtered = append(filtered, c)
			}
		}
		chores = filtered
	}

	sort.Slice(chores, func(i, j int) bool { return chores[i].ID < chores[j].ID })
	return chores, nil
}

// FindByStatus lists every chore at the given status.
func (s *ChoreServiceImpl) FindByStatus(ctx context.Context, status chore.Status) ([]*primary.Chore, error) {
	return s.ListChores(ctx, primary.ChoreFilters{Status: &status})
}

// TransitionChore moves an active chore one step through the workflow.
// A transition into the terminal status archives the chore and activates its
// successor before the store locks are released.
func (s *ChoreServiceImpl) TransitionChore(ctx context.Context, req primary.TransitionRequest) (*primary.TransitionResult, error) {
	var result *primary.TransitionResult
	err := s.store.Update(ctx, func(tx secondary.ChoreTx) error {
		record, err := findActive(tx, req.ChoreID)
		if err != nil {
			return err
		}

		guardCtx := chore.TransitionContext{
			ChoreID:   req.ChoreID,
			Current:   record.Status,
			Requested: req.Status,
			Role:      req.Role,
		}
		if guard := chore.CanTransition(guardCtx); !guard.Allowed {
			return guard.Error()
		}

		from := record.Status
		record.Status = req.Status
		record.UpdatedAt = s.now().UTC()
		if req.Note != "" {
			if req.Role == chore.RoleReviewer {
				record.ReviewInfo = chore.AppendInfo(record.ReviewInfo, req.Note, s.appendInfo)
			} else {
				record.ProgressInfo = chore.AppendInfo(record.ProgressInfo, req.Note, s.appendInfo)
			}
		}

		result = &primary.TransitionResult{From: from}

		if !record.Status.IsTerminal() {
			if err := tx.ReplaceActive(record); err != nil {
				return fmt.Errorf("failed to update chore status: %w", err)
			}
			result.Chore = recordToChore(record, false)
			s.recordTransition(ctx, record, from, req)
			return nil
		}

		// The terminal record goes straight to the completed log; the
		// stale active copy is then removed by the second half of archive.
		if err := archive(tx, record); err != nil {
			return fmt.Errorf("failed to archive chore %d: %w", record.ID, err)
		}
		result.Chore = recordToChore(record, true)
		result.Archived = true
		s.recordTransition(ctx, record, from, req)
		result.Activated, result.Warning = s.chain.activate(ctx, tx, record)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("chore transitioned",
		"chore_id", req.ChoreID,
		"from", result.From.String(),
		"to", req.Status.String(),
		"role", string(req.Role),
		"archived", result.Archived)
	return result, nil
}

func (s *ChoreServiceImpl) recordTransition(ctx context.Context, record *secondary.ChoreRecord, from chore.Status, req primary.TransitionRequest) {
	recordEvent(ctx, s.journal, s.logger, &secondary.EventRecord{
		Kind:       secondary.EventTransition,
		ChoreID:    record.ID,
		FromStatus: from.String(),
		ToStatus:   record.Status.String(),
		Actor:      ctxutil.ActorFromContext(ctx, string(req.Role)),
		Detail:     req.Note,
	})
}

// findActive returns the active record for id. A completed id is reported as
// not found because completed chores no longer change.
func findActive(tx secondary.ChoreTx, id uint64) (*secondary.ChoreRecord, error) {
	record, loc, err := tx.Find(id)
	if err != nil {
		return nil, fmt.Errorf("failed to read chore: %w", err)
	}
	switch loc {
	case secondary.LocationNone:
		return nil, fmt.Errorf("%w: %d", chore.ErrNotFound, id)
	case secondary.LocationCompleted:
		return nil, fmt.Errorf("%w: %d is completed and can no longer change", chore.ErrNotFound, id)
	}
	return record, nil
}

// successorGraph builds the successor map across both logs, leaving out the
// current link of choreID since it is about to be replaced.
func successorGraph(tx secondary.ChoreTx, choreID, successorID uint64) (map[uint64]uint64, bool, error) {
	active, err := tx.Active()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read active chores: %w", err)
	}
	completed, err := tx.Completed()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read completed chores: %w", err)
	}

	successors := make(map[uint64]uint64)
	exists := false
	add := func(r *secondary.ChoreRecord) {
		if r.ID == successorID {
			exists = true
		}
		if r.ID == choreID || r.NextChoreID == nil {
			return
		}
		if _, ok := successors[r.ID]; !ok {
			successors[r.ID] = *r.NextChoreID
		}
	}
	for _, r := range completed {
		add(r)
	}
	for _, r := range active {
		add(r)
	}
	return successors, exists, nil
}

func describeUpdate(req primary.UpdateChoreRequest) string {
	var fields []string
	if req.Name != nil {
		fields = append(fields, "name")
	}
	if req.Description != nil {
		fields = append(fields, "description")
	}
	if req.ProgressInfo != nil {
		fields = append(fields, "progress_info")
	}
	if req.ReviewInfo != nil {
		fields = append(fields, "review_info")
	}
	if req.ClearNext || req.NextChoreID != nil {
		fields = append(fields, "next_chore_id")
	}
	if len(fields) == 0 {
		return "no fields changed"
	}
	return "updated " + strings.Join(fields, ", ")
}

func recordToChore(r *secondary.ChoreRecord, completed bool) *primary.Chore {
	c := &primary.Chore{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		Status:       r.Status,
		ProgressInfo: r.ProgressInfo,
		ReviewInfo:   r.ReviewInfo,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		Completed:    completed,
	}
	if r.NextChoreID != nil {
		next := *r.NextChoreID
		c.NextChoreID = &next
	}
	return c
}

// Ensure ChoreServiceImpl implements the interface
var _ primary.ChoreService = (*ChoreServiceImpl)(nil)
