package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/chore/internal/core/integrity"
	"github.com/example/chore/internal/ctxutil"
	"github.com/example/chore/internal/ports/primary"
	"github.com/example/chore/internal/ports/secondary"
)

// maxRepairPasses bounds the check/repair loop. A repair can expose a violation
// of another kind (for example a completed copy that turns out non-terminal
// once its active duplicate is gone), so one pass is not always enough.
const maxRepairPasses = 4

// IntegrityServiceImpl implements the IntegrityService interface.
type IntegrityServiceImpl struct {
	store   secondary.ChoreStore
	journal secondary.EventJournal
	chain   *chainActivator
	logger  *slog.Logger
}

// NewIntegrityService creates a new IntegrityService with injected dependencies.
func NewIntegrityService(store secondary.ChoreStore, journal secondary.EventJournal, logger *slog.Logger) *IntegrityServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &IntegrityServiceImpl{
		store:   store,
		journal: journal,
		chain:   newChainActivator(journal, logger),
		logger:  logger,
	}
}

// Validate scans both logs under their locks. With repair set it applies the
// repair for every violation found, re-checking until the logs are clean.
func (s *IntegrityServiceImpl) Validate(ctx context.Context, repair bool) (*primary.IntegrityReport, error) {
	report := &primary.IntegrityReport{}
	// Repair events are journaled after the locks are released.
	var applied []integrity.Violation

	scan := func(tx secondary.ChoreTx) error {
		for pass := 0; pass < maxRepairPasses; pass++ {
			active, err := tx.Active()
			if err != nil {
				return fmt.Errorf("failed to read active chores: %w", err)
			}
			completed, err := tx.Completed()
			if err != nil {
				return fmt.Errorf("failed to read completed chores: %w", err)
			}
			if pass == 0 {
				report.ActiveCount = len(active)
				report.CompletedCount = len(completed)
			}

			violations := integrity.Check(toCheckRecords(active), toCheckRecords(completed))
			for _, v := range violations {
				report.Violations = append(report.Violations, primary.Violation{
					Kind:    string(v.Kind),
					ChoreID: v.ChoreID,
					Store:   v.Store,
					Action:  string(v.Action),
					Detail:  v.Detail,
				})
			}
			if !repair || len(violations) == 0 {
				return nil
			}

			for _, v := range violations {
				if err := s.applyRepair(ctx, tx, v); err != nil {
					return fmt.Errorf("failed to repair chore %d (%s): %w", v.ChoreID, v.Action, err)
				}
				report.Repairs = append(report.Repairs, primary.Repair{
					Action:  string(v.Action),
					ChoreID: v.ChoreID,
					Store:   v.Store,
				})
				applied = append(applied, v)
			}
		}
		return nil
	}

	var err error
	if repair {
		err = s.store.Update(ctx, scan)
	} else {
		err = s.store.View(ctx, scan)
	}

	// Repairs already on disk are journaled even when a later one failed.
	actor := ctxutil.ActorFromContext(ctx, "validator")
	for _, v := range applied {
		recordEvent(ctx, s.journal, s.logger, &secondary.EventRecord{
			Kind:    secondary.EventRepair,
			ChoreID: v.ChoreID,
			Actor:   actor,
			Detail:  fmt.Sprintf("%s: %s", v.Action, v.Detail),
		})
	}
	if err != nil {
		return nil, err
	}

	if len(report.Violations) > 0 {
		s.logger.Warn("integrity violations found",
			"violations", len(report.Violations),
			"repairs", len(report.Repairs),
			"repair", repair)
	} else {
		s.logger.Debug("integrity check clean",
			"active", report.ActiveCount,
			"completed", report.CompletedCount)
	}
	return report, nil
}

// applyRepair performs the repair for one violation. Each repair re-reads the
// logs so it sees the effect of the repairs applied before it, and does
// nothing when its violation is already gone.
func (s *IntegrityServiceImpl) applyRepair(ctx context.Context, tx secondary.ChoreTx, v integrity.Violation) error {
	switch v.Action {
	case integrity.ActionRemoveFromActive:
		record, err := activeCopy(tx, v.ChoreID)
		if err != nil || record == nil {
			return err
		}
		// When the id is already completed the append is a no-op and only
		// the active copy goes.
		if err := archive(tx, record); err != nil {
			return err
		}
		// An archive interrupted before its chain activation is finished
		// here; the journal keeps activation to one event per chore.
		done, loc, err := tx.Find(v.ChoreID)
		if err != nil {
			return err
		}
		if loc == secondary.LocationCompleted && done.Status.IsTerminal() {
			s.chain.activate(ctx, tx, done)
		}
		return nil

	case integrity.ActionRemoveFromCompletedDuplicate:
		completed, err := tx.Completed()
		if err != nil {
			return err
		}
		kept := make([]*secondary.ChoreRecord, 0, len(completed))
		seen := false
		for _, r := range completed {
			if r.ID == v.ChoreID {
				if seen {
					continue
				}
				seen = true
			}
			kept = append(kept, r)
		}
		if len(kept) == len(completed) {
			return nil
		}
		return tx.RewriteCompleted(kept)

	case integrity.ActionRestoreToActive:
		completed, err := tx.Completed()
		if err != nil {
			return err
		}
		var restore *secondary.ChoreRecord
		kept := make([]*secondary.ChoreRecord, 0, len(completed))
		for _, r := range completed {
			if r.ID == v.ChoreID {
				if restore == nil {
					restore = r
				}
				continue
			}
			kept = append(kept, r)
		}
		if restore == nil {
			return nil
		}
		existing, err := activeCopy(tx, v.ChoreID)
		if err != nil {
			return err
		}
		// Insert before dropping the completed copy so a failure leaves a
		// duplicate rather than losing the chore.
		if existing == nil {
			if err := tx.InsertActive(restore); err != nil {
				return err
			}
		}
		return tx.RewriteCompleted(kept)

	case integrity.ActionClearDanglingReference, integrity.ActionBreakCycleAtID:
		return clearSuccessor(tx, v.ChoreID)
	}
	return fmt.Errorf("unknown repair action %q", v.Action)
}

// activeCopy returns the active record for id, or nil when there is none.
// Find cannot be used here since it prefers the completed copy.
func activeCopy(tx secondary.ChoreTx, id uint64) (*secondary.ChoreRecord, error) {
	active, err := tx.Active()
	if err != nil {
		return nil, err
	}
	for _, r := range active {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

// clearSuccessor clears next_chore_id on every copy of id in both logs.
func clearSuccessor(tx secondary.ChoreTx, id uint64) error {
	active, err := tx.Active()
	if err != nil {
		return err
	}
	for _, r := range active {
		if r.ID == id && r.NextChoreID != nil {
			r.NextChoreID = nil
			if err := tx.ReplaceActive(r); err != nil {
				return err
			}
		}
	}

	completed, err := tx.Completed()
	if err != nil {
		return err
	}
	changed := false
	for _, r := range completed {
		if r.ID == id && r.NextChoreID != nil {
			r.NextChoreID = nil
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return tx.RewriteCompleted(completed)
}

func toCheckRecords(records []*secondary.ChoreRecord) []integrity.Record {
	out := make([]integrity.Record, len(records))
	for i, r := range records {
		out[i] = integrity.Record{
			ID:          r.ID,
			Status:      r.Status,
			NextChoreID: r.NextChoreID,
		}
	}
	return out
}

// Ensure IntegrityServiceImpl implements the interface
var _ primary.IntegrityService = (*IntegrityServiceImpl)(nil)
