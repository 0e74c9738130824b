package app

import (
	"context"
	"fmt"

	"github.com/example/chore/internal/ports/primary"
	"github.com/example/chore/internal/ports/secondary"
)

// archive moves record from the active log to the completed log. The append
// happens first so a failure in between leaves a duplicate, never a loss.
// Both halves are no-ops when already done, so archive can be re-run.
func archive(tx secondary.ChoreTx, record *secondary.ChoreRecord) error {
	if _, err := tx.AppendCompleted(record); err != nil {
		return fmt.Errorf("failed to append to completed log: %w", err)
	}
	if _, err := tx.RemoveActive(record.ID); err != nil {
		return fmt.Errorf("failed to remove from active log: %w", err)
	}
	return nil
}

// ArchiveChores moves active chores already at the terminal status into the
// completed log and runs their chain activation. With dryRun set nothing is
// written and the result lists what would move.
func (s *ChoreServiceImpl) ArchiveChores(ctx context.Context, dryRun bool) (*primary.ArchiveResult, error) {
	result := &primary.ArchiveResult{DryRun: dryRun}

	sweep := func(tx secondary.ChoreTx) error {
		active, err := tx.Active()
		if err != nil {
			return fmt.Errorf("failed to read active chores: %w", err)
		}
		for _, record := range active {
			if !record.Status.IsTerminal() {
				continue
			}
			if dryRun {
				result.Archived = append(result.Archived, recordToChore(record, false))
				continue
			}
			if err := archive(tx, record); err != nil {
				return fmt.Errorf("failed to archive chore %d: %w", record.ID, err)
			}
			result.Archived = append(result.Archived, recordToChore(record, true))
			s.chain.activate(ctx, tx, record)
		}
		return nil
	}

	var err error
	if dryRun {
		err = s.store.View(ctx, sweep)
	} else {
		err = s.store.Update(ctx, sweep)
	}
	if err != nil {
		return nil, err
	}

	if len(result.Archived) > 0 {
		s.logger.Info("archive sweep", "dry_run", dryRun, "count", len(result.Archived))
	}
	return result, nil
}
