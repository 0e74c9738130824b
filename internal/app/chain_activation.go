package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/chore/internal/core/chore"
	"github.com/example/chore/internal/ports/primary"
	"github.com/example/chore/internal/ports/secondary"
)

// chainActivator signals that the successor of a completed chore may start.
// Activation never changes the successor; it is a journaled signal only.
type chainActivator struct {
	journal secondary.EventJournal
	logger  *slog.Logger
}

func newChainActivator(journal secondary.EventJournal, logger *slog.Logger) *chainActivator {
	return &chainActivator{journal: journal, logger: logger}
}

// activate runs for a chore that has just been archived. It returns the
// activated successor, or a warning when the successor is missing or already
// past design. It never fails: problems become warnings.
func (a *chainActivator) activate(ctx context.Context, tx secondary.ChoreTx, parent *secondary.ChoreRecord) (uint64, *primary.ChainIntegrityWarning) {
	if parent.NextChoreID == nil {
		return 0, nil
	}
	successorID := *parent.NextChoreID

	successor, loc, err := tx.Find(successorID)
	var reason string
	switch {
	case err != nil:
		reason = fmt.Sprintf("successor chore %d could not be read: %v", successorID, err)
	case loc == secondary.LocationNone:
		reason = fmt.Sprintf("successor chore %d not found", successorID)
	case loc == secondary.LocationCompleted:
		reason = fmt.Sprintf("successor chore %d is already completed", successorID)
	case successor.Status != chore.StatusDesign:
		reason = fmt.Sprintf("successor chore %d is %s, not %s", successorID, successor.Status, chore.StatusDesign)
	}

	if reason != "" {
		a.logger.Warn("chain integrity warning",
			"chore_id", parent.ID,
			"successor_id", successorID,
			"reason", reason)
		recordEvent(ctx, a.journal, a.logger, &secondary.EventRecord{
			Kind:      secondary.EventChainWarning,
			ChoreID:   parent.ID,
			RelatedID: successorID,
			Detail:    reason,
		})
		return 0, &primary.ChainIntegrityWarning{
			ChoreID:     parent.ID,
			SuccessorID: successorID,
			Reason:      reason,
		}
	}

	inserted := recordEvent(ctx, a.journal, a.logger, &secondary.EventRecord{
		Kind:      secondary.EventActivation,
		ChoreID:   parent.ID,
		RelatedID: successorID,
		ToStatus:  successor.Status.String(),
		Detail:    successor.Name,
	})
	if inserted {
		a.logger.Info("successor activated", "chore_id", parent.ID, "successor_id", successorID)
	} else {
		a.logger.Debug("successor activation already recorded", "chore_id", parent.ID, "successor_id", successorID)
	}
	return successorID, nil
}
