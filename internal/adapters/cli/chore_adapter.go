// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle output formatting but delegate
// business logic to services.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/example/chore/internal/core/chore"
	"github.com/example/chore/internal/ports/primary"
)

// ChoreAdapter is a thin adapter that translates CLI operations to ChoreService calls.
// It depends only on the service interfaces, enabling easy testing with mocks.
type ChoreAdapter struct {
	chores    primary.ChoreService
	integrity primary.IntegrityService
	events    primary.EventService
	out       io.Writer
	colors    bool
}

// NewChoreAdapter creates a new ChoreAdapter. With colors off every status is
// printed plain.
func NewChoreAdapter(chores primary.ChoreService, integrity primary.IntegrityService, events primary.EventService, out io.Writer, colors bool) *ChoreAdapter {
	return &ChoreAdapter{
		chores:    chores,
		integrity: integrity,
		events:    events,
		out:       out,
		colors:    colors,
	}
}

// Create creates a new chore.
func (a *ChoreAdapter) Create(ctx context.Context, name, description string) (*primary.Chore, error) {
	c, err := a.chores.CreateChore(ctx, primary.CreateChoreRequest{
		Name:        name,
		Description: description,
	})
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(a.out, "✓ Created chore %d: %s\n", c.ID, c.Name)
	return c, nil
}

// Show displays details for a single chore.
func (a *ChoreAdapter) Show(ctx context.Context, choreID uint64) (*primary.Chore, error) {
	c, err := a.chores.GetChore(ctx, choreID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chore: %w", err)
	}

	fmt.Fprintf(a.out, "\nChore:   %d\n", c.ID)
	fmt.Fprintf(a.out, "Name:    %s\n", c.Name)
	fmt.Fprintf(a.out, "Status:  %s\n", a.status(c.Status))
	if c.Completed {
		fmt.Fprintln(a.out, "Log:     completed")
	}
	if c.Description != "" {
		fmt.Fprintf(a.out, "Description: %s\n", c.Description)
	}
	if c.NextChoreID != nil {
		fmt.Fprintf(a.out, "Next:    %d\n", *c.NextChoreID)
	}
	if c.ProgressInfo != "" {
		fmt.Fprintf(a.out, "Progress:\n%s\n", indent(c.ProgressInfo))
	}
	if c.ReviewInfo != "" {
		fmt.Fprintf(a.out, "Review:\n%s\n", indent(c.ReviewInfo))
	}
	fmt.Fprintf(a.out, "Created: %s\n", c.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(a.out, "Updated: %s\n", c.UpdatedAt.Format("2006-01-02 15:04"))
	fmt.Fprintln(a.out)

	return c, nil
}

// List lists chores with an optional status filter.
func (a *ChoreAdapter) List(ctx context.Context, status string) error {
	var filters primary.ChoreFilters
	if status != "" {
		s, err := chore.ParseStatus(status)
		if err != nil {
			return err
		}
		filters.Status = &s
	}

	chores, err := a.chores.ListChores(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to list chores: %w", err)
	}

	if len(chores) == 0 {
		fmt.Fprintln(a.out, "No chores found")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tNEXT\tNAME")
	fmt.Fprintln(w, "--\t------\t----\t----")
	for _, c := range chores {
		next := "-"
		if c.NextChoreID != nil {
			next = fmt.Sprint(*c.NextChoreID)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", c.ID, a.status(c.Status), next, c.Name)
	}
	return w.Flush()
}

// Update updates the non-status fields of a chore.
func (a *ChoreAdapter) Update(ctx context.Context, req primary.UpdateChoreRequest) error {
	if req.Name == nil && req.Description == nil && req.ProgressInfo == nil &&
		req.ReviewInfo == nil && req.NextChoreID == nil && !req.ClearNext {
		return fmt.Errorf("must specify at least one field to update")
	}

	c, err := a.chores.UpdateChore(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to update chore: %w", err)
	}

	fmt.Fprintf(a.out, "✓ Chore %d updated\n", c.ID)
	return nil
}

// Replace overwrites a chore's name and description.
func (a *ChoreAdapter) Replace(ctx context.Context, choreID uint64, name, description string) error {
	c, err := a.chores.ReplaceChore(ctx, primary.ReplaceChoreRequest{
		ChoreID:     choreID,
		Name:        name,
		Description: description,
	})
	if err != nil {
		return fmt.Errorf("failed to replace chore: %w", err)
	}

	fmt.Fprintf(a.out, "✓ Chore %d replaced: %s\n", c.ID, c.Name)
	return nil
}

// Delete deletes a chore.
func (a *ChoreAdapter) Delete(ctx context.Context, choreID uint64) error {
	if err := a.chores.DeleteChore(ctx, choreID); err != nil {
		return fmt.Errorf("failed to delete chore: %w", err)
	}

	fmt.Fprintf(a.out, "✓ Deleted chore %d\n", choreID)
	return nil
}

// Transition moves a chore to a new status.
func (a *ChoreAdapter) Transition(ctx context.Context, choreID uint64, status, role, note string) error {
	to, err := chore.ParseStatus(status)
	if err != nil {
		return err
	}
	r, err := chore.ParseRole(role)
	if err != nil {
		return err
	}

	res, err := a.chores.TransitionChore(ctx, primary.TransitionRequest{
		ChoreID: choreID,
		Status:  to,
		Role:    r,
		Note:    note,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Chore %d: %s → %s\n", choreID, a.status(res.From), a.status(res.Chore.Status))
	if res.Archived {
		fmt.Fprintf(a.out, "  Archived to completed log\n")
	}
	if res.Activated != 0 {
		fmt.Fprintf(a.out, "  Activated successor %d\n", res.Activated)
	}
	if res.Warning != nil {
		fmt.Fprintf(a.out, "  %s %s\n", a.paint(color.FgYellow, "warning:"), res.Warning)
	}
	return nil
}

// Archive moves chores already at work_done to the completed log.
func (a *ChoreAdapter) Archive(ctx context.Context, dryRun bool) error {
	res, err := a.chores.ArchiveChores(ctx, dryRun)
	if err != nil {
		return fmt.Errorf("failed to archive chores: %w", err)
	}

	if len(res.Archived) == 0 {
		fmt.Fprintln(a.out, "Nothing to archive")
		return nil
	}
	verb := "Archived"
	if res.DryRun {
		verb = "Would archive"
	}
	for _, c := range res.Archived {
		fmt.Fprintf(a.out, "%s chore %d: %s\n", verb, c.ID, c.Name)
	}
	return nil
}

// Validate runs an integrity check and prints the report.
func (a *ChoreAdapter) Validate(ctx context.Context, repair bool) (*primary.IntegrityReport, error) {
	report, err := a.integrity.Validate(ctx, repair)
	if err != nil {
		return nil, fmt.Errorf("failed to validate: %w", err)
	}
	a.PrintReport(report)
	return report, nil
}

// PrintReport writes an integrity report.
func (a *ChoreAdapter) PrintReport(report *primary.IntegrityReport) {
	if report.Clean() {
		fmt.Fprintf(a.out, "%s %d active, %d completed\n",
			a.paint(color.FgGreen, "✓ Clean:"), report.ActiveCount, report.CompletedCount)
		return
	}

	fmt.Fprintf(a.out, "%s %d violation(s) in %d active, %d completed\n",
		a.paint(color.FgRed, "✗"), len(report.Violations), report.ActiveCount, report.CompletedCount)
	for _, v := range report.Violations {
		fmt.Fprintf(a.out, "  [%s] %s (%s)\n", v.Kind, v.Detail, v.Action)
	}
	if len(report.Repairs) > 0 {
		fmt.Fprintf(a.out, "%s %d repair(s) applied\n", a.paint(color.FgGreen, "✓"), len(report.Repairs))
	}
}

// Events lists journal events.
func (a *ChoreAdapter) Events(ctx context.Context, filters primary.EventFilters) error {
	events, err := a.events.ListEvents(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to list events: %w", err)
	}

	if len(events) == 0 {
		fmt.Fprintln(a.out, "No events found")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tKIND\tCHORE\tACTOR\tDETAIL")
	fmt.Fprintln(w, "----\t----\t-----\t-----\t------")
	for _, e := range events {
		detail := e.Detail
		if e.FromStatus != "" || e.ToStatus != "" {
			detail = strings.TrimSpace(fmt.Sprintf("%s → %s %s", e.FromStatus, e.ToStatus, detail))
		}
		if e.RelatedID != 0 {
			detail = strings.TrimSpace(fmt.Sprintf("%s (related %d)", detail, e.RelatedID))
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", e.CreatedAt, e.Kind, e.ChoreID, e.Actor, detail)
	}
	return w.Flush()
}

// status renders a status name in its color.
func (a *ChoreAdapter) status(s chore.Status) string {
	switch {
	case s.IsTerminal():
		return a.paint(color.FgHiGreen, s.String())
	case s.IsGate():
		return a.paint(color.FgHiMagenta, s.String())
	case s.IsReview():
		return a.paint(color.FgYellow, s.String())
	case s.IsProducing():
		return a.paint(color.FgCyan, s.String())
	}
	return a.paint(color.FgWhite, s.String())
}

func (a *ChoreAdapter) paint(attr color.Attribute, text string) string {
	c := color.New(attr)
	if a.colors {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprint(text)
}

func indent(text string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}
