package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/chore/internal/core/chore"
	"github.com/example/chore/internal/ports/primary"
)

// mockChoreService implements primary.ChoreService for testing
type mockChoreService struct {
	listChoresFn      func(ctx context.Context, filters primary.ChoreFilters) ([]*primary.Chore, error)
	getChoreFn        func(ctx context.Context, choreID uint64) (*primary.Chore, error)
	transitionChoreFn func(ctx context.Context, req primary.TransitionRequest) (*primary.TransitionResult, error)
	deleteChoreFn     func(ctx context.Context, choreID uint64) error
	archiveChoresFn   func(ctx context.Context, dryRun bool) (*primary.ArchiveResult, error)

	// Track calls for verification
	lastCreateReq     primary.CreateChoreRequest
	lastUpdateReq     primary.UpdateChoreRequest
	lastTransitionReq primary.TransitionRequest
	lastFilters       primary.ChoreFilters
	updateCalled      bool
}

func (m *mockChoreService) CreateChore(ctx context.Context, req primary.CreateChoreRequest) (*primary.Chore, error) {
	m.lastCreateReq = req
	return &primary.Chore{ID: 42, Name: req.Name, Status: chore.StatusDesign}, nil
}

func (m *mockChoreService) GetChore(ctx context.Context, choreID uint64) (*primary.Chore, error) {
	if m.getChoreFn != nil {
		return m.getChoreFn(ctx, choreID)
	}
	return &primary.Chore{ID: choreID, Name: "Test Chore", Status: chore.StatusDesign}, nil
}

func (m *mockChoreService) UpdateChore(ctx context.Context, req primary.UpdateChoreRequest) (*primary.Chore, error) {
	m.updateCalled = true
	m.lastUpdateReq = req
	return &primary.Chore{ID: req.ChoreID}, nil
}

func (m *mockChoreService) ReplaceChore(ctx context.Context, req primary.ReplaceChoreRequest) (*primary.Chore, error) {
	return &primary.Chore{ID: req.ChoreID, Name: req.Name}, nil
}

func (m *mockChoreService) DeleteChore(ctx context.Context, choreID uint64) error {
	if m.deleteChoreFn != nil {
		return m.deleteChoreFn(ctx, choreID)
	}
	return nil
}

func (m *mockChoreService) ListChores(ctx context.Context, filters primary.ChoreFilters) ([]*primary.Chore, error) {
	m.lastFilters = filters
	if m.listChoresFn != nil {
		return m.listChoresFn(ctx, filters)
	}
	return []*primary.Chore{}, nil
}

func (m *mockChoreService) FindByStatus(ctx context.Context, status chore.Status) ([]*primary.Chore, error) {
	return nil, errors.New("not implemented in adapter")
}

func (m *mockChoreService) TransitionChore(ctx context.Context, req primary.TransitionRequest) (*primary.TransitionResult, error) {
	m.lastTransitionReq = req
	if m.transitionChoreFn != nil {
		return m.transitionChoreFn(ctx, req)
	}
	return &primary.TransitionResult{
		Chore: &primary.Chore{ID: req.ChoreID, Status: req.Status},
		From:  req.Status - 1,
	}, nil
}

func (m *mockChoreService) ArchiveChores(ctx context.Context, dryRun bool) (*primary.ArchiveResult, error) {
	if m.archiveChoresFn != nil {
		return m.archiveChoresFn(ctx, dryRun)
	}
	return &primary.ArchiveResult{DryRun: dryRun}, nil
}

type mockIntegrityService struct {
	report *primary.IntegrityReport
	repair bool
}

func (m *mockIntegrityService) Validate(ctx context.Context, repair bool) (*primary.IntegrityReport, error) {
	m.repair = repair
	return m.report, nil
}

type mockEventService struct {
	events []*primary.Event
}

func (m *mockEventService) ListEvents(ctx context.Context, filters primary.EventFilters) ([]*primary.Event, error) {
	return m.events, nil
}

func newTestAdapter(svc *mockChoreService) (*ChoreAdapter, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewChoreAdapter(svc, &mockIntegrityService{report: &primary.IntegrityReport{}}, &mockEventService{}, &buf, false), &buf
}

func TestChoreAdapter_Create(t *testing.T) {
	svc := &mockChoreService{}
	adapter, out := newTestAdapter(svc)

	if _, err := adapter.Create(context.Background(), "Build login", "OAuth flow"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.lastCreateReq.Name != "Build login" || svc.lastCreateReq.Description != "OAuth flow" {
		t.Errorf("request = %+v", svc.lastCreateReq)
	}
	if !strings.Contains(out.String(), "Created chore 42: Build login") {
		t.Errorf("output = %q", out.String())
	}
}

func TestChoreAdapter_List(t *testing.T) {
	next := uint64(2)
	svc := &mockChoreService{
		listChoresFn: func(ctx context.Context, filters primary.ChoreFilters) ([]*primary.Chore, error) {
			return []*primary.Chore{
				{ID: 1, Name: "first", Status: chore.StatusWork, NextChoreID: &next},
				{ID: 2, Name: "second", Status: chore.StatusDesign},
			}, nil
		},
	}
	adapter, out := newTestAdapter(svc)

	if err := adapter.List(context.Background(), "WORK"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.lastFilters.Status == nil || *svc.lastFilters.Status != chore.StatusWork {
		t.Errorf("filters = %+v, want status work", svc.lastFilters)
	}
	output := out.String()
	for _, want := range []string{"first", "second", "work", "design"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q: %s", want, output)
		}
	}
	if strings.Contains(output, "\x1b[") {
		t.Error("expected no color escapes with colors off")
	}
}

func TestChoreAdapter_ListInvalidStatus(t *testing.T) {
	adapter, _ := newTestAdapter(&mockChoreService{})
	err := adapter.List(context.Background(), "finished")
	if !errors.Is(err, chore.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestChoreAdapter_ListEmpty(t *testing.T) {
	adapter, out := newTestAdapter(&mockChoreService{})
	if err := adapter.List(context.Background(), ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "No chores found") {
		t.Errorf("output = %q", out.String())
	}
}

func TestChoreAdapter_Show(t *testing.T) {
	svc := &mockChoreService{
		getChoreFn: func(ctx context.Context, choreID uint64) (*primary.Chore, error) {
			return &primary.Chore{
				ID:           choreID,
				Name:         "done chore",
				Status:       chore.StatusWorkDone,
				ProgressInfo: "step one\nstep two",
				Completed:    true,
				CreatedAt:    time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC),
			}, nil
		},
	}
	adapter, out := newTestAdapter(svc)

	if _, err := adapter.Show(context.Background(), 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	output := out.String()
	for _, want := range []string{"Chore:   7", "work_done", "Log:     completed", "  step two", "2026-01-02 03:04"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q: %s", want, output)
		}
	}
}

func TestChoreAdapter_ShowNotFound(t *testing.T) {
	svc := &mockChoreService{
		getChoreFn: func(ctx context.Context, choreID uint64) (*primary.Chore, error) {
			return nil, chore.ErrNotFound
		},
	}
	adapter, _ := newTestAdapter(svc)
	if _, err := adapter.Show(context.Background(), 9); !errors.Is(err, chore.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestChoreAdapter_UpdateRequiresField(t *testing.T) {
	svc := &mockChoreService{}
	adapter, _ := newTestAdapter(svc)

	if err := adapter.Update(context.Background(), primary.UpdateChoreRequest{ChoreID: 1}); err == nil {
		t.Fatal("expected error with no fields")
	}
	if svc.updateCalled {
		t.Error("service should not be called")
	}

	name := "renamed"
	if err := adapter.Update(context.Background(), primary.UpdateChoreRequest{ChoreID: 1, Name: &name}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.lastUpdateReq.Name == nil || *svc.lastUpdateReq.Name != "renamed" {
		t.Errorf("request = %+v", svc.lastUpdateReq)
	}
}

func TestChoreAdapter_Transition(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		role    string
		result  *primary.TransitionResult
		wantErr bool
		want    []string
	}{
		{
			name:   "plain forward step",
			status: "design_review",
			role:   "producer",
			want:   []string{"Chore 5: design → design_review"},
		},
		{
			name:   "terminal with activation",
			status: "work_done",
			role:   "reviewer",
			result: &primary.TransitionResult{
				Chore:     &primary.Chore{ID: 5, Status: chore.StatusWorkDone},
				From:      chore.StatusWorkReview,
				Archived:  true,
				Activated: 6,
			},
			want: []string{"Archived to completed log", "Activated successor 6"},
		},
		{
			name:   "chain warning",
			status: "work_done",
			role:   "reviewer",
			result: &primary.TransitionResult{
				Chore:    &primary.Chore{ID: 5, Status: chore.StatusWorkDone},
				From:     chore.StatusWorkReview,
				Archived: true,
				Warning:  &primary.ChainIntegrityWarning{ChoreID: 5, SuccessorID: 6, Reason: "successor chore 6 is plan, not design"},
			},
			want: []string{"warning: successor chore 6 is plan, not design"},
		},
		{
			name:    "unknown role",
			status:  "work",
			role:    "manager",
			wantErr: true,
		},
		{
			name:    "unknown status",
			status:  "shipped",
			role:    "producer",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockChoreService{}
			if tt.result != nil {
				svc.transitionChoreFn = func(ctx context.Context, req primary.TransitionRequest) (*primary.TransitionResult, error) {
					return tt.result, nil
				}
			}
			adapter, out := newTestAdapter(svc)

			err := adapter.Transition(context.Background(), 5, tt.status, tt.role, "note")
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if svc.lastTransitionReq.Note != "note" {
				t.Errorf("note = %q", svc.lastTransitionReq.Note)
			}
			for _, want := range tt.want {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output missing %q: %s", want, out.String())
				}
			}
		})
	}
}

func TestChoreAdapter_ArchiveDryRun(t *testing.T) {
	svc := &mockChoreService{
		archiveChoresFn: func(ctx context.Context, dryRun bool) (*primary.ArchiveResult, error) {
			return &primary.ArchiveResult{DryRun: dryRun, Archived: []*primary.Chore{{ID: 3, Name: "stranded"}}}, nil
		},
	}
	adapter, out := newTestAdapter(svc)
	if err := adapter.Archive(context.Background(), true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "Would archive chore 3: stranded") {
		t.Errorf("output = %q", out.String())
	}
}

func TestChoreAdapter_ValidateReport(t *testing.T) {
	integrity := &mockIntegrityService{report: &primary.IntegrityReport{
		ActiveCount: 1,
		Violations: []primary.Violation{{
			Kind: "dangling_reference", ChoreID: 1, Action: "clear-dangling-reference",
			Detail: "chore 1 points at missing chore 9",
		}},
		Repairs: []primary.Repair{{Action: "clear-dangling-reference", ChoreID: 1}},
	}}
	var out bytes.Buffer
	adapter := NewChoreAdapter(&mockChoreService{}, integrity, &mockEventService{}, &out, false)

	if _, err := adapter.Validate(context.Background(), true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !integrity.repair {
		t.Error("expected repair to be passed through")
	}
	for _, want := range []string{"1 violation(s)", "points at missing chore 9", "1 repair(s) applied"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q: %s", want, out.String())
		}
	}
}

func TestChoreAdapter_Events(t *testing.T) {
	events := &mockEventService{events: []*primary.Event{
		{Kind: "transition", ChoreID: 1, FromStatus: "design", ToStatus: "design_review", Actor: "producer", CreatedAt: "2026-01-01T00:00:00Z"},
		{Kind: "activation", ChoreID: 1, RelatedID: 2, Actor: "reviewer", CreatedAt: "2026-01-01T00:01:00Z"},
	}}
	var out bytes.Buffer
	adapter := NewChoreAdapter(&mockChoreService{}, &mockIntegrityService{}, events, &out, false)

	if err := adapter.Events(context.Background(), primary.EventFilters{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"design → design_review", "(related 2)", "activation"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q: %s", want, out.String())
		}
	}
}

func TestChoreAdapter_ColorsOn(t *testing.T) {
	var out bytes.Buffer
	adapter := NewChoreAdapter(&mockChoreService{}, &mockIntegrityService{}, &mockEventService{}, &out, true)
	if got := adapter.status(chore.StatusWorkDone); !strings.Contains(got, "\x1b[") {
		t.Errorf("status = %q, want color escapes", got)
	}
}
