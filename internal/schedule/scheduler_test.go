package schedule

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/example/chore/internal/ports/primary"
)

type fakeValidator struct {
	mu      sync.Mutex
	calls   int
	repairs []bool
	err     error
}

func (f *fakeValidator) Validate(ctx context.Context, repair bool) (*primary.IntegrityReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.repairs = append(f.repairs, repair)
	if f.err != nil {
		return nil, f.err
	}
	return &primary.IntegrityReport{}, nil
}

func (f *fakeValidator) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// steppingClock advances one minute on every call.
type steppingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestNewScheduler_InvalidSpec(t *testing.T) {
	_, err := NewScheduler(Config{Validator: &fakeValidator{}, Spec: "every minute"})
	if err == nil {
		t.Fatal("expected error for invalid spec")
	}
}

func TestScheduler_FiresWhenDue(t *testing.T) {
	validator := &fakeValidator{}
	clock := &steppingClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	reports := make(chan *primary.IntegrityReport, 16)

	s, err := NewScheduler(Config{
		Validator: validator,
		Spec:      "* * * * *",
		Repair:    true,
		Logger:    discard(),
		Interval:  2 * time.Millisecond,
		Now:       clock.Now,
		OnReport: func(r *primary.IntegrityReport) {
			select {
			case reports <- r:
			default:
			}
		},
	})
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	s.Start(context.Background())
	deadline := time.After(2 * time.Second)
	for got := 0; got < 2; got++ {
		select {
		case <-reports:
		case <-deadline:
			s.Stop()
			t.Fatalf("only %d validations ran", validator.count())
		}
	}
	s.Stop()

	validator.mu.Lock()
	defer validator.mu.Unlock()
	for _, r := range validator.repairs {
		if !r {
			t.Error("expected repair=true on every run")
		}
	}
}

func TestScheduler_NotDueDoesNotFire(t *testing.T) {
	validator := &fakeValidator{}
	fixed := time.Date(2026, 1, 1, 0, 0, 30, 0, time.UTC)
	s, err := NewScheduler(Config{
		Validator: validator,
		Spec:      "0 0 * * *",
		Logger:    discard(),
		Interval:  time.Millisecond,
		Now:       func() time.Time { return fixed },
	})
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	s.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	if n := validator.count(); n != 0 {
		t.Errorf("validations = %d, want 0", n)
	}
	if want := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC); !s.NextRun().Equal(want) {
		t.Errorf("NextRun = %v, want %v", s.NextRun(), want)
	}
}

func TestScheduler_ErrorsDoNotStopLoop(t *testing.T) {
	validator := &fakeValidator{err: errors.New("store locked")}
	clock := &steppingClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	s, err := NewScheduler(Config{
		Validator: validator,
		Spec:      "* * * * *",
		Logger:    discard(),
		Interval:  time.Millisecond,
		Now:       clock.Now,
	})
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	s.Start(context.Background())
	deadline := time.Now().Add(2 * time.Second)
	for validator.count() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	s.Stop()
	if n := validator.count(); n < 3 {
		t.Errorf("validations = %d, want at least 3", n)
	}
}

func TestNextRunTime(t *testing.T) {
	after := time.Date(2026, 1, 1, 10, 7, 0, 0, time.UTC)
	got, err := NextRunTime("*/15 * * * *", after)
	if err != nil {
		t.Fatalf("NextRunTime: %v", err)
	}
	if want := time.Date(2026, 1, 1, 10, 15, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("NextRunTime = %v, want %v", got, want)
	}
	if _, err := NextRunTime("61 * * * *", after); err == nil {
		t.Error("expected invalid minute to fail")
	}
}
