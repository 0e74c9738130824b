package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/example/chore/internal/core/chore"
	"github.com/example/chore/internal/ports/secondary"
)

// Ensure fakes implement the interfaces
var (
	_ secondary.ChoreStore   = (*fakeStore)(nil)
	_ secondary.ChoreTx      = (*fakeTx)(nil)
	_ secondary.EventJournal = (*fakeJournal)(nil)
)

// fakeStore is an in-memory secondary.ChoreStore. The fail* fields inject a
// StoreIOError into the next matching call.
type fakeStore struct {
	mu        sync.Mutex
	active    []*secondary.ChoreRecord
	completed []*secondary.ChoreRecord

	failRemoveActive    bool
	failAppendCompleted bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{}
}

func (s *fakeStore) View(ctx context.Context, fn func(tx secondary.ChoreTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&fakeTx{store: s})
}

func (s *fakeStore) Update(ctx context.Context, fn func(tx secondary.ChoreTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&fakeTx{store: s, writable: true})
}

// seedActive and seedCompleted write records directly, bypassing every check.
func (s *fakeStore) seedActive(recs ...*secondary.ChoreRecord) {
	for _, r := range recs {
		s.active = append(s.active, r.Clone())
	}
}

func (s *fakeStore) seedCompleted(recs ...*secondary.ChoreRecord) {
	for _, r := range recs {
		s.completed = append(s.completed, r.Clone())
	}
}

func (s *fakeStore) activeIDs() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ids(s.active)
}

func (s *fakeStore) completedIDs() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ids(s.completed)
}

func (s *fakeStore) activeRecord(id uint64) *secondary.ChoreRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.active {
		if r.ID == id {
			return r.Clone()
		}
	}
	return nil
}

func ids(recs []*secondary.ChoreRecord) []uint64 {
	out := make([]uint64, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

type fakeTx struct {
	store    *fakeStore
	writable bool
}

var errFakeReadOnly = errors.New("read-only transaction")

func ioErr(op string) error {
	return &secondary.StoreIOError{Op: op, Path: "fake", Err: errors.New("injected failure")}
}

func cloneAll(recs []*secondary.ChoreRecord) []*secondary.ChoreRecord {
	out := make([]*secondary.ChoreRecord, len(recs))
	for i, r := range recs {
		out[i] = r.Clone()
	}
	return out
}

func (t *fakeTx) Active() ([]*secondary.ChoreRecord, error) {
	return cloneAll(t.store.active), nil
}

func (t *fakeTx) Completed() ([]*secondary.ChoreRecord, error) {
	return cloneAll(t.store.completed), nil
}

func (t *fakeTx) Find(id uint64) (*secondary.ChoreRecord, secondary.Location, error) {
	for _, r := range t.store.completed {
		if r.ID == id {
			return r.Clone(), secondary.LocationCompleted, nil
		}
	}
	for _, r := range t.store.active {
		if r.ID == id {
			return r.Clone(), secondary.LocationActive, nil
		}
	}
	return nil, secondary.LocationNone, nil
}

func (t *fakeTx) InsertActive(rec *secondary.ChoreRecord) error {
	if !t.writable {
		return errFakeReadOnly
	}
	for _, r := range t.store.active {
		if r.ID == rec.ID {
			return fmt.Errorf("%w: duplicate %d", chore.ErrInvalidInput, rec.ID)
		}
	}
	t.store.active = append(t.store.active, rec.Clone())
	return nil
}

func (t *fakeTx) ReplaceActive(recs ...*secondary.ChoreRecord) error {
	if !t.writable {
		return errFakeReadOnly
	}
	next := cloneAll(t.store.active)
	for _, rec := range recs {
		found := false
		for i, r := range next {
			if r.ID == rec.ID {
				next[i] = rec.Clone()
				found = true
			}
		}
		if !found {
			return fmt.Errorf("%w: %d", chore.ErrNotFound, rec.ID)
		}
	}
	t.store.active = next
	return nil
}

func (t *fakeTx) RemoveActive(id uint64, replace ...*secondary.ChoreRecord) (bool, error) {
	if !t.writable {
		return false, errFakeReadOnly
	}
	if t.store.failRemoveActive {
		t.store.failRemoveActive = false
		return false, ioErr("rewrite")
	}
	var next []*secondary.ChoreRecord
	removed := false
	for _, r := range t.store.active {
		if r.ID == id {
			removed = true
			continue
		}
		next = append(next, r.Clone())
	}
	if !removed {
		return false, nil
	}
	for _, rec := range replace {
		for i, r := range next {
			if r.ID == rec.ID {
				next[i] = rec.Clone()
			}
		}
	}
	t.store.active = next
	return true, nil
}

func (t *fakeTx) AppendCompleted(rec *secondary.ChoreRecord) (bool, error) {
	if !t.writable {
		return false, errFakeReadOnly
	}
	if t.store.failAppendCompleted {
		t.store.failAppendCompleted = false
		return false, ioErr("append")
	}
	for _, r := range t.store.completed {
		if r.ID == rec.ID {
			return false, nil
		}
	}
	t.store.completed = append(t.store.completed, rec.Clone())
	return true, nil
}

func (t *fakeTx) RewriteCompleted(recs []*secondary.ChoreRecord) error {
	if !t.writable {
		return errFakeReadOnly
	}
	t.store.completed = cloneAll(recs)
	return nil
}

// fakeJournal is an in-memory secondary.EventJournal with the same
// one-activation-per-chore rule as the SQLite journal.
type fakeJournal struct {
	mu        sync.Mutex
	events    []*secondary.EventRecord
	activated map[uint64]bool
	recordErr error
}

func newFakeJournal() *fakeJournal {
	return &fakeJournal{activated: make(map[uint64]bool)}
}

func (j *fakeJournal) Record(ctx context.Context, event *secondary.EventRecord) (bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.recordErr != nil {
		return false, j.recordErr
	}
	if event.Kind == secondary.EventActivation {
		if j.activated[event.ChoreID] {
			return false, nil
		}
		j.activated[event.ChoreID] = true
	}
	e := *event
	if e.ID == "" {
		e.ID = fmt.Sprintf("EV-%04d", len(j.events)+1)
	}
	j.events = append(j.events, &e)
	return true, nil
}

func (j *fakeJournal) List(ctx context.Context, filters secondary.EventFilters) ([]*secondary.EventRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []*secondary.EventRecord
	for _, e := range j.events {
		if filters.ChoreID != 0 && e.ChoreID != filters.ChoreID && e.RelatedID != filters.ChoreID {
			continue
		}
		if filters.Kind != "" && e.Kind != filters.Kind {
			continue
		}
		out = append(out, e)
		if filters.Limit > 0 && len(out) == filters.Limit {
			break
		}
	}
	return out, nil
}

func (j *fakeJournal) kinds(kind string) []*secondary.EventRecord {
	out, _ := j.List(context.Background(), secondary.EventFilters{Kind: kind})
	return out
}

// fakeIDs hands out sequential IDs.
type fakeIDs struct {
	mu   sync.Mutex
	next uint64
	err  error
}

func (f *fakeIDs) Next() (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.next++
	return f.next, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testNow = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func newTestChoreService(t *testing.T) (*ChoreServiceImpl, *fakeStore, *fakeJournal) {
	t.Helper()
	store := newFakeStore()
	journal := newFakeJournal()
	svc := NewChoreService(store, journal, &fakeIDs{}, ChoreServiceOptions{
		Logger: discardLogger(),
		Now:    func() time.Time { return testNow },
	})
	return svc, store, journal
}

func record(id uint64, name string, status chore.Status) *secondary.ChoreRecord {
	return &secondary.ChoreRecord{
		ID:        id,
		Name:      name,
		Status:    status,
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
}

func linked(r *secondary.ChoreRecord, next uint64) *secondary.ChoreRecord {
	r.NextChoreID = &next
	return r
}

func strPtr(s string) *string { return &s }

func u64Ptr(v uint64) *uint64 { return &v }
