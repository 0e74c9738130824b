package jsonl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/chore/internal/core/chore"
	"github.com/example/chore/internal/ports/secondary"
)

// errReadOnly is returned by mutating calls inside View.
var errReadOnly = errors.New("mutation inside read-only view")

// Store implements secondary.ChoreStore over an active log and a completed log.
type Store struct {
	active    *recordLog
	completed *recordLog
}

// CompletedPath derives the completed log path from the active log path:
// "chores.jsonl" becomes "chores_completed.jsonl".
func CompletedPath(activePath string) string {
	if strings.HasSuffix(activePath, ".jsonl") {
		return strings.TrimSuffix(activePath, ".jsonl") + "_completed.jsonl"
	}
	return activePath + "_completed"
}

// Open creates a Store for the two log paths, creating their directories.
// The log files themselves are created on first write.
func Open(activePath, completedPath string) (*Store, error) {
	if activePath == "" {
		return nil, fmt.Errorf("active log path is required")
	}
	if completedPath == "" {
		completedPath = CompletedPath(activePath)
	}
	if filepath.Clean(activePath) == filepath.Clean(completedPath) {
		return nil, fmt.Errorf("active and completed logs must be different files (%s)", activePath)
	}
	for _, p := range []string{activePath, completedPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}
	return &Store{
		active:    newRecordLog(activePath),
		completed: newRecordLog(completedPath),
	}, nil
}

// ActivePath returns the active log path.
func (s *Store) ActivePath() string { return s.active.path }

// CompletedLogPath returns the completed log path.
func (s *Store) CompletedLogPath() string { return s.completed.path }

// View runs fn with shared locks on both logs.
func (s *Store) View(ctx context.Context, fn func(tx secondary.ChoreTx) error) error {
	return s.run(ctx, false, fn)
}

// Update runs fn with exclusive locks on both logs, active first.
func (s *Store) Update(ctx context.Context, fn func(tx secondary.ChoreTx) error) error {
	return s.run(ctx, true, fn)
}

func (s *Store) run(ctx context.Context, writable bool, fn func(tx secondary.ChoreTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlockActive, err := s.active.lock(writable)
	if err != nil {
		return err
	}
	defer unlockActive()
	unlockCompleted, err := s.completed.lock(writable)
	if err != nil {
		return err
	}
	defer unlockCompleted()

	return fn(&tx{store: s, writable: writable})
}

// tx caches each log the first time it is read. Writes go straight to disk
// and then update the cache.
type tx struct {
	store    *Store
	writable bool

	active          []*secondary.ChoreRecord
	activeLoaded    bool
	completed       []*secondary.ChoreRecord
	completedLoaded bool
}

func (t *tx) loadActive() error {
	if t.activeLoaded {
		return nil
	}
	records, err := t.store.active.read()
	if err != nil {
		return err
	}
	t.active = collapse(records)
	t.activeLoaded = true
	return nil
}

func (t *tx) loadCompleted() error {
	if t.completedLoaded {
		return nil
	}
	records, err := t.store.completed.read()
	if err != nil {
		return err
	}
	t.completed = records
	t.completedLoaded = true
	return nil
}

// collapse keeps one record per id: the last line wins, but the record keeps
// the position of its first line.
func collapse(records []*secondary.ChoreRecord) []*secondary.ChoreRecord {
	pos := make(map[uint64]int, len(records))
	out := make([]*secondary.ChoreRecord, 0, len(records))
	for _, rec := range records {
		if i, ok := pos[rec.ID]; ok {
			out[i] = rec
			continue
		}
		pos[rec.ID] = len(out)
		out = append(out, rec)
	}
	return out
}

func cloneAll(records []*secondary.ChoreRecord) []*secondary.ChoreRecord {
	out := make([]*secondary.ChoreRecord, len(records))
	for i, rec := range records {
		out[i] = rec.Clone()
	}
	return out
}

func indexOf(records []*secondary.ChoreRecord, id uint64) int {
	for i, rec := range records {
		if rec.ID == id {
			return i
		}
	}
	return -1
}

func (t *tx) Active() ([]*secondary.ChoreRecord, error) {
	if err := t.loadActive(); err != nil {
		return nil, err
	}
	return cloneAll(t.active), nil
}

func (t *tx) Completed() ([]*secondary.ChoreRecord, error) {
	if err := t.loadCompleted(); err != nil {
		return nil, err
	}
	return cloneAll(t.completed), nil
}

func (t *tx) Find(id uint64) (*secondary.ChoreRecord, secondary.Location, error) {
	if err := t.loadCompleted(); err != nil {
		return nil, secondary.LocationNone, err
	}
	if i := indexOf(t.completed, id); i >= 0 {
		return t.completed[i].Clone(), secondary.LocationCompleted, nil
	}
	if err := t.loadActive(); err != nil {
		return nil, secondary.LocationNone, err
	}
	if i := indexOf(t.active, id); i >= 0 {
		return t.active[i].Clone(), secondary.LocationActive, nil
	}
	return nil, secondary.LocationNone, nil
}

func (t *tx) InsertActive(rec *secondary.ChoreRecord) error {
	if !t.writable {
		return errReadOnly
	}
	if err := t.loadActive(); err != nil {
		return err
	}
	if indexOf(t.active, rec.ID) >= 0 {
		return fmt.Errorf("%w: chore %d already exists in the active log", chore.ErrInvalidInput, rec.ID)
	}
	c := rec.Clone()
	if err := t.store.active.append(c); err != nil {
		return err
	}
	t.active = append(t.active, c)
	return nil
}

func (t *tx) ReplaceActive(recs ...*secondary.ChoreRecord) error {
	if !t.writable {
		return errReadOnly
	}
	if err := t.loadActive(); err != nil {
		return err
	}
	next := make([]*secondary.ChoreRecord, len(t.active))
	copy(next, t.active)
	for _, rec := range recs {
		i := indexOf(next, rec.ID)
		if i < 0 {
			return fmt.Errorf("%w: chore %d is not in the active log", chore.ErrNotFound, rec.ID)
		}
		next[i] = rec.Clone()
	}
	if err := t.store.active.rewrite(next); err != nil {
		return err
	}
	t.active = next
	return nil
}

func (t *tx) RemoveActive(id uint64, replace ...*secondary.ChoreRecord) (bool, error) {
	if !t.writable {
		return false, errReadOnly
	}
	if err := t.loadActive(); err != nil {
		return false, err
	}
	i := indexOf(t.active, id)
	if i < 0 {
		return false, nil
	}
	next := make([]*secondary.ChoreRecord, 0, len(t.active)-1)
	next = append(next, t.active[:i]...)
	next = append(next, t.active[i+1:]...)
	for _, rec := range replace {
		j := indexOf(next, rec.ID)
		if j < 0 {
			return false, fmt.Errorf("%w: chore %d is not in the active log", chore.ErrNotFound, rec.ID)
		}
		next[j] = rec.Clone()
	}
	if err := t.store.active.rewrite(next); err != nil {
		return false, err
	}
	t.active = next
	return true, nil
}

func (t *tx) AppendCompleted(rec *secondary.ChoreRecord) (bool, error) {
	if !t.writable {
		return false, errReadOnly
	}
	if err := t.loadCompleted(); err != nil {
		return false, err
	}
	if indexOf(t.completed, rec.ID) >= 0 {
		return false, nil
	}
	c := rec.Clone()
	if err := t.store.completed.append(c); err != nil {
		return false, err
	}
	t.completed = append(t.completed, c)
	return true, nil
}

func (t *tx) RewriteCompleted(recs []*secondary.ChoreRecord) error {
	if !t.writable {
		return errReadOnly
	}
	next := cloneAll(recs)
	if err := t.store.completed.rewrite(next); err != nil {
		return err
	}
	t.completed = next
	t.completedLoaded = true
	return nil
}

// Ensure Store implements the interface
var _ secondary.ChoreStore = (*Store)(nil)
