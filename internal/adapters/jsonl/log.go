// Package jsonl contains the file-backed implementation of the chore store.
// Each store is a JSON-lines log: one ChoreRecord object per line.
package jsonl

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/example/chore/internal/ports/secondary"
)

// maxLineSize bounds a single encoded record. Progress and review logs grow
// with every write, so the default bufio limit is far too small.
const maxLineSize = 16 << 20

// recordLog is one JSONL file guarded by an in-process RWMutex and an
// advisory lock on a sidecar "<path>.lock" file.
type recordLog struct {
	path     string
	lockPath string
	mu       sync.RWMutex
}

func newRecordLog(path string) *recordLog {
	return &recordLog{path: path, lockPath: path + ".lock"}
}

// lock acquires the log for reading (shared) or writing (exclusive) and
// returns the matching release function.
func (l *recordLog) lock(exclusive bool) (func(), error) {
	if exclusive {
		l.mu.Lock()
	} else {
		l.mu.RLock()
	}
	unlockMem := func() {
		if exclusive {
			l.mu.Unlock()
		} else {
			l.mu.RUnlock()
		}
	}

	f, err := lockFile(l.lockPath, exclusive)
	if err != nil {
		unlockMem()
		return nil, &secondary.StoreIOError{Op: "lock", Path: l.lockPath, Err: err}
	}
	return func() {
		unlockFile(f)
		unlockMem()
	}, nil
}

// read decodes every line of the log. A missing file is an empty log.
func (l *recordLog) read() ([]*secondary.ChoreRecord, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &secondary.StoreIOError{Op: "open", Path: l.path, Err: err}
	}
	defer f.Close()

	var records []*secondary.ChoreRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec secondary.ChoreRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, &secondary.StoreIOError{Op: "decode", Path: l.path, Err: fmt.Errorf("line %d: %w", lineNo, err)}
		}
		if rec.ID == 0 {
			return nil, &secondary.StoreIOError{Op: "decode", Path: l.path, Err: fmt.Errorf("line %d: record has no id", lineNo)}
		}
		// A missing status field never reaches UnmarshalText.
		if !rec.Status.Valid() {
			return nil, &secondary.StoreIOError{Op: "decode", Path: l.path, Err: fmt.Errorf("line %d: record %d has no status", lineNo, rec.ID)}
		}
		records = append(records, &rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, &secondary.StoreIOError{Op: "read", Path: l.path, Err: err}
	}
	return records, nil
}

// append writes records to the end of the log in a single write.
func (l *recordLog) append(records ...*secondary.ChoreRecord) error {
	data, err := encode(records)
	if err != nil {
		return &secondary.StoreIOError{Op: "append", Path: l.path, Err: err}
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return &secondary.StoreIOError{Op: "append", Path: l.path, Err: err}
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return &secondary.StoreIOError{Op: "append", Path: l.path, Err: err}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return &secondary.StoreIOError{Op: "append", Path: l.path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &secondary.StoreIOError{Op: "append", Path: l.path, Err: err}
	}
	return nil
}

// rewrite replaces the log contents atomically: write a temp file in the same
// directory, fsync it, then rename it over the log.
func (l *recordLog) rewrite(records []*secondary.ChoreRecord) error {
	data, err := encode(records)
	if err != nil {
		return &secondary.StoreIOError{Op: "rewrite", Path: l.path, Err: err}
	}

	dir := filepath.Dir(l.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(l.path)+".tmp-*")
	if err != nil {
		return &secondary.StoreIOError{Op: "rewrite", Path: l.path, Err: err}
	}
	tmpPath := tmp.Name()
	cleanup := func(err error) error {
		tmp.Close()
		os.Remove(tmpPath)
		return &secondary.StoreIOError{Op: "rewrite", Path: l.path, Err: err}
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &secondary.StoreIOError{Op: "rewrite", Path: l.path, Err: err}
	}
	if err := os.Rename(tmpPath, l.path); err != nil {
		os.Remove(tmpPath)
		return &secondary.StoreIOError{Op: "rewrite", Path: l.path, Err: err}
	}
	syncDir(dir)
	return nil
}

func encode(records []*secondary.ChoreRecord) ([]byte, error) {
	var buf bytes.Buffer
	for _, rec := range records {
		line, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("encode chore %d: %w", rec.ID, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// syncDir flushes a directory entry after rename. Failures are ignored:
// not every filesystem supports fsync on directories.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	d.Close()
}
