// Package idgen generates time-ordered 64-bit chore identifiers.
//
// An id packs, from high to low bits: milliseconds since Epoch (41 bits),
// the generator's node id (10 bits), and a per-millisecond sequence (12 bits).
// Ids sort chronologically without reading any record.
package idgen

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	TimestampBits = 41
	NodeBits      = 10
	SequenceBits  = 12

	MaxNodeID   = 1<<NodeBits - 1
	MaxSequence = 1<<SequenceBits - 1

	nodeShift = SequenceBits
	timeShift = NodeBits + SequenceBits
	maxMillis = 1<<TimestampBits - 1
)

// Epoch is the zero point for id timestamps (2024-01-01 UTC).
var Epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// ErrClockRegression is returned once the wall clock has been observed moving
// backwards. It is fatal: the generator refuses every later call.
var ErrClockRegression = errors.New("clock moved backwards")

// Generator produces unique, non-decreasing ids. It is safe for concurrent use.
type Generator struct {
	node  uint64
	now   func() time.Time
	sleep func(time.Duration)

	mu       sync.Mutex
	lastMs   int64
	sequence uint64
	failed   error
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock overrides the time source. Tests use it to freeze or rewind time.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithSleep overrides how the generator waits for the next millisecond.
func WithSleep(sleep func(time.Duration)) Option {
	return func(g *Generator) { g.sleep = sleep }
}

// New creates a Generator for the given node id (0-1023).
func New(nodeID int, opts ...Option) (*Generator, error) {
	if nodeID < 0 || nodeID > MaxNodeID {
		return nil, fmt.Errorf("node id %d out of range [0, %d]", nodeID, MaxNodeID)
	}
	g := &Generator{
		node:   uint64(nodeID),
		now:    time.Now,
		sleep:  time.Sleep,
		lastMs: -1,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Next returns the next id. When the sequence for the current millisecond is
// exhausted it waits for the clock to advance.
func (g *Generator) Next() (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failed != nil {
		return 0, g.failed
	}

	ms, err := g.millis()
	if err != nil {
		return 0, err
	}

	if ms < g.lastMs {
		g.failed = fmt.Errorf("%w: now %dms, last id issued at %dms", ErrClockRegression, ms, g.lastMs)
		return 0, g.failed
	}

	if ms == g.lastMs {
		g.sequence = (g.sequence + 1) & MaxSequence
		if g.sequence == 0 {
			if ms, err = g.waitNextMillis(g.lastMs); err != nil {
				return 0, err
			}
		}
	} else {
		g.sequence = 0
	}
	g.lastMs = ms

	return uint64(ms)<<timeShift | g.node<<nodeShift | g.sequence, nil
}

// millis returns milliseconds since Epoch.
func (g *Generator) millis() (int64, error) {
	ms := g.now().Sub(Epoch).Milliseconds()
	if ms < 0 {
		return 0, fmt.Errorf("%w: clock is before id epoch %s", ErrClockRegression, Epoch.Format(time.RFC3339))
	}
	if ms > maxMillis {
		return 0, fmt.Errorf("id timestamp space exhausted at %dms", ms)
	}
	return ms, nil
}

func (g *Generator) waitNextMillis(last int64) (int64, error) {
	for {
		ms, err := g.millis()
		if err != nil {
			return 0, err
		}
		if ms > last {
			return ms, nil
		}
		if ms < last {
			g.failed = fmt.Errorf("%w: now %dms, last id issued at %dms", ErrClockRegression, ms, last)
			return 0, g.failed
		}
		g.sleep(g.now().Truncate(time.Millisecond).Add(time.Millisecond).Sub(g.now()))
	}
}

// Decompose splits an id into its timestamp, node id, and sequence.
func Decompose(id uint64) (ts time.Time, node int, sequence int) {
	ms := int64(id >> timeShift)
	node = int(id>>nodeShift) & MaxNodeID
	sequence = int(id & MaxSequence)
	return Epoch.Add(time.Duration(ms) * time.Millisecond), node, sequence
}
