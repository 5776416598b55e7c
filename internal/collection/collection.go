// Package collection holds the shared, observer-visible result set that
// concurrent per-host workers append to while a round is in flight.
package collection

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/go-tangra/go-tangra-remote-admin/internal/dispatch"
)

var (
	// ErrRoundActive is returned when a collection is cleared or claimed
	// while a round is still appending to it.
	ErrRoundActive = errors.New("a query round is still running against this collection")
	// ErrNotCleared is returned when a new round is started against a
	// collection that still holds the previous round's results.
	ErrNotCleared = errors.New("collection must be cleared before a new round")
)

type roundState int32

const (
	stateClean roundState = iota
	stateRunning
	stateFilled
)

// Observer is told that the collection changed. It always runs on the
// collection's dispatch loop.
type Observer interface {
	CollectionChanged()
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func()

func (f ObserverFunc) CollectionChanged() { f() }

// Collection is an insertion-ordered, append-only (within a round) sequence
// of records. Append and Snapshot are safe from any goroutine; NotifyObserver
// belongs to the dispatch loop.
type Collection[T any] struct {
	mu      sync.RWMutex
	records []T

	loop      *dispatch.Loop
	observers []Observer
	pending   atomic.Bool

	state atomic.Int32
}

// New creates an empty collection whose observers run on loop.
func New[T any](loop *dispatch.Loop) *Collection[T] {
	return &Collection[T]{loop: loop}
}

// Append adds rec to the end of the sequence.
func (c *Collection[T]) Append(rec T) {
	c.mu.Lock()
	c.records = append(c.records, rec)
	c.mu.Unlock()
}

// AppendUnique appends rec unless policy reports it as already present.
// The check and the append happen under one write lock, so two workers
// racing on the same natural key produce exactly one record.
func (c *Collection[T]) AppendUnique(policy DedupPolicy[T], rec T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if policy.IsDuplicate(c.records, rec) {
		return false
	}
	c.records = append(c.records, rec)
	return true
}

// Snapshot returns a point-in-time copy safe to iterate.
func (c *Collection[T]) Snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.records))
	copy(out, c.records)
	return out
}

// Since returns a copy of the records appended after the first n. Because
// the sequence only grows within a round, callers can stream deltas by
// remembering how many records they have already seen.
func (c *Collection[T]) Since(n int) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if n < 0 {
		n = 0
	}
	if n >= len(c.records) {
		return nil
	}
	out := make([]T, len(c.records)-n)
	copy(out, c.records[n:])
	return out
}

// Len returns the current number of records.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Clear removes every record. It fails with ErrRoundActive while a round
// holds the collection. The state check and the reset share the write lock
// with Claim.
func (c *Collection[T]) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if roundState(c.state.Load()) == stateRunning {
		return ErrRoundActive
	}
	c.state.Store(int32(stateClean))
	c.records = nil
	return nil
}

// Subscribe registers an observer. Call it from the dispatch loop or before
// any round starts.
func (c *Collection[T]) Subscribe(o Observer) {
	c.observers = append(c.observers, o)
}

// RequestNotify asks the dispatch loop to run NotifyObserver. Safe from any
// goroutine; requests made while one is already queued are coalesced.
func (c *Collection[T]) RequestNotify() {
	if c.loop == nil {
		return
	}
	if !c.pending.CompareAndSwap(false, true) {
		return
	}
	if !c.loop.Post(c.NotifyObserver) {
		c.pending.Store(false)
	}
}

// NotifyObserver tells every observer that the data changed. It must only
// be called on the dispatch loop; workers use RequestNotify.
func (c *Collection[T]) NotifyObserver() {
	c.pending.Store(false)
	for _, o := range c.observers {
		o.CollectionChanged()
	}
}

// Claim marks the collection as owned by a starting round.
func (c *Collection[T]) Claim() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch roundState(c.state.Load()) {
	case stateClean:
		c.state.Store(int32(stateRunning))
		return nil
	case stateRunning:
		return ErrRoundActive
	default:
		return ErrNotCleared
	}
}

// Release hands the collection back after the round's last unit finished.
func (c *Collection[T]) Release() {
	c.state.CompareAndSwap(int32(stateRunning), int32(stateFilled))
}

// Running reports whether a round currently holds the collection.
func (c *Collection[T]) Running() bool {
	return roundState(c.state.Load()) == stateRunning
}
