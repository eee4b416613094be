// In-memory run journal.
//
// Information Hiding:
// - Ring buffer layout hidden from users
// - Thread-safe access via RWMutex hidden behind interface
// - Suitable for testing and single-process deployments

package storage

import (
	"context"
	"sync"
)

// DefaultMemoryCapacity is the number of records an InMemoryJournal keeps.
const DefaultMemoryCapacity = 1000

// InMemoryJournal implements RunJournal with a bounded ring of records.
// Data is lost when process terminates; the oldest records are dropped once
// capacity is reached.
type InMemoryJournal struct {
	mu       sync.RWMutex
	records  []RunRecord
	next     int
	full     bool
	closed   bool
	capacity int
}

// NewInMemoryJournal creates a journal holding up to capacity records.
// A non-positive capacity uses DefaultMemoryCapacity.
func NewInMemoryJournal(capacity int) *InMemoryJournal {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &InMemoryJournal{
		records:  make([]RunRecord, capacity),
		capacity: capacity,
	}
}

// Record stores a record, overwriting the oldest one when full.
func (j *InMemoryJournal) Record(ctx context.Context, record RunRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return ErrJournalClosed
	}

	j.records[j.next] = record
	j.next = (j.next + 1) % j.capacity
	if j.next == 0 {
		j.full = true
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (j *InMemoryJournal) Recent(ctx context.Context, limit int) ([]RunRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return nil, ErrJournalClosed
	}

	size := j.next
	if j.full {
		size = j.capacity
	}
	n := clampLimit(limit)
	if n > size {
		n = size
	}

	out := make([]RunRecord, 0, n)
	for i := 1; i <= n; i++ {
		idx := (j.next - i + j.capacity) % j.capacity
		out = append(out, j.records[idx])
	}
	return out, nil
}

// Len returns the number of records held.
func (j *InMemoryJournal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.full {
		return j.capacity
	}
	return j.next
}

// Close drops all records.
func (j *InMemoryJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.closed = true
	j.records = nil
	return nil
}

// Verify InMemoryJournal implements RunJournal
var _ RunJournal = (*InMemoryJournal)(nil)
