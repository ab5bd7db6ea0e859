package activity

import (
	"sync"
	"time"
)

// DefaultCapacity is the number of entries kept per owner.
const DefaultCapacity = 50

// Kind names a task lifecycle change.
type Kind string

const (
	KindCreated   Kind = "task_created"
	KindUpdated   Kind = "task_updated"
	KindCompleted Kind = "task_completed"
	KindDeleted   Kind = "task_deleted"
)

// Entry is one line of a user's activity feed.
type Entry struct {
	Kind    Kind      `json:"kind"`
	TaskID  string    `json:"task_id"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Fields  []string  `json:"fields,omitempty"`
	At      time.Time `json:"at"`
}

// Feed keeps a bounded, per-owner history of entries in memory.
type Feed struct {
	mu       sync.RWMutex
	capacity int
	byOwner  map[string][]Entry
}

// NewFeed creates a feed. A non-positive capacity selects DefaultCapacity.
func NewFeed(capacity int) *Feed {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Feed{
		capacity: capacity,
		byOwner:  make(map[string][]Entry),
	}
}

// Record appends an entry for owner, dropping the oldest one when full.
func (f *Feed) Record(owner string, entry Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries := append(f.byOwner[owner], entry)
	if len(entries) > f.capacity {
		entries = append([]Entry(nil), entries[len(entries)-f.capacity:]...)
	}
	f.byOwner[owner] = entries
}

// Recent returns up to limit entries of owner, newest first. A non-positive
// limit returns everything kept.
func (f *Feed) Recent(owner string, limit int) []Entry {
	f.mu.RLock()
	defer f.mu.RUnlock()

	entries := f.byOwner[owner]
	if limit <= 0 || limit > len(entries) {
		limit = len(entries)
	}

	result := make([]Entry, 0, limit)
	for i := len(entries) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, entries[i])
	}
	return result
}

// Owners returns the number of owners with at least one entry.
func (f *Feed) Owners() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.byOwner)
}
