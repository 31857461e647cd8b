package cache

import (
	"sync"
	"time"
)

// TimestampTable remembers the last observed modification time of each file.
// Stored times only move forward.
type TimestampTable struct {
	mu   sync.RWMutex
	seen map[string]time.Time
}

// NewTimestampTable creates an empty table
func NewTimestampTable() *TimestampTable {
	return &TimestampTable{seen: make(map[string]time.Time)}
}

// Changed reports whether mtime is newer than what was observed for path, or
// path was never observed
func (t *TimestampTable) Changed(path string, mtime time.Time) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	prev, ok := t.seen[path]
	return !ok || mtime.After(prev)
}

// Observe records mtime for path unless an equal or newer time is stored
func (t *TimestampTable) Observe(path string, mtime time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.seen[path]; ok && !mtime.After(prev) {
		return
	}
	t.seen[path] = mtime
}

// Get returns the stored time for path
func (t *TimestampTable) Get(path string) (time.Time, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	mtime, ok := t.seen[path]
	return mtime, ok
}
