// Package cooldown tracks when a user last invoked a command.
package cooldown

import (
	"sync"
	"time"
)

type key struct {
	command string
	user    string
}

// Tracker holds at most one entry per (command, user) pair. Entries are evicted
// by a one-shot timer once their cooldown elapsed.
type Tracker struct {
	mu      sync.Mutex
	entries map[key]time.Time
	// afterFunc schedules eviction, replaced in tests.
	afterFunc func(d time.Duration, f func()) *time.Timer
}

func New() *Tracker {
	return &Tracker{
		entries:   make(map[key]time.Time),
		afterFunc: time.AfterFunc,
	}
}

// Returns the time of the last successful invocation of command by user, if it is still live.
func (t *Tracker) Last(command, user string) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	at, ok := t.entries[key{command, user}]
	return at, ok
}

// Acquire checks the cooldown d of command for user and, if it has passed,
// records an invocation at now within the same critical section.
//
// While the cooldown runs it returns the time left and the live entry's time.
// A zero or negative d always passes and records nothing.
func (t *Tracker) Acquire(command, user string, now time.Time, d time.Duration) (time.Duration, time.Time, bool) {
	if d <= 0 {
		return 0, time.Time{}, true
	}

	k := key{command, user}

	t.mu.Lock()
	if at, ok := t.entries[k]; ok {
		if left := at.Add(d).Sub(now); left > 0 {
			t.mu.Unlock()
			return left, at, false
		}
	}
	t.entries[k] = now
	t.mu.Unlock()

	t.afterFunc(d, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		// A refreshed entry belongs to a newer timer.
		if t.entries[k].Equal(now) {
			delete(t.entries, k)
		}
	})

	return 0, time.Time{}, true
}

// Release drops the entry recorded at time at, undoing an Acquire whose
// invocation did not run. Newer entries are kept.
func (t *Tracker) Release(command, user string, at time.Time) {
	k := key{command, user}

	t.mu.Lock()
	defer t.mu.Unlock()
	if cur, ok := t.entries[k]; ok && cur.Equal(at) {
		delete(t.entries, k)
	}
}

// Drops every entry. Pending timers become no-ops.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = make(map[key]time.Time)
}

func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
