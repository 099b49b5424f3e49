package watcher

import (
	"sync"
	"time"
)

// DefaultDebounceDuration is used when no duration is configured.
const DefaultDebounceDuration = 300 * time.Millisecond

// Debouncer coalesces bursts of triggers into a single trailing-edge call:
// every Trigger restarts the timer, and only the last callback of a burst
// runs once the window elapses. The UI reuses this for search-as-you-type
// (five keystrokes inside the window issue exactly one filter apply), the
// watcher for rapid file-change events.
type Debouncer struct {
	duration time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer creates a debouncer with the given coalescing window.
func NewDebouncer(d time.Duration) *Debouncer {
	if d <= 0 {
		d = DefaultDebounceDuration
	}
	return &Debouncer{duration: d}
}

// Duration returns the coalescing window.
func (d *Debouncer) Duration() time.Duration {
	return d.duration
}

// Trigger schedules fn to run after the window, replacing any previously
// scheduled call. fn runs on a timer goroutine.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, fn)
}

// Cancel drops any pending call.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
