// Package debounce provides a plain timer-based debouncer: each call
// supersedes the previous one, and only the last call within the interval
// fires.
package debounce

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of calls into one trailing invocation.
// The zero value is not usable; use New.
type Debouncer struct {
	interval time.Duration

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
}

// New creates a Debouncer with the given interval.
func New(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Do schedules fn to run after the interval, cancelling any previously
// scheduled call. Last call wins; earlier calls are never queued.
func (d *Debouncer) Do(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, fn)
}

// Flush runs any pending call immediately.
func (d *Debouncer) Flush(fn func()) {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	closed := d.closed
	d.mu.Unlock()

	if !closed {
		fn()
	}
}

// Stop cancels any pending call and prevents future ones. Safe to call
// more than once.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.closed = true
}
