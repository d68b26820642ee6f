package watcher

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid triggers into a single callback after a
// quiet period. The callback receives every reason seen since the
// previous fire.
type Debouncer interface {
	Trigger(reason string)
	Stop()
}

// debouncer implements the Debouncer interface
type debouncer struct {
	duration time.Duration
	callback func(reasons []string)
	timer    *time.Timer
	reasons  map[string]struct{}
	mu       sync.Mutex
	stopped  bool
}

// NewDebouncer creates a new Debouncer with the specified quiet period
func NewDebouncer(duration time.Duration, callback func(reasons []string)) Debouncer {
	return &debouncer{
		duration: duration,
		callback: callback,
		reasons:  make(map[string]struct{}),
	}
}

// Trigger records a reason and resets the quiet-period timer
func (d *debouncer) Trigger(reason string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.reasons[reason] = struct{}{}

	if d.duration <= 0 {
		go d.fire()
		return
	}

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.duration, d.fire)
}

// Stop cancels any pending callback
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}

	d.reasons = make(map[string]struct{})
}

// fire executes the callback with the accumulated reasons
func (d *debouncer) fire() {
	d.mu.Lock()

	if d.stopped || len(d.reasons) == 0 {
		d.mu.Unlock()
		return
	}

	reasons := make([]string, 0, len(d.reasons))
	for r := range d.reasons {
		reasons = append(reasons, r)
	}

	d.reasons = make(map[string]struct{})
	d.timer = nil

	d.mu.Unlock()

	d.callback(reasons)
}
