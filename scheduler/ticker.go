package scheduler

import (
	"log/slog"
	"sync"
	"time"
)

// Ticker is a self-correcting periodic scheduler. Each fire schedules the
// next one relative to a stored expected-fire instant, so small delays do
// not accumulate. If a fire observes more than one full interval of drift
// (a stalled process), the expected instant resyncs to now instead of
// bursting through the backlog.
//
// The callback runs on the timer goroutine. A panic inside the callback is
// recovered and logged; the schedule continues uninterrupted.
type Ticker struct {
	interval time.Duration
	callback func()

	mu       sync.Mutex
	running  bool
	gen      uint64 // invalidates already-queued fires from older schedules
	expected time.Time
	timer    *time.Timer
}

// New creates a stopped Ticker. The callback must not be nil.
func New(interval time.Duration, callback func()) *Ticker {
	return &Ticker{interval: interval, callback: callback}
}

// Start begins the schedule. It is idempotent: any previous schedule is
// fully cancelled before the new one begins.
func (t *Ticker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
	t.running = true
	t.gen++
	gen := t.gen
	t.expected = time.Now().Add(t.interval)
	t.timer = time.AfterFunc(t.interval, func() { t.fire(gen) })
}

// Stop cancels the pending fire and marks the ticker inactive. Fires
// already queued become no-ops.
func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
}

func (t *Ticker) cancelLocked() {
	t.running = false
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// Running reports whether the ticker has a pending schedule.
func (t *Ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

func (t *Ticker) fire(gen uint64) {
	t.mu.Lock()
	if !t.running || gen != t.gen {
		t.mu.Unlock()
		return
	}
	now := time.Now()
	if now.Sub(t.expected) > t.interval {
		// Stalled past a full interval: resync instead of catching up.
		t.expected = now
	}
	t.mu.Unlock()

	t.invoke()

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running || gen != t.gen {
		return
	}
	t.expected = t.expected.Add(t.interval)
	delay := time.Until(t.expected)
	if delay < 0 {
		delay = 0
	}
	t.timer = time.AfterFunc(delay, func() { t.fire(gen) })
}

func (t *Ticker) invoke() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("tick callback panicked", "tag", "ticker", "panic", r)
		}
	}()
	t.callback()
}
