package preview

import (
	"sync"
	"time"
)

// DefaultDelay is the default quiet period before a render pass.
const DefaultDelay = 200 * time.Millisecond

// Timer is a pending call that can be stopped.
type Timer interface {
	Stop() bool
}

// TimerFunc arranges for f to run after d.
type TimerFunc func(d time.Duration, f func()) Timer

// AfterFunc is the TimerFunc backed by the runtime timer.
func AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Debouncer runs a function once input has been quiet for a delay.
//
// Scheduling again before the delay elapses restarts it. The function never
// runs concurrently with itself: a timer that fires during a run queues
// exactly one more run once the current one returns.
type Debouncer struct {
	mu       sync.Mutex
	fn       func()
	delay    time.Duration
	newTimer TimerFunc

	timer   Timer
	gen     uint64
	running bool
	rerun   bool
}

// NewDebouncer creates a debouncer for fn. A nil timer func uses AfterFunc.
func NewDebouncer(delay time.Duration, fn func(), newTimer TimerFunc) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	if newTimer == nil {
		newTimer = AfterFunc
	}
	return &Debouncer{fn: fn, delay: delay, newTimer: newTimer}
}

// Schedule cancels any pending run and schedules a new one.
func (d *Debouncer) Schedule() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scheduleLocked()
}

func (d *Debouncer) scheduleLocked() {
	d.stopLocked()
	gen := d.gen
	d.timer = d.newTimer(d.delay, func() { d.fire(gen) })
}

// Cancel drops the pending run, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.rerun = false
}

func (d *Debouncer) stopLocked() {
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Pending reports whether a run is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Flush runs a pending call now. It reports whether anything ran.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	if d.timer == nil || d.running {
		d.mu.Unlock()
		return false
	}
	d.stopLocked()
	d.running = true
	d.mu.Unlock()

	d.run()
	return true
}

// SetDelay changes the delay used by later calls to Schedule.
func (d *Debouncer) SetDelay(delay time.Duration) {
	if delay <= 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.delay = delay
}

// Delay returns the current delay.
func (d *Debouncer) Delay() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.delay
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	if d.running {
		d.rerun = true
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()

	d.run()
}

func (d *Debouncer) run() {
	d.fn()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.running = false
	if d.rerun {
		d.rerun = false
		d.scheduleLocked()
	}
}
