package reader

import (
	"sync"
	"time"
)

// DefaultHideDelay is how long the navigation header stays visible after the
// last user activity.
const DefaultHideDelay = 3 * time.Second

// IdleTimer keeps transient UI visible while the user is active and hides it
// after a fixed inactivity window. Hiding only ever happens via timer expiry;
// there is no force-hide.
type IdleTimer struct {
	mu       sync.Mutex
	delay    time.Duration
	visible  bool
	timer    *time.Timer
	onChange func(visible bool)
	stopped  bool
}

// NewIdleTimer builds a timer with the given hide delay (DefaultHideDelay if
// non-positive). onChange, if non-nil, runs on every visibility flip.
func NewIdleTimer(delay time.Duration, onChange func(visible bool)) *IdleTimer {
	if delay <= 0 {
		delay = DefaultHideDelay
	}
	return &IdleTimer{delay: delay, onChange: onChange}
}

// SignalActivity makes the UI visible immediately and reschedules the hide
// for delay from now, canceling any previously scheduled hide.
func (t *IdleTimer) SignalActivity() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	wasVisible := t.visible
	t.visible = true
	t.timer = time.AfterFunc(t.delay, t.hide)
	notify := t.onChange
	t.mu.Unlock()

	if !wasVisible && notify != nil {
		notify(true)
	}
}

func (t *IdleTimer) hide() {
	t.mu.Lock()
	if t.stopped || !t.visible {
		t.mu.Unlock()
		return
	}
	t.visible = false
	notify := t.onChange
	t.mu.Unlock()

	if notify != nil {
		notify(false)
	}
}

// Visible reports the current visibility.
func (t *IdleTimer) Visible() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.visible
}

// Stop cancels any scheduled hide and deactivates the timer, so it never
// fires into a torn-down UI. The timer is single-use; a stopped timer stays
// stopped.
func (t *IdleTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
