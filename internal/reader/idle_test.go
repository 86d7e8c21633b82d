package reader

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The hide delay is scaled down from the production 3s to keep the suite
// fast; the window semantics are identical.

func TestIdleTimerHidesAfterDelay(t *testing.T) {
	timer := NewIdleTimer(80*time.Millisecond, nil)
	assert.False(t, timer.Visible(), "hidden until first activity")

	timer.SignalActivity()
	assert.True(t, timer.Visible())

	time.Sleep(40 * time.Millisecond)
	assert.True(t, timer.Visible(), "still inside the window")

	time.Sleep(120 * time.Millisecond)
	assert.False(t, timer.Visible(), "window elapsed")
}

func TestIdleTimerActivityResetsWindow(t *testing.T) {
	timer := NewIdleTimer(100*time.Millisecond, nil)
	timer.SignalActivity()

	// Keep poking before expiry; visibility must hold well past the
	// original deadline.
	for i := 0; i < 4; i++ {
		time.Sleep(50 * time.Millisecond)
		timer.SignalActivity()
	}
	assert.True(t, timer.Visible())

	// The window now runs from the last signal.
	time.Sleep(200 * time.Millisecond)
	assert.False(t, timer.Visible())
}

func TestIdleTimerNotifiesOnChange(t *testing.T) {
	var mu sync.Mutex
	var flips []bool
	timer := NewIdleTimer(50*time.Millisecond, func(visible bool) {
		mu.Lock()
		flips = append(flips, visible)
		mu.Unlock()
	})

	timer.SignalActivity()
	timer.SignalActivity() // already visible: no extra notification
	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []bool{true, false}, flips)
}

func TestIdleTimerStopPreventsLateFire(t *testing.T) {
	fired := make(chan bool, 1)
	timer := NewIdleTimer(30*time.Millisecond, func(visible bool) {
		if !visible {
			fired <- true
		}
	})
	timer.SignalActivity()
	timer.Stop()

	select {
	case <-fired:
		t.Fatal("hide fired after Stop")
	case <-time.After(100 * time.Millisecond):
	}
	assert.True(t, timer.Visible(), "state frozen at Stop")

	// A stopped timer ignores further activity.
	timer.SignalActivity()
}
