package logic

import "sync"

// AutoCloseSeconds is the countdown loaded when the gate reaches OPEN.
const AutoCloseSeconds = 11

// TimerState is a point-in-time view of an AutoCloseTimer.
type TimerState struct {
	Remaining int
	Active    bool
}

// Expired reports whether the countdown is running and has reached zero.
func (s TimerState) Expired() bool {
	return s.Active && s.Remaining == 0
}

// AutoCloseTimer counts down whole seconds while active.
// The state machine arms and disarms it; an external one-second source calls
// Tick. Safe for concurrent use.
type AutoCloseTimer struct {
	mu        sync.Mutex
	remaining int
	active    bool
}

// NewAutoCloseTimer returns an inactive timer.
func NewAutoCloseTimer() *AutoCloseTimer {
	return &AutoCloseTimer{}
}

// Arm reloads the countdown and marks the timer active.
func (t *AutoCloseTimer) Arm() {
	t.mu.Lock()
	t.remaining = AutoCloseSeconds
	t.active = true
	t.mu.Unlock()
}

// ArmIfInactive arms the timer unless it is already running.
// Returns true if the timer was armed by this call.
func (t *AutoCloseTimer) ArmIfInactive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active {
		return false
	}
	t.remaining = AutoCloseSeconds
	t.active = true
	return true
}

// Disarm stops the countdown. The remaining value is left as is.
func (t *AutoCloseTimer) Disarm() {
	t.mu.Lock()
	t.active = false
	t.mu.Unlock()
}

// Tick decrements the countdown by one second if active and above zero.
func (t *AutoCloseTimer) Tick() {
	t.mu.Lock()
	if t.active && t.remaining > 0 {
		t.remaining--
	}
	t.mu.Unlock()
}

// State returns a consistent snapshot of the timer.
func (t *AutoCloseTimer) State() TimerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return TimerState{Remaining: t.remaining, Active: t.active}
}
