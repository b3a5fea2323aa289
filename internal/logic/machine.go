package logic

import "time"

// Machine holds the gate state machine context: current and previous state,
// the outputs of the last committed cycle, the auto-close timer and counters.
// Not safe for concurrent use; only the timer is shared with the tick source.
type Machine struct {
	current  State
	previous State
	outputs  Outputs
	timer    *AutoCloseTimer

	startTime     time.Time
	counts        Counts
	lastHeartbeat time.Time
}

// NewMachine creates a machine in INIT driving INIT's outputs.
// The startTime is used for calculating uptime in heartbeat events.
func NewMachine(timer *AutoCloseTimer, startTime time.Time) *Machine {
	if timer == nil {
		timer = NewAutoCloseTimer()
	}
	return &Machine{
		current:       StateInit,
		previous:      StateInit,
		outputs:       EntryAction(StateInit),
		timer:         timer,
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Step runs one control cycle: evaluate the current state against the sample,
// commit the next state and run its entry action. The returned outputs are
// the command for this cycle. An event is returned only if the state changed.
func (m *Machine) Step(in Inputs, now time.Time) (Outputs, *Event) {
	d := Evaluate(m.current, in, m.timer)

	from := m.current
	m.previous = from
	m.current = d.Next
	m.outputs = EntryAction(d.Next)

	if d.Next == from {
		return m.outputs, nil
	}

	if d.Next == StateOpen {
		m.timer.Arm()
	}
	m.count(d)

	return m.outputs, &Event{
		Timestamp: now,
		From:      from,
		To:        d.Next,
		Reason:    d.Reason,
		Outputs:   m.outputs,
	}
}

func (m *Machine) count(d Decision) {
	m.counts.Transitions++
	switch d.Reason {
	case ReasonTimeout:
		m.counts.AutoCloses++
	case ReasonReset:
		m.counts.Resets++
	}
	switch d.Next {
	case StateError:
		m.counts.Faults++
	case StateStop:
		m.counts.Stops++
	}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.current
}

// Previous returns the state before the last committed cycle.
func (m *Machine) Previous() State {
	return m.previous
}

// Outputs returns the outputs of the last committed cycle.
func (m *Machine) Outputs() Outputs {
	return m.outputs
}

// Timer returns the machine's auto-close timer.
func (m *Machine) Timer() *AutoCloseTimer {
	return m.timer
}

// Counts returns a copy of the transition counters.
func (m *Machine) Counts() Counts {
	return m.counts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (m *Machine) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(m.lastHeartbeat) < interval {
		return nil
	}

	m.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(m.startTime),
		State:     m.current,
		Counts:    m.counts,
	}
}

// Label returns the diagnostic text for a state.
func Label(s State) string {
	switch s {
	case StateInit:
		return "INIT"
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateOpening:
		return "OPENING"
	case StateClosing:
		return "CLOSING"
	case StateUnknown:
		return "UNKNOWN"
	case StateStop:
		return "STOP"
	case StateError:
		return "ERROR"
	}
	return "INVALID(" + string(s) + ")"
}

// Lines returns the diagnostic lines for a committed transition: the new
// state's label, preceded by RESET when the reset button caused it.
func Lines(e Event) []string {
	if e.Reason == ReasonReset {
		return []string{"RESET", Label(e.To)}
	}
	return []string{Label(e.To)}
}
