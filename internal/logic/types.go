// Package logic contains the gate state machine and the auto-close timer.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// State represents a gate state.
type State string

const (
	StateInit    State = "INIT"
	StateClosed  State = "CLOSED"
	StateOpen    State = "OPEN"
	StateOpening State = "OPENING"
	StateClosing State = "CLOSING"
	StateUnknown State = "UNKNOWN"
	StateStop    State = "STOP"
	StateError   State = "ERROR"
)

// States lists every gate state in declaration order.
var States = []State{
	StateInit,
	StateClosed,
	StateOpen,
	StateOpening,
	StateClosing,
	StateUnknown,
	StateStop,
	StateError,
}

// Reason names the rule that caused a transition.
type Reason string

const (
	ReasonOpenLimit   Reason = "open-limit"
	ReasonCloseLimit  Reason = "close-limit"
	ReasonNoLimit     Reason = "no-limit"
	ReasonBothLimits  Reason = "both-limits"
	ReasonReset       Reason = "reset"
	ReasonTimeout     Reason = "timeout"
	ReasonCloseButton Reason = "close-button"
	ReasonOpenButton  Reason = "open-button"
	ReasonInterrupted Reason = "interrupted"
	ReasonLimitFault  Reason = "limit-fault"
	ReasonRecover     Reason = "recover"
)

// Inputs is one sample of the logical input signals.
// All fields are true when pressed/active (already inverted from raw GPIO).
type Inputs struct {
	OpenButton      bool
	CloseButton     bool
	StopButton      bool
	EmergencyButton bool
	ResetButton     bool
	OpenLimit       bool
	CloseLimit      bool
}

// AnyMotionButton reports whether any of the open, close, emergency or stop
// buttons is pressed.
func (in Inputs) AnyMotionButton() bool {
	return in.OpenButton || in.CloseButton || in.EmergencyButton || in.StopButton
}

// Outputs is the command written to the actuators, true = energised.
// MotorOpen and MotorClose are never both true.
type Outputs struct {
	MotorOpen  bool
	MotorClose bool
	Buzzer     bool
	Lamp       bool
	FaultLED   bool
}

// Event represents a committed state transition.
type Event struct {
	Timestamp time.Time
	From      State
	To        State
	Reason    Reason
	Outputs   Outputs
}

// Counts tracks transition statistics since startup.
type Counts struct {
	Transitions int
	AutoCloses  int
	Resets      int
	Faults      int
	Stops       int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	State     State
	Counts    Counts
}
