package logic

// ReasonInvalidState is reported when Evaluate is asked about a state that
// is not part of the table.
const ReasonInvalidState Reason = "invalid-state"

// Decision is the outcome of evaluating one state against one input sample.
// Reason is empty when no rule matched and the state is kept.
type Decision struct {
	Next   State
	Reason Reason
}

// Predicate decides whether a rule fires for the given sample and timer.
type Predicate func(in Inputs, tm TimerState) bool

// Rule is one row of a state's transition list.
type Rule struct {
	When   Predicate
	Next   State
	Reason Reason
	// Disarm stops the auto-close timer when the rule fires.
	Disarm bool
}

// StateDef describes a state: the outputs its entry action drives and the
// rules evaluated top-down each cycle. If no rule matches the state is kept.
type StateDef struct {
	Entry Outputs
	// ArmTimer arms the auto-close timer on every evaluation if it is inactive.
	ArmTimer bool
	Rules    []Rule
}

func openOnly(in Inputs) bool   { return in.OpenLimit && !in.CloseLimit }
func closeOnly(in Inputs) bool  { return !in.OpenLimit && in.CloseLimit }
func noLimit(in Inputs) bool    { return !in.OpenLimit && !in.CloseLimit }
func bothLimits(in Inputs) bool { return in.OpenLimit && in.CloseLimit }

func reset(in Inputs, _ TimerState) bool { return in.ResetButton }

// Table is the gate transition table. Rule order is priority order.
var Table = map[State]StateDef{
	StateInit: {
		Rules: []Rule{
			{When: func(in Inputs, _ TimerState) bool { return openOnly(in) }, Next: StateOpen, Reason: ReasonOpenLimit},
			{When: func(in Inputs, _ TimerState) bool { return closeOnly(in) }, Next: StateClosed, Reason: ReasonCloseLimit},
			{When: func(in Inputs, _ TimerState) bool { return noLimit(in) }, Next: StateUnknown, Reason: ReasonNoLimit},
			{When: func(in Inputs, _ TimerState) bool { return bothLimits(in) }, Next: StateError, Reason: ReasonBothLimits},
		},
	},

	StateOpen: {
		Entry:    Outputs{Buzzer: true, Lamp: true},
		ArmTimer: true,
		Rules: []Rule{
			// Leaves the timer running; see DESIGN.md.
			{When: reset, Next: StateClosing, Reason: ReasonReset},
			{When: func(_ Inputs, tm TimerState) bool { return tm.Expired() }, Next: StateClosing, Reason: ReasonTimeout, Disarm: true},
			{When: func(in Inputs, _ TimerState) bool { return openOnly(in) && in.CloseButton }, Next: StateClosing, Reason: ReasonCloseButton, Disarm: true},
			{When: func(in Inputs, _ TimerState) bool { return openOnly(in) && in.OpenButton }, Next: StateClosing, Reason: ReasonOpenButton, Disarm: true},
			{When: func(in Inputs, _ TimerState) bool { return bothLimits(in) }, Next: StateError, Reason: ReasonBothLimits},
		},
	},

	StateClosed: {
		Rules: []Rule{
			{When: func(in Inputs, _ TimerState) bool { return closeOnly(in) && in.OpenButton }, Next: StateOpening, Reason: ReasonOpenButton},
			{When: reset, Next: StateClosing, Reason: ReasonReset},
			{When: func(in Inputs, _ TimerState) bool { return in.OpenLimit && in.OpenButton }, Next: StateError, Reason: ReasonLimitFault},
		},
	},

	StateOpening: {
		Entry: Outputs{MotorOpen: true},
		Rules: []Rule{
			{When: func(in Inputs, _ TimerState) bool { return openOnly(in) }, Next: StateOpen, Reason: ReasonOpenLimit},
			{When: reset, Next: StateClosing, Reason: ReasonReset},
			{When: func(in Inputs, _ TimerState) bool { return noLimit(in) && in.AnyMotionButton() }, Next: StateStop, Reason: ReasonInterrupted},
			{When: func(in Inputs, _ TimerState) bool { return bothLimits(in) }, Next: StateError, Reason: ReasonBothLimits},
			{When: func(in Inputs, _ TimerState) bool { return closeOnly(in) }, Next: StateError, Reason: ReasonLimitFault},
		},
	},

	StateClosing: {
		Entry: Outputs{MotorClose: true, Buzzer: true},
		Rules: []Rule{
			{When: func(in Inputs, _ TimerState) bool { return closeOnly(in) }, Next: StateClosed, Reason: ReasonCloseLimit},
			{When: func(in Inputs, _ TimerState) bool { return noLimit(in) || in.AnyMotionButton() }, Next: StateStop, Reason: ReasonInterrupted},
		},
	},

	StateError: {
		Entry: Outputs{FaultLED: true},
		Rules: []Rule{
			{When: reset, Next: StateClosing, Reason: ReasonReset},
		},
	},

	StateUnknown: {
		Entry: Outputs{FaultLED: true},
		Rules: []Rule{
			{When: func(Inputs, TimerState) bool { return true }, Next: StateClosing, Reason: ReasonRecover},
		},
	},

	StateStop: {
		Rules: []Rule{
			{When: func(in Inputs, _ TimerState) bool {
				return in.OpenButton && !in.CloseButton && noLimit(in)
			}, Next: StateOpening, Reason: ReasonOpenButton},
			{When: reset, Next: StateClosing, Reason: ReasonReset},
			{When: func(in Inputs, _ TimerState) bool {
				return !in.OpenButton && in.CloseButton && noLimit(in)
			}, Next: StateClosing, Reason: ReasonCloseButton},
		},
	},
}

// EntryAction returns the outputs driven while in the given state.
// Unknown states drive everything off except the fault LED.
func EntryAction(s State) Outputs {
	def, ok := Table[s]
	if !ok {
		return Outputs{FaultLED: true}
	}
	return def.Entry
}

// Evaluate runs the rules of the current state against one sample.
// The first matching rule wins; with no match the state is kept.
// timer may be nil, in which case it reads as inactive and is never armed.
func Evaluate(current State, in Inputs, timer *AutoCloseTimer) Decision {
	def, ok := Table[current]
	if !ok {
		return Decision{Next: StateError, Reason: ReasonInvalidState}
	}

	var tm TimerState
	if timer != nil {
		if def.ArmTimer {
			timer.ArmIfInactive()
		}
		tm = timer.State()
	}

	for _, r := range def.Rules {
		if !r.When(in, tm) {
			continue
		}
		if r.Disarm && timer != nil {
			timer.Disarm()
		}
		return Decision{Next: r.Next, Reason: r.Reason}
	}

	return Decision{Next: current}
}
