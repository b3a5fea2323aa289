// Package gpio provides gate input sampling and output driving with hardware
// abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"fmt"

	"github.com/sweeney/gate-controller/internal/logic"
)

// Reader samples the gate inputs.
type Reader interface {
	// Read returns the logical input states.
	// The raw GPIO values are inverted: raw low = pressed/active.
	Read() (logic.Inputs, error)

	// Close releases GPIO resources.
	Close() error
}

// Writer drives the gate outputs.
type Writer interface {
	// Write sets the outputs, true = pin high.
	Write(out logic.Outputs) error

	// Close drives all outputs low and releases GPIO resources.
	Close() error
}

// DefaultChip is the GPIO character device used when none is configured.
const DefaultChip = "gpiochip0"

// Pins maps each logical signal to a line offset (BCM numbering on a Pi).
type Pins struct {
	OpenButton      int `yaml:"open_button"`
	CloseButton     int `yaml:"close_button"`
	StopButton      int `yaml:"stop_button"`
	EmergencyButton int `yaml:"emergency_button"`
	ResetButton     int `yaml:"reset_button"`
	OpenLimit       int `yaml:"open_limit"`
	CloseLimit      int `yaml:"close_limit"`

	MotorOpen  int `yaml:"motor_open"`
	MotorClose int `yaml:"motor_close"`
	Buzzer     int `yaml:"buzzer"`
	Lamp       int `yaml:"lamp"`
	FaultLED   int `yaml:"fault_led"`
}

// DefaultPins is the reference wiring.
var DefaultPins = Pins{
	OpenButton:      5,
	CloseButton:     6,
	StopButton:      13,
	EmergencyButton: 19,
	ResetButton:     26,
	OpenLimit:       20,
	CloseLimit:      21,

	MotorOpen:  17,
	MotorClose: 27,
	Buzzer:     22,
	Lamp:       23,
	FaultLED:   24,
}

// Inputs returns the input line offsets in the order used by
// inputsFromLevels.
func (p Pins) Inputs() []int {
	return []int{p.OpenButton, p.CloseButton, p.StopButton, p.EmergencyButton, p.ResetButton, p.OpenLimit, p.CloseLimit}
}

// Outputs returns the output line offsets in the order used by
// levelsFromOutputs.
func (p Pins) Outputs() []int {
	return []int{p.MotorOpen, p.MotorClose, p.Buzzer, p.Lamp, p.FaultLED}
}

// Validate checks that every pin is non-negative and used at most once.
func (p Pins) Validate() error {
	names := []string{
		"open_button", "close_button", "stop_button", "emergency_button", "reset_button", "open_limit", "close_limit",
		"motor_open", "motor_close", "buzzer", "lamp", "fault_led",
	}
	offsets := append(p.Inputs(), p.Outputs()...)

	seen := make(map[int]string, len(offsets))
	for i, off := range offsets {
		if off < 0 {
			return fmt.Errorf("pin %s: negative offset %d", names[i], off)
		}
		if other, ok := seen[off]; ok {
			return fmt.Errorf("pin %d used by both %s and %s", off, other, names[i])
		}
		seen[off] = names[i]
	}
	return nil
}

// inputsFromLevels converts raw active-low levels, ordered as Pins.Inputs,
// into logical inputs.
func inputsFromLevels(levels []int) logic.Inputs {
	active := func(i int) bool { return levels[i] == 0 }
	return logic.Inputs{
		OpenButton:      active(0),
		CloseButton:     active(1),
		StopButton:      active(2),
		EmergencyButton: active(3),
		ResetButton:     active(4),
		OpenLimit:       active(5),
		CloseLimit:      active(6),
	}
}

// levelsFromOutputs converts logical outputs into active-high levels,
// ordered as Pins.Outputs.
func levelsFromOutputs(out logic.Outputs) []int {
	level := func(b bool) int {
		if b {
			return 1
		}
		return 0
	}
	return []int{level(out.MotorOpen), level(out.MotorClose), level(out.Buzzer), level(out.Lamp), level(out.FaultLED)}
}
