//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/gate-controller/internal/logic"
)

// RealReader reads the gate inputs from actual hardware using the Linux GPIO
// character device.
type RealReader struct {
	chip  *gpiocdev.Chip
	lines *gpiocdev.Lines
}

// NewRealReader requests the input lines on the given chip.
func NewRealReader(chipName string, pins Pins) (*RealReader, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	// Buttons and limit switches close to ground, so bias the lines high.
	lines, err := chip.RequestLines(pins.Inputs(), gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.WithConsumer("gate-controller"))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request input pins %v: %w", pins.Inputs(), err)
	}

	return &RealReader{
		chip:  chip,
		lines: lines,
	}, nil
}

// Read returns the logical input states.
// Inverts raw GPIO: raw low (0) = pressed, raw high (1) = released.
func (r *RealReader) Read() (logic.Inputs, error) {
	levels := make([]int, len(r.lines.Offsets()))
	if err := r.lines.Values(levels); err != nil {
		return logic.Inputs{}, fmt.Errorf("read input pins: %w", err)
	}
	return inputsFromLevels(levels), nil
}

// Close releases GPIO resources.
// Reconfigures the lines to input with pull-down (matching Pi boot defaults)
// before closing.
func (r *RealReader) Close() error {
	var errs []error

	if r.lines != nil {
		if err := r.lines.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure input pins: %w", err))
		}
		if err := r.lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close input pins: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	return errors.Join(errs...)
}

// RealWriter drives the gate outputs on actual hardware.
type RealWriter struct {
	chip  *gpiocdev.Chip
	lines *gpiocdev.Lines
}

// NewRealWriter requests the output lines on the given chip, all driven low.
func NewRealWriter(chipName string, pins Pins) (*RealWriter, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	offsets := pins.Outputs()
	lines, err := chip.RequestLines(offsets, gpiocdev.AsOutput(make([]int, len(offsets))...), gpiocdev.WithConsumer("gate-controller"))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request output pins %v: %w", offsets, err)
	}

	return &RealWriter{
		chip:  chip,
		lines: lines,
	}, nil
}

// Write sets the output levels, active-high.
func (w *RealWriter) Write(out logic.Outputs) error {
	if out.MotorOpen && out.MotorClose {
		return errors.New("refusing to drive both motor directions")
	}
	if err := w.lines.SetValues(levelsFromOutputs(out)); err != nil {
		return fmt.Errorf("write output pins: %w", err)
	}
	return nil
}

// Close drives every output low, then returns the lines to input with
// pull-down (matching Pi boot defaults) so the motor relays cannot latch on
// across a restart.
func (w *RealWriter) Close() error {
	var errs []error

	if w.lines != nil {
		if err := w.lines.SetValues(levelsFromOutputs(logic.Outputs{})); err != nil {
			errs = append(errs, fmt.Errorf("clear output pins: %w", err))
		}
		if err := w.lines.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure output pins: %w", err))
		}
		if err := w.lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close output pins: %w", err))
		}
	}
	if w.chip != nil {
		if err := w.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	return errors.Join(errs...)
}
