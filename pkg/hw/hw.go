// Package hw defines the hardware collaborators the control loop talks to
// and provides Raspberry Pi implementations of them.
package hw

import "fmt"

// ADC reads raw codes from an analog-to-digital converter channel.
type ADC interface {
	// ReadChannel returns the raw conversion for the given channel.
	// For a 12-bit device the result is in [0, 4095].
	ReadChannel(channel int) (uint16, error)
}

// PWM issues servo pulse widths on a pin.
type PWM interface {
	// SetPulseWidth sets the high time of the 50 Hz servo signal in
	// microseconds. 0 releases the servo (no pulses).
	SetPulseWidth(pin int, microseconds int)
}

// DigitalOut drives plain GPIO output lines (stepper phase and enable pins).
type DigitalOut interface {
	Set(pin int, high bool)
}

// BusError reports a failed ADC transaction on one channel. It is
// per-channel and non-fatal: the loop reuses the last filtered value for
// that channel and carries on.
type BusError struct {
	Channel int
	Err     error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("adc bus error on channel %d: %v", e.Channel, e.Err)
}

func (e *BusError) Unwrap() error { return e.Err }
