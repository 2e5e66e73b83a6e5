package arm

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gwillem/potarm/pkg/hw"
)

// halfStepSeq is the 8-entry half-step coil energization pattern for a
// 4-wire unipolar stepper, giving double the resolution of full stepping.
var halfStepSeq = [8][4]bool{
	{true, false, false, false},
	{true, true, false, false},
	{false, true, false, false},
	{false, true, true, false},
	{false, false, true, false},
	{false, false, true, true},
	{false, false, false, true},
	{true, false, false, true},
}

// Sequencer advances a stepper motor toward a target position, one
// half-step per cadence tick, on its own schedule. Stepper pulses need a
// tighter, more uniform cadence than the 30 Hz sensing loop can guarantee
// once camera capture and filtering are interleaved, so the sequencer runs
// on a dedicated goroutine.
//
// The control loop writes the target; the sequencer owns phase and
// position. The target and position cross the goroutine boundary as
// atomics, so neither side ever observes a partial write; no other state
// is shared.
type Sequencer struct {
	out hw.DigitalOut
	cfg StepperConfig

	target   atomic.Int64 // written by the control loop
	position atomic.Int64 // written by the sequencer, read for logging
	phase    int          // owned exclusively by the sequencer goroutine
}

func NewSequencer(out hw.DigitalOut, cfg StepperConfig) *Sequencer {
	if cfg.StepsPerRev <= 0 {
		cfg.StepsPerRev = DefaultStepsPerRev
	}
	if cfg.CadenceUS <= 0 {
		cfg.CadenceUS = DefaultCadenceUS
	}
	return &Sequencer{out: out, cfg: cfg}
}

// SetTarget updates the position the sequencer works toward. Safe to call
// from the control loop while the sequencer is running.
func (s *Sequencer) SetTarget(steps int) {
	if steps < 0 {
		steps = 0
	}
	if steps > s.cfg.StepsPerRev {
		steps = s.cfg.StepsPerRev
	}
	s.target.Store(int64(steps))
}

// Target returns the current target position.
func (s *Sequencer) Target() int { return int(s.target.Load()) }

// Position returns the current absolute position in half-steps.
func (s *Sequencer) Position() int { return int(s.position.Load()) }

// Step performs one cadence tick: one half-step toward the target, or
// nothing if the target is reached (the last phase stays energized and the
// motor holds).
func (s *Sequencer) Step() bool {
	pos := s.position.Load()
	tgt := s.target.Load()
	if pos == tgt {
		return false
	}
	if pos < tgt {
		pos++
	} else {
		pos--
	}
	// Position stays congruent to the phase index modulo the table length.
	s.phase = int(((pos % 8) + 8) % 8)
	s.applyPhase()
	s.position.Store(pos)
	return true
}

func (s *Sequencer) applyPhase() {
	for i, pin := range s.cfg.PhasePins {
		s.out.Set(pin, halfStepSeq[s.phase][i])
	}
}

// Energize asserts the driver enable lines and applies the current phase.
// Without enable lines wired, stepping has no physical effect; that is a
// wiring fault the caller reports as a warning, not a crash.
func (s *Sequencer) Energize() {
	for _, pin := range s.cfg.EnablePins {
		s.out.Set(pin, true)
	}
	s.applyPhase()
}

// PowerOff de-energizes all coils and drops the enable lines. The motor
// freewheels; no holding torque.
func (s *Sequencer) PowerOff() {
	for _, pin := range s.cfg.PhasePins {
		s.out.Set(pin, false)
	}
	for _, pin := range s.cfg.EnablePins {
		s.out.Set(pin, false)
	}
}

// Run drives the cadence until the context is cancelled, then powers the
// coils off. There is no terminal condition: at target the sequencer idles
// and holds.
func (s *Sequencer) Run(ctx context.Context) {
	s.Energize()
	defer s.PowerOff()

	ticker := time.NewTicker(time.Duration(s.cfg.CadenceUS) * time.Microsecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Step()
		}
	}
}
