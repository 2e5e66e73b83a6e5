package arm

import "testing"

type fakeOut struct {
	levels map[int]bool
	writes int
}

func newFakeOut() *fakeOut { return &fakeOut{levels: make(map[int]bool)} }

func (f *fakeOut) Set(pin int, high bool) {
	f.levels[pin] = high
	f.writes++
}

func testStepperConfig() StepperConfig {
	return StepperConfig{
		PhasePins:   [4]int{5, 6, 16, 26},
		EnablePins:  []int{20, 21},
		StepsPerRev: 4096,
	}
}

// coilPattern reads back the current coil levels in phase-pin order.
func coilPattern(out *fakeOut, cfg StepperConfig) [4]bool {
	var p [4]bool
	for i, pin := range cfg.PhasePins {
		p[i] = out.levels[pin]
	}
	return p
}

func TestSequencer_ReachesTarget(t *testing.T) {
	cfg := testStepperConfig()
	s := NewSequencer(newFakeOut(), cfg)

	s.SetTarget(2048)
	for i := 0; i < 2048; i++ {
		if !s.Step() {
			t.Fatalf("step %d: sequencer stopped before target", i)
		}
	}
	if s.Position() != 2048 {
		t.Fatalf("position = %d, want 2048", s.Position())
	}

	// Subsequent ticks produce no phase change.
	if s.Step() {
		t.Error("Step() advanced while at target")
	}
	if s.Position() != 2048 {
		t.Errorf("position moved at target: %d", s.Position())
	}
}

func TestSequencer_Reverse(t *testing.T) {
	s := NewSequencer(newFakeOut(), testStepperConfig())

	s.SetTarget(10)
	for s.Step() {
	}
	s.SetTarget(3)
	steps := 0
	for s.Step() {
		steps++
	}
	if steps != 7 {
		t.Errorf("reverse took %d steps, want 7", steps)
	}
	if s.Position() != 3 {
		t.Errorf("position = %d, want 3", s.Position())
	}
}

func TestSequencer_PhaseCycling(t *testing.T) {
	cfg := testStepperConfig()
	out := newFakeOut()
	s := NewSequencer(out, cfg)

	// Continuous forward motion visits all 8 table entries in cyclic
	// order with no skips or repeats.
	s.SetTarget(16)
	for i := 0; i < 16; i++ {
		if !s.Step() {
			t.Fatalf("step %d: stopped early", i)
		}
		want := halfStepSeq[(i+1)%8]
		if got := coilPattern(out, cfg); got != want {
			t.Errorf("step %d: coils = %v, want %v", i, got, want)
		}
	}
}

func TestSequencer_TargetClamped(t *testing.T) {
	s := NewSequencer(newFakeOut(), testStepperConfig())

	s.SetTarget(-5)
	if s.Target() != 0 {
		t.Errorf("Target() = %d, want 0", s.Target())
	}
	s.SetTarget(100000)
	if s.Target() != 4096 {
		t.Errorf("Target() = %d, want 4096", s.Target())
	}
}

func TestSequencer_PowerOff(t *testing.T) {
	cfg := testStepperConfig()
	out := newFakeOut()
	s := NewSequencer(out, cfg)

	s.Energize()
	for _, pin := range cfg.EnablePins {
		if !out.levels[pin] {
			t.Errorf("enable pin %d not asserted", pin)
		}
	}

	s.SetTarget(5)
	for s.Step() {
	}
	s.PowerOff()
	for _, pin := range cfg.PhasePins {
		if out.levels[pin] {
			t.Errorf("phase pin %d still high after PowerOff", pin)
		}
	}
	for _, pin := range cfg.EnablePins {
		if out.levels[pin] {
			t.Errorf("enable pin %d still high after PowerOff", pin)
		}
	}
}
