package arm

import (
	"math"
	"testing"
)

func TestMovingAverage_Convergence(t *testing.T) {
	f := NewMovingAverage(10)

	// After size identical inputs the mean equals that input exactly.
	var got float64
	for i := 0; i < 10; i++ {
		got = f.Update(2048)
	}
	if got != 2048 {
		t.Errorf("converged mean = %f, want 2048", got)
	}

	// And it stays there.
	if got := f.Update(2048); got != 2048 {
		t.Errorf("mean after extra sample = %f, want 2048", got)
	}
}

func TestMovingAverage_Warmup(t *testing.T) {
	f := NewMovingAverage(4)

	// Partially filled window averages over what is present, not a
	// zero-padded window.
	tests := []struct {
		raw      uint16
		expected float64
	}{
		{100, 100},
		{200, 150},
		{300, 200},
		{400, 250},
	}
	for i, tt := range tests {
		got := f.Update(tt.raw)
		if math.Abs(got-tt.expected) > 0.001 {
			t.Errorf("update %d: mean = %f, want %f", i, got, tt.expected)
		}
	}
}

func TestMovingAverage_FIFOEviction(t *testing.T) {
	f := NewMovingAverage(2)

	f.Update(0)
	f.Update(0)
	if got := f.Update(4095); math.Abs(got-2047.5) > 0.001 {
		t.Errorf("mean = %f, want 2047.5", got)
	}
	if got := f.Update(4095); got != 4095 {
		t.Errorf("mean = %f, want 4095", got)
	}
	if f.Len() != 2 {
		t.Errorf("window length = %d, want 2", f.Len())
	}
}

func TestMovingAverage_BoundedByExtremes(t *testing.T) {
	f := NewMovingAverage(5)

	inputs := []uint16{17, 4095, 0, 900, 2048, 3000, 1, 1, 4000, 42}
	window := []float64{}
	for _, raw := range inputs {
		window = append(window, float64(raw))
		if len(window) > 5 {
			window = window[1:]
		}
		lo, hi := window[0], window[0]
		for _, v := range window {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		got := f.Update(raw)
		if got < lo || got > hi {
			t.Errorf("after %d: mean %f outside window bounds [%f, %f]", raw, got, lo, hi)
		}
	}
}

func TestMovingAverage_ValueReuse(t *testing.T) {
	f := NewMovingAverage(3)
	if f.Value() != 0 {
		t.Errorf("empty filter Value() = %f, want 0", f.Value())
	}
	f.Update(1000)
	f.Update(2000)
	// Value does not consume a sample; it is what a skipped channel logs.
	if got := f.Value(); got != 1500 {
		t.Errorf("Value() = %f, want 1500", got)
	}
	if f.Len() != 2 {
		t.Errorf("Len() = %d, want 2", f.Len())
	}
}
