package hw

import "testing"

func TestPWMChannel(t *testing.T) {
	tests := []struct {
		pin  int
		want int
	}{
		{12, 0},
		{18, 0},
		{13, 1},
		{19, 1},
		{5, -1},
		{17, -1},
		{20, -1},
		{26, -1},
	}
	for _, tt := range tests {
		if got := PWMChannel(tt.pin); got != tt.want {
			t.Errorf("PWMChannel(%d) = %d, want %d", tt.pin, got, tt.want)
		}
	}

	// 13 and 19 share a duty register; driving both as hardware PWM would
	// move the attached servos in lockstep.
	if PWMChannel(13) != PWMChannel(19) {
		t.Error("pins 13 and 19 should map to the same channel")
	}
	if PWMChannel(18) == PWMChannel(19) {
		t.Error("pins 18 and 19 should map to independent channels")
	}
}
