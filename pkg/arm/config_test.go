package arm

import (
	"strings"
	"testing"
)

func TestWarnings_SharedPWMChannel(t *testing.T) {
	cfg := DefaultConfig()
	// Pins 13 and 19 both sit on hardware PWM channel 1.
	cfg.Joints[Elbow] = JointConfig{Channel: 1, ServoPin: 19, MinAngle: 0, MaxAngle: 180}
	cfg.Joints[Wrist] = JointConfig{Channel: 2, ServoPin: 13, MinAngle: 0, MaxAngle: 180}

	var found bool
	for _, w := range cfg.Warnings() {
		if strings.Contains(w, "shares PWM channel") {
			found = true
		}
	}
	if !found {
		t.Errorf("no shared-channel warning in %v", cfg.Warnings())
	}
}

func TestWarnings_DefaultConfigChannelsIndependent(t *testing.T) {
	// The stock wiring must never put two servos on one hardware PWM
	// channel; they would move in lockstep.
	for _, w := range DefaultConfig().Warnings() {
		if strings.Contains(w, "shares PWM channel") {
			t.Errorf("default config: %s", w)
		}
	}
}

func TestWarnings_SoftwareTimedPin(t *testing.T) {
	cfg := DefaultConfig()
	var found bool
	for _, w := range cfg.Warnings() {
		if strings.Contains(w, "software-timed") && strings.Contains(w, string(Wrist)) {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a software-timed note for the wrist pin, got %v", cfg.Warnings())
	}
}
