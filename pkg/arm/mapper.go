package arm

import "math"

// Angle maps a filtered code to a servo angle in degrees.
//
// The code is normalized by the ADC full scale, optionally inverted for
// pots mounted so that increasing rotation decreases the code, scaled to
// 0-180 and clamped to the joint's configured range. Out-of-range inputs
// are clipped, never rejected.
func (c JointConfig) Angle(filtered float64) float64 {
	n := filtered / MaxCode
	if c.Invert {
		n = 1 - n
	}
	angle := n * 180
	lo, hi := c.MinAngle, c.MaxAngle
	if hi <= lo {
		lo, hi = 0, 180
	}
	lo = math.Max(lo, 0)
	hi = math.Min(hi, 180)
	return math.Min(math.Max(angle, lo), hi)
}

// Target maps a filtered code to an absolute stepper position, clamped to
// [0, StepsPerRev].
func (c StepperConfig) Target(filtered float64) int {
	n := filtered / MaxCode
	if c.Invert {
		n = 1 - n
	}
	t := int(math.Round(n * float64(c.StepsPerRev)))
	if t < 0 {
		t = 0
	}
	if t > c.StepsPerRev {
		t = c.StepsPerRev
	}
	return t
}
