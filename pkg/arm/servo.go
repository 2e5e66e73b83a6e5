package arm

import (
	"math"

	"github.com/gwillem/potarm/pkg/hw"
)

// ServoDriver converts joint angles to pulse widths and issues them to the
// PWM collaborator. The arm is open loop: there is no feedback path, so
// accuracy depends entirely on upstream calibration. Re-issuing the same
// pulse width is safe.
type ServoDriver struct {
	pwm   hw.PWM
	minUS int
	maxUS int
	last  map[int]int // pin -> last commanded pulse width
}

func NewServoDriver(pwm hw.PWM, minUS, maxUS int) *ServoDriver {
	if minUS <= 0 {
		minUS = DefaultPulseMinUS
	}
	if maxUS <= minUS {
		maxUS = DefaultPulseMaxUS
	}
	return &ServoDriver{pwm: pwm, minUS: minUS, maxUS: maxUS, last: make(map[int]int)}
}

// PulseWidth returns the pulse width in microseconds for an angle, mapping
// 0-180 degrees linearly onto the configured range.
func (d *ServoDriver) PulseWidth(angle float64) int {
	angle = math.Min(math.Max(angle, 0), 180)
	return d.minUS + int(math.Round(angle/180*float64(d.maxUS-d.minUS)))
}

// SetAngle commands a servo to the given angle.
func (d *ServoDriver) SetAngle(pin int, angle float64) {
	us := d.PulseWidth(angle)
	d.pwm.SetPulseWidth(pin, us)
	d.last[pin] = us
}

// Last returns the last commanded pulse width for a pin, or 0 if none.
func (d *ServoDriver) Last(pin int) int { return d.last[pin] }

// Park stops pulsing the given pins, releasing the servos. Called on every
// shutdown path so the arm is never left holding torque.
func (d *ServoDriver) Park(pins ...int) {
	for _, pin := range pins {
		d.pwm.SetPulseWidth(pin, 0)
		d.last[pin] = 0
	}
}
