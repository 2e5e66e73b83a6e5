// Package arm converts potentiometer readings into actuator commands and
// drives the arm's servos and stepper base.
package arm

// JointName identifies a joint in the arm.
type JointName string

// Joint names. The base is the stepper joint; the rest are PWM servos.
const (
	Shoulder JointName = "shoulder"
	Elbow    JointName = "elbow"
	Wrist    JointName = "wrist"
	Base     JointName = "base"
)

// ServoJoints returns the servo joint names in channel order.
func ServoJoints() []JointName {
	return []JointName{Shoulder, Elbow, Wrist}
}

// AllJoints returns every joint name, servos first, then the base.
func AllJoints() []JointName {
	return []JointName{Shoulder, Elbow, Wrist, Base}
}
