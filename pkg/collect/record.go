package collect

import (
	"time"

	"github.com/gwillem/potarm/pkg/arm"
)

// JointSample is one channel's contribution to a tick: the raw code, the
// filtered value and (for servo joints) the commanded angle. Stale marks a
// channel whose bus read failed this tick; its values are carried over
// from the previous tick.
type JointSample struct {
	Raw      uint16
	Filtered float64
	Angle    float64
	Stale    bool
}

// TickRecord is one synchronized record of a control tick. Every field
// originates from the same tick; the timestamp is the actual completion
// time, not the nominal schedule, so downstream consumers can detect
// jitter. Immutable once assembled.
type TickRecord struct {
	Timestamp time.Time

	// Joints holds all sampled channels including the stepper base
	// (whose actuator command is StepperTarget, not an angle).
	Joints map[arm.JointName]JointSample

	StepperTarget   int
	StepperPosition int

	// Frames maps camera name to frame reference; empty means the
	// camera had no fresh frame this tick.
	Frames map[string]string
}

// Sink receives completed tick records. Implementations own long-term
// storage; the loop discards the record after handoff. Appends are ordered
// by submission.
type Sink interface {
	Append(rec TickRecord) error
}
