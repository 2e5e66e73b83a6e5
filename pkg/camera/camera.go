// Package camera provides frame-capture producers and an asynchronous
// grabber that keeps the newest frame available to the control loop
// without ever blocking it.
package camera

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os/exec"
	"time"
)

// ErrCaptureTimeout reports a frame source that did not respond in time.
// The tick record is emitted with a missing-frame marker; the loop is
// never blocked on a camera.
var ErrCaptureTimeout = errors.New("frame capture timeout")

// Frame is one captured image with its capture timestamp. Ref is the
// identifier recorded in the dataset (a file basename once saved).
type Frame struct {
	Ref       string
	Timestamp time.Time
	Data      []byte
}

// FrameSource produces timestamped images on request. One per camera,
// independently addressable. Cameras are not hardware-synchronized to the
// control loop; alignment of frames to ticks is approximate by design.
type FrameSource interface {
	Capture(ctx context.Context) (Frame, error)
}

// Exec captures by running an external command that writes a JPEG to
// stdout (e.g. rpicam-still -n -t 1 -o -). Capture respects the context
// deadline and kills the command on timeout.
type Exec struct {
	Command []string
}

func (e *Exec) Capture(ctx context.Context) (Frame, error) {
	if len(e.Command) == 0 {
		return Frame{}, fmt.Errorf("no capture command configured")
	}
	cmd := exec.CommandContext(ctx, e.Command[0], e.Command[1:]...)
	out, err := cmd.Output()
	if ctx.Err() != nil {
		return Frame{}, ErrCaptureTimeout
	}
	if err != nil {
		return Frame{}, fmt.Errorf("capture command: %w", err)
	}
	return Frame{Timestamp: time.Now(), Data: out}, nil
}

// Synthetic produces fake JPEG frames for bench runs without a camera
// attached.
type Synthetic struct{}

func (Synthetic) Capture(ctx context.Context) (Frame, error) {
	data := make([]byte, 2048+rand.Intn(2048))
	data[0], data[1] = 0xFF, 0xD8 // JPEG SOI marker
	return Frame{Timestamp: time.Now(), Data: data}, nil
}
