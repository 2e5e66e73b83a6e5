package camera

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Grabber runs one capture goroutine per camera at a fixed frame rate and
// keeps only the newest frame in a latest-value slot. The control loop
// snapshots the slot when assembling a record; a slow or dead camera
// therefore costs the loop nothing but a missing-frame marker.
type Grabber struct {
	name     string
	src      FrameSource
	interval time.Duration
	saveDir  string
	logf     func(format string, args ...any)

	mu     sync.Mutex
	latest Frame
	have   bool

	captured uint64
	failed   uint64
	seq      uint64 // capture counter, touched by the capture goroutine only
}

// NewGrabber wires a frame source to a capture cadence. If saveDir is
// non-empty, every captured frame is written there and Ref is set to the
// file basename; otherwise frames stay in memory with a synthetic Ref.
// logf may be nil.
func NewGrabber(name string, src FrameSource, fps int, saveDir string, logf func(string, ...any)) *Grabber {
	if fps <= 0 {
		fps = 30
	}
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Grabber{
		name:     name,
		src:      src,
		interval: time.Second / time.Duration(fps),
		saveDir:  saveDir,
		logf:     logf,
	}
}

// Name returns the camera name.
func (g *Grabber) Name() string { return g.name }

// SetLogf replaces the grabber's logger. Must be called before Run.
func (g *Grabber) SetLogf(logf func(string, ...any)) {
	if logf != nil {
		g.logf = logf
	}
}

// Run captures frames until the context is cancelled. Capture errors are
// tolerated: they are logged and the slot simply goes stale, which the
// loop reports as a missing frame.
func (g *Grabber) Run(ctx context.Context) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.captureOne(ctx)
		}
	}
}

func (g *Grabber) captureOne(ctx context.Context) {
	// Bound each capture by one frame interval so a wedged camera cannot
	// back the grabber up.
	cctx, cancel := context.WithTimeout(ctx, g.interval)
	frame, err := g.src.Capture(cctx)
	cancel()
	if err != nil {
		g.fail()
		if errors.Is(err, ErrCaptureTimeout) {
			g.logf("camera %s: capture timeout", g.name)
		} else {
			g.logf("camera %s: %v", g.name, err)
		}
		return
	}

	if frame.Timestamp.IsZero() {
		frame.Timestamp = time.Now()
	}
	if frame.Ref == "" {
		// The counter keeps refs unique even when two captures land in
		// the same millisecond.
		g.seq++
		frame.Ref = fmt.Sprintf("%s-%06d.jpg", frame.Timestamp.Format("20060102T150405.000"), g.seq)
	}
	if g.saveDir != "" && len(frame.Data) > 0 {
		path := filepath.Join(g.saveDir, frame.Ref)
		if err := os.WriteFile(path, frame.Data, 0644); err != nil {
			g.fail()
			g.logf("camera %s: save frame: %v", g.name, err)
			return
		}
	}

	g.mu.Lock()
	g.latest = frame
	g.have = true
	g.captured++
	g.mu.Unlock()
}

func (g *Grabber) fail() {
	g.mu.Lock()
	g.failed++
	g.mu.Unlock()
}

// Latest returns the newest frame if one was captured within maxAge.
// Otherwise ok is false and the caller records a missing frame.
func (g *Grabber) Latest(maxAge time.Duration) (Frame, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.have || time.Since(g.latest.Timestamp) > maxAge {
		return Frame{}, false
	}
	return g.latest, true
}

// Stats returns captured and failed frame counts.
func (g *Grabber) Stats() (captured, failed uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.captured, g.failed
}

// String implements fmt.Stringer for log lines.
func (g *Grabber) String() string {
	c, f := g.Stats()
	return fmt.Sprintf("%s (captured=%d failed=%d)", g.name, c, f)
}
