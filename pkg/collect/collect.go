// Package collect runs the fixed-rate sensing/control/logging loop.
package collect

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gwillem/potarm/pkg/arm"
	"github.com/gwillem/potarm/pkg/camera"
	"github.com/gwillem/potarm/pkg/hw"
)

// State is what the loop publishes after each tick, consumed by the TUI.
type State struct {
	Record TickRecord
	Err    error
}

// Devices bundles the hardware collaborators the loop drives.
type Devices struct {
	ADC hw.ADC
	PWM hw.PWM
	Out hw.DigitalOut
}

// Controller owns the control loop: every tick it samples all channels,
// filters them, maps them to actuator commands, dispatches servos, updates
// the stepper target and emits one TickRecord. The stepper's phase advance
// happens on the sequencer's own cadence, not here.
type Controller struct {
	cfg     *arm.Config
	sampler *arm.Sampler
	servos  *arm.ServoDriver
	seq     *arm.Sequencer

	filters  map[arm.JointName]*arm.MovingAverage
	lastRaw  map[arm.JointName]uint16
	grabbers []*camera.Grabber
	sink     Sink

	frameMaxAge time.Duration

	mu      sync.Mutex
	running bool
	stateCh chan State
	logCh   chan string
}

// NewController wires the loop together. sink may be nil (teleoperate
// without recording); grabbers may be empty.
func NewController(cfg *arm.Config, dev Devices, grabbers []*camera.Grabber, sink Sink) *Controller {
	cfg.ApplyDefaults()

	c := &Controller{
		cfg:      cfg,
		sampler:  arm.NewSampler(dev.ADC),
		servos:   arm.NewServoDriver(dev.PWM, cfg.PulseMinUS, cfg.PulseMaxUS),
		seq:      arm.NewSequencer(dev.Out, cfg.Stepper),
		filters:  make(map[arm.JointName]*arm.MovingAverage),
		lastRaw:  make(map[arm.JointName]uint16),
		grabbers: grabbers,
		sink:     sink,
		stateCh:  make(chan State, 1),
		logCh:    make(chan string, 10),
	}
	for name := range cfg.Joints {
		c.filters[name] = arm.NewMovingAverage(cfg.FilterSize)
	}
	c.filters[arm.Base] = arm.NewMovingAverage(cfg.FilterSize)

	// A frame older than two tick periods no longer belongs to this tick.
	c.frameMaxAge = 2 * time.Second / time.Duration(cfg.TickRate)

	for _, g := range grabbers {
		g.SetLogf(c.log)
	}
	return c
}

// States returns a channel that receives state updates.
func (c *Controller) States() <-chan State { return c.stateCh }

// Logs returns a channel that receives log messages.
func (c *Controller) Logs() <-chan string { return c.logCh }

// Hz returns the configured tick rate.
func (c *Controller) Hz() int { return c.cfg.TickRate }

// Sequencer exposes the stepper sequencer (position readout for UIs).
func (c *Controller) Sequencer() *arm.Sequencer { return c.seq }

func (c *Controller) log(format string, args ...any) {
	msg := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	select {
	case c.logCh <- msg:
	default:
		// Drop if channel full
	}
}

// Start runs the loop until the context is cancelled. The stepper
// sequencer and the camera grabbers run on their own goroutines; the tick
// loop itself is sequential: sample, filter, map, drive, record.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("already running")
	}
	c.running = true
	c.mu.Unlock()

	// Configuration faults are reported once, then we run degraded.
	for _, w := range c.cfg.Warnings() {
		c.log("Warning: %s", w)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.seq.Run(ctx)
	}()
	for _, g := range c.grabbers {
		wg.Add(1)
		go func(g *camera.Grabber) {
			defer wg.Done()
			g.Run(ctx)
		}(g)
	}

	c.log("Control loop started at %d Hz (stepper cadence %d us)", c.cfg.TickRate, c.cfg.Stepper.CadenceUS)

	// time.Ticker coalesces missed ticks, so an overrun tick is followed
	// by the next tick immediately and never by a queued backlog. Tick
	// spacing goes irregular; the record timestamps show it.
	ticker := time.NewTicker(time.Second / time.Duration(c.cfg.TickRate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			wg.Wait()
			return ctx.Err()
		case <-ticker.C:
			c.step()
		}
	}
}

// step executes one control tick.
func (c *Controller) step() {
	joints := make(map[arm.JointName]JointSample, len(c.cfg.Joints)+1)

	// Servo joints: sample, filter, map, dispatch. Dispatch happens
	// before frame collection so a slow camera never delays the arm.
	for _, name := range arm.ServoJoints() {
		jc, ok := c.cfg.Joints[name]
		if !ok {
			continue
		}
		s := c.sample(name, jc.Channel)
		s.Angle = jc.Angle(s.Filtered)
		c.servos.SetAngle(jc.ServoPin, s.Angle)
		joints[name] = s
	}

	// Base joint: update the sequencer's target only. Phase and position
	// belong to the sequencer's cadence.
	bs := c.sample(arm.Base, c.cfg.Stepper.Channel)
	c.seq.SetTarget(c.cfg.Stepper.Target(bs.Filtered))
	joints[arm.Base] = bs

	frames := make(map[string]string, len(c.grabbers))
	for _, g := range c.grabbers {
		if f, ok := g.Latest(c.frameMaxAge); ok {
			frames[g.Name()] = f.Ref
		} else {
			frames[g.Name()] = "" // missing-frame marker
		}
	}

	rec := TickRecord{
		Timestamp:       time.Now(),
		Joints:          joints,
		StepperTarget:   c.seq.Target(),
		StepperPosition: c.seq.Position(),
		Frames:          frames,
	}

	if c.sink != nil {
		if err := c.sink.Append(rec); err != nil {
			c.log("Record error: %v", err)
		}
	}
	c.sendState(State{Record: rec})
}

// sample reads one channel through its filter. A bus error is per-channel
// and non-fatal: the previous raw and filtered values are carried over and
// the sample is marked stale.
func (c *Controller) sample(name arm.JointName, channel int) JointSample {
	f := c.filters[name]
	raw, err := c.sampler.Read(channel)
	if err != nil {
		c.log("Read error: %v", err)
		return JointSample{Raw: c.lastRaw[name], Filtered: f.Value(), Stale: true}
	}
	c.lastRaw[name] = raw
	return JointSample{Raw: raw, Filtered: f.Update(raw)}
}

func (c *Controller) sendState(s State) {
	select {
	case c.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-c.stateCh:
		default:
		}
		c.stateCh <- s
	}
}

// shutdown stops scheduling ticks and leaves the arm safe: servos released,
// stepper coils off (the sequencer powers down as its goroutine exits).
func (c *Controller) shutdown() {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()

	for _, jc := range c.cfg.Joints {
		c.servos.Park(jc.ServoPin)
	}
	c.log("Control loop stopped, servos parked")
}
