package collect

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/gwillem/potarm/pkg/arm"
	"github.com/gwillem/potarm/pkg/camera"
	"github.com/gwillem/potarm/pkg/hw"
)

// fakeADC replays scripted values per channel. A negative value injects a
// bus error; a Delay simulates a slow transport.
type fakeADC struct {
	script map[int][]int
	pos    map[int]int
	delay  time.Duration
}

func newFakeADC() *fakeADC {
	return &fakeADC{script: make(map[int][]int), pos: make(map[int]int)}
}

func (a *fakeADC) ReadChannel(channel int) (uint16, error) {
	if a.delay > 0 {
		time.Sleep(a.delay)
	}
	seq := a.script[channel]
	if len(seq) == 0 {
		return 0, nil
	}
	i := a.pos[channel]
	if i >= len(seq) {
		i = len(seq) - 1
	}
	a.pos[channel]++
	v := seq[i]
	if v < 0 {
		return 0, &hw.BusError{Channel: channel, Err: fmt.Errorf("no response")}
	}
	return uint16(v), nil
}

type nullPWM struct{}

func (nullPWM) SetPulseWidth(pin, us int) {}

type nullOut struct{}

func (nullOut) Set(pin int, high bool) {}

type memSink struct {
	records []TickRecord
}

func (s *memSink) Append(rec TickRecord) error {
	s.records = append(s.records, rec)
	return nil
}

func testConfig() *arm.Config {
	cfg := &arm.Config{
		FilterSize: 2,
		Joints: map[arm.JointName]arm.JointConfig{
			arm.Shoulder: {Channel: 0, ServoPin: 18},
			arm.Elbow:    {Channel: 1, ServoPin: 19},
		},
		Stepper: arm.StepperConfig{
			Channel:     3,
			PhasePins:   [4]int{5, 6, 16, 26},
			EnablePins:  []int{20, 21},
			StepsPerRev: 4096,
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func newTestController(adc *fakeADC, sink Sink, grabbers ...*camera.Grabber) *Controller {
	return NewController(testConfig(), Devices{ADC: adc, PWM: nullPWM{}, Out: nullOut{}}, grabbers, sink)
}

func TestStep_FilterAndMap(t *testing.T) {
	adc := newFakeADC()
	adc.script[0] = []int{0, 0, 4095, 4095}
	sink := &memSink{}
	c := newTestController(adc, sink)

	for i := 0; i < 4; i++ {
		c.step()
	}

	wantFiltered := []float64{0, 0, 2047.5, 4095}
	wantAngle := []float64{0, 0, 90, 180}
	for i, rec := range sink.records {
		s := rec.Joints[arm.Shoulder]
		if math.Abs(s.Filtered-wantFiltered[i]) > 0.001 {
			t.Errorf("tick %d: filtered = %f, want %f", i, s.Filtered, wantFiltered[i])
		}
		if math.Abs(s.Angle-wantAngle[i]) > 0.05 {
			t.Errorf("tick %d: angle = %f, want %f", i, s.Angle, wantAngle[i])
		}
	}
}

func TestStep_BusErrorReusesLastValue(t *testing.T) {
	adc := newFakeADC()
	adc.script[0] = []int{1000, 2000, 3000}
	adc.script[1] = []int{500, -1, -1} // disconnects after the first tick
	sink := &memSink{}
	c := newTestController(adc, sink)

	c.step()
	c.step()
	c.step()

	// The disconnected channel holds the tick-1 filtered value.
	for i := 1; i < 3; i++ {
		e := sink.records[i].Joints[arm.Elbow]
		if !e.Stale {
			t.Errorf("tick %d: elbow not marked stale", i)
		}
		if e.Filtered != 500 || e.Raw != 500 {
			t.Errorf("tick %d: elbow = %+v, want raw/filtered 500", i, e)
		}
	}

	// Other channels update normally.
	s := sink.records[2].Joints[arm.Shoulder]
	if s.Stale {
		t.Error("shoulder marked stale")
	}
	if math.Abs(s.Filtered-2500) > 0.001 { // mean of 2000, 3000 with window 2
		t.Errorf("shoulder filtered = %f, want 2500", s.Filtered)
	}
}

func TestStep_TimestampsReflectActualTime(t *testing.T) {
	adc := newFakeADC()
	adc.delay = 5 * time.Millisecond // every read is slow, so ticks overrun
	sink := &memSink{}
	c := newTestController(adc, sink)

	for i := 0; i < 3; i++ {
		c.step()
	}

	// Timestamps are completion times: strictly increasing, spaced by at
	// least the injected per-channel delay, not the nominal schedule.
	for i := 1; i < 3; i++ {
		gap := sink.records[i].Timestamp.Sub(sink.records[i-1].Timestamp)
		if gap <= 0 {
			t.Fatalf("tick %d: timestamps not strictly increasing", i)
		}
		if gap < adc.delay {
			t.Errorf("tick %d: gap %v shorter than injected delay", i, gap)
		}
	}
}

func TestStep_UpdatesStepperTarget(t *testing.T) {
	adc := newFakeADC()
	adc.script[3] = []int{4095}
	sink := &memSink{}
	c := newTestController(adc, sink)

	c.step()

	if got := c.Sequencer().Target(); got != 4096 {
		t.Errorf("stepper target = %d, want 4096", got)
	}
	if sink.records[0].StepperTarget != 4096 {
		t.Errorf("record stepper target = %d, want 4096", sink.records[0].StepperTarget)
	}
	// Phase advance is the sequencer's job, not the tick's.
	if sink.records[0].StepperPosition != 0 {
		t.Errorf("stepper position = %d, want 0", sink.records[0].StepperPosition)
	}
}

func TestStep_MissingFrameMarker(t *testing.T) {
	adc := newFakeADC()
	sink := &memSink{}
	// A grabber that never ran has no fresh frame.
	idle := camera.NewGrabber("webcam", camera.Synthetic{}, 30, "", nil)
	c := newTestController(adc, sink, idle)

	c.step()

	ref, ok := sink.records[0].Frames["webcam"]
	if !ok {
		t.Fatal("record missing webcam entry")
	}
	if ref != "" {
		t.Errorf("webcam ref = %q, want missing-frame marker", ref)
	}
}

func TestStep_AttachesFreshFrame(t *testing.T) {
	adc := newFakeADC()
	sink := &memSink{}
	g := camera.NewGrabber("picam", camera.Synthetic{}, 100, "", nil)
	c := newTestController(adc, sink, g)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go g.Run(ctx)
	time.Sleep(150 * time.Millisecond) // several frame intervals at 100 fps

	c.step()

	if ref := sink.records[0].Frames["picam"]; ref == "" {
		t.Error("expected a fresh frame reference")
	}
}

func TestStart_RunsAndShutsDown(t *testing.T) {
	adc := newFakeADC()
	adc.script[0] = []int{2048}
	sink := &memSink{}
	c := newTestController(adc, sink)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := c.Start(ctx)
	if err != context.DeadlineExceeded {
		t.Errorf("Start returned %v, want context.DeadlineExceeded", err)
	}
	if len(sink.records) == 0 {
		t.Fatal("no records emitted")
	}
	for i := 1; i < len(sink.records); i++ {
		if !sink.records[i].Timestamp.After(sink.records[i-1].Timestamp) {
			t.Fatal("timestamps not strictly increasing")
		}
	}
}
