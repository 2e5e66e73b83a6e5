package hw

import (
	"sync/atomic"
	"time"

	"github.com/stianeikeland/go-rpio/v4"
)

// softPulser drives a servo pulse train on a plain GPIO line. The Pi has
// only two hardware PWM channels, so any servo beyond those gets its 50 Hz
// pulses timed by a goroutine. Scheduler jitter shows up as a degree or two
// of servo hum; fine for a hobby servo, not a substitute for the hardware
// channels.
type softPulser struct {
	pin   rpio.Pin
	width atomic.Int64 // pulse high time in microseconds, 0 = idle
	stop  chan struct{}
	done  chan struct{}
}

func newSoftPulser(pin rpio.Pin) *softPulser {
	pin.Output()
	pin.Low()
	sp := &softPulser{
		pin:  pin,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go sp.run()
	return sp
}

func (sp *softPulser) setWidth(microseconds int) {
	sp.width.Store(int64(microseconds))
}

func (sp *softPulser) run() {
	defer close(sp.done)
	ticker := time.NewTicker(time.Second / servoFreqHz)
	defer ticker.Stop()

	for {
		select {
		case <-sp.stop:
			sp.pin.Low()
			return
		case <-ticker.C:
			w := sp.width.Load()
			if w <= 0 {
				continue
			}
			sp.pin.High()
			time.Sleep(time.Duration(w) * time.Microsecond)
			sp.pin.Low()
		}
	}
}

// close stops the pulse train and waits for the goroutine to drop the line,
// so the caller can unmap the GPIO registers afterwards.
func (sp *softPulser) close() {
	close(sp.stop)
	<-sp.done
}
