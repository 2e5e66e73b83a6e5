package hw

import (
	"fmt"

	"github.com/stianeikeland/go-rpio/v4"
)

// Servo PWM runs at 50 Hz with a 20000-slot cycle, so one duty slot is
// exactly one microsecond of pulse width.
const (
	servoFreqHz   = 50
	servoCycleLen = 20000
)

// Pi exposes the Raspberry Pi's SPI bus, hardware PWM and GPIO through the
// collaborator interfaces. It owns the underlying /dev/gpiomem and SPI
// handles; Close releases them.
type Pi struct {
	pwmPins  map[int]rpio.Pin    // configured for pwm mode
	pwmOwner map[int]int         // hardware PWM channel -> owning pin
	soft     map[int]*softPulser // pins pulsed in software
	outPins  map[int]rpio.Pin    // configured as outputs
}

// OpenPi maps the GPIO registers and claims SPI0 for the MCP3208.
// This is the only fatal initialization point: if the bus cannot be
// opened at all, the loop never starts.
func OpenPi(spiSpeedHz int) (*Pi, error) {
	if spiSpeedHz <= 0 {
		spiSpeedHz = 1_000_000
	}
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("open gpio: %w", err)
	}
	if err := rpio.SpiBegin(rpio.Spi0); err != nil {
		rpio.Close()
		return nil, fmt.Errorf("open spi: %w", err)
	}
	rpio.SpiSpeed(spiSpeedHz)
	rpio.SpiChipSelect(0)

	return &Pi{
		pwmPins:  make(map[int]rpio.Pin),
		pwmOwner: make(map[int]int),
		soft:     make(map[int]*softPulser),
		outPins:  make(map[int]rpio.Pin),
	}, nil
}

// PWMChannel returns the Pi's hardware PWM channel for a BCM pin, or -1 if
// the pin has none. Channel 0 is on pins 12 and 18, channel 1 on 13 and 19.
// Two pins on the same channel share one duty register and cannot pulse
// independently.
func PWMChannel(pin int) int {
	switch pin {
	case 12, 18:
		return 0
	case 13, 19:
		return 1
	}
	return -1
}

// ReadChannel performs one MCP3208 single-ended conversion.
// Command framing: start bit + single-ended mode + 3-bit channel, then two
// clock bytes to shift out the 12-bit result.
func (p *Pi) ReadChannel(channel int) (uint16, error) {
	if channel < 0 || channel > 7 {
		return 0, &BusError{Channel: channel, Err: fmt.Errorf("channel out of range")}
	}
	buf := []byte{byte(6 | channel>>2), byte(channel&3) << 6, 0}
	rpio.SpiExchange(buf)
	return uint16(buf[1]&0x0F)<<8 | uint16(buf[2]), nil
}

// SetPulseWidth drives a servo pin at 50 Hz with the given high time.
// The first pin seen on each hardware PWM channel claims that channel; any
// other pin, including a second pin on an already-claimed channel, falls
// back to software-timed pulses so it still moves independently.
func (p *Pi) SetPulseWidth(pin int, microseconds int) {
	if microseconds < 0 {
		microseconds = 0
	}
	if microseconds > servoCycleLen {
		microseconds = servoCycleLen
	}

	if ch := PWMChannel(pin); ch >= 0 {
		owner, claimed := p.pwmOwner[ch]
		if !claimed || owner == pin {
			gp, ok := p.pwmPins[pin]
			if !ok {
				gp = rpio.Pin(pin)
				gp.Mode(rpio.Pwm)
				gp.Freq(servoFreqHz * servoCycleLen)
				p.pwmPins[pin] = gp
				p.pwmOwner[ch] = pin
			}
			gp.DutyCycle(uint32(microseconds), servoCycleLen)
			return
		}
	}

	sp, ok := p.soft[pin]
	if !ok {
		sp = newSoftPulser(rpio.Pin(pin))
		p.soft[pin] = sp
	}
	sp.setWidth(microseconds)
}

// Set drives a GPIO output line. The pin is switched to output mode on
// first use.
func (p *Pi) Set(pin int, high bool) {
	gp, ok := p.outPins[pin]
	if !ok {
		gp = rpio.Pin(pin)
		gp.Output()
		p.outPins[pin] = gp
	}
	if high {
		gp.High()
	} else {
		gp.Low()
	}
}

// Close releases all pulse outputs, drops GPIO lines low and unmaps the
// hardware handles. Safe to call on every exit path.
func (p *Pi) Close() error {
	for _, sp := range p.soft {
		sp.close()
	}
	for _, gp := range p.pwmPins {
		gp.DutyCycle(0, servoCycleLen)
	}
	for _, gp := range p.outPins {
		gp.Low()
	}
	rpio.SpiEnd(rpio.Spi0)
	return rpio.Close()
}
