package arm

import (
	"errors"

	"github.com/gwillem/potarm/pkg/hw"
)

// MaxCode is the full-scale raw code of the 12-bit ADC.
const MaxCode = 4095

// Sampler reads raw potentiometer codes from the ADC bus.
type Sampler struct {
	adc hw.ADC
}

func NewSampler(adc hw.ADC) *Sampler {
	return &Sampler{adc: adc}
}

// Read returns the raw code for one channel. Failures are reported as
// *hw.BusError so the caller can skip the channel for this tick instead of
// aborting the loop.
func (s *Sampler) Read(channel int) (uint16, error) {
	raw, err := s.adc.ReadChannel(channel)
	if err != nil {
		var be *hw.BusError
		if errors.As(err, &be) {
			return 0, err
		}
		return 0, &hw.BusError{Channel: channel, Err: err}
	}
	if raw > MaxCode {
		raw = MaxCode
	}
	return raw, nil
}
