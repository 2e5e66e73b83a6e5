package arm

// MovingAverage is a bounded-window mean over the most recent raw codes of
// a single channel. Each channel owns its own filter; nothing is shared.
//
// During the first size-1 updates the mean is taken over whatever is
// present, not a zero-padded window, so startup is not biased toward zero.
type MovingAverage struct {
	buf   []float64
	head  int
	count int
	sum   float64
}

// NewMovingAverage creates a filter with the given window size.
func NewMovingAverage(size int) *MovingAverage {
	if size < 1 {
		size = 1
	}
	return &MovingAverage{buf: make([]float64, size)}
}

// Update pushes one raw code, evicting the oldest entry once the window is
// full, and returns the current mean.
func (f *MovingAverage) Update(raw uint16) float64 {
	v := float64(raw)
	if f.count == len(f.buf) {
		f.sum -= f.buf[f.head]
	} else {
		f.count++
	}
	f.buf[f.head] = v
	f.head = (f.head + 1) % len(f.buf)
	f.sum += v
	return f.Value()
}

// Value returns the current mean without consuming a new sample. Used when
// a channel's bus read fails and the prior filtered value is reused.
func (f *MovingAverage) Value() float64 {
	if f.count == 0 {
		return 0
	}
	return f.sum / float64(f.count)
}

// Len returns the number of samples currently in the window.
func (f *MovingAverage) Len() int { return f.count }
