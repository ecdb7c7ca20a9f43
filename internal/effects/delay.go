package effects

// FeedbackDelay is the global reverb stage: y[n] = x[n] + y[n-d]*decay on each channel.
type FeedbackDelay struct {
	bufL, bufR []float64
	pos        int
	decay      float64
}

// NewFeedbackDelay creates a feedback delay.
// delayMs: delay time in milliseconds
// decay: feedback gain, clamped to 0..0.95
func NewFeedbackDelay(sampleRate int, delayMs, decay float64) *FeedbackDelay {
	samples := int(delayMs * float64(sampleRate) / 1000.0)
	if samples < 1 {
		samples = 1
	}
	return &FeedbackDelay{
		bufL:  make([]float64, samples),
		bufR:  make([]float64, samples),
		decay: clamp(decay, 0, 0.95),
	}
}

func (d *FeedbackDelay) Process(l, r float64) (float64, float64) {
	l += d.bufL[d.pos] * d.decay
	r += d.bufR[d.pos] * d.decay
	d.bufL[d.pos] = l
	d.bufR[d.pos] = r
	d.pos++
	if d.pos >= len(d.bufL) {
		d.pos = 0
	}
	return l, r
}

func (d *FeedbackDelay) Reset() {
	for i := range d.bufL {
		d.bufL[i] = 0
		d.bufR[i] = 0
	}
	d.pos = 0
}
