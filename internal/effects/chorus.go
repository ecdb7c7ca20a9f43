package effects

import "github.com/cbegin/midisynth-go/internal/lfo"

// Chorus implements a mono delay line whose read position is swept by an LFO.
type Chorus struct {
	buf   []float64
	pos   int
	base  float64 // samples
	depth float64 // samples
	mod   *lfo.LFO
}

// NewChorus creates a chorus.
// delayMs: base delay time in ms (typically 5-30ms)
// depthMs: modulation depth in ms
// rateHz: modulation rate in Hz (typically 0.1-5Hz)
func NewChorus(sampleRate int, delayMs, depthMs, rateHz float64) *Chorus {
	base := delayMs * float64(sampleRate) / 1000.0
	depth := depthMs * float64(sampleRate) / 1000.0
	if depth > base {
		depth = base
	}
	size := int(base+depth) + 2
	if size < 4 {
		size = 4
	}
	return &Chorus{
		buf:   make([]float64, size),
		base:  base,
		depth: depth,
		mod:   lfo.New(lfo.Sine, rateHz, 1, 0),
	}
}

// Process writes x and returns the delayed signal read at the modulated offset for
// time t seconds.
func (c *Chorus) Process(x, t float64) float64 {
	c.buf[c.pos] = x
	delay := c.base + c.mod.At(t)*c.depth
	if delay < 0 {
		delay = 0
	}
	size := len(c.buf)
	readPos := float64(c.pos) - delay
	for readPos < 0 {
		readPos += float64(size)
	}
	idx := int(readPos) % size
	frac := readPos - float64(int(readPos))
	idx2 := idx + 1
	if idx2 >= size {
		idx2 = 0
	}
	out := c.buf[idx]*(1-frac) + c.buf[idx2]*frac
	c.pos++
	if c.pos >= size {
		c.pos = 0
	}
	return out
}

func (c *Chorus) Reset() {
	clear(c.buf)
	c.pos = 0
}
