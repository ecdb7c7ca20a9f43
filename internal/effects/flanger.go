package effects

import "github.com/cbegin/midisynth-go/internal/lfo"

// Flanger approximates a flanger without a delay line: an LFO scales how much of the
// previous input is folded back into the current sample.
type Flanger struct {
	depth float64
	mix   float64
	mod   *lfo.LFO
	prev  float64
}

// NewFlanger creates a flanger. depth and mix are 0..1.
func NewFlanger(rateHz, depth, mix float64) *Flanger {
	return &Flanger{
		depth: clamp(depth, 0, 1),
		mix:   clamp(mix, 0, 1),
		mod:   lfo.New(lfo.Sine, rateHz, 1, 0),
	}
}

// Process returns the flanged sample at time t seconds.
func (f *Flanger) Process(x, t float64) float64 {
	m := f.depth * (0.5 + 0.5*f.mod.At(t))
	wet := (x + m*f.prev) / (1 + m)
	f.prev = x
	return x*(1-f.mix) + wet*f.mix
}

func (f *Flanger) Reset() { f.prev = 0 }
