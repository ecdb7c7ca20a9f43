package effects

import (
	"math"

	"github.com/cbegin/midisynth-go/internal/lfo"
)

// Phaser sweeps a cascade of first-order all-pass stages and mixes the result with
// the dry signal.
type Phaser struct {
	sampleRate float64
	minHz      float64
	maxHz      float64
	feedback   float64
	mix        float64
	mod        *lfo.LFO
	x1, y1     []float64
	last       float64
}

// NewPhaser creates a phaser.
// stages: number of all-pass stages (at least 1)
// rateHz: sweep rate
// depth: 0..1 fraction of the 200 Hz..4 kHz sweep range
// feedback: 0..0.9
// mix: wet/dry mix 0..1
func NewPhaser(sampleRate, stages int, rateHz, depth, feedback, mix float64) *Phaser {
	if stages < 1 {
		stages = 1
	}
	depth = clamp(depth, 0, 1)
	center := 1000.0
	return &Phaser{
		sampleRate: float64(sampleRate),
		minHz:      center * math.Pow(0.2, depth),
		maxHz:      center * math.Pow(4, depth),
		feedback:   clamp(feedback, 0, 0.9),
		mix:        clamp(mix, 0, 1),
		mod:        lfo.New(lfo.Sine, rateHz, 1, 0),
		x1:         make([]float64, stages),
		y1:         make([]float64, stages),
	}
}

func (p *Phaser) coefficient(t float64) float64 {
	sweep := 0.5 + 0.5*p.mod.At(t)
	f := p.minHz + (p.maxHz-p.minHz)*sweep
	f = clamp(f, 1, p.sampleRate*0.45)
	k := math.Tan(math.Pi * f / p.sampleRate)
	return (k - 1) / (k + 1)
}

// Process returns the phased sample at time t seconds.
func (p *Phaser) Process(x, t float64) float64 {
	a := p.coefficient(t)
	in := x + p.last*p.feedback
	for i := range p.x1 {
		y := a*in + p.x1[i] - a*p.y1[i]
		p.x1[i] = in
		p.y1[i] = y
		in = y
	}
	p.last = in
	return x*(1-p.mix) + in*p.mix
}

func (p *Phaser) Reset() {
	clear(p.x1)
	clear(p.y1)
	p.last = 0
}
