package osc

import (
	"math"
	"math/rand"
)

// DefaultPluckDecay is the per-pass loss of the Karplus-Strong loop.
const DefaultPluckDecay = 0.996

// Pluck is a Karplus-Strong delay line seeded with noise.
type Pluck struct {
	buf   []float64
	pos   int
	decay float64
}

// Next returns the current sample and feeds the averaged pair back into the loop.
func (p *Pluck) Next() float64 {
	n := len(p.buf)
	if n == 0 {
		return 0
	}
	out := p.buf[p.pos]
	next := p.buf[(p.pos+1)%n]
	p.buf[p.pos] = p.decay * 0.5 * (out + next)
	p.pos++
	if p.pos >= n {
		p.pos = 0
	}
	return out
}

// PluckKey identifies Karplus-Strong state.
type PluckKey struct {
	Channel uint8
	Note    uint8
}

// PluckBank owns the Karplus-Strong state of one rendering task.
type PluckBank struct {
	sampleRate float64
	decay      float64
	rng        *rand.Rand
	strings    map[PluckKey]*Pluck
}

// NewPluckBank creates an empty bank. decay <= 0 selects DefaultPluckDecay.
func NewPluckBank(sampleRate int, decay float64, seed int64) *PluckBank {
	if decay <= 0 || decay > 1 {
		decay = DefaultPluckDecay
	}
	return &PluckBank{
		sampleRate: float64(sampleRate),
		decay:      decay,
		rng:        rand.New(rand.NewSource(seed)),
		strings:    make(map[PluckKey]*Pluck),
	}
}

// Reseed replaces the state for k with a fresh noise burst tuned to freq. It is called
// at every note onset.
func (b *PluckBank) Reseed(k PluckKey, freq float64) *Pluck {
	return b.ReseedDecay(k, freq, b.decay)
}

// ReseedDecay is Reseed with a per-instrument loop loss. decay outside (0,1] uses the
// bank default.
func (b *PluckBank) ReseedDecay(k PluckKey, freq, decay float64) *Pluck {
	if decay <= 0 || decay > 1 {
		decay = b.decay
	}
	n := 2
	if freq > 0 {
		n = int(math.Round(b.sampleRate / freq))
	}
	if n < 2 {
		n = 2
	}
	p := &Pluck{buf: make([]float64, n), decay: decay}
	for i := range p.buf {
		p.buf[i] = b.rng.Float64()*2 - 1
	}
	b.strings[k] = p
	return p
}

// Drop forgets the state for k once its note has finished.
func (b *PluckBank) Drop(k PluckKey) {
	delete(b.strings, k)
}

// Len returns the number of live strings.
func (b *PluckBank) Len() int { return len(b.strings) }
