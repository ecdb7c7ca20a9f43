package osc

import (
	"math"
	"math/rand"
)

// FMParams configures the single-modulator FM waveform.
type FMParams struct {
	Ratio float64 `json:"ratio"`
	Index float64 `json:"index"`
}

// DefaultFMParams is a 2:1 modulator with a moderate index.
func DefaultFMParams() FMParams {
	return FMParams{Ratio: 2.0, Index: 1.6}
}

// Voice holds the running state of one note's oscillator. It is not safe for
// concurrent use.
type Voice struct {
	waveform    Waveform
	sampleRate  float64
	bandLimited bool
	phase       float64 // cycles
	modPhase    float64 // cycles
	tri         float64 // band-limited triangle integrator
	fm          FMParams
	table       []float64
	rng         *rand.Rand
	pluck       *Pluck
}

// VoiceOptions carries the per-note inputs a waveform may need.
type VoiceOptions struct {
	BandLimited bool
	FM          FMParams
	// Table is the single-cycle table for UserWavetable. A nil table falls back to Sine.
	Table []float64
	// Pluck is the Karplus-Strong state for KarplusStrong. A nil pluck falls back to Sine.
	Pluck *Pluck
	Seed  int64
}

// NewVoice starts a voice at phase 0.
func NewVoice(w Waveform, sampleRate int, opts VoiceOptions) *Voice {
	v := &Voice{
		waveform:    w,
		sampleRate:  float64(sampleRate),
		bandLimited: opts.BandLimited,
		fm:          opts.FM,
		table:       opts.Table,
		pluck:       opts.Pluck,
		tri:         -1,
	}
	if v.fm.Ratio <= 0 {
		v.fm = DefaultFMParams()
	}
	if w == Noise {
		v.rng = rand.New(rand.NewSource(opts.Seed))
	}
	return v
}

// Next returns the next raw sample at freq Hz and advances the phase.
func (v *Voice) Next(freq float64) float64 {
	if v.sampleRate <= 0 {
		return 0
	}
	dt := freq / v.sampleRate
	if dt < 0 {
		dt = 0
	}
	var s float64
	switch v.waveform {
	case Noise:
		s = v.rng.Float64()*2 - 1
	case UserWavetable:
		if v.table == nil {
			s = math.Sin(twoPi * v.phase)
		} else {
			s = lookup(v.table, v.phase)
		}
	case FM:
		mod := math.Sin(twoPi*v.modPhase) * v.fm.Index
		s = math.Sin(twoPi*v.phase + mod)
		v.modPhase = wrap(v.modPhase + dt*v.fm.Ratio)
	case KarplusStrong:
		if v.pluck == nil {
			s = math.Sin(twoPi * v.phase)
		} else {
			s = v.pluck.Next()
		}
	case Triangle:
		if v.bandLimited {
			// Leaky integration of a band-limited square gives a band-limited triangle.
			v.tri += 4 * dt * blepSquare(v.phase, dt)
			v.tri *= 1 - dt*1e-3
			s = clamp(v.tri, -1, 1)
		} else {
			s = Shape(Triangle, v.phase, dt, false)
		}
	default:
		s = Shape(v.waveform, v.phase, dt, v.bandLimited)
	}
	v.phase = wrap(v.phase + dt)
	return s
}

// GenerateSample returns the next sample scaled by amplitude and envelope.
func (v *Voice) GenerateSample(freq, amplitude, env float64) float64 {
	return v.Next(freq) * amplitude * env
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
