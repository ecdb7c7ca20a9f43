// Package osc generates single oscillator samples for the synthesis engine.
package osc

import (
	"math"
	"strings"
)

const twoPi = math.Pi * 2

// Waveform is the closed set of oscillator kinds.
type Waveform int

const (
	Sine Waveform = iota
	Square
	Sawtooth
	Triangle
	Organ
	Noise
	Wavetable
	UserWavetable
	FM
	KarplusStrong
)

var waveformNames = map[Waveform]string{
	Sine:          "sine",
	Square:        "square",
	Sawtooth:      "sawtooth",
	Triangle:      "triangle",
	Organ:         "organ",
	Noise:         "noise",
	Wavetable:     "wavetable",
	UserWavetable: "userwavetable",
	FM:            "fm",
	KarplusStrong: "karplusstrong",
}

func (w Waveform) String() string {
	if n, ok := waveformNames[w]; ok {
		return n
	}
	return "sine"
}

// ParseWaveform maps a config name to a Waveform. Unknown names are Sine.
func ParseWaveform(name string) Waveform {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "saw":
		return Sawtooth
	case "pluck", "karplus", "karplus-strong":
		return KarplusStrong
	case "user", "user-wavetable":
		return UserWavetable
	}
	for w, n := range waveformNames {
		if n == name {
			return w
		}
	}
	return Sine
}

// MarshalText implements encoding.TextMarshaler so configs can name waveforms.
func (w Waveform) MarshalText() ([]byte, error) { return []byte(w.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (w *Waveform) UnmarshalText(b []byte) error {
	*w = ParseWaveform(string(b))
	return nil
}

// Range bounds oscillator frequencies.
type Range struct {
	A4  float64
	Min float64
	Max float64
}

// DefaultRange is concert pitch clamped to the audible band.
func DefaultRange() Range {
	return Range{A4: 440, Min: 20, Max: 20000}
}

// Frequency returns the pitch of note bent by bend and lfo semitones, clamped to r.
func Frequency(note int, bend, lfo float64, r Range) float64 {
	a4 := r.A4
	if a4 <= 0 {
		a4 = 440
	}
	f := a4 * math.Pow(2, (float64(note-69)+bend+lfo)/12)
	if r.Min > 0 && f < r.Min {
		f = r.Min
	}
	if r.Max > 0 && f > r.Max {
		f = r.Max
	}
	return f
}

// Shape evaluates a stateless waveform at phase (cycles, [0,1)) with phase increment
// dt (cycles per sample). Stateful kinds fall back to Sine.
func Shape(w Waveform, phase, dt float64, bandLimited bool) float64 {
	switch w {
	case Square:
		if bandLimited {
			return blepSquare(phase, dt)
		}
		if phase < 0.5 {
			return 1
		}
		return -1
	case Sawtooth:
		if bandLimited {
			return blepSaw(phase, dt)
		}
		return 2*phase - 1
	case Triangle:
		return 1 - 4*math.Abs(phase-0.5)
	case Organ:
		p := twoPi * phase
		return (math.Sin(p) + 0.5*math.Sin(2*p) + 0.25*math.Sin(3*p)) / 1.75
	case Wavetable:
		return lookup(builtinTable, phase)
	default:
		return math.Sin(twoPi * phase)
	}
}

// polyBLEP is the two-sample polynomial band-limited step residual.
func polyBLEP(t, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	if t < dt {
		t /= dt
		return t + t - t*t - 1
	}
	if t > 1-dt {
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}

func blepSaw(phase, dt float64) float64 {
	return 2*phase - 1 - polyBLEP(phase, dt)
}

func blepSquare(phase, dt float64) float64 {
	v := -1.0
	if phase < 0.5 {
		v = 1
	}
	return v + polyBLEP(phase, dt) - polyBLEP(wrap(phase+0.5), dt)
}

func wrap(p float64) float64 {
	return p - math.Floor(p)
}

// lookup reads a single-cycle table with linear interpolation.
func lookup(table []float64, phase float64) float64 {
	n := len(table)
	if n == 0 {
		return math.Sin(twoPi * phase)
	}
	pos := wrap(phase) * float64(n)
	idx := math.Floor(pos)
	frac := pos - idx
	i0 := int(idx) % n
	i1 := (i0 + 1) % n
	return table[i0]*(1-frac) + table[i1]*frac
}

// builtinTable is a bright odd-harmonic single cycle.
var builtinTable = func() []float64 {
	t := make([]float64, 256)
	for i := range t {
		p := twoPi * float64(i) / float64(len(t))
		t[i] = (math.Sin(p) + math.Sin(3*p)/3 + math.Sin(5*p)/5 + math.Sin(7*p)/7) / 1.2
	}
	return t
}()
