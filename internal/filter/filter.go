// Package filter implements the cheap per-note tone filter.
package filter

import (
	"math"
	"strings"

	"github.com/cbegin/midisynth-go/internal/channel"
	"github.com/cbegin/midisynth-go/internal/lfo"
)

// Kind selects the filter response.
type Kind int

const (
	None Kind = iota
	LowPass
	HighPass
	BandPass
	Notch
	Peak
)

var kindNames = [...]string{"none", "lowpass", "highpass", "bandpass", "notch", "peak"}

func (k Kind) String() string {
	if k < None || k > Peak {
		return "none"
	}
	return kindNames[k]
}

// ParseKind maps a config name to a Kind. Unknown names are None.
func ParseKind(name string) Kind {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "lp", "low":
		return LowPass
	case "hp", "high":
		return HighPass
	case "bp", "band":
		return BandPass
	}
	for i, n := range kindNames {
		if n == name {
			return Kind(i)
		}
	}
	return None
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	*k = ParseKind(string(b))
	return nil
}

// LFOSettings modulates the cutoff. Depth is a fraction of the base cutoff.
type LFOSettings struct {
	Shape  lfo.Shape `json:"shape"`
	RateHz float64   `json:"rate_hz"`
	Depth  float64   `json:"depth"`
}

// Settings describes an instrument's filter.
type Settings struct {
	Kind      Kind        `json:"kind"`
	Cutoff    float64     `json:"cutoff"`
	Resonance float64     `json:"resonance"`
	LFO       LFOSettings `json:"lfo"`
}

// DefaultSettings is a bypassed filter with a neutral resonance.
func DefaultSettings() Settings {
	return Settings{Kind: None, Cutoff: 8000, Resonance: 1}
}

const (
	maxAlpha     = 0.49
	minResonance = 0.01
)

// Filter is the running state of one note's filter. It is not safe for
// concurrent use.
type Filter struct {
	s          Settings
	sampleRate float64
	mod        *lfo.LFO
	lp1, lp2   float64
}

// New creates a filter. seed drives noise-shaped modulation.
func New(s Settings, sampleRate int, seed int64) *Filter {
	f := &Filter{s: s, sampleRate: float64(sampleRate)}
	if s.LFO.Depth != 0 && s.LFO.RateHz != 0 {
		f.mod = lfo.New(s.LFO.Shape, s.LFO.RateHz, s.LFO.Depth, seed)
	}
	return f
}

// Cutoff returns the effective cutoff at time t under st.
func (f *Filter) Cutoff(t float64, st *channel.State) float64 {
	c := f.s.Cutoff * (1 + f.mod.At(t))
	if st != nil {
		c *= st.CutoffMul
	}
	return clamp(c, 0, f.sampleRate/2)
}

// Resonance returns the effective resonance under st.
func (f *Filter) Resonance(st *channel.State) float64 {
	r := f.s.Resonance
	if st != nil {
		r *= st.ResonanceMul
	}
	if r < minResonance {
		r = minResonance
	}
	return r
}

// Apply filters one sample at time t seconds. A nil state means unity multipliers.
func (f *Filter) Apply(x, t float64, st *channel.State) float64 {
	if f.s.Kind == None || f.sampleRate <= 0 {
		return x
	}
	alpha := math.Min(f.Cutoff(t, st)/f.sampleRate, maxAlpha)
	w := 2 * math.Pi * alpha
	a := w / (1 + w)
	res := f.Resonance(st)

	f.lp1 += a * (x - f.lp1)
	f.lp2 += a * (f.lp1 - f.lp2)
	band := f.lp1 - f.lp2

	switch f.s.Kind {
	case LowPass:
		return f.lp1 + math.Max(res-1, 0)*2*band
	case HighPass:
		return x - f.lp1 + math.Max(res-1, 0)*2*band
	case BandPass:
		return 2 * res * band
	case Notch:
		return x - 2*band
	case Peak:
		return x + 2*res*band
	default:
		return x
	}
}

// Reset clears the filter memory.
func (f *Filter) Reset() {
	f.lp1, f.lp2 = 0, 0
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
