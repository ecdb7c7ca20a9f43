package lfo

import (
	"math"
	"math/rand"
	"strings"
)

// Shape selects the LFO waveform.
type Shape int

const (
	Sine Shape = iota
	Square
	Sawtooth
	Triangle
	Noise
	RandomHold
)

// ParseShape maps a config name to a Shape. Unknown names are Sine.
func ParseShape(name string) Shape {
	switch name {
	case "square":
		return Square
	case "saw", "sawtooth":
		return Sawtooth
	case "triangle":
		return Triangle
	case "noise":
		return Noise
	case "random", "randomhold", "sample-hold":
		return RandomHold
	default:
		return Sine
	}
}

func (s Shape) String() string {
	switch s {
	case Square:
		return "square"
	case Sawtooth:
		return "sawtooth"
	case Triangle:
		return "triangle"
	case Noise:
		return "noise"
	case RandomHold:
		return "randomhold"
	default:
		return "sine"
	}
}

// LFO is a low-frequency oscillator evaluated at absolute times, so one LFO can
// modulate a note regardless of block boundaries. Noise draws from a private source,
// which makes an LFO unsafe for concurrent use.
type LFO struct {
	shape  Shape
	rateHz float64
	depth  float64
	rng    *rand.Rand
	seed   int64
}

// New creates an LFO. seed drives Noise and RandomHold.
func New(shape Shape, rateHz, depth float64, seed int64) *LFO {
	l := &LFO{}
	l.Set(shape, rateHz, depth, seed)
	return l
}

// Set reconfigures the LFO and reseeds its noise source.
func (l *LFO) Set(shape Shape, rateHz, depth float64, seed int64) {
	if shape < Sine || shape > RandomHold {
		shape = Sine
	}
	l.shape = shape
	l.rateHz = rateHz
	l.depth = depth
	l.seed = seed
	l.rng = rand.New(rand.NewSource(seed))
}

// Active returns true if the LFO has non-zero depth and rate.
func (l *LFO) Active() bool {
	return l != nil && l.depth != 0 && l.rateHz != 0
}

// At returns the LFO value in [-depth, +depth] at time t seconds.
// Returns 0 if the LFO is inactive.
func (l *LFO) At(t float64) float64 {
	if !l.Active() {
		return 0
	}
	cycles := l.rateHz * t
	phase := cycles - math.Floor(cycles)
	var v float64
	switch l.shape {
	case Square:
		if phase < 0.5 {
			v = 1
		} else {
			v = -1
		}
	case Sawtooth:
		v = 2*phase - 1
	case Triangle:
		if phase < 0.5 {
			v = 4*phase - 1
		} else {
			v = 3 - 4*phase
		}
	case Noise:
		v = l.rng.Float64()*2 - 1
	case RandomHold:
		v = holdValue(l.seed, int64(math.Floor(cycles*2)))
	default:
		v = math.Sin(2 * math.Pi * phase)
	}
	return v * l.depth
}

// holdValue returns a deterministic ±1 for each half-period index.
func holdValue(seed, idx int64) float64 {
	h := uint64(seed)*0x9E3779B97F4A7C15 ^ uint64(idx)*0xBF58476D1CE4E5B9
	h ^= h >> 31
	h *= 0x94D049BB133111EB
	h ^= h >> 29
	if h&1 == 0 {
		return 1
	}
	return -1
}

// MarshalText implements encoding.TextMarshaler.
func (s Shape) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Shape) UnmarshalText(b []byte) error {
	*s = ParseShape(strings.ToLower(string(b)))
	return nil
}
