package effects

import "math"

// Band edges of the three-band equalizer.
const (
	LowBandHz  = 250.0
	HighBandHz = 4000.0
)

// Crossover splits a mono signal into low, mid and high bands with two one-pole
// lowpasses. The bands always sum back to the input.
type Crossover struct {
	lowA, highA float64
	low, high   float64 // lowpass states at each edge
}

func NewCrossover(sampleRate int, lowHz, highHz float64) Crossover {
	dt := 1 / float64(sampleRate)
	return Crossover{lowA: onePole(lowHz, dt), highA: onePole(highHz, dt)}
}

func onePole(freq, dt float64) float64 {
	if freq <= 0 {
		return 0
	}
	rc := 1 / (2 * math.Pi * freq)
	return dt / (rc + dt)
}

// Split advances the filters by one sample.
func (c *Crossover) Split(x float64) (low, mid, high float64) {
	c.low += c.lowA * (x - c.low)
	c.high += c.highA * (x - c.high)
	low = c.low
	high = x - c.high
	return low, x - low - high, high
}

func (c *Crossover) Reset() { c.low, c.high = 0, 0 }

// EQ3Band scales the three crossover bands of a mono signal.
type EQ3Band struct {
	xo             Crossover
	low, mid, high float64
}

func NewEQ3Band(sampleRate int, low, mid, high, lowHz, highHz float64) *EQ3Band {
	return &EQ3Band{xo: NewCrossover(sampleRate, lowHz, highHz), low: low, mid: mid, high: high}
}

func (eq *EQ3Band) Process(x float64) float64 {
	l, m, h := eq.xo.Split(x)
	return l*eq.low + m*eq.mid + h*eq.high
}

func (eq *EQ3Band) Reset() { eq.xo.Reset() }
