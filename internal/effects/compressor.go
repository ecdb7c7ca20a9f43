package effects

import "math"

// Compressor divides the part of each sample above threshold by ratio. It has no
// envelope follower, so it is stateless.
type Compressor struct {
	threshold float64
	ratio     float64
}

// NewCompressor creates a compressor. threshold is linear; ratio < 1 is treated as 1.
func NewCompressor(threshold, ratio float64) *Compressor {
	if ratio < 1 {
		ratio = 1
	}
	return &Compressor{threshold: math.Abs(threshold), ratio: ratio}
}

func (c *Compressor) Process(l, r float64) (float64, float64) {
	return c.compress(l), c.compress(r)
}

func (c *Compressor) compress(x float64) float64 {
	a := math.Abs(x)
	if a <= c.threshold {
		return x
	}
	return math.Copysign(c.threshold+(a-c.threshold)/c.ratio, x)
}

func (c *Compressor) Reset() {}
