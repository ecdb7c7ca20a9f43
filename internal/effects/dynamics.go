package effects

import "math"

// Peak returns the largest absolute sample in buf.
func Peak(buf []float64) float64 {
	var p float64
	for _, v := range buf {
		if a := math.Abs(v); a > p {
			p = a
		}
	}
	return p
}

// Limit clamps every sample to ±threshold in place.
func Limit(buf []float64, threshold float64) {
	t := math.Abs(threshold)
	for i, v := range buf {
		buf[i] = clamp(v, -t, t)
	}
}

// Normalize scales buf so its peak equals target, but only when the peak exceeds
// threshold. It returns the gain applied.
func Normalize(buf []float64, target, threshold float64) float64 {
	p := Peak(buf)
	if p == 0 || p <= threshold {
		return 1
	}
	g := target / p
	for i := range buf {
		buf[i] *= g
	}
	return g
}
