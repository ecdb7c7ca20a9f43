// Package envelope maps a sample position inside a note to an amplitude in [0,1].
//
// Both envelope kinds are anchored to the note's end: the release always occupies the
// last release samples of the note, so the caller passes the full note length and no
// note-off message is needed.
package envelope

import "sort"

// Generator is implemented by ADSR and MultiPoint.
type Generator interface {
	// Value returns the amplitude at sample index i of a note n samples long.
	Value(i, n int) float64
}

// ADSRParams holds envelope times in seconds and the sustain level.
type ADSRParams struct {
	Attack  float64 `json:"attack"`
	Decay   float64 `json:"decay"`
	Sustain float64 `json:"sustain"`
	Release float64 `json:"release"`
}

// DefaultADSRParams matches the synth voices' default envelope.
func DefaultADSRParams() ADSRParams {
	return ADSRParams{Attack: 0.005, Decay: 0.12, Sustain: 0.75, Release: 0.2}
}

// Scaled returns p with each time multiplied by the CC multipliers.
func (p ADSRParams) Scaled(attackMul, decayMul, releaseMul float64) ADSRParams {
	p.Attack *= attackMul
	p.Decay *= decayMul
	p.Release *= releaseMul
	return p
}

// ADSR is a piecewise linear envelope with stage lengths in samples.
type ADSR struct {
	attack  int
	decay   int
	sustain float64
	release int
}

// NewADSR converts p to samples. minAttack and minRelease are anti-pop floors in
// seconds applied regardless of p.
func NewADSR(p ADSRParams, sampleRate int, minAttack, minRelease float64) *ADSR {
	sr := float64(sampleRate)
	return &ADSR{
		attack:  toSamples(max(p.Attack, minAttack), sr),
		decay:   toSamples(p.Decay, sr),
		sustain: clamp(p.Sustain, 0, 1),
		release: toSamples(max(p.Release, minRelease), sr),
	}
}

// ReleaseSamples returns the release length in samples.
func (e *ADSR) ReleaseSamples() int { return e.release }

// level is the attack/decay/sustain curve before the release ramp is applied.
func (e *ADSR) level(i int) float64 {
	if i < e.attack {
		return float64(i) / float64(e.attack)
	}
	i -= e.attack
	if i < e.decay {
		return 1 - (1-e.sustain)*float64(i)/float64(e.decay)
	}
	return e.sustain
}

func (e *ADSR) Value(i, n int) float64 {
	if n <= 0 || i < 0 || i >= n {
		return 0
	}
	return clamp(e.level(i)*releaseGain(i, n, e.release), 0, 1)
}

// releaseGain ramps 1 to 0 over the last r samples of an n sample note.
func releaseGain(i, n, r int) float64 {
	if r > n {
		r = n
	}
	start := n - r
	if r <= 0 || i < start {
		return 1
	}
	if r == 1 {
		return 0
	}
	return float64(n-1-i) / float64(r-1)
}

// Point is a breakpoint at Time seconds after note onset.
type Point struct {
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

// MultiPoint interpolates user breakpoints and ends with a linear release.
type MultiPoint struct {
	points     []Point
	sampleRate float64
	attack     int
	release    int
}

// NewMultiPoint sorts points by time. release is in seconds; minAttack and minRelease
// are the anti-pop floors in seconds.
func NewMultiPoint(points []Point, release float64, sampleRate int, minAttack, minRelease float64) *MultiPoint {
	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })
	for i := range sorted {
		sorted[i].Value = clamp(sorted[i].Value, 0, 1)
	}
	sr := float64(sampleRate)
	return &MultiPoint{
		points:     sorted,
		sampleRate: sr,
		attack:     toSamples(minAttack, sr),
		release:    toSamples(max(release, minRelease), sr),
	}
}

// At returns the interpolated breakpoint value at t seconds, holding the first and
// last values outside the breakpoint range.
func (e *MultiPoint) At(t float64) float64 {
	pts := e.points
	if len(pts) == 0 {
		return 1
	}
	if t <= pts[0].Time {
		return pts[0].Value
	}
	last := pts[len(pts)-1]
	if t >= last.Time {
		return last.Value
	}
	j := sort.Search(len(pts), func(k int) bool { return pts[k].Time > t })
	a, b := pts[j-1], pts[j]
	span := b.Time - a.Time
	if span <= 0 {
		return b.Value
	}
	return a.Value + (b.Value-a.Value)*(t-a.Time)/span
}

func (e *MultiPoint) Value(i, n int) float64 {
	if n <= 0 || i < 0 || i >= n || e.sampleRate <= 0 {
		return 0
	}
	r := e.release
	if r > n {
		r = n
	}
	start := n - r
	var v float64
	if i < start {
		v = e.At(float64(i) / e.sampleRate)
	} else {
		// Breakpoints past the release boundary are ignored; the held value ramps out.
		v = e.At(float64(start)/e.sampleRate) * releaseGain(i, n, r)
	}
	if i < e.attack {
		v *= float64(i) / float64(e.attack)
	}
	return clamp(v, 0, 1)
}

func toSamples(seconds, sampleRate float64) int {
	if seconds <= 0 || sampleRate <= 0 {
		return 0
	}
	return int(seconds*sampleRate + 0.5)
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
