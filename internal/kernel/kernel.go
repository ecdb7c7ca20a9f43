// Package kernel provides the interchangeable whole-buffer DSP kernels used by the
// master chain: convolution reverb and the three-band equalizer.
package kernel

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// AudioKernel is a pure whole-buffer processor. Implementations keep no state
// between calls, so any two kernels are interchangeable up to numeric tolerance.
type AudioKernel interface {
	Name() string
	// Convolve returns signal convolved with ir, truncated to len(signal) and
	// clamped to ±1.
	Convolve(signal, ir []float64) []float64
	// Equalize returns a mono signal with the low (<250 Hz), mid and high (>4 kHz)
	// bands scaled by gains.
	Equalize(signal []float64, sampleRate int, gains Gains) []float64
}

// Gains are linear band gains; 1 is unity.
type Gains struct {
	Low  float64 `json:"low"`
	Mid  float64 `json:"mid"`
	High float64 `json:"high"`
}

// Unity reports whether g leaves every band unchanged.
func (g Gains) Unity() bool {
	return g.Low == 1 && g.Mid == 1 && g.High == 1
}

// ImpulseResponse synthesizes exponentially decaying noise. decay is the number of
// e-foldings over the response; the result has unit energy.
func ImpulseResponse(sampleRate int, seconds, decay float64, seed int64) []float64 {
	n := int(seconds * float64(sampleRate))
	if n < 1 {
		n = 1
	}
	rng := rand.New(rand.NewSource(seed))
	ir := make([]float64, n)
	var energy float64
	for i := range ir {
		v := (rng.Float64()*2 - 1) * math.Exp(-decay*float64(i)/float64(n))
		ir[i] = v
		energy += v * v
	}
	if energy > 0 {
		g := 1 / math.Sqrt(energy)
		for i := range ir {
			ir[i] *= g
		}
	}
	return ir
}

// Probe returns the accelerated kernel when it is preferred and passes a self-test
// against the reference, otherwise the CPU kernel. The second result explains a
// fallback and is empty when none happened. workers bounds the CPU kernel's
// concurrency; <= 0 uses GOMAXPROCS.
func Probe(preferAccelerated bool, workers int) (AudioKernel, string) {
	cpu := NewCPU(workers)
	if !preferAccelerated {
		return cpu, ""
	}
	fast := NewFFT()
	if err := selfTest(fast, cpu); err != nil {
		return cpu, fmt.Sprintf("accelerated kernel unavailable, using %s: %v", cpu.Name(), err)
	}
	return fast, ""
}

const selfTestTolerance = 1e-6

func selfTest(candidate, reference AudioKernel) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("self-test panicked: %v", r)
		}
	}()
	rng := rand.New(rand.NewSource(7))
	sig := make([]float64, 700)
	for i := range sig {
		sig[i] = (rng.Float64()*2 - 1) * 0.5
	}
	ir := ImpulseResponse(1000, 0.2, 4, 3)
	got := candidate.Convolve(sig, ir)
	want := reference.Convolve(sig, ir)
	if len(got) != len(want) {
		return errors.New("self-test length mismatch")
	}
	if d := MaxDiff(got, want); d > selfTestTolerance {
		return fmt.Errorf("self-test deviation %g", d)
	}
	return nil
}

// MaxDiff returns the largest absolute difference between a and b over their
// common length.
func MaxDiff(a, b []float64) float64 {
	n := min(len(a), len(b))
	var d float64
	for i := 0; i < n; i++ {
		d = math.Max(d, math.Abs(a[i]-b[i]))
	}
	return d
}

func clampUnit(buf []float64) {
	for i, v := range buf {
		if v > 1 {
			buf[i] = 1
		} else if v < -1 {
			buf[i] = -1
		}
	}
}
