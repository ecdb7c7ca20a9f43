package kernel

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/cbegin/midisynth-go/internal/effects"
)

// CPU is the reference kernel: direct-sum convolution split across workers and a
// time-domain crossover equalizer.
type CPU struct {
	workers int
}

// NewCPU creates the reference kernel. workers <= 0 uses GOMAXPROCS.
func NewCPU(workers int) *CPU {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &CPU{workers: workers}
}

func (c *CPU) Name() string { return "cpu" }

// Workers returns the convolution concurrency bound.
func (c *CPU) Workers() int { return c.workers }

const minChunk = 4096

func (c *CPU) Convolve(signal, ir []float64) []float64 {
	out := make([]float64, len(signal))
	if len(signal) == 0 || len(ir) == 0 {
		return out
	}
	chunk := (len(signal) + c.workers - 1) / c.workers
	if chunk < minChunk {
		chunk = minChunk
	}
	var g errgroup.Group
	g.SetLimit(c.workers)
	for start := 0; start < len(signal); start += chunk {
		lo, hi := start, min(start+chunk, len(signal))
		g.Go(func() error {
			for n := lo; n < hi; n++ {
				var acc float64
				kmax := min(n, len(ir)-1)
				for k := 0; k <= kmax; k++ {
					acc += ir[k] * signal[n-k]
				}
				out[n] = acc
			}
			return nil
		})
	}
	g.Wait()
	clampUnit(out)
	return out
}

func (c *CPU) Equalize(signal []float64, sampleRate int, gains Gains) []float64 {
	out := make([]float64, len(signal))
	if gains.Unity() || sampleRate <= 0 {
		copy(out, signal)
		return out
	}
	eq := effects.NewEQ3Band(sampleRate, gains.Low, gains.Mid, gains.High, effects.LowBandHz, effects.HighBandHz)
	for i, x := range signal {
		out[i] = eq.Process(x)
	}
	return out
}
