// Package master runs the whole-buffer mastering chain over a mixed render.
package master

import (
	"github.com/cbegin/midisynth-go/internal/effects"
	"github.com/cbegin/midisynth-go/internal/kernel"
)

type DCParams struct {
	Enabled bool    `json:"enabled"`
	Alpha   float64 `json:"alpha"`
}

type CompressionParams struct {
	Enabled   bool    `json:"enabled"`
	Threshold float64 `json:"threshold"`
	Ratio     float64 `json:"ratio"`
}

type ReverbParams struct {
	Enabled bool    `json:"enabled"`
	DelayMs float64 `json:"delay_ms"`
	Decay   float64 `json:"decay"`
}

// ConvolutionParams configures the impulse-response reverb. The response is
// synthesized once when the chain is built.
type ConvolutionParams struct {
	Enabled bool    `json:"enabled"`
	Wet     float64 `json:"wet"`
	Seconds float64 `json:"seconds"`
	Decay   float64 `json:"decay"`
	Seed    int64   `json:"seed"`
	// Accelerated selects the FFT kernel when it passes its self-test.
	Accelerated bool `json:"accelerated"`
}

type EQParams struct {
	Enabled bool `json:"enabled"`
	kernel.Gains
}

type LimiterParams struct {
	Enabled   bool    `json:"enabled"`
	Threshold float64 `json:"threshold"`
}

type NormalizationParams struct {
	Enabled   bool    `json:"enabled"`
	Target    float64 `json:"target"`
	Threshold float64 `json:"threshold"`
}

// Params toggles and configures each stage. The stage order is fixed.
type Params struct {
	DCRemoval     DCParams            `json:"dc_removal"`
	Compression   CompressionParams   `json:"compression"`
	Reverb        ReverbParams        `json:"reverb"`
	Convolution   ConvolutionParams   `json:"convolution"`
	EQ            EQParams            `json:"eq"`
	Limiter       LimiterParams       `json:"limiter"`
	Normalization NormalizationParams `json:"normalization"`
}

// DefaultParams enables DC removal, the limiter and normalization.
func DefaultParams() Params {
	return Params{
		DCRemoval:     DCParams{Enabled: true, Alpha: effects.DefaultDCAlpha},
		Compression:   CompressionParams{Threshold: 0.7, Ratio: 4},
		Reverb:        ReverbParams{DelayMs: 80, Decay: 0.3},
		Convolution:   ConvolutionParams{Wet: 0.25, Seconds: 1.5, Decay: 6, Seed: 1, Accelerated: true},
		EQ:            EQParams{Gains: kernel.Gains{Low: 1, Mid: 1, High: 1}},
		Limiter:       LimiterParams{Enabled: true, Threshold: 0.99},
		Normalization: NormalizationParams{Enabled: true, Target: 0.95, Threshold: 0.95},
	}
}

// Chain is a configured mastering chain. Process may be called repeatedly; every
// call starts from fresh stage state.
type Chain struct {
	p          Params
	sampleRate int
	kernel     kernel.AudioKernel
	ir         []float64
}

// New builds a chain. A nil kernel selects the CPU reference bounded by GOMAXPROCS;
// renderers pass a kernel probed with the configured thread limit.
func New(sampleRate int, p Params, k kernel.AudioKernel) *Chain {
	if k == nil {
		k = kernel.NewCPU(0)
	}
	c := &Chain{p: p, sampleRate: sampleRate, kernel: k}
	if p.Convolution.Enabled {
		c.ir = kernel.ImpulseResponse(sampleRate, p.Convolution.Seconds, p.Convolution.Decay, p.Convolution.Seed)
	}
	return c
}

// Kernel returns the kernel the chain convolves and equalizes with.
func (c *Chain) Kernel() kernel.AudioKernel { return c.kernel }

// Stages lists the enabled stages in processing order.
func (c *Chain) Stages() []string {
	var s []string
	if c.p.DCRemoval.Enabled {
		s = append(s, "dc")
	}
	if c.p.Compression.Enabled {
		s = append(s, "compression")
	}
	if c.p.Reverb.Enabled {
		s = append(s, "reverb")
	}
	if c.p.Convolution.Enabled {
		s = append(s, "convolution")
	}
	if c.p.EQ.Enabled {
		s = append(s, "eq")
	}
	if c.p.Limiter.Enabled {
		s = append(s, "limiter")
	}
	if c.p.Normalization.Enabled {
		s = append(s, "normalization")
	}
	return s
}

// Process runs the enabled stages over an interleaved stereo buffer in place.
func (c *Chain) Process(buf []float64) {
	if len(buf) < 2 {
		return
	}
	streaming := effects.NewChain()
	if c.p.DCRemoval.Enabled {
		streaming.Add(effects.NewDCBlocker(c.p.DCRemoval.Alpha))
	}
	if c.p.Compression.Enabled {
		streaming.Add(effects.NewCompressor(c.p.Compression.Threshold, c.p.Compression.Ratio))
	}
	if c.p.Reverb.Enabled {
		streaming.Add(effects.NewFeedbackDelay(c.sampleRate, c.p.Reverb.DelayMs, c.p.Reverb.Decay))
	}
	if streaming.Len() > 0 {
		effects.ProcessBuffer(streaming, buf)
	}

	if c.p.Convolution.Enabled && len(c.ir) > 0 {
		wet := c.p.Convolution.Wet
		c.perChannel(buf, func(dry []float64) []float64 {
			conv := c.kernel.Convolve(dry, c.ir)
			for i := range conv {
				conv[i] = wet*conv[i] + (1-wet)*dry[i]
			}
			return conv
		})
	}
	if c.p.EQ.Enabled && !c.p.EQ.Gains.Unity() {
		c.perChannel(buf, func(x []float64) []float64 {
			return c.kernel.Equalize(x, c.sampleRate, c.p.EQ.Gains)
		})
	}
	if c.p.Limiter.Enabled {
		effects.Limit(buf, c.p.Limiter.Threshold)
	}
	if c.p.Normalization.Enabled {
		effects.Normalize(buf, c.p.Normalization.Target, c.p.Normalization.Threshold)
	}
}

// perChannel splits buf into its two channels, maps each, and interleaves the
// results back into buf.
func (c *Chain) perChannel(buf []float64, fn func([]float64) []float64) {
	frames := len(buf) / 2
	for ch := 0; ch < 2; ch++ {
		mono := make([]float64, frames)
		for i := range mono {
			mono[i] = buf[2*i+ch]
		}
		out := fn(mono)
		for i := 0; i < frames && i < len(out); i++ {
			buf[2*i+ch] = out[i]
		}
	}
}
