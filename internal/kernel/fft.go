package kernel

import (
	"math"

	"github.com/madelynnblue/go-dsp/fft"

	"github.com/cbegin/midisynth-go/internal/effects"
)

// eqTaps is the length of the linear-phase FIR the FFT kernel equalizes with.
const eqTaps = 2049

// FFT is the accelerated kernel: overlap-add fast convolution and frequency-domain
// equalization.
type FFT struct{}

func NewFFT() *FFT { return &FFT{} }

func (f *FFT) Name() string { return "fft" }

func (f *FFT) Convolve(signal, ir []float64) []float64 {
	out := overlapAdd(signal, ir)
	clampUnit(out)
	return out
}

func (f *FFT) Equalize(signal []float64, sampleRate int, gains Gains) []float64 {
	if gains.Unity() || sampleRate <= 0 || len(signal) == 0 {
		out := make([]float64, len(signal))
		copy(out, signal)
		return out
	}
	fir := designEQ(sampleRate, gains)
	delay := len(fir) / 2
	padded := make([]float64, len(signal)+delay)
	copy(padded, signal)
	full := overlapAdd(padded, fir)
	return full[delay : delay+len(signal)]
}

// designEQ samples the band gains on an FFT grid, returns to the time domain, and
// windows the centered response.
func designEQ(sampleRate int, gains Gains) []float64 {
	n := nextPow2(eqTaps)
	spec := make([]complex128, n)
	for k := 0; k <= n/2; k++ {
		hz := float64(k) * float64(sampleRate) / float64(n)
		g := gains.Mid
		switch {
		case hz < effects.LowBandHz:
			g = gains.Low
		case hz > effects.HighBandHz:
			g = gains.High
		}
		spec[k] = complex(g, 0)
		if k > 0 && k < n/2 {
			spec[n-k] = complex(g, 0)
		}
	}
	impulse := fft.IFFT(spec)
	half := eqTaps / 2
	fir := make([]float64, eqTaps)
	for i := range fir {
		idx := (i - half + n) % n
		w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(eqTaps-1))
		fir[i] = real(impulse[idx]) * w
	}
	return fir
}

// overlapAdd convolves signal with h, truncated to len(signal), without clamping.
func overlapAdd(signal, h []float64) []float64 {
	out := make([]float64, len(signal))
	if len(signal) == 0 || len(h) == 0 {
		return out
	}
	m := len(h)
	n := nextPow2(2 * m)
	block := n - m + 1
	hp := make([]float64, n)
	copy(hp, h)
	hf := fft.FFTReal(hp)
	seg := make([]float64, n)
	for start := 0; start < len(signal); start += block {
		end := min(start+block, len(signal))
		clear(seg)
		copy(seg, signal[start:end])
		xf := fft.FFTReal(seg)
		for i := range xf {
			xf[i] *= hf[i]
		}
		y := fft.IFFT(xf)
		for i := 0; i < n && start+i < len(out); i++ {
			out[start+i] += real(y[i])
		}
	}
	return out
}

func nextPow2(v int) int {
	n := 1
	for n < v {
		n <<= 1
	}
	return n
}
