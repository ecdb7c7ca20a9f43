package master

import (
	"math"
	"testing"

	"github.com/cbegin/midisynth-go/internal/effects"
	"github.com/cbegin/midisynth-go/internal/kernel"
)

func sine(frames int, amp float64) []float64 {
	buf := make([]float64, frames*2)
	for i := 0; i < frames; i++ {
		v := amp * math.Sin(2*math.Pi*440*float64(i)/44100)
		buf[2*i], buf[2*i+1] = v, v
	}
	return buf
}

func allOff() Params {
	p := DefaultParams()
	p.DCRemoval.Enabled = false
	p.Limiter.Enabled = false
	p.Normalization.Enabled = false
	return p
}

func TestAllStagesOffIsIdentity(t *testing.T) {
	buf := sine(1000, 1.5)
	want := append([]float64(nil), buf...)
	New(44100, allOff(), nil).Process(buf)
	for i := range buf {
		if buf[i] != want[i] {
			t.Fatalf("sample %d changed", i)
		}
	}
}

func TestDefaultChainBoundsPeak(t *testing.T) {
	buf := sine(44100, 3)
	New(44100, DefaultParams(), nil).Process(buf)
	if p := effects.Peak(buf); p > 1.0 {
		t.Fatalf("peak = %f", p)
	}
}

func TestNormalizationIdempotentThroughChain(t *testing.T) {
	p := allOff()
	p.Normalization.Enabled = true
	c := New(44100, p, nil)
	buf := sine(4410, 2)
	c.Process(buf)
	p1 := effects.Peak(buf)
	c.Process(buf)
	if d := math.Abs(effects.Peak(buf) - p1); d >= 1e-4 {
		t.Fatalf("peak moved by %g", d)
	}
}

func TestLimiterIdempotentThroughChain(t *testing.T) {
	p := allOff()
	p.Limiter.Enabled = true
	c := New(44100, p, nil)
	buf := sine(4410, 2)
	c.Process(buf)
	once := append([]float64(nil), buf...)
	c.Process(buf)
	for i := range buf {
		if buf[i] != once[i] {
			t.Fatalf("sample %d: %f != %f", i, buf[i], once[i])
		}
	}
}

func TestConvolutionKernelsAgree(t *testing.T) {
	p := allOff()
	p.Convolution.Enabled = true
	p.Convolution.Seconds = 0.05
	a := sine(8000, 0.3)
	b := append([]float64(nil), a...)
	New(44100, p, kernel.NewCPU(2)).Process(a)
	New(44100, p, kernel.NewFFT()).Process(b)
	if d := kernel.MaxDiff(a, b); d > 1e-6 {
		t.Fatalf("cpu and fft chains differ by %g", d)
	}
}

func TestStagesOrder(t *testing.T) {
	p := DefaultParams()
	p.Compression.Enabled = true
	p.Reverb.Enabled = true
	p.Convolution.Enabled = true
	p.Convolution.Seconds = 0.01
	p.EQ.Enabled = true
	got := New(44100, p, nil).Stages()
	want := []string{"dc", "compression", "reverb", "convolution", "eq", "limiter", "normalization"}
	if len(got) != len(want) {
		t.Fatalf("stages = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("stages = %v, want %v", got, want)
		}
	}
}
