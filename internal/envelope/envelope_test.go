package envelope

import (
	"math"
	"testing"
)

const sr = 44100

func TestADSRStartsAtZero(t *testing.T) {
	e := NewADSR(ADSRParams{Attack: 0.01, Decay: 0.1, Sustain: 0.5, Release: 0.2}, sr, 0, 0)
	if v := e.Value(0, sr); v != 0 {
		t.Fatalf("value(0) = %f, want 0", v)
	}
}

func TestADSRShape(t *testing.T) {
	p := ADSRParams{Attack: 0.01, Decay: 0.1, Sustain: 0.5, Release: 0.2}
	e := NewADSR(p, sr, 0, 0)
	n := sr
	attack := int(p.Attack * sr)
	decay := int(p.Decay * sr)
	release := e.ReleaseSamples()

	prev := -1.0
	for i := 0; i <= attack; i++ {
		v := e.Value(i, n)
		if v < prev {
			t.Fatalf("attack not monotonic at %d: %f < %f", i, v, prev)
		}
		prev = v
	}
	if math.Abs(prev-1) > 1e-9 {
		t.Fatalf("attack peak = %f, want 1", prev)
	}
	for i := attack; i < attack+decay; i++ {
		if v := e.Value(i, n); v > prev+1e-12 {
			t.Fatalf("decay rising at %d", i)
		} else {
			prev = v
		}
	}
	for i := attack + decay; i < n-release; i += 97 {
		if v := e.Value(i, n); math.Abs(v-0.5) > 1e-9 {
			t.Fatalf("sustain at %d = %f, want 0.5", i, v)
		}
	}
	// Release ramps linearly: equal steps.
	step := e.Value(n-release, n) - e.Value(n-release+1, n)
	for i := n - release; i < n-1; i++ {
		d := e.Value(i, n) - e.Value(i+1, n)
		if math.Abs(d-step) > 1e-9 {
			t.Fatalf("release not linear at %d: step %g vs %g", i, d, step)
		}
	}
	if v := e.Value(n-1, n); math.Abs(v) > 1e-6 {
		t.Fatalf("value(N-1) = %f, want ~0", v)
	}
}

func TestADSRShortNoteBlends(t *testing.T) {
	e := NewADSR(ADSRParams{Attack: 0.05, Decay: 0.05, Sustain: 0.8, Release: 0.3}, sr, 0, 0)
	n := 1000 // shorter than every stage
	var peak float64
	for i := 0; i < n; i++ {
		v := e.Value(i, n)
		if math.IsNaN(v) || v < 0 || v > 1 {
			t.Fatalf("value(%d) = %f out of range", i, v)
		}
		peak = math.Max(peak, v)
	}
	if peak == 0 {
		t.Fatal("short note is silent")
	}
	if v := e.Value(n-1, n); v != 0 {
		t.Fatalf("short note does not end at 0: %f", v)
	}
}

func TestADSRZeroStages(t *testing.T) {
	e := NewADSR(ADSRParams{Sustain: 0.6}, sr, 0, 0)
	if v := e.Value(0, 100); v != 0.6 {
		t.Fatalf("zero attack/decay value(0) = %f, want sustain 0.6", v)
	}
	for i := 0; i < 100; i++ {
		if v := e.Value(i, 100); math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("value(%d) is not finite", i)
		}
	}
}

func TestADSRAntiPopFloor(t *testing.T) {
	e := NewADSR(ADSRParams{Sustain: 1}, sr, 0.002, 0.005)
	if v := e.Value(0, sr); v != 0 {
		t.Fatalf("anti-pop floor not applied: value(0) = %f", v)
	}
	if e.ReleaseSamples() != int(0.005*sr+0.5) {
		t.Fatalf("release samples = %d", e.ReleaseSamples())
	}
}

func TestMultiPointInterpolates(t *testing.T) {
	pts := []Point{{Time: 0.5, Value: 0.2}, {Time: 0, Value: 1}, {Time: 1, Value: 0.6}}
	e := NewMultiPoint(pts, 0.1, 1000, 0, 0)
	for _, tc := range []struct{ t, want float64 }{
		{0, 1}, {0.25, 0.6}, {0.5, 0.2}, {0.75, 0.4}, {1.5, 0.6},
	} {
		if got := e.At(tc.t); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("At(%f) = %f, want %f", tc.t, got, tc.want)
		}
	}
}

func TestMultiPointReleaseOverridesBreakpoints(t *testing.T) {
	pts := []Point{{Time: 0, Value: 0.5}, {Time: 1.95, Value: 1}}
	e := NewMultiPoint(pts, 0.1, 1000, 0, 0)
	n := 2000
	held := e.At(1.9)
	if got := e.Value(1900, n); math.Abs(got-held) > 1e-9 {
		t.Fatalf("release start = %f, want held %f", got, held)
	}
	prev := held
	for i := 1901; i < n; i++ {
		v := e.Value(i, n)
		if v > prev {
			t.Fatalf("release rising at %d", i)
		}
		prev = v
	}
	if e.Value(n-1, n) != 0 {
		t.Fatalf("release does not reach 0")
	}
}

func TestMultiPointHoldsLastValue(t *testing.T) {
	e := NewMultiPoint([]Point{{Time: 0, Value: 0.3}, {Time: 0.1, Value: 0.9}}, 0.1, 1000, 0, 0)
	if v := e.Value(500, 2000); math.Abs(v-0.9) > 1e-9 {
		t.Fatalf("value after last breakpoint = %f, want 0.9", v)
	}
}
