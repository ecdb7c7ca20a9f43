package effects

import (
	"math"
	"testing"
)

func TestFeedbackDelayRecirculates(t *testing.T) {
	d := NewFeedbackDelay(1000, 10, 0.5)
	l, _ := d.Process(1, 1)
	if l != 1 {
		t.Fatalf("dry impulse = %f, want 1", l)
	}
	var echoes []float64
	for i := 1; i <= 30; i++ {
		l, _ := d.Process(0, 0)
		if l != 0 {
			echoes = append(echoes, l)
		}
	}
	want := []float64{0.5, 0.25, 0.125}
	if len(echoes) != len(want) {
		t.Fatalf("echoes = %v, want %v", echoes, want)
	}
	for i := range want {
		if math.Abs(echoes[i]-want[i]) > 1e-12 {
			t.Fatalf("echo %d = %f, want %f", i, echoes[i], want[i])
		}
	}
}

func TestReverbProducesTail(t *testing.T) {
	r := NewReverb(44100, 0.5, 0.7)
	r.Process(1.0)
	var maxOut float64
	for i := 0; i < 10000; i++ {
		if v := math.Abs(r.Process(0)); v > maxOut {
			maxOut = v
		}
	}
	if maxOut < 0.001 {
		t.Error("expected reverb tail")
	}
}

func TestCompressorDividesExcess(t *testing.T) {
	c := NewCompressor(0.5, 4)
	l, r := c.Process(0.9, -0.3)
	if math.Abs(l-0.6) > 1e-12 {
		t.Fatalf("compressed = %f, want 0.6", l)
	}
	if r != -0.3 {
		t.Fatalf("below threshold changed: %f", r)
	}
	if _, r := c.Process(0, -0.9); math.Abs(r+0.6) > 1e-12 {
		t.Fatalf("negative compressed = %f, want -0.6", r)
	}
}

func TestDCBlockerRemovesOffset(t *testing.T) {
	d := NewDCBlocker(0)
	var l float64
	for i := 0; i < 5000; i++ {
		l, _ = d.Process(0.5, 0.5)
	}
	if math.Abs(l) > 1e-3 {
		t.Fatalf("dc residue = %f", l)
	}
}

func TestEQ3BandUnityIsTransparent(t *testing.T) {
	eq := NewEQ3Band(44100, 1, 1, 1, LowBandHz, HighBandHz)
	for i := 0; i < 1000; i++ {
		x := math.Sin(float64(i) * 0.3)
		if y := eq.Process(x); math.Abs(y-x) > 1e-9 {
			t.Fatalf("sample %d: unity eq changed %f to %f", i, x, y)
		}
	}
}

func TestCrossoverBandsSumToInput(t *testing.T) {
	xo := NewCrossover(44100, LowBandHz, HighBandHz)
	var lowE, highE float64
	for i := 0; i < 4410; i++ {
		x := math.Sin(2*math.Pi*60*float64(i)/44100) + 0.5*math.Sin(2*math.Pi*12000*float64(i)/44100)
		l, m, h := xo.Split(x)
		if math.Abs(l+m+h-x) > 1e-12 {
			t.Fatalf("sample %d: bands sum to %f, want %f", i, l+m+h, x)
		}
		lowE += l * l
		highE += h * h
	}
	if lowE == 0 || highE == 0 {
		t.Fatalf("empty band: low %f high %f", lowE, highE)
	}
}

func TestEQ3BandMovesBands(t *testing.T) {
	energy := func(freq, low, high float64) float64 {
		eq := NewEQ3Band(44100, low, 1, high, LowBandHz, HighBandHz)
		var e float64
		for i := 0; i < 44100; i++ {
			x := math.Sin(2 * math.Pi * freq * float64(i) / 44100)
			y := eq.Process(x)
			e += y * y
		}
		return e
	}
	if energy(60, 2, 1) <= energy(60, 1, 1) {
		t.Error("low boost should raise 60 Hz energy")
	}
	if energy(10000, 1, 0.25) >= energy(10000, 1, 1) {
		t.Error("high cut should lower 10 kHz energy")
	}
}

func TestLimiterIdempotent(t *testing.T) {
	buf := []float64{-2, -0.95, -0.2, 0, 0.5, 0.91, 3}
	Limit(buf, 0.9)
	once := append([]float64(nil), buf...)
	Limit(buf, 0.9)
	for i := range buf {
		if buf[i] != once[i] {
			t.Fatalf("index %d: %f != %f", i, buf[i], once[i])
		}
		if math.Abs(buf[i]) > 0.9 {
			t.Fatalf("index %d exceeds threshold: %f", i, buf[i])
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	buf := []float64{0.1, -1.7, 0.4, 1.2}
	Normalize(buf, 0.95, 0.9)
	p1 := Peak(buf)
	if math.Abs(p1-0.95) > 1e-12 {
		t.Fatalf("peak after normalize = %f", p1)
	}
	Normalize(buf, 0.95, 0.9)
	if d := math.Abs(Peak(buf) - p1); d >= 1e-4 {
		t.Fatalf("second normalize moved peak by %g", d)
	}
	quiet := []float64{0.2, -0.3}
	if g := Normalize(quiet, 0.95, 0.9); g != 1 || quiet[1] != -0.3 {
		t.Fatal("buffer below threshold should be untouched")
	}
}

func TestChorusDelaysSignal(t *testing.T) {
	c := NewChorus(1000, 10, 0, 1)
	out := c.Process(1, 0)
	if out != 0 {
		t.Fatalf("immediate output = %f, want 0", out)
	}
	var got float64
	for i := 1; i <= 10; i++ {
		got = c.Process(0, float64(i)/1000)
	}
	if math.Abs(got-1) > 1e-9 {
		t.Fatalf("delayed impulse = %f, want 1", got)
	}
}

func TestPhaserAndFlangerBounded(t *testing.T) {
	p := NewPhaser(44100, 4, 0.5, 0.7, 0.5, 0.5)
	f := NewFlanger(0.3, 0.8, 0.5)
	for i := 0; i < 44100; i++ {
		tm := float64(i) / 44100
		x := math.Sin(2 * math.Pi * 440 * tm)
		y := f.Process(p.Process(x, tm), tm)
		if math.IsNaN(y) || math.Abs(y) > 4 {
			t.Fatalf("sample %d unbounded: %f", i, y)
		}
	}
}

func TestVoiceNilWhenDisabled(t *testing.T) {
	if v := NewVoice(DefaultNoteParams(), 44100); v != nil {
		t.Fatal("expected nil voice with every effect disabled")
	}
	var v *Voice
	if got := v.Process(0.4, 0, 1, 1); got != 0.4 {
		t.Fatalf("nil voice changed sample: %f", got)
	}
}

func TestVoiceSendsScaleWet(t *testing.T) {
	p := DefaultNoteParams()
	p.Chorus.Enabled = true
	run := func(send float64) float64 {
		v := NewVoice(p, 1000)
		var e float64
		for i := 0; i < 200; i++ {
			x := 0.0
			if i == 0 {
				x = 1
			}
			y := v.Process(x, float64(i)/1000, 0, send)
			if i > 0 {
				e += y * y
			}
		}
		return e
	}
	if dry := run(0); dry != 0 {
		t.Fatalf("zero send leaked chorus: %f", dry)
	}
	if run(1) <= run(0.5) {
		t.Fatal("larger send should add more chorus")
	}
}

func TestChainAppliesEffectsInOrder(t *testing.T) {
	c := NewChain(NewCompressor(0.5, 2), NewFeedbackDelay(44100, 10, 0))
	l, r := c.Process(0.9, 0.9)
	if math.Abs(l-0.7) > 1e-12 || math.Abs(r-0.7) > 1e-12 {
		t.Fatalf("chain output = %f,%f want 0.7", l, r)
	}
	if c.Len() != 2 {
		t.Fatalf("chain len = %d", c.Len())
	}
	buf := []float64{0.9, -0.9}
	c.Reset()
	ProcessBuffer(c, buf)
	if math.Abs(buf[0]-0.7) > 1e-12 || math.Abs(buf[1]+0.7) > 1e-12 {
		t.Fatalf("buffer = %v", buf)
	}
}
