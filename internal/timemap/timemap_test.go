package timemap

import (
	"math"
	"testing"
)

func TestNewSynthesizesTickZero(t *testing.T) {
	m := New([]TempoEvent{{AbsoluteTicks: 960, MicrosecondsPerQuarterNote: 250000}}, 0)
	if len(m) != 2 {
		t.Fatalf("len = %d, want 2", len(m))
	}
	if m[0].AbsoluteTicks != 0 || m[0].MicrosecondsPerQuarterNote != DefaultMicrosecondsPerQuarter {
		t.Fatalf("first entry = %+v", m[0])
	}
}

func TestSecondsAcrossTempoChange(t *testing.T) {
	// 480 ticks at 120 BPM, then 480 ticks at 60 BPM.
	m := New([]TempoEvent{
		{AbsoluteTicks: 0, MicrosecondsPerQuarterNote: 500000},
		{AbsoluteTicks: 480, MicrosecondsPerQuarterNote: 1000000},
	}, 0)
	if got := m.Seconds(480, 480); math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("seconds(480) = %f, want 0.5", got)
	}
	if got := m.Seconds(960, 480); math.Abs(got-1.5) > 1e-12 {
		t.Fatalf("seconds(960) = %f, want 1.5", got)
	}
}

func TestSecondsMonotonic(t *testing.T) {
	m := New([]TempoEvent{
		{AbsoluteTicks: 100, MicrosecondsPerQuarterNote: 300000},
		{AbsoluteTicks: 700, MicrosecondsPerQuarterNote: 900000},
		{AbsoluteTicks: 1500, MicrosecondsPerQuarterNote: 120000},
	}, 0)
	prev := -1.0
	for tick := uint64(0); tick < 4000; tick += 7 {
		s := m.Seconds(tick, 96)
		if s < prev {
			t.Fatalf("seconds(%d) = %f < previous %f", tick, s, prev)
		}
		prev = s
	}
}

func TestTicksRoundTrip(t *testing.T) {
	maps := map[string]Map{
		"constant": New(nil, 0),
		"changes": New([]TempoEvent{
			{AbsoluteTicks: 0, MicrosecondsPerQuarterNote: 612345},
			{AbsoluteTicks: 333, MicrosecondsPerQuarterNote: 200001},
			{AbsoluteTicks: 1000, MicrosecondsPerQuarterNote: 1500000},
		}, 0),
	}
	for name, m := range maps {
		t.Run(name, func(t *testing.T) {
			for tick := uint64(0); tick < 5000; tick += 13 {
				back := TimeToTicks(TicksToTime(tick, 480, m), 480, m)
				diff := int64(back) - int64(tick)
				if diff < -1 || diff > 1 {
					t.Fatalf("round trip %d -> %d", tick, back)
				}
			}
		})
	}
}

func TestZeroResolutionIsSafe(t *testing.T) {
	m := New(nil, 0)
	if got := m.Seconds(100, 0); got != 0 {
		t.Fatalf("seconds with tpq 0 = %f, want 0", got)
	}
	if got := m.Ticks(1, 0); got != 0 {
		t.Fatalf("ticks with tpq 0 = %d, want 0", got)
	}
}
