// Package timemap converts MIDI tick positions to wall-clock time and back.
package timemap

import (
	"math"
	"sort"
	"time"
)

// DefaultMicrosecondsPerQuarter is 120 BPM.
const DefaultMicrosecondsPerQuarter = 500000

// TempoEvent is a tempo change at an absolute tick position.
type TempoEvent struct {
	AbsoluteTicks              uint64
	MicrosecondsPerQuarterNote uint32
}

// Map is a tempo map ordered by AbsoluteTicks. The first entry is always at tick 0.
type Map []TempoEvent

// New builds a Map from unordered tempo events. If no event sits at tick 0 one is
// synthesized from defaultUSPQ. Zero tempos are ignored; later events at the same
// tick win.
func New(events []TempoEvent, defaultUSPQ uint32) Map {
	if defaultUSPQ == 0 {
		defaultUSPQ = DefaultMicrosecondsPerQuarter
	}
	sorted := make([]TempoEvent, 0, len(events)+1)
	for _, ev := range events {
		if ev.MicrosecondsPerQuarterNote == 0 {
			continue
		}
		sorted = append(sorted, ev)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].AbsoluteTicks < sorted[j].AbsoluteTicks
	})
	m := make(Map, 0, len(sorted)+1)
	if len(sorted) == 0 || sorted[0].AbsoluteTicks != 0 {
		m = append(m, TempoEvent{AbsoluteTicks: 0, MicrosecondsPerQuarterNote: defaultUSPQ})
	}
	for _, ev := range sorted {
		if n := len(m); n > 0 && m[n-1].AbsoluteTicks == ev.AbsoluteTicks {
			m[n-1] = ev
			continue
		}
		m = append(m, ev)
	}
	return m
}

// segmentSeconds multiplies before dividing so whole-beat spans stay exact.
func segmentSeconds(ticks uint64, uspq uint32, tpq uint16) float64 {
	return float64(ticks) * float64(uspq) / (1e6 * float64(tpq))
}

// Seconds returns the wall-clock position of ticks in seconds.
func (m Map) Seconds(ticks uint64, tpq uint16) float64 {
	if tpq == 0 || len(m) == 0 {
		return 0
	}
	var seconds float64
	prevTick := uint64(0)
	uspq := m[0].MicrosecondsPerQuarterNote
	for _, ev := range m {
		if ev.AbsoluteTicks > ticks {
			break
		}
		seconds += segmentSeconds(ev.AbsoluteTicks-prevTick, uspq, tpq)
		prevTick = ev.AbsoluteTicks
		uspq = ev.MicrosecondsPerQuarterNote
	}
	return seconds + segmentSeconds(ticks-prevTick, uspq, tpq)
}

// Ticks returns the tick position nearest to seconds.
func (m Map) Ticks(seconds float64, tpq uint16) uint64 {
	if tpq == 0 || len(m) == 0 || seconds <= 0 {
		return 0
	}
	var elapsed float64
	prevTick := uint64(0)
	uspq := m[0].MicrosecondsPerQuarterNote
	for _, ev := range m[1:] {
		span := segmentSeconds(ev.AbsoluteTicks-prevTick, uspq, tpq)
		if elapsed+span > seconds {
			break
		}
		elapsed += span
		prevTick = ev.AbsoluteTicks
		uspq = ev.MicrosecondsPerQuarterNote
	}
	rest := (seconds - elapsed) * 1e6 * float64(tpq) / float64(uspq)
	return prevTick + uint64(math.Round(rest))
}

// TicksToTime converts ticks to a Duration.
func TicksToTime(ticks uint64, tpq uint16, m Map) time.Duration {
	return time.Duration(math.Round(m.Seconds(ticks, tpq) * float64(time.Second)))
}

// TimeToTicks converts a Duration to the nearest tick.
func TimeToTicks(d time.Duration, tpq uint16, m Map) uint64 {
	return m.Ticks(d.Seconds(), tpq)
}
