// Package channel replays control events into per-channel state.
package channel

import (
	"math"
	"sort"

	"github.com/cbegin/midisynth-go/internal/events"
)

// NumChannels is the number of MIDI channels.
const NumChannels = 16

// PercussionChannel is channel 10 as users count it.
const PercussionChannel = 9

// Controller numbers the tracker understands.
const (
	CCModulation     = 1
	CCVolume         = 7
	CCPan            = 10
	CCExpression     = 11
	CCSustain        = 64
	CCResonance      = 71
	CCRelease        = 72
	CCAttack         = 73
	CCCutoff         = 74
	CCDecay          = 75
	CCReverbSend     = 91
	CCChorusSend     = 93
	CCResetAll       = 121
	DefaultBendRange = 2.0
)

// State is the continuously modulated state of one channel.
type State struct {
	Volume     float64 // 0..1
	Pan        float64 // -1..1
	PitchBend  float64 // semitones
	Expression float64 // 0..1
	Modulation float64 // 0..1, mod wheel
	ReverbSend float64 // 0..1
	ChorusSend float64 // 0..1
	Sustain    bool
	Program    int

	AttackMul    float64
	DecayMul     float64
	ReleaseMul   float64
	CutoffMul    float64
	ResonanceMul float64
}

// DefaultState returns the power-on state of a channel.
func DefaultState() State {
	return State{
		Volume:       100.0 / 127.0,
		Expression:   1,
		AttackMul:    1,
		DecayMul:     1,
		ReleaseMul:   1,
		CutoffMul:    1,
		ResonanceMul: 1,
	}
}

// DefaultStates returns power-on state for every channel.
func DefaultStates() [NumChannels]State {
	var out [NumChannels]State
	for i := range out {
		out[i] = DefaultState()
	}
	return out
}

// ccMultiplier maps 0..127 to 0.25..~3.9 with 64 as unity.
func ccMultiplier(v int) float64 {
	return math.Pow(2, float64(v-64)/32)
}

// Apply mutates s with one control event. bendRange is in semitones.
// Unknown controllers are ignored.
func (s *State) Apply(ev events.ControlEvent, bendRange float64) {
	switch ev.Kind {
	case events.PitchWheel:
		s.PitchBend = float64(ev.Value) / 8192.0 * bendRange
	case events.ProgramChange:
		s.Program = ev.Value
	case events.ControlChange:
		v := clampInt(ev.Value, 0, 127)
		switch ev.Controller {
		case CCModulation:
			s.Modulation = float64(v) / 127
		case CCVolume:
			s.Volume = float64(v) / 127
		case CCPan:
			s.Pan = clamp(float64(v-64)/63, -1, 1)
		case CCExpression:
			s.Expression = float64(v) / 127
		case CCSustain:
			s.Sustain = v >= 64
		case CCResonance:
			s.ResonanceMul = ccMultiplier(v)
		case CCRelease:
			s.ReleaseMul = ccMultiplier(v)
		case CCAttack:
			s.AttackMul = ccMultiplier(v)
		case CCCutoff:
			s.CutoffMul = ccMultiplier(v)
		case CCDecay:
			s.DecayMul = ccMultiplier(v)
		case CCReverbSend:
			s.ReverbSend = float64(v) / 127
		case CCChorusSend:
			s.ChorusSend = float64(v) / 127
		case CCResetAll:
			// RP-015 clears performance controllers only. Program, channel volume, pan,
			// effect sends and sound controllers survive.
			kept := *s
			*s = DefaultState()
			s.Program, s.Volume, s.Pan = kept.Program, kept.Volume, kept.Pan
			s.ReverbSend, s.ChorusSend = kept.ReverbSend, kept.ChorusSend
			s.AttackMul, s.DecayMul, s.ReleaseMul = kept.AttackMul, kept.DecayMul, kept.ReleaseMul
			s.CutoffMul, s.ResonanceMul = kept.CutoffMul, kept.ResonanceMul
		}
	}
}

// ApplyControlEvents replays events in order over copies of initial and returns the
// final state of every channel that appears in initial or events.
func ApplyControlEvents(evs []events.ControlEvent, initial map[uint8]*State, bendRange float64) map[uint8]*State {
	out := make(map[uint8]*State, NumChannels)
	for ch, st := range initial {
		cp := *st
		out[ch] = &cp
	}
	ordered := make([]events.ControlEvent, len(evs))
	copy(ordered, evs)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Time < ordered[j].Time })
	for _, ev := range ordered {
		if ev.Channel >= NumChannels {
			continue
		}
		st, ok := out[ev.Channel]
		if !ok {
			d := DefaultState()
			st = &d
			out[ev.Channel] = st
		}
		st.Apply(ev, bendRange)
	}
	return out
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

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
