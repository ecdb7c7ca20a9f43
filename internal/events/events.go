// Package events turns decoded MIDI tracks into sorted note and control streams.
package events

import (
	"sort"

	"github.com/cbegin/midisynth-go/internal/timemap"
)

// RawKind identifies a decoded track event.
type RawKind int

const (
	RawNoteOn RawKind = iota
	RawNoteOff
	RawControlChange
	RawPitchWheel
	RawProgramChange
	RawTempo
)

// RawEvent is one decoded track event at an absolute tick position.
// Channel is 0-15. For RawPitchWheel, Value is signed (-8192..8191).
type RawEvent struct {
	Kind          RawKind
	AbsoluteTicks uint64
	Channel       uint8
	Data1         uint8
	Data2         uint8
	Value         int
	Tempo         uint32 // microseconds per quarter note, RawTempo only
}

// RawTrack is one track of the decoded file in file order.
type RawTrack struct {
	Events []RawEvent
}

// NoteEvent is a paired note with resolved timing. Channel is 0-15.
type NoteEvent struct {
	NoteNumber uint8
	Velocity   uint8
	Channel    uint8
	TrackIndex int
	StartTicks uint64
	EndTicks   uint64
	StartTime  float64 // seconds
	EndTime    float64 // seconds
}

// Duration returns the note length in seconds.
func (n NoteEvent) Duration() float64 { return n.EndTime - n.StartTime }

// ControlKind tags a ControlEvent.
type ControlKind int

const (
	ControlChange ControlKind = iota
	PitchWheel
	ProgramChange
)

// ControlEvent is a CC, pitch wheel or program change with resolved time.
type ControlEvent struct {
	Kind       ControlKind
	Time       float64 // seconds
	Ticks      uint64
	Channel    uint8
	Controller uint8 // ControlChange
	Value      int   // CC value, signed pitch wheel, or program
}

// Config filters what Extract emits.
type Config struct {
	// ExcludedTracks holds 0-based track indexes.
	ExcludedTracks []int `json:"excluded_tracks,omitempty"`
	// ExcludedChannels holds 1-based channel numbers as users see them.
	ExcludedChannels     []int `json:"excluded_channels,omitempty"`
	MinVelocity          uint8 `json:"min_velocity"`
	ProcessControlChange bool  `json:"control_change"`
	ProcessPitchBend     bool  `json:"pitch_bend"`
	ProcessProgramChange bool  `json:"program_change"`
}

// DefaultConfig processes every control class and excludes nothing.
func DefaultConfig() Config {
	return Config{
		ProcessControlChange: true,
		ProcessPitchBend:     true,
		ProcessProgramChange: true,
	}
}

// Stats counts what Extract dropped.
type Stats struct {
	Unmatched   int // note-on without note-off, or note-off without note-on
	Malformed   int // end at or before start
	Filtered    int // excluded track/channel or below minimum velocity
	Controls    int
	Notes       int
	TempoEvents int
}

// Result is the output of Extract.
type Result struct {
	Notes    []NoteEvent
	Controls []ControlEvent
	Timeline []TimelineEntry
	Tempo    timemap.Map
	Stats    Stats
}

// TempoMap collects tempo events from every track.
func TempoMap(tracks []RawTrack, defaultUSPQ uint32) timemap.Map {
	var tempos []timemap.TempoEvent
	for _, tr := range tracks {
		for _, ev := range tr.Events {
			if ev.Kind == RawTempo {
				tempos = append(tempos, timemap.TempoEvent{
					AbsoluteTicks:              ev.AbsoluteTicks,
					MicrosecondsPerQuarterNote: ev.Tempo,
				})
			}
		}
	}
	return timemap.New(tempos, defaultUSPQ)
}

type noteKey struct {
	channel uint8
	note    uint8
}

type pendingNote struct {
	ticks    uint64
	velocity uint8
}

type orderedControl struct {
	ev    ControlEvent
	order int
}

// Extract walks tracks and returns notes and controls sorted by time. A nil tempo map
// is built from the tracks' own tempo events.
func Extract(tracks []RawTrack, tpq uint16, tempo timemap.Map, cfg Config) Result {
	if tempo == nil {
		tempo = TempoMap(tracks, 0)
	}
	excludedTracks := make(map[int]bool, len(cfg.ExcludedTracks))
	for _, t := range cfg.ExcludedTracks {
		excludedTracks[t] = true
	}
	excludedChannels := make(map[uint8]bool, len(cfg.ExcludedChannels))
	for _, c := range cfg.ExcludedChannels {
		if c >= 1 && c <= 16 {
			excludedChannels[uint8(c-1)] = true
		}
	}

	res := Result{Tempo: tempo}
	var controls []orderedControl
	order := 0
	for ti, tr := range tracks {
		pending := make(map[noteKey][]pendingNote)
		for _, ev := range tr.Events {
			order++
			switch ev.Kind {
			case RawTempo:
				res.Stats.TempoEvents++
			case RawNoteOn:
				if ev.Data2 == 0 {
					res.closeNote(pending, ti, ev, tpq, tempo, cfg, excludedTracks, excludedChannels)
					continue
				}
				k := noteKey{ev.Channel, ev.Data1}
				pending[k] = append(pending[k], pendingNote{ticks: ev.AbsoluteTicks, velocity: ev.Data2})
			case RawNoteOff:
				res.closeNote(pending, ti, ev, tpq, tempo, cfg, excludedTracks, excludedChannels)
			case RawControlChange, RawPitchWheel, RawProgramChange:
				if excludedTracks[ti] || excludedChannels[ev.Channel] {
					continue
				}
				ce, ok := toControl(ev, cfg)
				if !ok {
					continue
				}
				ce.Time = tempo.Seconds(ev.AbsoluteTicks, tpq)
				controls = append(controls, orderedControl{ev: ce, order: order})
			}
		}
		for _, stack := range pending {
			res.Stats.Unmatched += len(stack)
		}
	}

	sort.SliceStable(res.Notes, func(i, j int) bool {
		a, b := res.Notes[i], res.Notes[j]
		if a.StartTicks != b.StartTicks {
			return a.StartTicks < b.StartTicks
		}
		return a.Channel < b.Channel
	})
	sort.SliceStable(controls, func(i, j int) bool {
		if controls[i].ev.Ticks != controls[j].ev.Ticks {
			return controls[i].ev.Ticks < controls[j].ev.Ticks
		}
		return controls[i].order < controls[j].order
	})
	res.Controls = make([]ControlEvent, len(controls))
	for i, c := range controls {
		res.Controls[i] = c.ev
	}
	res.Stats.Notes = len(res.Notes)
	res.Stats.Controls = len(res.Controls)
	res.Timeline = BuildTimeline(res.Notes, res.Controls)
	return res
}

func (res *Result) closeNote(pending map[noteKey][]pendingNote, track int, ev RawEvent, tpq uint16, tempo timemap.Map, cfg Config, excludedTracks map[int]bool, excludedChannels map[uint8]bool) {
	k := noteKey{ev.Channel, ev.Data1}
	stack := pending[k]
	if len(stack) == 0 {
		res.Stats.Unmatched++
		return
	}
	on := stack[0]
	pending[k] = stack[1:]
	if ev.AbsoluteTicks <= on.ticks {
		res.Stats.Malformed++
		return
	}
	if excludedTracks[track] || excludedChannels[ev.Channel] || on.velocity < cfg.MinVelocity {
		res.Stats.Filtered++
		return
	}
	res.Notes = append(res.Notes, NoteEvent{
		NoteNumber: ev.Data1,
		Velocity:   on.velocity,
		Channel:    ev.Channel,
		TrackIndex: track,
		StartTicks: on.ticks,
		EndTicks:   ev.AbsoluteTicks,
		StartTime:  tempo.Seconds(on.ticks, tpq),
		EndTime:    tempo.Seconds(ev.AbsoluteTicks, tpq),
	})
}

func toControl(ev RawEvent, cfg Config) (ControlEvent, bool) {
	ce := ControlEvent{Ticks: ev.AbsoluteTicks, Channel: ev.Channel}
	switch ev.Kind {
	case RawControlChange:
		if !cfg.ProcessControlChange {
			return ce, false
		}
		ce.Kind = ControlChange
		ce.Controller = ev.Data1
		ce.Value = int(ev.Data2)
	case RawPitchWheel:
		if !cfg.ProcessPitchBend {
			return ce, false
		}
		ce.Kind = PitchWheel
		ce.Value = ev.Value
	case RawProgramChange:
		if !cfg.ProcessProgramChange {
			return ce, false
		}
		ce.Kind = ProgramChange
		ce.Value = int(ev.Data1)
	default:
		return ce, false
	}
	return ce, true
}
