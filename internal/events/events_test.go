package events

import (
	"testing"

	"github.com/cbegin/midisynth-go/internal/timemap"
)

func note(on, off uint64, ch, key, vel uint8) []RawEvent {
	return []RawEvent{
		{Kind: RawNoteOn, AbsoluteTicks: on, Channel: ch, Data1: key, Data2: vel},
		{Kind: RawNoteOff, AbsoluteTicks: off, Channel: ch, Data1: key},
	}
}

func track(evs ...[]RawEvent) RawTrack {
	var tr RawTrack
	for _, e := range evs {
		tr.Events = append(tr.Events, e...)
	}
	return tr
}

func TestExtractResolvesTiming(t *testing.T) {
	tracks := []RawTrack{track(note(0, 480, 0, 69, 100), note(480, 960, 0, 71, 90))}
	res := Extract(tracks, 480, timemap.New(nil, 500000), DefaultConfig())
	if len(res.Notes) != 2 {
		t.Fatalf("notes = %d, want 2", len(res.Notes))
	}
	n := res.Notes[1]
	if n.StartTime != 0.5 || n.EndTime != 1.0 {
		t.Fatalf("second note timing = %f..%f, want 0.5..1.0", n.StartTime, n.EndTime)
	}
}

func TestExtractDropsMalformedNote(t *testing.T) {
	valid := []RawTrack{track(note(0, 480, 0, 60, 100), note(100, 200, 0, 62, 100))}
	malformed := []RawTrack{track(note(0, 480, 0, 60, 100), note(200, 200, 0, 62, 100))}
	a := Extract(valid, 480, nil, DefaultConfig())
	b := Extract(malformed, 480, nil, DefaultConfig())
	if len(a.Notes)-len(b.Notes) != 1 {
		t.Fatalf("valid=%d malformed=%d, want difference of 1", len(a.Notes), len(b.Notes))
	}
	if b.Stats.Malformed != 1 {
		t.Fatalf("malformed count = %d, want 1", b.Stats.Malformed)
	}
}

func TestExtractDropsUnmatchedNoteOn(t *testing.T) {
	tr := track(note(0, 100, 0, 60, 100))
	tr.Events = append(tr.Events, RawEvent{Kind: RawNoteOn, AbsoluteTicks: 50, Channel: 0, Data1: 64, Data2: 100})
	res := Extract([]RawTrack{tr}, 480, nil, DefaultConfig())
	if len(res.Notes) != 1 {
		t.Fatalf("notes = %d, want 1", len(res.Notes))
	}
	if res.Stats.Unmatched != 1 {
		t.Fatalf("unmatched = %d, want 1", res.Stats.Unmatched)
	}
}

func TestExtractZeroVelocityNoteOnCloses(t *testing.T) {
	tr := RawTrack{Events: []RawEvent{
		{Kind: RawNoteOn, AbsoluteTicks: 0, Channel: 2, Data1: 60, Data2: 80},
		{Kind: RawNoteOn, AbsoluteTicks: 240, Channel: 2, Data1: 60, Data2: 0},
	}}
	res := Extract([]RawTrack{tr}, 480, nil, DefaultConfig())
	if len(res.Notes) != 1 || res.Notes[0].EndTicks != 240 {
		t.Fatalf("unexpected notes %+v", res.Notes)
	}
}

func TestExtractFilters(t *testing.T) {
	tracks := []RawTrack{
		track(note(0, 10, 0, 60, 100), note(0, 10, 3, 60, 100), note(0, 10, 0, 61, 5)),
		track(note(0, 10, 1, 60, 100)),
	}
	cfg := DefaultConfig()
	cfg.ExcludedTracks = []int{1}
	cfg.ExcludedChannels = []int{4} // channel index 3
	cfg.MinVelocity = 10
	res := Extract(tracks, 480, nil, cfg)
	if len(res.Notes) != 1 {
		t.Fatalf("notes = %d, want 1: %+v", len(res.Notes), res.Notes)
	}
	if res.Stats.Filtered != 3 {
		t.Fatalf("filtered = %d, want 3", res.Stats.Filtered)
	}
}

func TestExtractControlsStableOrder(t *testing.T) {
	tr := RawTrack{Events: []RawEvent{
		{Kind: RawControlChange, AbsoluteTicks: 100, Channel: 0, Data1: 7, Data2: 10},
		{Kind: RawControlChange, AbsoluteTicks: 100, Channel: 0, Data1: 7, Data2: 20},
		{Kind: RawPitchWheel, AbsoluteTicks: 50, Channel: 0, Value: -4096},
		{Kind: RawProgramChange, AbsoluteTicks: 100, Channel: 0, Data1: 33},
	}}
	res := Extract([]RawTrack{tr}, 480, nil, DefaultConfig())
	if len(res.Controls) != 4 {
		t.Fatalf("controls = %d, want 4", len(res.Controls))
	}
	if res.Controls[0].Kind != PitchWheel || res.Controls[0].Value != -4096 {
		t.Fatalf("first control = %+v", res.Controls[0])
	}
	if res.Controls[1].Value != 10 || res.Controls[2].Value != 20 || res.Controls[3].Kind != ProgramChange {
		t.Fatalf("tie order not preserved: %+v", res.Controls)
	}
}

func TestExtractSkipsDisabledControlClasses(t *testing.T) {
	tr := RawTrack{Events: []RawEvent{
		{Kind: RawControlChange, AbsoluteTicks: 0, Data1: 7, Data2: 10},
		{Kind: RawPitchWheel, AbsoluteTicks: 0, Value: 100},
		{Kind: RawProgramChange, AbsoluteTicks: 0, Data1: 3},
	}}
	cfg := DefaultConfig()
	cfg.ProcessPitchBend = false
	cfg.ProcessProgramChange = false
	res := Extract([]RawTrack{tr}, 480, nil, cfg)
	if len(res.Controls) != 1 || res.Controls[0].Kind != ControlChange {
		t.Fatalf("controls = %+v", res.Controls)
	}
}

func TestTempoMapFromTracks(t *testing.T) {
	tracks := []RawTrack{{Events: []RawEvent{{Kind: RawTempo, AbsoluteTicks: 480, Tempo: 1000000}}}}
	m := TempoMap(tracks, 0)
	if len(m) != 2 || m[1].MicrosecondsPerQuarterNote != 1000000 {
		t.Fatalf("tempo map = %+v", m)
	}
}

func TestTimelineOrdersTies(t *testing.T) {
	notes := []NoteEvent{
		{StartTime: 0, EndTime: 1},
		{StartTime: 1, EndTime: 2},
	}
	controls := []ControlEvent{{Time: 1}}
	tl := BuildTimeline(notes, controls)
	if len(tl) != 5 {
		t.Fatalf("timeline length = %d, want 5", len(tl))
	}
	if tl[1].Kind != EntryNoteOff || tl[2].Kind != EntryControl || tl[3].Kind != EntryNoteOn {
		t.Fatalf("tie order = %+v", tl)
	}
}
