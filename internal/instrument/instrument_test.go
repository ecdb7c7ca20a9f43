package instrument

import (
	"testing"

	"github.com/cbegin/midisynth-go/internal/osc"
)

func TestLookupRanges(t *testing.T) {
	tbl := GeneralMIDI()
	tests := []struct {
		program int
		want    osc.Waveform
	}{
		{0, osc.Triangle},
		{7, osc.Triangle},
		{19, osc.Organ},
		{25, osc.KarplusStrong},
		{127, osc.Noise},
		{PercussionKey, osc.Noise},
		{200, osc.Sine},
	}
	for _, tt := range tests {
		if got := tbl.Lookup(tt.program).Waveform; got != tt.want {
			t.Errorf("program %d: waveform %v, want %v", tt.program, got, tt.want)
		}
	}
}

func TestLaterPresetWins(t *testing.T) {
	tbl := &Table{Presets: []Preset{
		{From: 0, To: 127, Settings: Settings{Waveform: osc.Square}},
		{From: 10, To: 10, Settings: Settings{Waveform: osc.FM}},
	}}
	if got := tbl.Lookup(10).Waveform; got != osc.FM {
		t.Fatalf("program 10 = %v, want fm", got)
	}
	if got := tbl.Lookup(11).Waveform; got != osc.Square {
		t.Fatalf("program 11 = %v, want square", got)
	}
}

func TestResolverUsesPercussionKey(t *testing.T) {
	tbl := GeneralMIDI()
	r := NewResolver(tbl, 9)
	if got := r.Resolve(9, 0).Waveform; got != tbl.Percussion.Waveform {
		t.Fatalf("percussion channel resolved to %v", got)
	}
	if got := r.Resolve(0, 0).Waveform; got != osc.Triangle {
		t.Fatalf("channel 0 program 0 resolved to %v", got)
	}
	if len(r.cache) != 2 {
		t.Fatalf("cache size = %d", len(r.cache))
	}
}
