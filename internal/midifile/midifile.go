// Package midifile decodes Standard MIDI Files into raw tracks for extraction.
package midifile

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/cbegin/midisynth-go/internal/events"
)

// ErrSMPTE is returned for files timed in SMPTE frames instead of metric ticks.
var ErrSMPTE = errors.New("SMPTE time format not supported")

// File is a decoded SMF.
type File struct {
	Tracks          []events.RawTrack
	TicksPerQuarter uint16
}

// ReadFile decodes the SMF at path.
func ReadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Read decodes an SMF from r.
func Read(r io.Reader) (*File, error) {
	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("read smf: %w", err)
	}
	return Decode(s)
}

// Decode converts a parsed SMF. Messages the renderer has no use for are skipped.
func Decode(s *smf.SMF) (*File, error) {
	mt, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, ErrSMPTE
	}
	out := &File{TicksPerQuarter: mt.Resolution(), Tracks: make([]events.RawTrack, len(s.Tracks))}
	for i, tr := range s.Tracks {
		var abs uint64
		raw := make([]events.RawEvent, 0, len(tr))
		for _, ev := range tr {
			abs += uint64(ev.Delta)
			if re, ok := convert(ev.Message, abs); ok {
				raw = append(raw, re)
			}
		}
		out.Tracks[i] = events.RawTrack{Events: raw}
	}
	return out, nil
}

func convert(m smf.Message, abs uint64) (events.RawEvent, bool) {
	re := events.RawEvent{AbsoluteTicks: abs}
	var bpm float64
	if m.GetMetaTempo(&bpm) {
		if bpm <= 0 {
			return re, false
		}
		re.Kind = events.RawTempo
		re.Tempo = uint32(math.Round(60_000_000 / bpm))
		return re, true
	}
	msg := midi.Message(m)
	var ch, key, vel, ctl, val, prog uint8
	var rel int16
	var absBend uint16
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		re.Kind, re.Channel, re.Data1, re.Data2 = events.RawNoteOn, ch, key, vel
	case msg.GetNoteEnd(&ch, &key):
		re.Kind, re.Channel, re.Data1 = events.RawNoteOff, ch, key
	case msg.GetControlChange(&ch, &ctl, &val):
		re.Kind, re.Channel, re.Data1, re.Data2 = events.RawControlChange, ch, ctl, val
	case msg.GetPitchBend(&ch, &rel, &absBend):
		re.Kind, re.Channel, re.Value = events.RawPitchWheel, ch, int(rel)
	case msg.GetProgramChange(&ch, &prog):
		re.Kind, re.Channel, re.Data1 = events.RawProgramChange, ch, prog
	default:
		return re, false
	}
	return re, true
}
