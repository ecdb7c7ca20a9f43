// Package soundfont renders extracted events through a SoundFont sample library.
package soundfont

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sort"

	"github.com/mitchellh/go-homedir"
	"github.com/sinshu/go-meltysynth/meltysynth"

	intchannel "github.com/cbegin/midisynth-go/internal/channel"
	"github.com/cbegin/midisynth-go/internal/events"
)

// Synthesizer is the subset of meltysynth.Synthesizer the renderer drives.
type Synthesizer interface {
	ProcessMidiMessage(channel int32, command int32, data1, data2 int32)
	NoteOn(channel, key, vel int32)
	NoteOff(channel, key int32)
	Render(left, right []float32)
}

// Preset identifies a bank/patch pair in the library.
type Preset struct {
	Bank  int32
	Patch int32
}

const (
	percussionBank = 128
	blockFrames    = 512
)

// Renderer owns a loaded library. Each Render builds a fresh synthesizer, so one
// Renderer may serve sequential renders.
type Renderer struct {
	sampleRate int
	presets    map[Preset]bool
	newSynth   func() (Synthesizer, error)
	logger     *slog.Logger
}

// Load reads a SoundFont file. path may start with ~.
func Load(path string, sampleRate int, logger *slog.Logger) (*Renderer, error) {
	p, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	return New(bytes.NewReader(data), sampleRate, logger)
}

// New parses a SoundFont from r.
func New(r io.Reader, sampleRate int, logger *slog.Logger) (*Renderer, error) {
	sf, err := meltysynth.NewSoundFont(r)
	if err != nil {
		return nil, fmt.Errorf("soundfont: %w", err)
	}
	var presets []Preset
	for _, p := range sf.Presets {
		presets = append(presets, Preset{Bank: p.BankNumber, Patch: p.PatchNumber})
	}
	settings := meltysynth.NewSynthesizerSettings(int32(sampleRate))
	return NewWithSynth(sampleRate, presets, func() (Synthesizer, error) {
		s, err := meltysynth.NewSynthesizer(sf, settings)
		if err != nil {
			return nil, err
		}
		return s, nil
	}, logger), nil
}

// NewWithSynth builds a renderer around any synthesizer factory. A nil presets list
// accepts every program.
func NewWithSynth(sampleRate int, presets []Preset, newSynth func() (Synthesizer, error), logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Renderer{sampleRate: sampleRate, newSynth: newSynth, logger: logger}
	if presets != nil {
		r.presets = make(map[Preset]bool, len(presets))
		for _, p := range presets {
			r.presets[p] = true
		}
	}
	return r
}

// Output is a library render. Fallback holds the notes of channels whose program has
// no preset; the caller voices them with the built-in synthesizer.
type Output struct {
	Samples  []float64
	Fallback []events.NoteEvent
	Warnings []string
}

func (r *Renderer) hasPreset(channel uint8, program int) bool {
	if r.presets == nil {
		return true
	}
	if channel == intchannel.PercussionChannel {
		return r.presets[Preset{Bank: percussionBank, Patch: int32(program)}] ||
			r.presets[Preset{Bank: percussionBank, Patch: 0}]
	}
	return r.presets[Preset{Bank: 0, Patch: int32(program)}]
}

// fallbackChannels finds channels that play a program the library lacks.
func (r *Renderer) fallbackChannels(notes []events.NoteEvent, controls []events.ControlEvent) (map[uint8]bool, []string) {
	type change struct {
		time    float64
		program int
	}
	programs := make(map[uint8][]change)
	for _, c := range controls {
		if c.Kind == events.ProgramChange {
			programs[c.Channel] = append(programs[c.Channel], change{c.Time, c.Value})
		}
	}
	missing := make(map[uint8]bool)
	reported := make(map[[2]int]bool)
	var warnings []string
	for _, n := range notes {
		list := programs[n.Channel]
		i := sort.Search(len(list), func(i int) bool { return list[i].time > n.StartTime })
		program := 0
		if i > 0 {
			program = list[i-1].program
		}
		if r.hasPreset(n.Channel, program) {
			continue
		}
		missing[n.Channel] = true
		k := [2]int{int(n.Channel), program}
		if !reported[k] {
			reported[k] = true
			msg := fmt.Sprintf("soundfont has no preset for program %d on channel %d, using built-in voice", program, int(n.Channel)+1)
			r.logger.Warn(msg)
			warnings = append(warnings, msg)
		}
	}
	return missing, warnings
}

// Render plays res's timeline through a fresh synthesizer into frames stereo frames.
func (r *Renderer) Render(ctx context.Context, res events.Result, frames int) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	synth, err := r.newSynth()
	if err != nil {
		return nil, fmt.Errorf("soundfont synthesizer: %w", err)
	}
	missing, warnings := r.fallbackChannels(res.Notes, res.Controls)
	out := &Output{Samples: make([]float64, frames*2), Warnings: warnings}
	for _, n := range res.Notes {
		if missing[n.Channel] {
			out.Fallback = append(out.Fallback, n)
		}
	}

	left := make([]float32, blockFrames)
	right := make([]float32, blockFrames)
	pos := 0
	renderTo := func(frame int) {
		for pos < frame {
			n := min(blockFrames, frame-pos)
			synth.Render(left[:n], right[:n])
			for i := 0; i < n; i++ {
				out.Samples[2*(pos+i)] = float64(left[i])
				out.Samples[2*(pos+i)+1] = float64(right[i])
			}
			pos += n
		}
	}

	sr := float64(r.sampleRate)
	for _, e := range res.Timeline {
		f := min(int(math.Round(e.Time*sr)), frames)
		renderTo(f)
		switch e.Kind {
		case events.EntryNoteOn:
			n := res.Notes[e.Index]
			if !missing[n.Channel] {
				synth.NoteOn(int32(n.Channel), int32(n.NoteNumber), int32(n.Velocity))
			}
		case events.EntryNoteOff:
			n := res.Notes[e.Index]
			if !missing[n.Channel] {
				synth.NoteOff(int32(n.Channel), int32(n.NoteNumber))
			}
		case events.EntryControl:
			dispatchControl(synth, res.Controls[e.Index])
		}
	}
	renderTo(frames)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func dispatchControl(s Synthesizer, c events.ControlEvent) {
	ch := int32(c.Channel)
	switch c.Kind {
	case events.ControlChange:
		s.ProcessMidiMessage(ch, 0xB0, int32(c.Controller), int32(c.Value))
	case events.PitchWheel:
		v := int32(c.Value) + 8192
		v = max(0, min(v, 16383))
		s.ProcessMidiMessage(ch, 0xE0, v&0x7F, v>>7)
	case events.ProgramChange:
		s.ProcessMidiMessage(ch, 0xC0, int32(c.Value), 0)
	}
}
