// Package instrument resolves a channel's program to synthesis settings.
package instrument

import (
	"github.com/cbegin/midisynth-go/internal/envelope"
	"github.com/cbegin/midisynth-go/internal/filter"
	"github.com/cbegin/midisynth-go/internal/osc"
)

// PercussionKey is the preset key reserved for the percussion channel.
const PercussionKey = -1

// Settings is everything the renderer needs to voice one note.
type Settings struct {
	Waveform osc.Waveform        `json:"waveform"`
	ADSR     envelope.ADSRParams `json:"adsr"`
	Volume   float64             `json:"volume"`
	Filter   filter.Settings     `json:"filter"`
	FM       osc.FMParams        `json:"fm"`

	// Envelope replaces the ADSR when it has at least one point.
	Envelope []envelope.Point `json:"envelope,omitempty"`
	// Wavetable is a WAV path used by UserWavetable.
	Wavetable  string  `json:"wavetable,omitempty"`
	PluckDecay float64 `json:"pluck_decay,omitempty"`
}

// Default is a plain sine voice.
func Default() Settings {
	return Settings{
		Waveform: osc.Sine,
		ADSR:     envelope.DefaultADSRParams(),
		Volume:   1,
		Filter:   filter.DefaultSettings(),
		FM:       osc.DefaultFMParams(),
	}
}

// Preset maps an inclusive program range to settings.
type Preset struct {
	From     int      `json:"from"`
	To       int      `json:"to"`
	Settings Settings `json:"settings"`
}

// Table resolves programs to settings. Later presets win over earlier ones.
type Table struct {
	Presets    []Preset `json:"presets"`
	Percussion Settings `json:"percussion"`
	Fallback   Settings `json:"fallback"`
}

// Lookup returns the settings for program, or the percussion settings for
// PercussionKey.
func (t *Table) Lookup(program int) Settings {
	if program == PercussionKey {
		return t.Percussion
	}
	for i := len(t.Presets) - 1; i >= 0; i-- {
		p := t.Presets[i]
		if program >= p.From && program <= p.To {
			return p.Settings
		}
	}
	return t.Fallback
}

// Key identifies a resolved (channel, program) pair.
type Key struct {
	Channel uint8
	Program int
}

// Resolver memoizes lookups for one render.
type Resolver struct {
	table      *Table
	percussion uint8
	cache      map[Key]Settings
}

// NewResolver creates a resolver. percussionChannel is 0-based.
func NewResolver(t *Table, percussionChannel uint8) *Resolver {
	return &Resolver{table: t, percussion: percussionChannel, cache: make(map[Key]Settings)}
}

// Resolve returns the settings for program on channel.
func (r *Resolver) Resolve(channel uint8, program int) Settings {
	if channel == r.percussion {
		program = PercussionKey
	}
	k := Key{Channel: channel, Program: program}
	if s, ok := r.cache[k]; ok {
		return s
	}
	s := r.table.Lookup(program)
	r.cache[k] = s
	return s
}

func voice(w osc.Waveform, a, d, s, rel, vol float64) Settings {
	v := Default()
	v.Waveform = w
	v.ADSR = envelope.ADSRParams{Attack: a, Decay: d, Sustain: s, Release: rel}
	v.Volume = vol
	return v
}

func lowpass(v Settings, cutoff, res float64) Settings {
	v.Filter = filter.Settings{Kind: filter.LowPass, Cutoff: cutoff, Resonance: res}
	return v
}

// GeneralMIDI returns a table voicing each General MIDI family with a built-in
// waveform.
func GeneralMIDI() *Table {
	ensemble := voice(osc.Sawtooth, 0.08, 0.2, 0.85, 0.35, 0.5)
	ensemble = lowpass(ensemble, 3500, 1)
	return &Table{
		Presets: []Preset{
			// piano
			{0, 7, voice(osc.Triangle, 0.003, 0.6, 0.4, 0.3, 0.9)},
			// chromatic percussion
			{8, 15, voice(osc.FM, 0.001, 0.8, 0.1, 0.5, 0.7)},
			// organ
			{16, 23, voice(osc.Organ, 0.01, 0.05, 0.95, 0.08, 0.6)},
			// guitar
			{24, 31, voice(osc.KarplusStrong, 0.002, 0.4, 0.6, 0.2, 0.9)},
			// bass
			{32, 39, lowpass(voice(osc.Square, 0.005, 0.3, 0.7, 0.15, 0.7), 1200, 1.2)},
			// strings and ensemble
			{40, 55, ensemble},
			// brass
			{56, 63, lowpass(voice(osc.Sawtooth, 0.03, 0.1, 0.8, 0.15, 0.5), 5000, 1)},
			// reed and pipe
			{64, 79, voice(osc.Wavetable, 0.03, 0.1, 0.85, 0.12, 0.6)},
			// synth lead
			{80, 87, voice(osc.Square, 0.005, 0.1, 0.8, 0.1, 0.45)},
			// synth pad
			{88, 95, lowpass(voice(osc.Sawtooth, 0.4, 0.5, 0.8, 0.8, 0.4), 2000, 1)},
			// synth effects
			{96, 103, voice(osc.FM, 0.05, 0.3, 0.6, 0.6, 0.5)},
			// ethnic
			{104, 111, voice(osc.KarplusStrong, 0.002, 0.3, 0.7, 0.2, 0.8)},
			// percussive
			{112, 119, voice(osc.Noise, 0.001, 0.15, 0, 0.05, 0.5)},
			// sound effects
			{120, 127, voice(osc.Noise, 0.2, 0.3, 0.5, 0.4, 0.3)},
		},
		Percussion: lowpass(voice(osc.Noise, 0.001, 0.12, 0, 0.05, 0.6), 6000, 1),
		Fallback:   Default(),
	}
}
