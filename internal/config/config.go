// Package config holds the renderer configuration and its JSON file form.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/mitchellh/go-homedir"

	"github.com/cbegin/midisynth-go/internal/effects"
	"github.com/cbegin/midisynth-go/internal/envelope"
	"github.com/cbegin/midisynth-go/internal/events"
	"github.com/cbegin/midisynth-go/internal/instrument"
	"github.com/cbegin/midisynth-go/internal/lfo"
	"github.com/cbegin/midisynth-go/internal/master"
	"github.com/cbegin/midisynth-go/internal/osc"
	"github.com/cbegin/midisynth-go/internal/timemap"
)

var (
	ErrInvalidSampleRate = errors.New("sampleRate must be positive")
	ErrInvalidBlockSize  = errors.New("blockSize must be positive")
	ErrInvalidPolyphony  = errors.New("maxPolyphony must be positive")
	ErrInvalidThreads    = errors.New("maxThreads must be positive")
)

// Vibrato is the pitch LFO the modulation wheel (CC1) scales in.
type Vibrato struct {
	Shape          lfo.Shape `json:"shape"`
	RateHz         float64   `json:"rate_hz"`
	DepthSemitones float64   `json:"depth_semitones"`
}

// Performance bounds the renderer's resource use.
type Performance struct {
	MaxThreads   int `json:"max_threads"`
	MaxPolyphony int `json:"max_polyphony"`
	// BlockSize is the stripe width, in frames, of the shared output buffer.
	BlockSize int `json:"block_size"`
}

// Config is the complete renderer configuration.
type Config struct {
	SampleRate     int     `json:"sample_rate"`
	MasterVolume   float64 `json:"master_volume"`
	A4Frequency    float64 `json:"a4_frequency"`
	MinFrequency   float64 `json:"min_frequency"`
	MaxFrequency   float64 `json:"max_frequency"`
	PitchBendRange float64 `json:"pitch_bend_range"`
	// DefaultTempo is in microseconds per quarter note.
	DefaultTempo uint32 `json:"default_tempo"`
	BandLimited  bool   `json:"band_limited"`
	// MinAttack and MinRelease floor every envelope, in seconds.
	MinAttack  float64 `json:"min_attack"`
	MinRelease float64 `json:"min_release"`
	// TailSeconds extends the buffer past the last note end.
	TailSeconds float64 `json:"tail_seconds"`

	DefaultWaveform osc.Waveform        `json:"default_waveform"`
	DefaultADSR     envelope.ADSRParams `json:"default_adsr"`
	Vibrato         Vibrato             `json:"vibrato"`

	Extraction  events.Config      `json:"extraction"`
	Performance Performance        `json:"performance"`
	NoteEffects effects.NoteParams `json:"note_effects"`
	Master      master.Params      `json:"master"`
	Instruments instrument.Table   `json:"instruments"`

	// SoundFont selects the sample-library renderer when set.
	SoundFont string `json:"soundfont,omitempty"`
}

// Default returns a config with sensible defaults.
func Default() *Config {
	return &Config{
		SampleRate:      44100,
		MasterVolume:    0.8,
		A4Frequency:     440,
		MinFrequency:    20,
		MaxFrequency:    20000,
		PitchBendRange:  2,
		DefaultTempo:    timemap.DefaultMicrosecondsPerQuarter,
		BandLimited:     true,
		MinAttack:       0.002,
		MinRelease:      0.005,
		DefaultWaveform: osc.Sine,
		DefaultADSR:     envelope.DefaultADSRParams(),
		Vibrato:         Vibrato{Shape: lfo.Sine, RateHz: 5.5, DepthSemitones: 0.5},
		Extraction:      events.DefaultConfig(),
		Performance: Performance{
			MaxThreads:   runtime.NumCPU(),
			MaxPolyphony: 64,
			BlockSize:    4096,
		},
		NoteEffects: effects.DefaultNoteParams(),
		Master:      master.DefaultParams(),
		Instruments: *instrument.GeneralMIDI(),
	}
}

// Validate rejects settings that cannot render.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSampleRate, c.SampleRate)
	}
	if c.Performance.BlockSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBlockSize, c.Performance.BlockSize)
	}
	if c.Performance.MaxPolyphony <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPolyphony, c.Performance.MaxPolyphony)
	}
	if c.Performance.MaxThreads <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidThreads, c.Performance.MaxThreads)
	}
	return nil
}

// FrequencyRange returns the oscillator pitch bounds.
func (c *Config) FrequencyRange() osc.Range {
	return osc.Range{A4: c.A4Frequency, Min: c.MinFrequency, Max: c.MaxFrequency}
}

// Load reads a JSON config from path, overlaying it on the defaults. path may
// start with ~.
func Load(path string) (*Config, error) {
	p, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", p, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", p, err)
	}
	return cfg, nil
}

// Save writes cfg to path as indented JSON, creating parent directories.
func Save(cfg *Config, path string) error {
	p, err := homedir.Expand(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}
