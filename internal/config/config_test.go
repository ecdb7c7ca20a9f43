package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cbegin/midisynth-go/internal/osc"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if c.Performance.MaxPolyphony != 64 || c.Performance.BlockSize != 4096 {
		t.Fatalf("unexpected performance defaults %+v", c.Performance)
	}
	if !c.Master.Normalization.Enabled || c.Master.Convolution.Enabled {
		t.Fatal("unexpected master defaults")
	}
}

func TestValidateFailsFast(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"zero sample rate", func(c *Config) { c.SampleRate = 0 }, ErrInvalidSampleRate},
		{"negative sample rate", func(c *Config) { c.SampleRate = -1 }, ErrInvalidSampleRate},
		{"zero block", func(c *Config) { c.Performance.BlockSize = 0 }, ErrInvalidBlockSize},
		{"zero polyphony", func(c *Config) { c.Performance.MaxPolyphony = 0 }, ErrInvalidPolyphony},
		{"negative threads", func(c *Config) { c.Performance.MaxThreads = -2 }, ErrInvalidThreads},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			if err := c.Validate(); !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.json")
	body := `{"sample_rate": 48000, "default_waveform": "square", "performance": {"max_polyphony": 8}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.SampleRate != 48000 || c.DefaultWaveform != osc.Square {
		t.Fatalf("overlay not applied: %d %v", c.SampleRate, c.DefaultWaveform)
	}
	if c.Performance.MaxPolyphony != 8 || c.Performance.BlockSize != 4096 {
		t.Fatalf("performance = %+v", c.Performance)
	}
	if c.A4Frequency != 440 {
		t.Fatalf("unset field lost its default: %f", c.A4Frequency)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(path, []byte(`{"sample_rate": 0}`), 0o644)
	if _, err := Load(path); !errors.Is(err, ErrInvalidSampleRate) {
		t.Fatalf("Load() = %v, want ErrInvalidSampleRate", err)
	}
	os.WriteFile(path, []byte(`{`), 0o644)
	if _, err := Load(path); err == nil {
		t.Fatal("expected syntax error")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cfg.json")
	c := Default()
	c.MasterVolume = 0.5
	c.Master.EQ.Enabled = true
	c.Master.EQ.Low = 1.5
	if err := Save(c, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.MasterVolume != 0.5 || !got.Master.EQ.Enabled || got.Master.EQ.Low != 1.5 {
		t.Fatalf("round trip lost fields: %+v", got.Master.EQ)
	}
	if len(got.Instruments.Presets) != len(c.Instruments.Presets) {
		t.Fatalf("presets = %d, want %d", len(got.Instruments.Presets), len(c.Instruments.Presets))
	}
}
