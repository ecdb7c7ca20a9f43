// Package midisynth renders Standard MIDI Files to stereo PCM with a built-in
// synthesizer or a SoundFont library.
package midisynth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cbegin/midisynth-go/internal/channel"
	"github.com/cbegin/midisynth-go/internal/config"
	"github.com/cbegin/midisynth-go/internal/events"
	"github.com/cbegin/midisynth-go/internal/kernel"
	"github.com/cbegin/midisynth-go/internal/midifile"
	"github.com/cbegin/midisynth-go/internal/osc"
	"github.com/cbegin/midisynth-go/internal/render"
	"github.com/cbegin/midisynth-go/internal/soundfont"
)

// Result is a finished render: interleaved stereo samples plus warnings and stats.
type Result = render.Result

// Config is the engine configuration.
type Config = config.Config

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config { return config.Default() }

// LoadConfig reads a JSON configuration overlaid on the defaults.
func LoadConfig(path string) (*Config, error) { return config.Load(path) }

type Quality string

const (
	QualityHigh     Quality = "hq"
	QualityStandard Quality = "standard"
)

// ParseQuality maps a CLI name to a Quality.
func ParseQuality(s string) (Quality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "hq", "high":
		return QualityHigh, nil
	case "standard", "std", "preview":
		return QualityStandard, nil
	}
	return "", fmt.Errorf("unknown quality %q (want hq|standard)", s)
}

type EngineOption func(*engineConfig)

type engineConfig struct {
	logger    *slog.Logger
	tables    *osc.TableCache
	kernel    kernel.AudioKernel
	soundFont *soundfont.Renderer
}

func WithLogger(l *slog.Logger) EngineOption {
	return func(cfg *engineConfig) { cfg.logger = l }
}

// WithTableCache shares a wavetable cache between engines.
func WithTableCache(c *osc.TableCache) EngineOption {
	return func(cfg *engineConfig) { cfg.tables = c }
}

// WithKernel forces the master-chain kernel instead of probing.
func WithKernel(k kernel.AudioKernel) EngineOption {
	return func(cfg *engineConfig) { cfg.kernel = k }
}

// WithSoundFont routes high-quality renders through a loaded sample library. It
// overrides Config.SoundFont.
func WithSoundFont(r *soundfont.Renderer) EngineOption {
	return func(cfg *engineConfig) { cfg.soundFont = r }
}

// Engine renders songs with one configuration.
type Engine struct {
	cfg       *Config
	logger    *slog.Logger
	renderer  *render.Renderer
	soundFont *soundfont.Renderer

	// sfWarnings records a library that failed to load; high-quality renders carry it.
	sfWarnings []string
}

// New validates cfg, probes the master kernel and loads Config.SoundFont if set. A
// library that fails to load is not an error: renders use the built-in voices and
// report the failure in Result.Warnings.
func New(cfg *Config, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ec := engineConfig{}
	for _, opt := range opts {
		opt(&ec)
	}
	if ec.logger == nil {
		ec.logger = slog.Default()
	}
	ropts := []render.Option{render.WithLogger(ec.logger)}
	if ec.tables != nil {
		ropts = append(ropts, render.WithTableCache(ec.tables))
	}
	if ec.kernel != nil {
		ropts = append(ropts, render.WithKernel(ec.kernel))
	}
	r, err := render.New(cfg, ropts...)
	if err != nil {
		return nil, err
	}
	e := &Engine{cfg: cfg, logger: ec.logger, renderer: r, soundFont: ec.soundFont}
	if e.soundFont == nil && cfg.SoundFont != "" {
		sf, err := soundfont.Load(cfg.SoundFont, cfg.SampleRate, ec.logger)
		if err != nil {
			e.soundFontUnavailable(fmt.Sprintf("soundfont %s unavailable, using built-in voices: %v", cfg.SoundFont, err))
		} else {
			e.soundFont = sf
		}
	}
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() *Config { return e.cfg }

// RenderFile decodes the SMF at path and renders it.
func (e *Engine) RenderFile(ctx context.Context, path string, quality Quality) (*Result, error) {
	f, err := midifile.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return e.RenderSong(ctx, f, quality)
}

// RenderSong renders a decoded file. The SoundFont path is used for QualityHigh when
// a library is loaded.
func (e *Engine) RenderSong(ctx context.Context, f *midifile.File, quality Quality) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tempo := events.TempoMap(f.Tracks, e.cfg.DefaultTempo)
	ext := events.Extract(f.Tracks, f.TicksPerQuarter, tempo, e.cfg.Extraction)
	e.logger.Debug("events extracted",
		"tracks", len(f.Tracks),
		"notes", ext.Stats.Notes,
		"controls", ext.Stats.Controls,
		"unmatched", ext.Stats.Unmatched,
		"malformed", ext.Stats.Malformed,
		"filtered", ext.Stats.Filtered)
	tl := channel.NewTimeline(ext.Controls, channel.DefaultStates(), e.cfg.PitchBendRange)
	job := render.Job{Notes: ext.Notes, Channels: tl}

	switch {
	case quality == QualityStandard:
		return e.renderer.RenderStandard(ctx, job)
	case e.soundFont != nil:
		return e.renderSoundFont(ctx, ext, job)
	default:
		res, err := e.renderer.RenderHighQuality(ctx, job)
		if err != nil {
			return nil, err
		}
		res.Warnings = append(res.Warnings, e.sfWarnings...)
		return res, nil
	}
}

func (e *Engine) soundFontUnavailable(msg string) {
	e.logger.Warn(msg)
	e.sfWarnings = append(e.sfWarnings, msg)
}

// renderSoundFont plays the library, voices the notes it has no preset for with the
// built-in synthesizer, and masters the sum once.
func (e *Engine) renderSoundFont(ctx context.Context, ext events.Result, job render.Job) (*Result, error) {
	started := time.Now()
	frames := e.renderer.Frames(job)
	out, err := e.soundFont.Render(ctx, ext, frames)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		msg := fmt.Sprintf("soundfont render failed, using built-in voices: %v", err)
		e.logger.Warn(msg)
		res, err := e.renderer.RenderHighQuality(ctx, job)
		if err != nil {
			return nil, err
		}
		res.Warnings = append(res.Warnings, msg)
		return res, nil
	}
	res, err := e.renderer.Mix(ctx, render.Job{Notes: out.Fallback, Channels: job.Channels, Frames: frames})
	if err != nil {
		return nil, err
	}
	for i, s := range out.Samples {
		res.Samples[i] += s
	}
	res.Warnings = append(res.Warnings, out.Warnings...)
	res.Stats.Notes = len(ext.Notes)
	res.Stats.Rendered += len(ext.Notes) - len(out.Fallback)
	res.Stats.Elapsed = time.Since(started)
	e.renderer.Master(res)
	return res, nil
}
