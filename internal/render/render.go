// Package render turns extracted notes and channel state into an interleaved stereo
// buffer.
package render

import (
	"log/slog"
	"math"
	"time"

	"github.com/cbegin/midisynth-go/internal/channel"
	"github.com/cbegin/midisynth-go/internal/config"
	"github.com/cbegin/midisynth-go/internal/events"
	"github.com/cbegin/midisynth-go/internal/kernel"
	"github.com/cbegin/midisynth-go/internal/master"
	"github.com/cbegin/midisynth-go/internal/osc"
)

// Job is one render request.
type Job struct {
	Notes []events.NoteEvent
	// Channels supplies the control state in force at each time. Nil means every
	// channel stays at its power-on state.
	Channels *channel.Timeline
	// Frames fixes the output length. Zero sizes the buffer to the last note end
	// plus the configured tail.
	Frames int
}

// Stats describes what a render did.
type Stats struct {
	Notes            int
	Rendered         int
	Skipped          int // outside the render window
	PolyphonyDropped int
	SustainHeld      int
	ChannelGroups    int
	Kernel           string
	Elapsed          time.Duration
}

func (s *Stats) add(o Stats) {
	s.Rendered += o.Rendered
	s.Skipped += o.Skipped
	s.PolyphonyDropped += o.PolyphonyDropped
	s.SustainHeld += o.SustainHeld
}

// Result is a finished render. Samples is interleaved stereo.
type Result struct {
	Samples    []float64
	SampleRate int
	Duration   time.Duration
	Warnings   []string
	Stats      Stats
}

// Frames returns the number of stereo frames in the result.
func (r *Result) Frames() int { return len(r.Samples) / 2 }

// NewResult wraps a rendered buffer.
func NewResult(samples []float64, sampleRate int) *Result {
	res := &Result{Samples: samples, SampleRate: sampleRate}
	if sampleRate > 0 {
		res.Duration = time.Duration(float64(len(samples)/2) / float64(sampleRate) * float64(time.Second))
	}
	return res
}

type options struct {
	logger *slog.Logger
	tables *osc.TableCache
	kernel kernel.AudioKernel
}

// Option configures a Renderer.
type Option func(*options)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTableCache shares a wavetable cache between renderers.
func WithTableCache(c *osc.TableCache) Option {
	return func(o *options) { o.tables = c }
}

// WithKernel forces the master-chain kernel instead of probing for one.
func WithKernel(k kernel.AudioKernel) Option {
	return func(o *options) { o.kernel = k }
}

// Renderer renders jobs with a fixed configuration. It is safe to use from one
// goroutine at a time; each render allocates its own state.
type Renderer struct {
	cfg      *config.Config
	logger   *slog.Logger
	tables   *osc.TableCache
	master   *master.Chain
	warnings []string
}

// New validates cfg and prepares the master chain.
func New(cfg *config.Config, opts ...Option) (*Renderer, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.tables == nil {
		o.tables = osc.NewTableCache(nil)
	}
	r := &Renderer{cfg: cfg, logger: o.logger, tables: o.tables}
	k := o.kernel
	if k == nil {
		var warn string
		k, warn = kernel.Probe(cfg.Master.Convolution.Accelerated, cfg.Performance.MaxThreads)
		if warn != "" {
			r.logger.Warn("kernel probe", "warning", warn)
			r.warnings = append(r.warnings, warn)
		}
	}
	r.master = master.New(cfg.SampleRate, cfg.Master, k)
	return r, nil
}

// Config returns the renderer's configuration.
func (r *Renderer) Config() *config.Config { return r.cfg }

// Kernel returns the name of the master-chain kernel.
func (r *Renderer) Kernel() string { return r.master.Kernel().Name() }

// framesFor sizes a buffer to end seconds plus the tail.
func (r *Renderer) framesFor(end float64) int {
	total := end + math.Max(r.cfg.TailSeconds, 0)
	if total <= 0 {
		return 0
	}
	return int(math.Ceil(total*float64(r.cfg.SampleRate) - 1e-9))
}

// finish wraps a mixed buffer and runs Master over it.
func (r *Renderer) finish(buf []float64, st Stats, warnings []string, started time.Time) *Result {
	res := r.wrap(buf, st, warnings, started)
	r.Master(res)
	return res
}

func (r *Renderer) wrap(buf []float64, st Stats, warnings []string, started time.Time) *Result {
	res := NewResult(buf, r.cfg.SampleRate)
	res.Warnings = append(append([]string(nil), r.warnings...), warnings...)
	st.Kernel = r.Kernel()
	st.Elapsed = time.Since(started)
	res.Stats = st
	return res
}

// Master applies master volume and the master chain to res in place. It must run
// exactly once per result, after every source has been summed into it.
func (r *Renderer) Master(res *Result) {
	buf := res.Samples
	if v := r.cfg.MasterVolume; v != 1 {
		for i := range buf {
			buf[i] *= v
		}
	}
	r.master.Process(buf)
	r.logger.Info("render complete",
		"frames", res.Frames(),
		"duration", res.Duration,
		"notes", res.Stats.Rendered,
		"kernel", res.Stats.Kernel,
		"stages", r.master.Stages(),
		"elapsed", res.Stats.Elapsed)
}

func panGains(pan float64) (float64, float64) {
	theta := (clamp(pan, -1, 1) + 1) * math.Pi / 4
	return math.Cos(theta), math.Sin(theta)
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
