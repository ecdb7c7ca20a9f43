package render

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cbegin/midisynth-go/internal/channel"
	"github.com/cbegin/midisynth-go/internal/effects"
	"github.com/cbegin/midisynth-go/internal/envelope"
	"github.com/cbegin/midisynth-go/internal/filter"
	"github.com/cbegin/midisynth-go/internal/instrument"
	"github.com/cbegin/midisynth-go/internal/lfo"
	"github.com/cbegin/midisynth-go/internal/osc"
)

// RenderHighQuality renders every channel group with its instrument settings,
// possibly in parallel, then runs the master chain.
func (r *Renderer) RenderHighQuality(ctx context.Context, job Job) (*Result, error) {
	res, err := r.Mix(ctx, job)
	if err != nil {
		return nil, err
	}
	r.Master(res)
	return res, nil
}

// Mix is RenderHighQuality without master volume or the master chain. Callers that
// sum several sources call Master once on the total.
func (r *Renderer) Mix(ctx context.Context, job Job) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	started := time.Now()
	tl := r.timeline(job)
	p := r.planNotes(job, tl, true)
	acc := newAccumulator(p.frames, r.cfg.Performance.BlockSize)

	var (
		mu       sync.Mutex
		stats    = p.stats
		warnings []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Performance.MaxThreads)
	for ch := range p.groups {
		notes := p.groups[ch]
		if len(notes) == 0 {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t := r.newTask(uint8(ch), tl)
			t.render(notes, acc)
			mu.Lock()
			stats.add(t.stats)
			warnings = append(warnings, t.warnings...)
			mu.Unlock()
			r.logger.Debug("channel rendered",
				"channel", ch+1,
				"notes", t.stats.Rendered,
				"warnings", len(t.warnings))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return r.wrap(acc.buf, stats, warnings, started), nil
}

func (r *Renderer) timeline(job Job) *channel.Timeline {
	if job.Channels != nil {
		return job.Channels
	}
	return channel.NewTimeline(nil, channel.DefaultStates(), r.cfg.PitchBendRange)
}

// task owns everything one channel group mutates.
type task struct {
	r        *Renderer
	ch       uint8
	tl       *channel.Timeline
	resolver *instrument.Resolver
	bank     *osc.PluckBank
	failed   map[string]bool
	warnings []string
	stats    Stats
}

func (r *Renderer) newTask(ch uint8, tl *channel.Timeline) *task {
	return &task{
		r:        r,
		ch:       ch,
		tl:       tl,
		resolver: instrument.NewResolver(&r.cfg.Instruments, channel.PercussionChannel),
		bank:     osc.NewPluckBank(r.cfg.SampleRate, 0, int64(ch)+1),
		failed:   make(map[string]bool),
	}
}

func (t *task) warn(msg string) {
	t.r.logger.Warn(msg, "channel", int(t.ch)+1)
	t.warnings = append(t.warnings, msg)
}

// render voices each note into a scratch buffer covering the group's span and adds
// it to the shared buffer.
func (t *task) render(notes []plannedNote, acc *accumulator) {
	lo, hi := span(notes)
	scratch := make([]float64, (hi-lo)*2)
	for _, n := range notes {
		t.renderNote(n, scratch, lo)
		t.stats.Rendered++
	}
	acc.add(lo, scratch)
}

func (t *task) loadTable(path string) []float64 {
	if path == "" {
		return nil
	}
	table, err := t.r.tables.Get(path)
	if err != nil {
		if !t.failed[path] {
			t.failed[path] = true
			t.warn(fmt.Sprintf("wavetable %s unavailable, using sine: %v", path, err))
		}
		return nil
	}
	return table
}

func (t *task) renderNote(n plannedNote, scratch []float64, lo int) {
	cfg := t.r.cfg
	sr := float64(cfg.SampleRate)
	cursor := t.tl.Cursor(t.ch)
	cursor.Seek(n.ev.StartTime)
	onset := *cursor.At(n.ev.StartTime)
	inst := t.resolver.Resolve(t.ch, onset.Program)
	seed := int64(t.ch)<<32 | int64(n.seq)
	rng := cfg.FrequencyRange()
	note := int(n.ev.NoteNumber)

	opts := osc.VoiceOptions{BandLimited: cfg.BandLimited, FM: inst.FM, Seed: seed}
	key := osc.PluckKey{Channel: t.ch, Note: n.ev.NoteNumber}
	switch inst.Waveform {
	case osc.UserWavetable:
		opts.Table = t.loadTable(inst.Wavetable)
	case osc.KarplusStrong:
		opts.Pluck = t.bank.ReseedDecay(key, osc.Frequency(note, onset.PitchBend, 0, rng), inst.PluckDecay)
		defer t.bank.Drop(key)
	}
	voice := osc.NewVoice(inst.Waveform, cfg.SampleRate, opts)

	adsr := inst.ADSR.Scaled(onset.AttackMul, onset.DecayMul, onset.ReleaseMul)
	var env envelope.Generator
	if len(inst.Envelope) > 0 {
		env = envelope.NewMultiPoint(inst.Envelope, adsr.Release, cfg.SampleRate, cfg.MinAttack, cfg.MinRelease)
	} else {
		env = envelope.NewADSR(adsr, cfg.SampleRate, cfg.MinAttack, cfg.MinRelease)
	}
	flt := filter.New(inst.Filter, cfg.SampleRate, seed)
	fx := effects.NewVoice(cfg.NoteEffects, cfg.SampleRate)
	var vibrato *lfo.LFO
	if cfg.Vibrato.DepthSemitones != 0 && cfg.Vibrato.RateHz != 0 {
		vibrato = lfo.New(cfg.Vibrato.Shape, cfg.Vibrato.RateHz, cfg.Vibrato.DepthSemitones, seed)
	}
	amp := float64(n.ev.Velocity) / 127 * inst.Volume

	for f := n.start; f < n.end; f++ {
		i := f - n.start
		now := float64(f) / sr
		local := float64(i) / sr
		st := cursor.At(now)
		var pitchLFO float64
		if st.Modulation > 0 {
			pitchLFO = vibrato.At(local) * st.Modulation
		}
		freq := osc.Frequency(note, st.PitchBend, pitchLFO, rng)
		s := voice.GenerateSample(freq, amp*st.Volume*st.Expression, env.Value(i, n.length))
		s = flt.Apply(s, local, st)
		s = fx.Process(s, local, st.ReverbSend, st.ChorusSend)
		if math.IsNaN(s) || math.IsInf(s, 0) {
			s = 0
		}
		gl, gr := panGains(st.Pan)
		idx := (f - lo) * 2
		scratch[idx] += s * gl
		scratch[idx+1] += s * gr
	}
}
