package render

import (
	"context"
	"time"

	"github.com/cbegin/midisynth-go/internal/envelope"
	"github.com/cbegin/midisynth-go/internal/osc"
)

// RenderStandard is the single-threaded preview path: every note uses the default
// waveform and ADSR with the channel state at onset, without filters, note effects
// or sustain holds.
func (r *Renderer) RenderStandard(ctx context.Context, job Job) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	started := time.Now()
	cfg := r.cfg
	tl := r.timeline(job)
	p := r.planNotes(job, tl, false)
	buf := make([]float64, p.frames*2)
	env := envelope.NewADSR(cfg.DefaultADSR, cfg.SampleRate, cfg.MinAttack, cfg.MinRelease)
	rng := cfg.FrequencyRange()
	bank := osc.NewPluckBank(cfg.SampleRate, 0, 1)
	stats := p.stats

	for ch := range p.groups {
		for _, n := range p.groups[ch] {
			st := tl.StateAt(n.ev.Channel, n.ev.StartTime)
			freq := osc.Frequency(int(n.ev.NoteNumber), st.PitchBend, 0, rng)
			opts := osc.VoiceOptions{Seed: int64(n.seq)}
			if cfg.DefaultWaveform == osc.KarplusStrong {
				opts.Pluck = bank.Reseed(osc.PluckKey{Channel: n.ev.Channel, Note: n.ev.NoteNumber}, freq)
			}
			voice := osc.NewVoice(cfg.DefaultWaveform, cfg.SampleRate, opts)
			amp := float64(n.ev.Velocity) / 127 * st.Volume * st.Expression
			gl, gr := panGains(st.Pan)
			for f := n.start; f < n.end; f++ {
				s := voice.GenerateSample(freq, amp, env.Value(f-n.start, n.length))
				buf[2*f] += s * gl
				buf[2*f+1] += s * gr
			}
			stats.Rendered++
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	r.logger.Debug("standard render", "notes", stats.Rendered, "sample_rate", cfg.SampleRate)
	return r.finish(buf, stats, nil, started), nil
}
