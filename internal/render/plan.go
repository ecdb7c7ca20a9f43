package render

import (
	"math"
	"sort"

	"github.com/cbegin/midisynth-go/internal/channel"
	"github.com/cbegin/midisynth-go/internal/events"
)

// plannedNote is a note placed in sample space.
type plannedNote struct {
	ev     events.NoteEvent
	seq    int // index in the job's note list
	start  int // first frame
	end    int // one past the last frame
	length int // frames the envelope spans, before clipping to the buffer
}

type plan struct {
	frames int
	groups [channel.NumChannels][]plannedNote
	stats  Stats
}

// Frames returns the buffer length RenderHighQuality would produce for job.
func (r *Renderer) Frames(job Job) int {
	return r.planNotes(job, r.timeline(job), true).frames
}

// planNotes resolves sustain holds, sizes the buffer, drops notes outside the
// render window and applies the per-channel polyphony cap.
func (r *Renderer) planNotes(job Job, tl *channel.Timeline, holdSustain bool) plan {
	sr := float64(r.cfg.SampleRate)
	p := plan{stats: Stats{Notes: len(job.Notes)}}

	var songEnd float64
	for _, n := range job.Notes {
		songEnd = math.Max(songEnd, n.EndTime)
	}
	ends := make([]float64, len(job.Notes))
	last := 0.0
	for i, n := range job.Notes {
		end := n.EndTime
		if holdSustain && n.Channel < channel.NumChannels && tl.StateAt(n.Channel, n.EndTime).Sustain {
			if rel, ok := tl.SustainReleaseAfter(n.Channel, n.EndTime); ok {
				end = math.Max(end, rel)
			} else {
				end = math.Max(end, songEnd)
			}
			if end > n.EndTime {
				p.stats.SustainHeld++
			}
		}
		ends[i] = end
		last = math.Max(last, end)
	}

	p.frames = job.Frames
	if p.frames <= 0 {
		p.frames = r.framesFor(last)
	}
	bufLen := p.frames * 2

	for i, n := range job.Notes {
		start := int(math.Round(n.StartTime * sr))
		end := int(math.Round(ends[i] * sr))
		if n.Channel >= channel.NumChannels || start < 0 || start*2+1 >= bufLen || end <= start {
			p.stats.Skipped++
			continue
		}
		pn := plannedNote{ev: n, seq: i, start: start, end: min(end, p.frames), length: end - start}
		p.groups[n.Channel] = append(p.groups[n.Channel], pn)
	}

	maxPoly := r.cfg.Performance.MaxPolyphony
	for ch := range p.groups {
		g := p.groups[ch]
		if len(g) == 0 {
			continue
		}
		sort.SliceStable(g, func(i, j int) bool { return g[i].start < g[j].start })
		kept := g[:0]
		var active []int
		for _, pn := range g {
			live := active[:0]
			for _, e := range active {
				if e > pn.start {
					live = append(live, e)
				}
			}
			active = live
			if len(active) >= maxPoly {
				p.stats.PolyphonyDropped++
				continue
			}
			active = append(active, pn.end)
			kept = append(kept, pn)
		}
		p.groups[ch] = kept
		p.stats.ChannelGroups++
	}
	return p
}

// span returns the frame range covered by a channel group.
func span(notes []plannedNote) (int, int) {
	lo, hi := notes[0].start, notes[0].end
	for _, n := range notes[1:] {
		lo = min(lo, n.start)
		hi = max(hi, n.end)
	}
	return lo, hi
}
