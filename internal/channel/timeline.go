package channel

import (
	"sort"

	"github.com/cbegin/midisynth-go/internal/events"
)

type snapshot struct {
	time  float64
	state State
}

// Timeline records every state a channel passes through so renderers can ask for the
// state in force at any time.
type Timeline struct {
	initial [NumChannels]State
	changes [NumChannels][]snapshot
}

// NewTimeline replays evs (sorted by time) over initial.
func NewTimeline(evs []events.ControlEvent, initial [NumChannels]State, bendRange float64) *Timeline {
	tl := &Timeline{initial: initial}
	current := initial
	for _, ev := range evs {
		if ev.Channel >= NumChannels {
			continue
		}
		st := &current[ev.Channel]
		st.Apply(ev, bendRange)
		ch := tl.changes[ev.Channel]
		if n := len(ch); n > 0 && ch[n-1].time == ev.Time {
			ch[n-1].state = *st
			continue
		}
		tl.changes[ev.Channel] = append(ch, snapshot{time: ev.Time, state: *st})
	}
	return tl
}

// StateAt returns the state of ch at time t (seconds).
func (tl *Timeline) StateAt(ch uint8, t float64) State {
	if ch >= NumChannels {
		return DefaultState()
	}
	changes := tl.changes[ch]
	i := sort.Search(len(changes), func(i int) bool { return changes[i].time > t })
	if i == 0 {
		return tl.initial[ch]
	}
	return changes[i-1].state
}

// Final returns the last state of ch.
func (tl *Timeline) Final(ch uint8) State {
	if ch >= NumChannels {
		return DefaultState()
	}
	if n := len(tl.changes[ch]); n > 0 {
		return tl.changes[ch][n-1].state
	}
	return tl.initial[ch]
}

// SustainReleaseAfter returns the first time at or after t at which the sustain
// pedal of ch is up. ok is false if the pedal stays down to the end.
func (tl *Timeline) SustainReleaseAfter(ch uint8, t float64) (float64, bool) {
	if !tl.StateAt(ch, t).Sustain {
		return t, true
	}
	for _, s := range tl.changes[ch] {
		if s.time > t && !s.state.Sustain {
			return s.time, true
		}
	}
	return 0, false
}

// Cursor walks one channel's states forward in time. It is not safe for concurrent
// use; each rendering task takes its own.
type Cursor struct {
	tl      *Timeline
	ch      uint8
	next    int
	current State
}

// Cursor returns a cursor positioned before the first change of ch.
func (tl *Timeline) Cursor(ch uint8) *Cursor {
	c := &Cursor{tl: tl, ch: ch}
	c.Seek(0)
	return c
}

// Seek repositions the cursor to time t.
func (c *Cursor) Seek(t float64) {
	if c.ch >= NumChannels {
		c.current = DefaultState()
		return
	}
	changes := c.tl.changes[c.ch]
	c.next = sort.Search(len(changes), func(i int) bool { return changes[i].time > t })
	if c.next == 0 {
		c.current = c.tl.initial[c.ch]
	} else {
		c.current = changes[c.next-1].state
	}
}

// At advances to t and returns the state in force. t must not decrease between
// calls unless Seek is called.
func (c *Cursor) At(t float64) *State {
	if c.ch < NumChannels {
		changes := c.tl.changes[c.ch]
		for c.next < len(changes) && changes[c.next].time <= t {
			c.current = changes[c.next].state
			c.next++
		}
	}
	return &c.current
}
