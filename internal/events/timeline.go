package events

import "sort"

// EntryKind orders timeline entries that share a timestamp.
type EntryKind int

const (
	EntryNoteOff EntryKind = iota
	EntryControl
	EntryNoteOn
)

// TimelineEntry is one dispatchable event. Index points into Result.Notes for note
// entries and into Result.Controls for control entries.
type TimelineEntry struct {
	Time  float64
	Kind  EntryKind
	Index int
}

// BuildTimeline merges notes and controls into one time-ordered stream. On ties
// note-offs come first, then controls, then note-ons, so a retriggered key is released
// before it sounds again and a program change lands before the note it targets.
func BuildTimeline(notes []NoteEvent, controls []ControlEvent) []TimelineEntry {
	out := make([]TimelineEntry, 0, len(notes)*2+len(controls))
	for i, n := range notes {
		out = append(out,
			TimelineEntry{Time: n.StartTime, Kind: EntryNoteOn, Index: i},
			TimelineEntry{Time: n.EndTime, Kind: EntryNoteOff, Index: i},
		)
	}
	for i, c := range controls {
		out = append(out, TimelineEntry{Time: c.Time, Kind: EntryControl, Index: i})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}
