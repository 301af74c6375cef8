package sequencer

import (
	"sort"

	"go-midiviz/debug"
	"go-midiviz/midi"
)

// Timeline is the reconstructed note list of a sequence, sorted by end tick.
// Players scan it in a single forward pass and rely on the last note holding
// the maximum end tick.
type Timeline []Note

// LastEnd returns the end tick of the last note (0 for an empty timeline)
func (t Timeline) LastEnd() int64 {
	if len(t) == 0 {
		return 0
	}
	return t[len(t)-1].End()
}

// Channels returns which of the 16 channels carry at least one note
func (t Timeline) Channels() [midi.Channels]bool {
	var used [midi.Channels]bool
	for _, n := range t {
		if int(n.Channel()) < midi.Channels {
			used[n.Channel()] = true
		}
	}
	return used
}

// openStarts holds the start tick of the open note per channel and pitch,
// -1 when nothing is open. Scratch state, reset per track.
type openStarts [midi.Channels][midi.Pitches]int64

func (o *openStarts) reset() {
	for ch := range o {
		for p := range o[ch] {
			o[ch][p] = -1
		}
	}
}

// slot returns the open-start cell for an event, nil if the adjusted pitch or
// channel cannot be tracked.
func (o *openStarts) slot(channel uint8, pitch int) *int64 {
	if int(channel) >= midi.Channels || pitch < 0 || pitch >= midi.Pitches {
		return nil
	}
	return &o[channel][pitch]
}

// BuildTimeline pairs note-on/note-off events into notes. noteOffset is added
// to every raw pitch before it is interpreted.
//
// A second note-on for an already open channel/pitch closes the open note at
// its tick and leaves the slot empty; the second on does not start a new note.
// Dangling note-offs are ignored, dangling note-ons are dropped at the end of
// their track, and notes outside the keyboard range are logged and skipped.
func BuildTimeline(tracks [][]midi.Event, noteOffset int) Timeline {
	var notes Timeline
	var open openStarts

	for trackIdx, events := range tracks {
		open.reset()
		for _, e := range events {
			pitch := e.Pitch + noteOffset
			start := open.slot(e.Channel, pitch)
			if start == nil {
				debug.Warn("timeline", "track=%d tick=%d: untrackable ch=%d pitch=%d", trackIdx, e.Tick, e.Channel, pitch)
				continue
			}

			switch e.Command {
			case midi.NoteOn:
				if *start < 0 {
					*start = e.Tick
					continue
				}
				debug.Warn("timeline", "track=%d tick=%d: note on while held ch=%d pitch=%d", trackIdx, e.Tick, e.Channel, pitch)
				notes = appendNote(notes, trackIdx, e.Channel, pitch, *start, e.Tick)
				*start = -1
			case midi.NoteOff:
				if *start < 0 {
					continue
				}
				notes = appendNote(notes, trackIdx, e.Channel, pitch, *start, e.Tick)
				*start = -1
			}
		}
	}

	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].End() < notes[j].End()
	})
	return notes
}

func appendNote(notes Timeline, trackIdx int, channel uint8, pitch int, start, end int64) Timeline {
	n, err := NewNote(channel, pitch, start, end)
	if err != nil {
		debug.Warn("timeline", "track=%d: dropped note [%d;%d]: %v", trackIdx, start, end, err)
		return notes
	}
	return append(notes, n)
}

// PlaybackEvents returns the stream a live transport re-plays: pitches are
// offset-adjusted, a colliding note-on is rewritten into the note-off that
// closed the note in BuildTimeline, and all tracks are merged by tick with
// ties kept in track order.
func PlaybackEvents(tracks [][]midi.Event, noteOffset int) []midi.Event {
	var out []midi.Event
	var open openStarts

	for _, events := range tracks {
		open.reset()
		for _, e := range events {
			e.Pitch += noteOffset
			start := open.slot(e.Channel, e.Pitch)
			if start == nil {
				continue
			}

			switch e.Command {
			case midi.NoteOn:
				if *start < 0 {
					*start = e.Tick
				} else {
					e.Command = midi.NoteOff
					*start = -1
				}
			case midi.NoteOff:
				*start = -1
			}
			out = append(out, e)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Tick < out[j].Tick
	})
	return out
}
