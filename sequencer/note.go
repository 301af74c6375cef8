package sequencer

import (
	"errors"
	"fmt"
)

// NoteCount is the number of keys on the displayed piano (A0..C8)
const NoteCount = 88

var ErrPitchOutOfRange = errors.New("note pitch out of range")

// Note is a single sounding interval, determined by a note-on and the event
// that closed it. Pitch is 1-based (1 = A0).
type Note struct {
	channel uint8
	pitch   int
	start   int64
	end     int64
}

// NewNote validates pitch against 1..NoteCount. end >= start is not enforced.
func NewNote(channel uint8, pitch int, start, end int64) (Note, error) {
	if pitch < 1 || pitch > NoteCount {
		return Note{}, fmt.Errorf("%w: %d", ErrPitchOutOfRange, pitch)
	}
	return Note{channel: channel, pitch: pitch, start: start, end: end}, nil
}

func (n Note) Channel() uint8 { return n.channel }
func (n Note) Pitch() int     { return n.pitch }
func (n Note) Start() int64   { return n.start }
func (n Note) End() int64     { return n.end }

// Key returns the 0-based key index 0..87
func (n Note) Key() int {
	return n.pitch - 1
}

// Duration in ticks, zero or negative for malformed input
func (n Note) Duration() int64 {
	return n.end - n.start
}

func (n Note) String() string {
	return fmt.Sprintf("Note[ch=%d key=%d %d;%d]", n.channel, n.Key(), n.start, n.end)
}
