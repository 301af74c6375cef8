package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

// Command is the status nibble of a channel-voice message
type Command uint8

// MIDI message types
const (
	NoteOff Command = 0x80
	NoteOn  Command = 0x90
)

// Channels is the number of MIDI voice channels
const Channels = 16

// Pitches is the number of raw MIDI data byte values
const Pitches = 128

// Event is a note-on/note-off at an absolute tick of its track.
// Pitch is an int so transposed values outside 0..127 can be represented.
type Event struct {
	Tick     int64
	Command  Command
	Channel  uint8
	Pitch    int
	Velocity uint8
}

func (c Command) String() string {
	switch c {
	case NoteOn:
		return "on"
	case NoteOff:
		return "off"
	}
	return "unknown"
}

// Message converts the event back into a wire message. ok is false when the
// pitch cannot be sent (outside 0..127).
func (e Event) Message() (msg gomidi.Message, ok bool) {
	if e.Pitch < 0 || e.Pitch >= Pitches {
		return nil, false
	}
	switch e.Command {
	case NoteOn:
		return gomidi.NoteOn(e.Channel, uint8(e.Pitch), e.Velocity), true
	case NoteOff:
		return gomidi.NoteOff(e.Channel, uint8(e.Pitch)), true
	}
	return nil, false
}
