package midi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gitlab.com/gomidi/midi/v2/smf"
)

var (
	ErrInvalidFile           = errors.New("midi: invalid file")
	ErrUnsupportedTimeFormat = errors.New("midi: only metrical time formats are supported")
)

// Sequence is a loaded MIDI file reduced to what playback needs
type Sequence struct {
	Tracks     [][]Event
	Clock      *Clock
	TickLength int64
}

// MicrosLength returns the duration of the whole sequence
func (s *Sequence) MicrosLength() int64 {
	return s.Clock.Micros(s.TickLength)
}

// NoteEvents returns the number of note events across all tracks
func (s *Sequence) NoteEvents() int {
	n := 0
	for _, t := range s.Tracks {
		n += len(t)
	}
	return n
}

// ReadFile loads the SMF at path
func ReadFile(path string) (*Sequence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read midi file: %w", err)
	}
	return Read(bytes.NewReader(data))
}

// Read parses an SMF stream. gomidi can panic on truncated input, those
// panics come back as ErrInvalidFile.
func Read(r io.Reader) (seq *Sequence, err error) {
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if rec := recover(); rec != nil {
			seq = nil
			err = fmt.Errorf("%w: %v", ErrInvalidFile, rec)
		}
	}()

	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	return FromSMF(s)
}

// FromSMF extracts note events and the tempo map from a parsed SMF
func FromSMF(s *smf.SMF) (*Sequence, error) {
	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedTimeFormat, s.TimeFormat)
	}

	var tempos []Tempo
	for _, tc := range s.TempoChanges() {
		tempos = append(tempos, Tempo{Tick: tc.AbsTicks, BPM: tc.BPM})
	}
	clock, err := NewClock(uint16(ticks), tempos)
	if err != nil {
		return nil, err
	}

	seq := &Sequence{Clock: clock}
	for _, track := range s.Tracks {
		var absTicks int64
		events := make([]Event, 0, len(track))
		for _, ev := range track {
			absTicks += int64(ev.Delta)
			var channel, key, velocity uint8
			switch {
			case ev.Message.GetNoteOn(&channel, &key, &velocity):
				events = append(events, Event{Tick: absTicks, Command: NoteOn, Channel: channel, Pitch: int(key), Velocity: velocity})
			case ev.Message.GetNoteOff(&channel, &key, &velocity):
				events = append(events, Event{Tick: absTicks, Command: NoteOff, Channel: channel, Pitch: int(key), Velocity: velocity})
			}
		}
		if absTicks > seq.TickLength {
			seq.TickLength = absTicks
		}
		seq.Tracks = append(seq.Tracks, events)
	}

	return seq, nil
}

// ToSMF encodes tracks as an SMF. Tempo changes go into the first track. Used
// by the notes command to write a cleaned-up copy and by tests to build
// fixtures.
func ToSMF(resolution uint16, tempos []Tempo, tracks [][]Event) *smf.SMF {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(resolution)

	for i, events := range tracks {
		var track smf.Track
		var last int64
		pending := tempos
		if i > 0 {
			pending = nil
		}
		addTempos := func(upTo int64) {
			for len(pending) > 0 && pending[0].Tick <= upTo {
				track.Add(uint32(pending[0].Tick-last), smf.MetaTempo(pending[0].BPM))
				last = pending[0].Tick
				pending = pending[1:]
			}
		}

		for _, e := range events {
			msg, ok := e.Message()
			if !ok {
				continue
			}
			addTempos(e.Tick)
			track.Add(uint32(e.Tick-last), msg)
			last = e.Tick
		}
		if len(pending) > 0 {
			addTempos(pending[len(pending)-1].Tick)
		}
		track.Close(0)
		s.Add(track)
	}
	return s
}
