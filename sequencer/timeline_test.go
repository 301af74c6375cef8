package sequencer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-midiviz/midi"
)

func on(tick int64, ch uint8, pitch int) midi.Event {
	return midi.Event{Tick: tick, Command: midi.NoteOn, Channel: ch, Pitch: pitch, Velocity: 100}
}

func off(tick int64, ch uint8, pitch int) midi.Event {
	return midi.Event{Tick: tick, Command: midi.NoteOff, Channel: ch, Pitch: pitch}
}

func mustNote(t *testing.T, ch uint8, pitch int, start, end int64) Note {
	t.Helper()
	n, err := NewNote(ch, pitch, start, end)
	require.NoError(t, err)
	return n
}

func TestNewNoteRejectsPitchOutsideKeyboard(t *testing.T) {
	for _, pitch := range []int{-5, 0, 89, 127} {
		_, err := NewNote(0, pitch, 0, 10)
		assert.ErrorIs(t, err, ErrPitchOutOfRange, "pitch %d", pitch)
	}

	n, err := NewNote(3, 88, 10, 5)
	require.NoError(t, err)
	assert.Equal(t, 87, n.Key())
	assert.Equal(t, int64(-5), n.Duration())
}

func TestBuildTimelinePairsOnAndOff(t *testing.T) {
	tracks := [][]midi.Event{{
		on(0, 2, 60), on(10, 1, 64), off(100, 2, 60), off(120, 1, 64),
	}}

	notes := BuildTimeline(tracks, -20)

	assert.Equal(t, Timeline{
		mustNote(t, 2, 40, 0, 100),
		mustNote(t, 1, 44, 10, 120),
	}, notes)
	assert.Equal(t, int64(120), notes.LastEnd())
}

func TestBuildTimelineDropsDanglingOn(t *testing.T) {
	tracks := [][]midi.Event{{on(0, 0, 60), on(5, 0, 62), off(50, 0, 62)}}

	notes := BuildTimeline(tracks, 0)

	require.Len(t, notes, 1)
	assert.Equal(t, 62, notes[0].Pitch())
}

func TestBuildTimelineIgnoresDanglingOff(t *testing.T) {
	tracks := [][]midi.Event{{
		on(0, 0, 60),
		off(10, 0, 61), // never opened
		off(15, 1, 60), // other channel
		off(20, 0, 60),
	}}

	notes := BuildTimeline(tracks, 0)

	assert.Equal(t, Timeline{mustNote(t, 0, 60, 0, 20)}, notes)
}

func TestBuildTimelineCollidingOnClosesWithoutReopening(t *testing.T) {
	tracks := [][]midi.Event{{on(0, 0, 60), on(100, 0, 60), off(200, 0, 60)}}

	notes := BuildTimeline(tracks, 0)

	assert.Equal(t, Timeline{mustNote(t, 0, 60, 0, 100)}, notes)
}

func TestBuildTimelineDoesNotCarryOpenNotesAcrossTracks(t *testing.T) {
	tracks := [][]midi.Event{
		{on(0, 0, 60)},
		{off(50, 0, 60)},
	}

	assert.Empty(t, BuildTimeline(tracks, 0))
}

func TestBuildTimelineDiscardsPitchesOutsideKeyboard(t *testing.T) {
	tracks := [][]midi.Event{{
		on(0, 0, 20), off(10, 0, 20), // offset to 0
		on(0, 0, 21), off(10, 0, 21), // A0
		on(0, 0, 109), off(10, 0, 109), // offset to 89
		on(0, 0, 127), off(10, 0, 127), // offset beyond 127
	}}

	notes := BuildTimeline(tracks, -20)

	require.Len(t, notes, 1)
	assert.Equal(t, 0, notes[0].Key())
}

func TestBuildTimelineSortsStablyByEnd(t *testing.T) {
	tracks := [][]midi.Event{
		{on(0, 0, 50), off(300, 0, 50), on(0, 0, 51), off(100, 0, 51)},
		{on(10, 1, 52), off(100, 1, 52), on(0, 1, 53), off(200, 1, 53)},
	}

	notes := BuildTimeline(tracks, 0)

	require.Len(t, notes, 4)
	for i := 1; i < len(notes); i++ {
		assert.LessOrEqual(t, notes[i-1].End(), notes[i].End())
	}
	// equal ends keep arrival order
	assert.Equal(t, 51, notes[0].Pitch())
	assert.Equal(t, 52, notes[1].Pitch())
	assert.Equal(t, int64(300), notes.LastEnd())
}

func TestTimelineChannels(t *testing.T) {
	notes := Timeline{mustNote(t, 0, 1, 0, 1), mustNote(t, 9, 2, 0, 1)}
	used := notes.Channels()
	assert.True(t, used[0])
	assert.True(t, used[9])
	assert.False(t, used[1])
}

func TestPlaybackEventsMergesAndRewritesCollisions(t *testing.T) {
	tracks := [][]midi.Event{
		{on(0, 0, 60), on(100, 0, 60), off(200, 0, 60)},
		{on(50, 1, 64), off(150, 1, 64), on(10, 1, 200)},
	}

	events := PlaybackEvents(tracks, -20)

	require.Len(t, events, 5)
	ticks := make([]int64, len(events))
	for i, e := range events {
		ticks[i] = e.Tick
	}
	assert.Equal(t, []int64{0, 50, 100, 150, 200}, ticks)
	assert.Equal(t, 40, events[0].Pitch)
	assert.Equal(t, midi.NoteOff, events[2].Command)
	assert.Equal(t, midi.NoteOff, events[4].Command)
}
