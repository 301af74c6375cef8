package sequencer

import (
	"sync/atomic"
)

// PlaybackState is what a painter needs from a player: which channel is
// sounding each key, the notes, and the transport position.
type PlaybackState interface {
	// Channel returns the channel playing key (0..87), ok is false if none
	Channel(key int) (channel uint8, ok bool)
	Notes() Timeline
	Tick() int64
	Paused() bool
}

// IsPlaying reports whether any channel is sounding key
func IsPlaying(s PlaybackState, key int) bool {
	_, ok := s.Channel(key)
	return ok
}

// ActiveTable records per key which channel is sounding. Slots store
// channel+1 so the zero value is "all clear". Safe for one writer and any
// number of concurrent readers.
type ActiveTable struct {
	slots [NoteCount]atomic.Int32
}

// Set marks key as sounding on channel
func (t *ActiveTable) Set(key int, channel uint8) {
	if key < 0 || key >= NoteCount {
		return
	}
	t.slots[key].Store(int32(channel) + 1)
}

// Clear marks key as silent
func (t *ActiveTable) Clear(key int) {
	if key < 0 || key >= NoteCount {
		return
	}
	t.slots[key].Store(0)
}

// Get returns the channel sounding key
func (t *ActiveTable) Get(key int) (uint8, bool) {
	if key < 0 || key >= NoteCount {
		return 0, false
	}
	v := t.slots[key].Load()
	if v == 0 {
		return 0, false
	}
	return uint8(v - 1), true
}

// Reset clears every slot
func (t *ActiveTable) Reset() {
	for i := range t.slots {
		t.slots[i].Store(0)
	}
}

// Count returns the number of sounding keys
func (t *ActiveTable) Count() int {
	n := 0
	for i := range t.slots {
		if t.slots[i].Load() != 0 {
			n++
		}
	}
	return n
}
