package midi

import (
	"errors"
	"math"
	"sort"
)

// DefaultBPM is used until the first tempo event
const DefaultBPM = 120.0

var ErrInvalidResolution = errors.New("midi: ticks per quarter must be positive")

// Tempo is a tempo change at an absolute tick
type Tempo struct {
	Tick int64
	BPM  float64
}

type tempoSegment struct {
	tick             int64
	micros           int64
	microsPerQuarter int64
}

// Clock converts between ticks and microseconds using the sequence's own
// resolution and tempo map. Both players use the same Clock so a frame time
// maps to the same tick interactive playback reaches at that time.
type Clock struct {
	resolution int64
	segments   []tempoSegment
}

// NewClock builds a clock from the ticks-per-quarter resolution and the
// tempo changes of a sequence. Changes at the same tick keep the last one.
func NewClock(resolution uint16, tempos []Tempo) (*Clock, error) {
	if resolution == 0 {
		return nil, ErrInvalidResolution
	}

	sorted := make([]Tempo, 0, len(tempos))
	for _, t := range tempos {
		if t.BPM <= 0 || t.Tick < 0 {
			continue
		}
		sorted = append(sorted, t)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Tick < sorted[j].Tick
	})

	c := &Clock{resolution: int64(resolution)}
	c.segments = []tempoSegment{{tick: 0, micros: 0, microsPerQuarter: bpmToMicros(DefaultBPM)}}

	for _, t := range sorted {
		last := &c.segments[len(c.segments)-1]
		mpq := bpmToMicros(t.BPM)
		if t.Tick == last.tick {
			last.microsPerQuarter = mpq
			continue
		}
		c.segments = append(c.segments, tempoSegment{
			tick:             t.Tick,
			micros:           last.micros + (t.Tick-last.tick)*last.microsPerQuarter/c.resolution,
			microsPerQuarter: mpq,
		})
	}

	return c, nil
}

func bpmToMicros(bpm float64) int64 {
	return int64(math.Round(60_000_000 / bpm))
}

// Tempos returns the effective tempo map, starting with the tempo at tick 0
func (c *Clock) Tempos() []Tempo {
	tempos := make([]Tempo, len(c.segments))
	for i, s := range c.segments {
		tempos[i] = Tempo{Tick: s.tick, BPM: 60_000_000 / float64(s.microsPerQuarter)}
	}
	return tempos
}

// Resolution returns ticks per quarter note
func (c *Clock) Resolution() int64 {
	return c.resolution
}

// Micros returns the elapsed time in microseconds at tick
func (c *Clock) Micros(tick int64) int64 {
	if tick <= 0 {
		return 0
	}
	i := sort.Search(len(c.segments), func(i int) bool {
		return c.segments[i].tick > tick
	}) - 1
	s := c.segments[i]
	return s.micros + (tick-s.tick)*s.microsPerQuarter/c.resolution
}

// Tick returns the tick position reached after micros microseconds
func (c *Clock) Tick(micros int64) int64 {
	if micros <= 0 {
		return 0
	}
	i := sort.Search(len(c.segments), func(i int) bool {
		return c.segments[i].micros > micros
	}) - 1
	s := c.segments[i]
	return s.tick + (micros-s.micros)*c.resolution/s.microsPerQuarter
}

// FrameTicks returns how many ticks one frame at fps spans, starting at tick
func (c *Clock) FrameTicks(tick int64, fps int) int64 {
	if fps <= 0 {
		return 0
	}
	start := c.Micros(tick)
	return c.Tick(start+1_000_000/int64(fps)) - c.Tick(start)
}
