package sequencer

import (
	"go-midiviz/midi"
)

// RenderingPlayer steps through a timeline frame by frame for offline export.
// Time only moves when AdvanceTo is called.
type RenderingPlayer struct {
	notes  Timeline
	clock  *midi.Clock
	fps    int
	tick   int64
	grace  int64
	active ActiveTable
}

// NewRenderingPlayer creates a player at tick 0. fps determines the grace
// period of one frame after the last note.
func NewRenderingPlayer(notes Timeline, clock *midi.Clock, fps int) *RenderingPlayer {
	return &RenderingPlayer{
		notes: notes,
		clock: clock,
		fps:   fps,
		grace: clock.FrameTicks(notes.LastEnd(), fps),
	}
}

// AdvanceTo moves the position to the tick reached after micros and updates
// the active table. A note becomes active when its start falls in
// (old, new] and it is still held at new; it becomes inactive when its end
// falls in [old, new). At tick 0 notes starting at 0 are picked up first.
//
// Every call scans the whole timeline, so an export costs frames × notes.
// TODO: keep a start-sorted index next to the end-sorted timeline to make
// each step incremental for long, dense files.
func (p *RenderingPlayer) AdvanceTo(micros int64) {
	old := p.tick
	if old == 0 {
		for _, n := range p.notes {
			if n.Start() == 0 && n.End() > 0 {
				p.active.Set(n.Key(), n.Channel())
			}
		}
	}

	next := p.clock.Tick(micros)
	for _, n := range p.notes {
		switch {
		case old < n.Start() && n.Start() <= next && n.End() > next:
			p.active.Set(n.Key(), n.Channel())
		case old <= n.End() && n.End() < next:
			p.active.Clear(n.Key())
		}
	}
	p.tick = next
}

// AtEnd reports whether the position is more than one frame past the last
// note. An empty timeline is always at its end.
func (p *RenderingPlayer) AtEnd() bool {
	if len(p.notes) == 0 {
		return true
	}
	return p.tick > p.notes.LastEnd()+p.grace
}

// FrameCount estimates how many frames an export produces
func (p *RenderingPlayer) FrameCount() int {
	if p.fps <= 0 {
		return 0
	}
	if len(p.notes) == 0 {
		return 1
	}
	micros := p.clock.Micros(p.notes.LastEnd() + p.grace)
	return int(micros*int64(p.fps)/1_000_000) + 2
}

// FPS returns the frame rate the player was built for
func (p *RenderingPlayer) FPS() int {
	return p.fps
}

// Channel implements PlaybackState
func (p *RenderingPlayer) Channel(key int) (uint8, bool) {
	return p.active.Get(key)
}

// Notes implements PlaybackState
func (p *RenderingPlayer) Notes() Timeline {
	return p.notes
}

// Tick implements PlaybackState
func (p *RenderingPlayer) Tick() int64 {
	return p.tick
}

// Paused implements PlaybackState. A rendering player is never paused.
func (p *RenderingPlayer) Paused() bool {
	return false
}
