package sequencer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go-midiviz/debug"
	"go-midiviz/midi"
)

// DefaultSampleInterval is how often a running LivePlayer asks for a redraw
const DefaultSampleInterval = 4 * time.Millisecond

// LivePlayer drives interactive playback: a Transport replays the events and
// reports them through HandleEvent, a sampling task requests redraws and stops
// playback once the position passes the last note.
type LivePlayer struct {
	mu        sync.Mutex // guards Start/Pause/Stop/Restart and task
	notes     Timeline
	transport Transport
	active    ActiveTable
	paused    atomic.Bool

	interval time.Duration
	redraw   func()
	task     *samplingTask
}

// samplingTask is the handle of one sampling run. A task only stops the
// player while it is still the current one.
type samplingTask struct {
	cancel context.CancelFunc
	done   chan struct{}
}

type Option func(*LivePlayer)

// WithSampleInterval sets the redraw sampling period
func WithSampleInterval(d time.Duration) Option {
	return func(p *LivePlayer) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithRedraw sets the hook called on every sample and state change. State
// changes call it with the player's lock held, so it must not call
// Start/Pause/Stop/Restart.
func WithRedraw(fn func()) Option {
	return func(p *LivePlayer) {
		p.redraw = fn
	}
}

// NewLivePlayer creates a paused player. The transport must deliver its
// events to HandleEvent.
func NewLivePlayer(notes Timeline, transport Transport, opts ...Option) *LivePlayer {
	p := &LivePlayer{
		notes:     notes,
		transport: transport,
		interval:  DefaultSampleInterval,
		redraw:    func() {},
	}
	p.paused.Store(true)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewLive builds the timeline and a ClockTransport for seq and returns a
// paused player over them. output may be nil.
func NewLive(seq *midi.Sequence, noteOffset int, output midi.Sender, opts ...Option) *LivePlayer {
	p := NewLivePlayer(BuildTimeline(seq.Tracks, noteOffset), nil, opts...)
	var topts []TransportOption
	if output != nil {
		topts = append(topts, WithOutput(output, noteOffset))
	}
	p.transport = NewClockTransport(seq.Clock, PlaybackEvents(seq.Tracks, noteOffset), p.HandleEvent, topts...)
	return p
}

// HandleEvent updates the active table from a transport event. Pitches are
// already offset-adjusted.
func (p *LivePlayer) HandleEvent(e midi.Event) {
	key := e.Pitch - 1
	if key < 0 || key >= NoteCount {
		return
	}
	switch e.Command {
	case midi.NoteOn:
		p.active.Set(key, e.Channel)
	case midi.NoteOff:
		p.active.Clear(key)
	}
}

// Start begins or resumes playback. It does nothing when already playing,
// when there are no notes, or when the position is past the last note.
func (p *LivePlayer) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.paused.Load() || len(p.notes) == 0 {
		return
	}
	if tick := p.transport.Tick(); tick > p.notes.LastEnd() {
		debug.Log("live", "start ignored: tick=%d past end=%d", tick, p.notes.LastEnd())
		return
	}

	p.paused.Store(false)
	p.transport.Start()
	p.redraw()

	ctx, cancel := context.WithCancel(context.Background())
	task := &samplingTask{cancel: cancel, done: make(chan struct{})}
	p.task = task
	go p.sample(ctx, task)
}

// Pause stops playback, keeping the position
func (p *LivePlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.paused.Load() {
		return
	}
	p.stopLocked()
}

// Stop halts playback and the sampling task
func (p *LivePlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// Restart stops playback, rewinds to tick 0 and clears the active table
func (p *LivePlayer) Restart() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.transport.Seek(0)
	p.active.Reset()
	p.redraw()
}

// Toggle starts a paused player and pauses a running one
func (p *LivePlayer) Toggle() {
	if p.paused.Load() {
		p.Start()
	} else {
		p.Pause()
	}
}

func (p *LivePlayer) stopLocked() {
	p.paused.Store(true)
	p.transport.Stop()
	if p.task != nil {
		p.task.cancel()
		p.task = nil
	}
	p.redraw()
}

func (p *LivePlayer) sample(ctx context.Context, task *samplingTask) {
	defer close(task.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		p.redraw()
		if p.transport.Tick() > p.notes.LastEnd() {
			p.finish(task)
			return
		}
	}
}

// finish stops the player on behalf of task, unless a newer run replaced it
func (p *LivePlayer) finish(task *samplingTask) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.task != task {
		return
	}
	debug.Log("live", "reached end tick=%d", p.notes.LastEnd())
	p.stopLocked()
}

// Channel implements PlaybackState
func (p *LivePlayer) Channel(key int) (uint8, bool) {
	return p.active.Get(key)
}

// Notes implements PlaybackState
func (p *LivePlayer) Notes() Timeline {
	return p.notes
}

// Tick implements PlaybackState
func (p *LivePlayer) Tick() int64 {
	return p.transport.Tick()
}

// Paused implements PlaybackState
func (p *LivePlayer) Paused() bool {
	return p.paused.Load()
}

// Sounding returns the number of keys currently held
func (p *LivePlayer) Sounding() int {
	return p.active.Count()
}
