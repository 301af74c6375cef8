package sequencer

import (
	"runtime"
	"sort"
	"sync"
	"time"

	"go-midiviz/debug"
	"go-midiviz/midi"
)

// Transport is the clock-driven event source behind a LivePlayer. It replays
// note events at their wall-clock times and reports its tick position.
type Transport interface {
	Start()
	Stop()
	Tick() int64
	Seek(tick int64)
}

// maxWait bounds how long the dispatch loop sleeps so a Seek while running is
// picked up promptly even without an interrupt.
const maxWait = 50 * time.Millisecond

// ClockTransport dispatches a tick-ordered event stream in real time using a
// sequence's tempo map. Every dispatched event goes to the sink and, when an
// output is attached, to a MIDI port.
type ClockTransport struct {
	clock  *midi.Clock
	events []midi.Event
	sink   func(midi.Event)
	now    func() time.Time

	output     midi.Sender
	noteOffset int

	mu         sync.Mutex
	running    bool
	next       int   // index of the next event to dispatch
	baseTick   int64 // position when stopped, or at the last start/seek
	baseMicros int64
	started    time.Time

	stopChan      chan struct{}
	done          chan struct{}
	interruptChan chan struct{}
}

type TransportOption func(*ClockTransport)

// WithOutput also sends dispatched events to a MIDI port. noteOffset is
// removed again so the port hears the file's own pitches.
func WithOutput(send midi.Sender, noteOffset int) TransportOption {
	return func(t *ClockTransport) {
		t.output = send
		t.noteOffset = noteOffset
	}
}

// WithTimeSource replaces time.Now
func WithTimeSource(now func() time.Time) TransportOption {
	return func(t *ClockTransport) {
		t.now = now
	}
}

// NewClockTransport creates a stopped transport at tick 0. events must be
// sorted by tick (PlaybackEvents output is).
func NewClockTransport(clock *midi.Clock, events []midi.Event, sink func(midi.Event), opts ...TransportOption) *ClockTransport {
	t := &ClockTransport{
		clock:         clock,
		events:        events,
		sink:          sink,
		now:           time.Now,
		interruptChan: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start resumes dispatch from the current position
func (t *ClockTransport) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return
	}

	t.running = true
	t.started = t.now()
	t.baseMicros = t.clock.Micros(t.baseTick)
	t.stopChan = make(chan struct{})
	t.done = make(chan struct{})
	debug.Log("transport", "start tick=%d next=%d/%d", t.baseTick, t.next, len(t.events))
	go t.run(t.stopChan, t.done)
}

// Stop freezes the position and waits for the dispatch loop to exit. Events
// up to the frozen position are delivered before Stop returns.
func (t *ClockTransport) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.baseTick = t.tickLocked()
	t.running = false
	close(t.stopChan)
	done := t.done
	t.mu.Unlock()

	<-done
	t.flush(t.baseTick)
	midi.AllNotesOff(t.output)
	debug.Log("transport", "stop tick=%d", t.baseTick)
}

// Tick returns the current position
func (t *ClockTransport) Tick() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tickLocked()
}

func (t *ClockTransport) tickLocked() int64 {
	if !t.running {
		return t.baseTick
	}
	elapsed := t.now().Sub(t.started).Microseconds()
	return max(t.baseTick, t.clock.Tick(t.baseMicros+elapsed))
}

// Seek moves the position. Events before tick are skipped, events at tick are
// delivered on the next dispatch.
func (t *ClockTransport) Seek(tick int64) {
	t.mu.Lock()
	tick = max(tick, 0)
	t.baseTick = tick
	t.next = sort.Search(len(t.events), func(i int) bool {
		return t.events[i].Tick >= tick
	})
	if t.running {
		t.started = t.now()
		t.baseMicros = t.clock.Micros(tick)
	}
	t.mu.Unlock()

	select {
	case t.interruptChan <- struct{}{}:
	default:
	}
}

// run is the dispatch loop: deliver what is due, then sleep until the next
// event, a seek, or stop.
func (t *ClockTransport) run(stop <-chan struct{}, done chan<- struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(done)

	for {
		t.dispatch()

		timer := time.NewTimer(t.untilNext())
		select {
		case <-stop:
			timer.Stop()
			return
		case <-t.interruptChan:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// dispatch delivers every pending event at or before the current position
func (t *ClockTransport) dispatch() {
	t.mu.Lock()
	current := t.tickLocked()
	due := t.takeLocked(current)
	t.mu.Unlock()

	for _, e := range due {
		t.emit(e)
	}
}

func (t *ClockTransport) flush(tick int64) {
	t.mu.Lock()
	due := t.takeLocked(tick)
	t.mu.Unlock()

	for _, e := range due {
		t.emit(e)
	}
}

func (t *ClockTransport) takeLocked(tick int64) []midi.Event {
	start := t.next
	for t.next < len(t.events) && t.events[t.next].Tick <= tick {
		t.next++
	}
	return t.events[start:t.next]
}

// untilNext returns the wall time until the next pending event, capped at
// maxWait
func (t *ClockTransport) untilNext() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.next >= len(t.events) || !t.running {
		return maxWait
	}
	eventMicros := t.clock.Micros(t.events[t.next].Tick)
	elapsed := t.baseMicros + t.now().Sub(t.started).Microseconds()
	wait := time.Duration(eventMicros-elapsed) * time.Microsecond
	return min(max(wait, 0), maxWait)
}

func (t *ClockTransport) emit(e midi.Event) {
	debug.LogEvery(100, "transport", "dispatch tick=%d %s ch=%d pitch=%d", e.Tick, e.Command, e.Channel, e.Pitch)
	if t.sink != nil {
		t.sink(e)
	}
	if t.output == nil {
		return
	}

	out := e
	out.Pitch -= t.noteOffset
	msg, ok := out.Message()
	if !ok {
		return
	}
	if err := t.output(msg); err != nil {
		debug.Log("transport", "send tick=%d %s: %v", e.Tick, e.Command, err)
	}
}
