package midi

import (
	"context"
	"sort"
	"sync"
	"time"

	"go-midiviz/debug"
)

// PortEvent is emitted when an output port appears or disappears
type PortEvent struct {
	Type PortEventType
	Name string
}

type PortEventType int

const (
	PortConnected PortEventType = iota
	PortDisconnected
)

func (t PortEventType) String() string {
	if t == PortConnected {
		return "connected"
	}
	return "disconnected"
}

// PortWatcher polls the output ports and reports hot-plug changes
type PortWatcher struct {
	known    map[string]bool
	mu       sync.RWMutex
	events   chan PortEvent
	pollRate time.Duration
	timeout  time.Duration
	scan     func(timeout time.Duration) ([]string, error)
}

// NewPortWatcher creates a watcher polling once per second
func NewPortWatcher() *PortWatcher {
	return &PortWatcher{
		known:    make(map[string]bool),
		events:   make(chan PortEvent, 16),
		pollRate: time.Second,
		timeout:  3 * time.Second,
		scan:     OutPorts,
	}
}

// Events returns a channel of port connect/disconnect events. It is closed
// when Run returns.
func (w *PortWatcher) Events() <-chan PortEvent {
	return w.events
}

// Ports returns the currently known port names, sorted
func (w *PortWatcher) Ports() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	names := make([]string, 0, len(w.known))
	for name := range w.known {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run starts the polling loop (blocking - run in goroutine)
func (w *PortWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollRate)
	defer ticker.Stop()
	defer close(w.events)

	// Initial scan
	w.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

func (w *PortWatcher) poll(ctx context.Context) {
	names, err := w.scan(w.timeout)
	if err != nil {
		// backend hung, skip this scan
		debug.Log("ports", "scan: %v", err)
		return
	}

	seen := make(map[string]bool, len(names))
	var changes []PortEvent

	w.mu.Lock()
	for _, name := range names {
		seen[name] = true
		if !w.known[name] {
			w.known[name] = true
			changes = append(changes, PortEvent{Type: PortConnected, Name: name})
		}
	}
	for name := range w.known {
		if !seen[name] {
			delete(w.known, name)
			changes = append(changes, PortEvent{Type: PortDisconnected, Name: name})
		}
	}
	w.mu.Unlock()

	for _, ev := range changes {
		debug.Log("ports", "%s %s", ev.Name, ev.Type)
		select {
		case w.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}
