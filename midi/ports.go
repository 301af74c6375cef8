package midi

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

var (
	ErrPortTimeout  = errors.New("midi: port scan timed out")
	ErrPortNotFound = errors.New("midi: output port not found")
)

// Sender forwards a message to an output port
type Sender func(gomidi.Message) error

// OutPorts lists output port names. Some backends (CoreMIDI) can hang, so the
// scan gives up after timeout.
func OutPorts(timeout time.Duration) ([]string, error) {
	ch := make(chan []drivers.Out, 1)
	go func() {
		ch <- gomidi.GetOutPorts()
	}()

	select {
	case outs := <-ch:
		names := make([]string, len(outs))
		for i, out := range outs {
			names[i] = out.String()
		}
		return names, nil
	case <-time.After(timeout):
		return nil, ErrPortTimeout
	}
}

// OpenOutput opens the first output port whose name contains name
// (case-insensitive)
func OpenOutput(name string) (Sender, error) {
	want := strings.ToLower(name)
	for _, port := range gomidi.GetOutPorts() {
		if strings.Contains(strings.ToLower(port.String()), want) {
			send, err := gomidi.SendTo(port)
			if err != nil {
				return nil, fmt.Errorf("open output %q: %w", port.String(), err)
			}
			return send, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrPortNotFound, name)
}

// Outputs caches opened senders by port name
type Outputs struct {
	mu      sync.RWMutex
	senders map[string]Sender
	open    func(string) (Sender, error)
}

func NewOutputs() *Outputs {
	return &Outputs{
		senders: make(map[string]Sender),
		open:    OpenOutput,
	}
}

// Get returns a sender for portName, lazily opening it
func (o *Outputs) Get(portName string) (Sender, error) {
	if portName == "" {
		return nil, nil
	}

	o.mu.RLock()
	if sender, ok := o.senders[portName]; ok {
		o.mu.RUnlock()
		return sender, nil
	}
	o.mu.RUnlock()

	o.mu.Lock()
	defer o.mu.Unlock()

	// Double-check after acquiring write lock
	if sender, ok := o.senders[portName]; ok {
		return sender, nil
	}

	sender, err := o.open(portName)
	if err != nil {
		return nil, err
	}
	o.senders[portName] = sender
	return sender, nil
}

// AllNotesOff silences every channel on sender
func AllNotesOff(send Sender) {
	if send == nil {
		return
	}
	for ch := uint8(0); ch < Channels; ch++ {
		send(gomidi.ControlChange(ch, 123, 0))
	}
}

// CloseDriver releases the registered MIDI driver
func CloseDriver() {
	gomidi.CloseDriver()
}
