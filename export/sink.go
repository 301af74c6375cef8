package export

import (
	"errors"
	"image"
	"sync"
)

var ErrSinkFinished = errors.New("export: sink already finished")

// FrameSink consumes rendered frames and produces an output artifact
type FrameSink interface {
	AddFrame(img image.Image) error
	// Finish completes the artifact
	Finish() error
	// Abort tears the sink down without completing the artifact
	Abort() error
}

// OpenFunc creates a sink writing to path
type OpenFunc func(path string, fps, width, height int) (FrameSink, error)

// guardedSink serializes sink calls and refuses frames once the sink is
// finished or aborted
type guardedSink struct {
	mu       sync.Mutex
	sink     FrameSink
	finished bool
}

// Guard wraps sink so that AddFrame after Finish or Abort fails with
// ErrSinkFinished and Finish/Abort run at most once. When Finish fails the
// inner sink is aborted before the error is returned.
func Guard(sink FrameSink) FrameSink {
	if g, ok := sink.(*guardedSink); ok {
		return g
	}
	return &guardedSink{sink: sink}
}

func (g *guardedSink) AddFrame(img image.Image) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.finished {
		return ErrSinkFinished
	}
	return g.sink.AddFrame(img)
}

func (g *guardedSink) Finish() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.finished {
		return nil
	}
	g.finished = true
	if err := g.sink.Finish(); err != nil {
		// a failed finish still has to release the encoder
		g.sink.Abort()
		return err
	}
	return nil
}

func (g *guardedSink) Abort() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.finished {
		return nil
	}
	g.finished = true
	return g.sink.Abort()
}
