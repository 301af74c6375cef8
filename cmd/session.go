package cmd

import (
	"fmt"
	"time"

	"go-midiviz/debug"
	"go-midiviz/midi"
	"go-midiviz/sequencer"
	"go-midiviz/tui"
)

// loadSession reads path and builds a paused live player for it. Nothing is
// shared with a previous session, so a failed load leaves the caller's
// session intact.
func loadSession(path string, output midi.Sender, redraw func()) (*tui.Session, error) {
	seq, err := midi.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	player := sequencer.NewLive(seq, cfg.NoteOffset, output,
		sequencer.WithRedraw(redraw),
		sequencer.WithSampleInterval(time.Duration(cfg.SampleIntervalMs)*time.Millisecond),
	)
	debug.Log("cmd", "loaded %s: %d tracks, %d events, %d notes",
		path, len(seq.Tracks), seq.NoteEvents(), len(player.Notes()))
	return &tui.Session{Path: path, Seq: seq, Player: player}, nil
}
