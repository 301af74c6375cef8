package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"github.com/spf13/cobra"

	"go-midiviz/midi"
	"go-midiviz/sequencer"
)

var (
	notesList      bool
	notesWrite     string
	notesTranspose int
)

func init() {
	flags := notesCmd.Flags()
	flags.BoolVarP(&notesList, "list", "l", false, "print every note")
	flags.StringVarP(&notesWrite, "write", "w", "", "write a cleaned-up copy of the file (collisions resolved, merged to one track)")
	flags.IntVar(&notesTranspose, "transpose", 0, "semitones added to the pitches of the written copy")
	rootCmd.AddCommand(notesCmd)
}

var notesCmd = &cobra.Command{
	Use:   "notes FILE",
	Short: "Summarize the notes reconstructed from a MIDI file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seq, err := midi.ReadFile(args[0])
		if err != nil {
			return err
		}
		notes := sequencer.BuildTimeline(seq.Tracks, cfg.NoteOffset)
		out := cmd.OutOrStdout()

		channels := 0
		for _, used := range notes.Channels() {
			if used {
				channels++
			}
		}
		length := time.Duration(seq.MicrosLength()) * time.Microsecond
		fmt.Fprintf(out, "%s: %s notes on %d channels from %s events, %s (%d ticks per quarter)\n",
			args[0], humanize.Comma(int64(len(notes))), channels,
			humanize.Comma(int64(seq.NoteEvents())),
			durafmt.Parse(length.Truncate(time.Millisecond)).LimitFirstN(2).String(),
			seq.Clock.Resolution())

		if notesList {
			fmt.Fprintf(out, "%4s %4s %10s %10s %8s\n", "ch", "key", "start", "end", "ticks")
			for _, n := range notes {
				fmt.Fprintf(out, "%4d %4d %10d %10d %8d\n", n.Channel()+1, n.Key(), n.Start(), n.End(), n.Duration())
			}
		}

		if notesWrite != "" {
			return writeCopy(seq, notesWrite, notesTranspose)
		}
		return nil
	},
}

// writeCopy re-encodes the playback stream as a single-track SMF with the
// original tempo map
func writeCopy(seq *midi.Sequence, path string, transpose int) error {
	events := sequencer.PlaybackEvents(seq.Tracks, transpose)
	s := midi.ToSMF(uint16(seq.Clock.Resolution()), seq.Clock.Tempos(), [][]midi.Event{events})

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := s.WriteTo(f); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
