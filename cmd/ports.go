package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	gomidi "gitlab.com/gomidi/midi/v2"

	"go-midiviz/midi"
)

const portScanTimeout = 3 * time.Second

var portsWatch bool

func init() {
	portsCmd.Flags().BoolVarP(&portsWatch, "watch", "w", false, "keep running and report ports as they are plugged in or removed")
	portsCmd.AddCommand(portsTestCmd)
	rootCmd.AddCommand(portsCmd)
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI output ports",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer midi.CloseDriver()

		out := cmd.OutOrStdout()
		if portsWatch {
			return watchPorts(cmd)
		}
		names, err := midi.OutPorts(portScanTimeout)
		if errors.Is(err, midi.ErrPortTimeout) {
			fmt.Fprintln(out, "TIMEOUT! The MIDI backend is hung.")
			fmt.Fprintln(out, "Fix (macOS): sudo killall coreaudiod midiserver")
			return err
		}
		if err != nil {
			return err
		}

		fmt.Fprintln(out, "=== MIDI Output Ports ===")
		if len(names) == 0 {
			fmt.Fprintln(out, "  (none)")
		}
		for i, name := range names {
			fmt.Fprintf(out, "  %d: %s\n", i, name)
		}
		return nil
	},
}

var portsTestCmd = &cobra.Command{
	Use:   "test PORT",
	Short: "Play a short scale on a port to check it is audible",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defer midi.CloseDriver()

		send, err := midi.OpenOutput(args[0])
		if err != nil {
			return err
		}
		defer midi.AllNotesOff(send)

		for _, note := range []uint8{60, 62, 64, 65, 67, 69, 71, 72} {
			if err := send(gomidi.NoteOn(0, note, 100)); err != nil {
				return err
			}
			time.Sleep(150 * time.Millisecond)
			send(gomidi.NoteOff(0, note))
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Done")
		return nil
	},
}

func watchPorts(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Watching MIDI output ports (ctrl+c to stop)")

	w := midi.NewPortWatcher()
	go w.Run(ctx)
	for ev := range w.Events() {
		fmt.Fprintf(out, "  %s %s\n", ev.Type, ev.Name)
	}
	fmt.Fprintf(out, "%d ports connected: %s\n", len(w.Ports()), strings.Join(w.Ports(), ", "))
	return nil
}
