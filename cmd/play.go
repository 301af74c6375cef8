package cmd

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"go-midiviz/export"
	"go-midiviz/midi"
	"go-midiviz/piano"
	"go-midiviz/tui"
)

var playPort string

func init() {
	playCmd.Flags().StringVarP(&playPort, "port", "p", "", "MIDI output port to play through (overrides config)")
	rootCmd.AddCommand(playCmd)
}

var playCmd = &cobra.Command{
	Use:   "play FILE",
	Short: "Play a MIDI file in the terminal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defer midi.CloseDriver()

		port := cfg.OutputPort
		if cmd.Flags().Changed("port") {
			port = playPort
		}
		output, err := midi.NewOutputs().Get(port)
		if err != nil {
			return err
		}

		updates := make(chan struct{}, 1)
		session, err := loadSession(args[0], output, tui.Notifier(updates))
		if err != nil {
			return err
		}
		defer session.Player.Stop()

		painter := piano.New(th, cfg.TicksPerPixel)
		encoder := export.FFmpeg{Codec: cfg.Export.Codec}
		load := func(path string, redraw func()) (*tui.Session, error) {
			return loadSession(path, output, redraw)
		}

		m := tui.NewModel(session, cfg, th, painter, encoder.Open, load, updates)
		if port != "" {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			watcher := midi.NewPortWatcher()
			go watcher.Run(ctx)
			m.Ports = watcher.Events()
		}
		_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
		return err
	},
}
