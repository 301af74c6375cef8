package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"go-midiviz/export"
	"go-midiviz/midi"
	"go-midiviz/piano"
	"go-midiviz/sequencer"
)

var (
	exportOut    string
	exportFPS    int
	exportWidth  int
	exportHeight int
	exportCodec  string
	exportPNG    bool
)

func init() {
	flags := exportCmd.Flags()
	flags.StringVarP(&exportOut, "output", "o", "", "output path (default FILE with .mp4, or a frames directory with --png)")
	flags.IntVar(&exportFPS, "fps", 0, "frame rate (overrides config)")
	flags.IntVar(&exportWidth, "width", 0, "frame width (overrides config)")
	flags.IntVar(&exportHeight, "height", 0, "frame height (overrides config)")
	flags.StringVar(&exportCodec, "codec", "", "ffmpeg video codec (overrides config)")
	flags.BoolVar(&exportPNG, "png", false, "write numbered PNG frames instead of a video")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export FILE",
	Short: "Render a MIDI file to video",
	Long: `Render a MIDI file frame by frame and encode it with ffmpeg.
Ctrl-C cancels the export and removes the partial output.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		ec := cfg.Export
		if flags.Changed("fps") {
			ec.FPS = exportFPS
		}
		if flags.Changed("width") {
			ec.Width = exportWidth
		}
		if flags.Changed("height") {
			ec.Height = exportHeight
		}
		if flags.Changed("codec") {
			ec.Codec = exportCodec
		}

		seq, err := midi.ReadFile(args[0])
		if err != nil {
			return err
		}
		notes := sequencer.BuildTimeline(seq.Tracks, cfg.NoteOffset)

		out := exportOut
		open := export.FFmpeg{Codec: ec.Codec}.Open
		if exportPNG {
			open = export.OpenPNG
		}
		if out == "" {
			out = defaultExportPath(args[0], exportPNG)
		}

		e := &export.Exporter{
			Painter: piano.New(th, cfg.TicksPerPixel),
			Open:    open,
			FPS:     ec.FPS,
			Width:   ec.Width,
			Height:  ec.Height,
		}
		stderr := cmd.ErrOrStderr()
		report := rate.Sometimes{Interval: 500 * time.Millisecond}
		e.Progress = func(p export.Progress) {
			report.Do(func() {
				fmt.Fprintf(stderr, "\r%3.0f%%  frame %s of ~%s", p.Fraction()*100,
					humanize.Comma(int64(p.Frame)), humanize.Comma(int64(p.Total)))
			})
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		player := sequencer.NewRenderingPlayer(notes, seq.Clock, ec.FPS)
		res, err := e.Run(ctx, player, out)
		fmt.Fprintln(stderr)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.Summary())
		return nil
	},
}

func defaultExportPath(in string, png bool) string {
	base := strings.TrimSuffix(in, filepath.Ext(in))
	if png {
		return base + "-frames"
	}
	return base + ".mp4"
}
