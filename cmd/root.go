package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-midiviz/config"
	"go-midiviz/debug"
	"go-midiviz/theme"
)

var (
	cfgFile       string
	debugLog      bool
	noteOffset    int
	ticksPerPixel int

	cfg *config.Config
	th  *theme.Theme
)

var rootCmd = &cobra.Command{
	Use:   "go-midiviz",
	Short: "Piano-roll MIDI visualizer",
	Long: `go-midiviz plays MIDI files as falling notes over an 88-key keyboard,
in the terminal or exported frame by frame to video.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		debug.Disable()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default ~/.config/go-midiviz/config.json)")
	flags.BoolVar(&debugLog, "debug", false, "write a debug log to ~/.config/go-midiviz/debug.log")
	flags.IntVar(&noteOffset, "offset", 0, "added to every MIDI pitch before mapping to keys (overrides config)")
	flags.IntVar(&ticksPerPixel, "ticks-per-pixel", 0, "falling speed, lower is faster (overrides config)")
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

// setup loads the config, applies flag overrides and builds the theme
func setup(cmd *cobra.Command, args []string) error {
	if debugLog {
		if err := debug.Enable(""); err != nil {
			return fmt.Errorf("enable debug log: %w", err)
		}
	}

	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFile(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("offset") {
		cfg.NoteOffset = noteOffset
	}
	if flags.Changed("ticks-per-pixel") {
		cfg.TicksPerPixel = ticksPerPixel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	th, err = cfg.Theme(theme.DefaultPalette())
	if err != nil {
		return err
	}
	debug.Log("cmd", "%s: offset=%d tpp=%d", cmd.Name(), cfg.NoteOffset, cfg.TicksPerPixel)
	return nil
}
