package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"go-midiviz/config"
	"go-midiviz/theme"
	"go-midiviz/widgets"
)

func init() {
	colorsCmd.AddCommand(colorsSetCmd, colorsBackgroundCmd, colorsResetCmd)
	rootCmd.AddCommand(colorsCmd)
}

var colorsCmd = &cobra.Command{
	Use:   "colors",
	Short: "Show the background and channel colors",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "background %s %s\n", widgets.RenderPad(th.Background), th.Background.Hex())
		for ch := uint8(0); ch < theme.Channels; ch++ {
			c := th.ChannelRGB(ch)
			fmt.Fprintf(out, "channel %2d %s %s\n", ch+1, widgets.RenderPad(c), c.Hex())
		}
		return nil
	},
}

var colorsSetCmd = &cobra.Command{
	Use:   "set CHANNEL COLOR",
	Short: "Set the color of a channel (1-16) as #rrggbb",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ch, err := strconv.Atoi(args[0])
		if err != nil || ch < 1 || ch > theme.Channels {
			return fmt.Errorf("channel must be 1-%d, got %q", theme.Channels, args[0])
		}
		rgb, err := theme.ParseHex(args[1])
		if err != nil {
			return err
		}
		stored, err := storedConfig()
		if err != nil {
			return err
		}
		stored.SetChannelColor(ch-1, rgb)
		return saveConfig(cmd, stored, fmt.Sprintf("channel %d is now %s", ch, rgb.Hex()))
	},
}

var colorsBackgroundCmd = &cobra.Command{
	Use:   "background COLOR",
	Short: "Set the background color as #rrggbb",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rgb, err := theme.ParseHex(args[0])
		if err != nil {
			return err
		}
		stored, err := storedConfig()
		if err != nil {
			return err
		}
		stored.Colors.Background = rgb.Hex()
		return saveConfig(cmd, stored, "background is now "+rgb.Hex())
	},
}

var colorsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default colors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stored, err := storedConfig()
		if err != nil {
			return err
		}
		stored.Colors = config.DefaultConfig().Colors
		return saveConfig(cmd, stored, "colors reset to defaults")
	},
}

// storedConfig reads the config file again so flag overrides applied to cfg
// are not written back
func storedConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadFile(cfgFile)
	}
	return config.Load()
}

// saveConfig validates and writes c to --config, or the default path
func saveConfig(cmd *cobra.Command, c *config.Config, done string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	var err error
	if cfgFile != "" {
		err = c.SaveFile(cfgFile)
	} else {
		err = c.Save()
	}
	if err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), done)
	return nil
}
