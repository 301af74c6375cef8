package theme

import (
	"github.com/charmbracelet/lipgloss"
)

// Channels is the number of MIDI channels with their own color
const Channels = 16

var (
	DefaultBackground = RGB{44, 44, 44}
	// KeyboardGray is the body color of the keyboard, white keys included
	KeyboardGray = RGB{191, 191, 191}
	BlackKey     = RGB{20, 20, 20}
)

// DefaultChannelColors returns cyan and red for the first two channels and
// blue for the rest
func DefaultChannelColors() [Channels]RGB {
	var colors [Channels]RGB
	for i := range colors {
		colors[i] = RGB{0, 0, 255}
	}
	colors[0] = RGB{0x41, 0xfc, 0xfd}
	colors[1] = RGB{0xbe, 0x03, 0x02}
	return colors
}

type Theme struct {
	Palette    *Palette
	Symbols    Symbols
	Background RGB
	Channels   [Channels]RGB
}

type Symbols struct {
	Playing rune // ▶ transport running
	Paused  rune // ‖ transport paused

	// Keyboard strip
	WhiteKey  rune // █ idle white key
	BlackKey  rune // ▀ idle black key, upper half only
	Held      rune // █ key sounding
	ExportBar rune // ━ progress fill
}

func New(palette *Palette) *Theme {
	return &Theme{
		Palette:    palette,
		Background: DefaultBackground,
		Channels:   DefaultChannelColors(),
		Symbols: Symbols{
			Playing: '▶',
			Paused:  '‖',

			WhiteKey:  '█',
			BlackKey:  '▀',
			Held:      '█',
			ExportBar: '━',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleMuted   = 0.2 // purple-magenta
	RoleAccent  = 0.5 // vivid magenta
	RoleWarning = 0.8 // orange
	RoleSuccess = 1.0 // bright yellow
)

// Style helpers

func (t *Theme) Accent() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleAccent))
}

func (t *Theme) Muted() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted))
}

func (t *Theme) Warning() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleWarning))
}

func (t *Theme) Success() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleSuccess))
}

// ChannelColor returns the lipgloss color of a MIDI channel
func (t *Theme) ChannelColor(ch uint8) lipgloss.Color {
	return rgbToLipgloss(t.ChannelRGB(ch))
}

// ChannelRGB returns the display color of a MIDI channel
func (t *Theme) ChannelRGB(ch uint8) RGB {
	if int(ch) >= Channels {
		return t.Channels[Channels-1]
	}
	return t.Channels[ch]
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(c.Hex())
}
