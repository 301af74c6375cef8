package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-midiviz/piano"
	"go-midiviz/sequencer"
	"go-midiviz/theme"
)

// RenderKeyboard renders the 88 keys as two terminal rows, one cell per white
// key. The upper row carries the black key that follows each white key. Held
// keys take their channel color. state may be nil.
func RenderKeyboard(state sequencer.PlaybackState, th *theme.Theme) string {
	idleWhite := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.KeyboardGray.Hex()))
	idleBlack := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.BlackKey.Hex()))

	held := func(key int) (lipgloss.Style, bool) {
		if state == nil {
			return lipgloss.Style{}, false
		}
		ch, ok := state.Channel(key)
		if !ok {
			return lipgloss.Style{}, false
		}
		return lipgloss.NewStyle().Foreground(th.ChannelColor(ch)), true
	}

	var upper, lower strings.Builder
	for i := 0; i < piano.WhiteKeys; i++ {
		key := piano.WhiteKeyToNote(i)

		if style, ok := held(key); ok {
			lower.WriteString(style.Render(string(th.Symbols.Held)))
		} else {
			lower.WriteString(idleWhite.Render(string(th.Symbols.WhiteKey)))
		}

		black := key + 1
		if black >= sequencer.NoteCount || piano.IsWhite(black) {
			upper.WriteString(idleWhite.Render(string(th.Symbols.WhiteKey)))
			continue
		}
		if style, ok := held(black); ok {
			upper.WriteString(style.Render(string(th.Symbols.Held)))
		} else {
			upper.WriteString(idleBlack.Render(string(th.Symbols.BlackKey)))
		}
	}

	return upper.String() + "\n" + lower.String()
}

// RenderChannelLegend shows a colored pad per used channel
func RenderChannelLegend(used [theme.Channels]bool, th *theme.Theme) string {
	var items []string
	for ch, ok := range used {
		if !ok {
			continue
		}
		items = append(items, RenderLegendItem(th.ChannelRGB(uint8(ch)), "ch", ch+1))
	}
	return strings.Join(items, " ")
}

// RenderProgress renders a bar of width cells filled to frac (0-1)
func RenderProgress(frac float64, width int, th *theme.Theme) string {
	frac = min(max(frac, 0), 1)
	filled := int(frac * float64(width))
	done := lipgloss.NewStyle().Foreground(th.Accent())
	rest := lipgloss.NewStyle().Foreground(th.Muted())
	bar := string(th.Symbols.ExportBar)
	return done.Render(strings.Repeat(bar, filled)) + rest.Render(strings.Repeat(bar, width-filled))
}
