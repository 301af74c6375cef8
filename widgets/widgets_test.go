package widgets

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-midiviz/sequencer"
	"go-midiviz/theme"
)

type heldKeys map[int]uint8

func (h heldKeys) Channel(key int) (uint8, bool) {
	ch, ok := h[key]
	return ch, ok
}
func (h heldKeys) Notes() sequencer.Timeline { return nil }
func (h heldKeys) Tick() int64               { return 0 }
func (h heldKeys) Paused() bool              { return false }

func TestRenderKeyboardShape(t *testing.T) {
	th := theme.New(theme.DefaultPalette())

	out := RenderKeyboard(heldKeys{0: 1, 1: 0}, th)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.Equal(t, 52, lipgloss.Width(line))
	}
	assert.Equal(t, out, RenderKeyboard(heldKeys{0: 1, 1: 0}, th), "rendering is deterministic")
	assert.NotPanics(t, func() { RenderKeyboard(nil, th) })
}

func TestRenderProgressWidth(t *testing.T) {
	th := theme.New(theme.DefaultPalette())
	for _, frac := range []float64{-1, 0, 0.5, 1, 3} {
		assert.Equal(t, 20, lipgloss.Width(RenderProgress(frac, 20, th)))
	}
}

func TestRenderKeyHelp(t *testing.T) {
	out := RenderKeyHelp([]KeySection{{
		Title: "Transport",
		Keys:  []KeyBinding{{"space", "play/pause"}, {"w", "restart"}},
	}})
	assert.Equal(t, "Transport\n  space        play/pause\n  w            restart", out)
	assert.Equal(t, "space:play  q:quit", RenderKeyLine([]KeyBinding{{"space", "play"}, {"q", "quit"}}))
}

func TestRenderChannelLegend(t *testing.T) {
	th := theme.New(theme.DefaultPalette())
	var used [theme.Channels]bool
	used[0], used[9] = true, true

	out := RenderChannelLegend(used, th)

	assert.Contains(t, out, "ch1")
	assert.Contains(t, out, "ch10")
	assert.NotContains(t, out, "ch2")
}
