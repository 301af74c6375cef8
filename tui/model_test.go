package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-midiviz/config"
	"go-midiviz/export"
	"go-midiviz/midi"
	"go-midiviz/piano"
	"go-midiviz/sequencer"
	"go-midiviz/theme"
)

func testSession(t *testing.T, path string, updates chan struct{}) *Session {
	t.Helper()
	clock, err := midi.NewClock(480, nil)
	require.NoError(t, err)
	seq := &midi.Sequence{
		Tracks: [][]midi.Event{{
			{Tick: 0, Command: midi.NoteOn, Channel: 0, Pitch: 60, Velocity: 90},
			{Tick: 960, Command: midi.NoteOff, Channel: 0, Pitch: 60},
		}},
		Clock:      clock,
		TickLength: 960,
	}
	player := sequencer.NewLive(seq, -20, nil, sequencer.WithRedraw(Notifier(updates)), sequencer.WithSampleInterval(time.Hour))
	t.Cleanup(player.Stop)
	return &Session{Path: path, Seq: seq, Player: player}
}

func testModel(t *testing.T) Model {
	t.Helper()
	updates := make(chan struct{}, 1)
	th := theme.New(theme.DefaultPalette())
	return NewModel(testSession(t, "/tmp/song.mid", updates), config.DefaultConfig(), th, piano.New(th, 10), export.OpenPNG, nil, updates)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestSpaceTogglesPlayback(t *testing.T) {
	m := testModel(t)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeySpace})
	m = next.(Model)
	assert.False(t, m.Session.Player.Paused())

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace})
	m = next.(Model)
	assert.True(t, m.Session.Player.Paused())
}

func TestRestartRewinds(t *testing.T) {
	m := testModel(t)
	m.Session.Player.Start()

	next, _ := m.Update(runes("w"))
	m = next.(Model)

	assert.True(t, m.Session.Player.Paused())
	assert.Equal(t, int64(0), m.Session.Player.Tick())
	assert.Equal(t, 0, m.Session.Player.Sounding())
}

func TestFailedReloadKeepsSession(t *testing.T) {
	m := testModel(t)
	old := m.Session

	next, _ := m.Update(reloadedMsg{err: errors.New("truncated file")})
	m = next.(Model)

	assert.Same(t, old, m.Session)
	assert.ErrorContains(t, m.err, "truncated file")
	assert.Contains(t, m.View(), "truncated file")
}

func TestReloadSwapsSession(t *testing.T) {
	m := testModel(t)
	fresh := testSession(t, "/tmp/other.mid", m.Updates)

	next, _ := m.Update(reloadedMsg{session: fresh})
	m = next.(Model)

	assert.Same(t, fresh, m.Session)
	assert.Contains(t, m.View(), "other.mid")
}

func TestExportDoneReportsSummary(t *testing.T) {
	m := testModel(t)
	m.job = &exportJob{}

	next, _ := m.Update(exportDoneMsg{res: export.Result{Frames: 3, Canceled: true}})
	m = next.(Model)

	assert.Nil(t, m.job)
	assert.Contains(t, m.View(), "export cancelled after 3 frames")
}

func TestViewShowsFileAndHelp(t *testing.T) {
	m := testModel(t)
	view := m.View()
	assert.Contains(t, view, "song.mid")
	assert.Contains(t, view, "space:play/pause")
	assert.Contains(t, view, "notes 1")
}

func TestQuitStopsPlayer(t *testing.T) {
	m := testModel(t)
	m.Session.Player.Start()

	next, cmd := m.Update(runes("q"))

	assert.True(t, next.(Model).Session.Player.Paused())
	assert.Equal(t, tea.Quit(), cmd())
	assert.Empty(t, next.(Model).View())
}

func TestPortEventShowsStatus(t *testing.T) {
	m := testModel(t)
	ports := make(chan midi.PortEvent, 1)
	m.Ports = ports

	next, cmd := m.Update(portMsg{ev: midi.PortEvent{Type: midi.PortDisconnected, Name: "Synth A"}, ok: true})
	m = next.(Model)
	assert.Contains(t, m.View(), "port Synth A disconnected")
	require.NotNil(t, cmd)

	close(ports)
	assert.Equal(t, portMsg{}, cmd())
}

func TestHelpToggle(t *testing.T) {
	m := testModel(t)
	assert.Contains(t, m.View(), "?:help")

	next, _ := m.Update(runes("?"))
	m = next.(Model)
	view := m.View()
	assert.Contains(t, view, "Transport")
	assert.Contains(t, view, "rewind to the start")
	assert.NotContains(t, view, "?:help")

	next, _ = m.Update(runes("?"))
	assert.Contains(t, next.(Model).View(), "?:help")
}
