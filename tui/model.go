package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fogleman/gg"
	"github.com/hako/durafmt"

	"go-midiviz/config"
	"go-midiviz/debug"
	"go-midiviz/export"
	"go-midiviz/midi"
	"go-midiviz/piano"
	"go-midiviz/sequencer"
	"go-midiviz/theme"
	"go-midiviz/widgets"
)

// Session is what the TUI plays: a loaded file and its live player
type Session struct {
	Path   string
	Seq    *midi.Sequence
	Player *sequencer.LivePlayer
}

// Loader builds a new session for path. It must not touch the current one.
type Loader func(path string, redraw func()) (*Session, error)

// exportJob is a running export
type exportJob struct {
	path     string
	cancel   context.CancelFunc
	progress chan export.Progress
	done     chan exportDoneMsg
	last     export.Progress
}

type Model struct {
	Session  *Session
	Config   *config.Config
	Theme    *theme.Theme
	Painter  *piano.Painter
	Open     export.OpenFunc
	Load     Loader
	Updates  chan struct{}
	Ports    <-chan midi.PortEvent
	quitting bool

	job      *exportJob
	status   string
	err      error
	showHelp bool
}

type UpdateMsg struct{}

type exportProgressMsg export.Progress

type exportDoneMsg struct {
	res export.Result
	err error
}

type portMsg struct {
	ev midi.PortEvent
	ok bool
}

type reloadedMsg struct {
	session *Session
	err     error
}

// NewModel wires a model around a loaded session. updates must be the
// channel the session's redraw hook signals.
func NewModel(s *Session, cfg *config.Config, th *theme.Theme, painter *piano.Painter, open export.OpenFunc, load Loader, updates chan struct{}) Model {
	return Model{
		Session: s,
		Config:  cfg,
		Theme:   th,
		Painter: painter,
		Open:    open,
		Load:    load,
		Updates: updates,
	}
}

// Notifier returns a redraw hook that signals updates without blocking
func Notifier(updates chan struct{}) func() {
	return func() {
		select {
		case updates <- struct{}{}:
		default:
		}
	}
}

func ListenForUpdates(updates chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-updates
		return UpdateMsg{}
	}
}

func listenForExport(job *exportJob) tea.Cmd {
	return func() tea.Msg {
		select {
		case p := <-job.progress:
			return exportProgressMsg(p)
		case done := <-job.done:
			return done
		}
	}
}

func listenForPorts(ports <-chan midi.PortEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ports
		return portMsg{ev: ev, ok: ok}
	}
}

func (m Model) Init() tea.Cmd {
	if m.Ports != nil {
		return tea.Batch(ListenForUpdates(m.Updates), listenForPorts(m.Ports))
	}
	return ListenForUpdates(m.Updates)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg.String())

	case UpdateMsg:
		return m, ListenForUpdates(m.Updates)

	case exportProgressMsg:
		if m.job == nil {
			return m, nil
		}
		m.job.last = export.Progress(msg)
		return m, listenForExport(m.job)

	case exportDoneMsg:
		m.job = nil
		m.err = msg.err
		if msg.err == nil {
			m.status = msg.res.Summary()
		}

	case portMsg:
		if !msg.ok {
			return m, nil
		}
		m.status = fmt.Sprintf("port %s %s", msg.ev.Name, msg.ev.Type)
		return m, listenForPorts(m.Ports)

	case reloadedMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("reload: %w", msg.err)
			return m, nil
		}
		// swap only once the new session is complete
		m.Session.Player.Stop()
		m.Session = msg.session
		m.err = nil
		m.status = "reloaded " + filepath.Base(msg.session.Path)
	}

	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	player := m.Session.Player

	switch key {
	case "q", "ctrl+c":
		m.quitting = true
		if m.job != nil {
			m.job.cancel()
		}
		player.Stop()
		return m, tea.Quit

	case " ", "p":
		player.Toggle()

	case "w":
		player.Restart()

	case "e", "ctrl+e":
		if m.job == nil {
			return m.startExport()
		}

	case "esc":
		if m.job != nil {
			m.job.cancel()
		}

	case "s":
		m.snapshot()

	case "?":
		m.showHelp = !m.showHelp

	case "r", "ctrl+o":
		if m.Load != nil {
			return m, m.reload()
		}
	}
	return m, nil
}

// startExport renders the session on its own goroutine. The export uses a
// fresh RenderingPlayer, the live player keeps running.
func (m Model) startExport() (tea.Model, tea.Cmd) {
	cfg := m.Config.Export
	out := strings.TrimSuffix(m.Session.Path, filepath.Ext(m.Session.Path)) + ".mp4"
	notes := m.Session.Player.Notes()
	player := sequencer.NewRenderingPlayer(notes, m.Session.Seq.Clock, cfg.FPS)

	ctx, cancel := context.WithCancel(context.Background())
	job := &exportJob{
		path:     out,
		cancel:   cancel,
		progress: make(chan export.Progress, 1),
		done:     make(chan exportDoneMsg, 1),
	}
	exporter := &export.Exporter{
		Painter: m.Painter,
		Open:    m.Open,
		FPS:     cfg.FPS,
		Width:   cfg.Width,
		Height:  cfg.Height,
		Progress: func(p export.Progress) {
			select {
			case job.progress <- p:
			default:
			}
		},
	}

	go func() {
		defer cancel()
		res, err := exporter.Run(ctx, player, out)
		job.done <- exportDoneMsg{res: res, err: err}
	}()

	m.job = job
	m.err = nil
	m.status = "exporting " + filepath.Base(out)
	debug.Log("tui", "export started: %s", out)
	return m, listenForExport(job)
}

// snapshot paints the current live state to a PNG next to the MIDI file
func (m *Model) snapshot() {
	cfg := m.Config.Export
	img := m.Painter.Paint(m.Session.Player, cfg.Width, cfg.Height)
	out := strings.TrimSuffix(m.Session.Path, filepath.Ext(m.Session.Path)) + ".png"
	if err := gg.SavePNG(out, img); err != nil {
		m.err = fmt.Errorf("snapshot: %w", err)
		return
	}
	m.status = "saved " + filepath.Base(out)
}

func (m Model) reload() tea.Cmd {
	path := m.Session.Path
	load := m.Load
	redraw := Notifier(m.Updates)
	return func() tea.Msg {
		s, err := load(path, redraw)
		return reloadedMsg{session: s, err: err}
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	s := m.Session
	player := s.Player

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	statusStyle := lipgloss.NewStyle().Foreground(m.Theme.Success())
	errStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())

	state := m.Theme.Symbols.Playing
	if player.Paused() {
		state = m.Theme.Symbols.Paused
	}
	tick := player.Tick()
	header := headerStyle.Render(fmt.Sprintf("go-midiviz  %c  %s", state, filepath.Base(s.Path)))
	position := dimStyle.Render(fmt.Sprintf("%s / %s  tick %d  notes %d  held %d",
		formatMicros(s.Seq.Clock.Micros(tick)),
		formatMicros(s.Seq.Clock.Micros(player.Notes().LastEnd())),
		tick, len(player.Notes()), player.Sounding()))

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n")
	out.WriteString(position)
	out.WriteString("\n\n")
	out.WriteString(widgets.RenderKeyboard(player, m.Theme))
	out.WriteString("\n\n")
	out.WriteString(widgets.RenderChannelLegend(player.Notes().Channels(), m.Theme))
	out.WriteString("\n\n")

	if m.job != nil {
		out.WriteString(widgets.RenderProgress(m.job.last.Fraction(), piano.WhiteKeys, m.Theme))
		out.WriteString(dimStyle.Render(fmt.Sprintf(" %d/%d", m.job.last.Frame, m.job.last.Total)))
		out.WriteString("\n")
	}
	if m.err != nil {
		out.WriteString(errStyle.Render(m.err.Error()))
		out.WriteString("\n")
	} else if m.status != "" {
		out.WriteString(statusStyle.Render(m.status))
		out.WriteString("\n")
	}

	out.WriteString("\n")
	if m.showHelp {
		out.WriteString(dimStyle.Render(widgets.RenderKeyHelp(helpSections())))
	} else {
		out.WriteString(dimStyle.Render(widgets.RenderKeyLine(helpKeys(m.job != nil))))
	}
	return out.String()
}

func helpKeys(exporting bool) []widgets.KeyBinding {
	keys := []widgets.KeyBinding{
		{Key: "space", Desc: "play/pause"},
		{Key: "w", Desc: "restart"},
		{Key: "s", Desc: "snapshot"},
		{Key: "r", Desc: "reload"},
	}
	if exporting {
		keys = append(keys, widgets.KeyBinding{Key: "esc", Desc: "cancel export"})
	} else {
		keys = append(keys, widgets.KeyBinding{Key: "e", Desc: "export"})
	}
	return append(keys,
		widgets.KeyBinding{Key: "?", Desc: "help"},
		widgets.KeyBinding{Key: "q", Desc: "quit"},
	)
}

func helpSections() []widgets.KeySection {
	return []widgets.KeySection{
		{Title: "Transport", Keys: []widgets.KeyBinding{
			{Key: "space / p", Desc: "play or pause"},
			{Key: "w", Desc: "rewind to the start"},
		}},
		{Title: "File", Keys: []widgets.KeyBinding{
			{Key: "e", Desc: "export video next to the file"},
			{Key: "esc", Desc: "cancel a running export"},
			{Key: "s", Desc: "save the current frame as PNG"},
			{Key: "r", Desc: "reload the file from disk"},
		}},
		{Keys: []widgets.KeyBinding{
			{Key: "?", Desc: "toggle this help"},
			{Key: "q", Desc: "quit"},
		}},
	}
}

func formatMicros(us int64) string {
	d := time.Duration(us) * time.Microsecond
	if d < time.Second {
		return "0 seconds"
	}
	return durafmt.Parse(d.Truncate(time.Second)).LimitFirstN(2).String()
}
