package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	eventStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	bodyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const headerLines = 3

// frameMsg asks the model to run one simulator frame. Frames run inside
// Update so that host events and callbacks stay on the program goroutine.
type frameMsg struct{}

type interactiveModel struct {
	err     error
	session *session
	spin    spinner.Model
	view    viewport.Model
	opts    options
	frame   time.Duration
	shown   int
	ready   bool
	done    bool
}

func newInteractiveModel(opts options, s *session) *interactiveModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return &interactiveModel{
		session: s,
		spin:    sp,
		opts:    opts,
		frame:   time.Second / time.Duration(max(opts.fps, 1)),
	}
}

func (m *interactiveModel) tick() tea.Cmd {
	return tea.Tick(m.frame, func(time.Time) tea.Msg { return frameMsg{} })
}

func (m *interactiveModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.tick())
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		height := max(msg.Height-headerLines-2, 1)
		if !m.ready {
			m.view = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.view.Width = msg.Width
			m.view.Height = height
		}
		m.refresh()

	case frameMsg:
		if m.done {
			break
		}
		m.session.host.Pump()
		done, err := m.session.frame()
		m.done = done
		if err != nil {
			m.err = err
		}
		m.refresh()
		if !m.done {
			cmds = append(cmds, m.tick())
		}

	case spinner.TickMsg:
		if m.done {
			break
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		cmds = append(cmds, cmd)
	}

	if m.ready {
		var cmd tea.Cmd
		m.view, cmd = m.view.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// refresh rebuilds the viewport content when the trace has grown.
func (m *interactiveModel) refresh() {
	if !m.ready {
		return
	}
	app := m.session.app
	if len(app.trace) == m.shown && !m.done {
		return
	}
	m.shown = len(app.trace)

	var b strings.Builder
	for _, line := range app.trace {
		b.WriteString(eventStyle.Render(line))
		b.WriteString("\n")
	}
	for _, line := range m.session.host.Console {
		b.WriteString(errorStyle.Render(line))
		b.WriteString("\n")
	}
	if m.done && len(app.body) > 0 {
		b.WriteString("\n")
		b.WriteString(bodyStyle.Render(string(app.body)))
		b.WriteString("\n")
	}
	m.view.SetContent(b.String())
	m.view.GotoBottom()
}

func (m *interactiveModel) View() string {
	if !m.ready {
		return "Starting simulator..."
	}

	r := m.opts.req
	var b strings.Builder
	b.WriteString(titleStyle.Render("pdsim"))
	fmt.Fprintf(&b, " %s %s:%d%s\n", strings.ToUpper(r.method), r.server, r.port, r.path)

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	case !m.done:
		b.WriteString(m.spin.View())
		b.WriteString(" waiting for callbacks")
	case m.session.app.failed:
		b.WriteString(errorStyle.Render("request failed"))
	default:
		b.WriteString(resultStyle.Render(fmt.Sprintf("status %d, %d bytes", m.session.app.status, len(m.session.app.body))))
	}
	b.WriteString("\n\n")
	b.WriteString(m.view.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ scroll • q quit"))
	return b.String()
}

func runInteractive(opts options) error {
	s, err := newSession(opts, zap.NewNop())
	if err != nil {
		return err
	}
	defer s.close()

	p := tea.NewProgram(newInteractiveModel(opts, s), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
