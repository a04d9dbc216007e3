package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/thomazmoura/spotlight-dimmer-sub001/internal/ipc"
)

// DefaultRefresh is how often the monitor polls the daemon.
const DefaultRefresh = time.Second

// StatusSource is the part of the IPC client the monitor reads from.
type StatusSource interface {
	GetStatus() (*ipc.StatusData, error)
	GetDisplays() (*ipc.DisplaysData, error)
}

// Run shows a live status view until the user quits.
func Run(src StatusSource, refresh time.Duration) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("status --watch requires an interactive terminal (stdin/stdout must be TTYs)")
	}
	p := tea.NewProgram(newModel(src, refresh), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

type snapshotMsg struct {
	status   *ipc.StatusData
	displays []ipc.DisplayInfo
	err      error
	at       time.Time
}

type tickMsg time.Time

type model struct {
	src     StatusSource
	refresh time.Duration

	status   *ipc.StatusData
	displays []ipc.DisplayInfo
	lastErr  error
	updated  time.Time

	width int
}

func newModel(src StatusSource, refresh time.Duration) model {
	if refresh <= 0 {
		refresh = DefaultRefresh
	}
	return model{src: src, refresh: refresh}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.poll,
		tea.SetWindowTitle("spotlight-dimmer"),
	)
}

func (m model) poll() tea.Msg {
	msg := snapshotMsg{at: time.Now()}
	msg.status, msg.err = m.src.GetStatus()
	if msg.err != nil {
		return msg
	}
	data, err := m.src.GetDisplays()
	if err != nil {
		msg.err = err
		return msg
	}
	msg.displays = data.Displays
	return msg
}

func (m model) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.poll
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tickMsg:
		return m, m.poll

	case snapshotMsg:
		m.updated = msg.at
		m.lastErr = msg.err
		if msg.err == nil {
			m.status = msg.status
			m.displays = msg.displays
		}
		return m, m.tick()
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("spotlight-dimmer"))
	b.WriteString("\n\n")

	if m.status == nil && m.lastErr == nil {
		b.WriteString(dimStyle.Render("connecting to daemon..."))
		b.WriteString("\n")
		return b.String()
	}
	if m.lastErr != nil {
		b.WriteString(errorStyle.Render("daemon unreachable: " + m.lastErr.Error()))
		b.WriteString("\n\n")
	}
	if m.status != nil {
		b.WriteString(boxStyle.Render(m.statusBlock()))
		b.WriteString("\n")
		b.WriteString(boxStyle.Render(m.displayBlock()))
		b.WriteString("\n")
	}

	help := keyStyle.Render("r") + helpStyle.Render(" refresh  ") +
		keyStyle.Render("q") + helpStyle.Render(" quit")
	if !m.updated.IsZero() {
		help += helpStyle.Render("  updated " + m.updated.Format("15:04:05"))
	}
	b.WriteString(help)
	b.WriteString("\n")
	return b.String()
}

func (m model) statusBlock() string {
	st := m.status
	state := activeStyle.Render("dimming")
	if st.Paused {
		state = pausedStyle.Render("paused")
	}

	rows := [][2]string{
		{"state", state + dimStyle.Render(" ("+st.State+")")},
		{"mode", st.Mode},
		{"inactive", fmt.Sprintf("%s @ %.2f", st.InactiveColor, st.InactiveAlpha)},
		{"active", fmt.Sprintf("%s @ %.2f", st.ActiveColor, st.ActiveAlpha)},
		{"focused display", focusedLabel(st.FocusedDisplay)},
		{"surfaces", fmt.Sprintf("%d (%d disabled displays)", st.Renderer.Surfaces, st.Renderer.DisabledDisplays)},
		{"events", fmt.Sprintf("%d events, %d renders, %d rebuilds", st.Events, st.Renders, st.Rebuilds)},
		{"batches", fmt.Sprintf("%d batched, %d fallbacks, %d failures", st.Renderer.Batches, st.Renderer.Fallbacks, st.Renderer.Failures)},
		{"uptime", (time.Duration(st.UptimeSeconds) * time.Second).String()},
	}

	var b strings.Builder
	b.WriteString(boxTitleStyle.Render("Status"))
	for _, r := range rows {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-16s", r[0])))
		b.WriteString(r[1])
	}
	return b.String()
}

func (m model) displayBlock() string {
	var b strings.Builder
	b.WriteString(boxTitleStyle.Render(fmt.Sprintf("Displays (%d)", len(m.displays))))
	for _, d := range m.displays {
		line := fmt.Sprintf("%d  %-10s %dx%d+%d+%d", d.ID, d.Name, d.Width, d.Height, d.X, d.Y)
		b.WriteString("\n")
		if m.status != nil && d.ID == m.status.FocusedDisplay {
			b.WriteString(activeStyle.Render("* " + line))
		} else {
			b.WriteString(normalStyle.Render("  " + line))
		}
	}
	return b.String()
}

func focusedLabel(index int) string {
	if index < 0 {
		return "none"
	}
	return fmt.Sprintf("%d", index)
}
