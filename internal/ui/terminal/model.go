// Package terminal is the bubbletea front end used by `gymtimer run`.
package terminal

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"gymtimer/internal/core/model"
	"gymtimer/internal/core/timekeeper"
	"gymtimer/internal/ui/view"
)

// Controller is the part of the TimeKeeper the terminal drives.
type Controller interface {
	Snapshot() timekeeper.Snapshot
	Toggle()
	Reset()
}

// eventMsg wakes the update loop when the TimeKeeper emits. The model then
// renders the controller's current snapshot, so a dropped event never leaves
// a stale frame.
type eventMsg struct{}

// closedMsg signals the event channel was closed.
type closedMsg struct{}

type keyMap struct {
	Toggle key.Binding
	Reset  key.Binding
	Quit   key.Binding
}

func (keys keyMap) ShortHelp() []key.Binding {
	return []key.Binding{keys.Toggle, keys.Reset, keys.Quit}
}

func (keys keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{keys.ShortHelp()}
}

var defaultKeys = keyMap{
	Toggle: key.NewBinding(key.WithKeys(" ", "space", "enter"), key.WithHelp("space", "start/pause")),
	Reset:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#bbbbbb"))
	timeStyle    = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	counterStyle = lipgloss.NewStyle().Faint(true)
	frameStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(1, 3)
	buttonStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1).Border(lipgloss.NormalBorder())
)

// Model is the bubbletea model for a single workout run.
type Model struct {
	controller Controller
	events     <-chan timekeeper.Event
	snapshot   timekeeper.Snapshot
	keys       keyMap
	help       help.Model
	bar        progress.Model
	width      int
	quitting   bool
	// ExitWhenDone quits once the workout completes.
	ExitWhenDone bool
}

// New creates a Model that renders events from the controller.
func New(controller Controller, events <-chan timekeeper.Event) Model {
	return Model{
		controller: controller,
		events:     events,
		snapshot:   controller.Snapshot(),
		keys:       defaultKeys,
		help:       help.New(),
		bar:        progress.New(progress.WithoutPercentage(), progress.WithWidth(36)),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.finished() {
		return tea.Quit
	}
	return waitForEvent(m.events)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Toggle):
			m.controller.Toggle()
		case key.Matches(msg, m.keys.Reset):
			m.controller.Reset()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case eventMsg:
		m.snapshot = m.controller.Snapshot()
		if m.finished() {
			m.quitting = true
			return m, tea.Quit
		}
		return m, waitForEvent(m.events)

	case closedMsg:
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	frame := view.Build(m.snapshot.Config, m.snapshot.State)
	accent := lipgloss.Color(view.Hex(frame.RingColor))

	bar := m.bar
	bar.FullColor = view.Hex(frame.RingColor)
	bar.EmptyColor = "#333333"

	lines := []string{
		titleStyle.Render(frame.Title),
		"",
		timeStyle.Foreground(accent).Render(frame.Time),
		lipgloss.NewStyle().Bold(true).Foreground(accent).Render(frame.PhaseLabel),
		bar.ViewAs(frame.Progress),
	}
	if frame.Counters != nil {
		lines = append(lines, counterStyle.Render(strings.Join(frame.Counters, "   ")))
	}
	lines = append(lines, "", buttonStyle.BorderForeground(accent).Render(frame.ToggleLabel))

	body := frameStyle.BorderForeground(accent).Render(
		lipgloss.JoinVertical(lipgloss.Center, lines...),
	)
	return body + "\n" + m.help.View(m.keys) + "\n"
}

// Snapshot returns the last rendered snapshot.
func (m Model) Snapshot() timekeeper.Snapshot {
	return m.snapshot
}

func (m Model) finished() bool {
	return m.ExitWhenDone && m.snapshot.State.Phase == model.PhaseDone
}

func waitForEvent(events <-chan timekeeper.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-events; !ok {
			return closedMsg{}
		}
		return eventMsg{}
	}
}
