package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kestrelbrowser/kestrel/internal/ipc"
)

// model is the root bubbletea model for the tab switcher.
type model struct {
	client *ipc.Client

	state  *ipc.StateData
	cursor int

	// Inline new-tab entry
	entering bool
	urlInput string

	lastError string

	width  int
	height int
}

// stateMsg carries a refreshed daemon snapshot.
type stateMsg struct {
	state *ipc.StateData
	err   error
}

// actionMsg reports the outcome of a fire-and-forget tab command.
type actionMsg struct{ err error }

func newModel(client *ipc.Client) model {
	return model{client: client}
}

func (m model) refresh() tea.Cmd {
	return func() tea.Msg {
		state, err := m.client.GetState()
		return stateMsg{state: state, err: err}
	}
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return m.refresh()
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case stateMsg:
		if msg.err != nil {
			m.lastError = msg.err.Error()
			return m, nil
		}
		m.lastError = ""
		m.state = msg.state
		if m.cursor >= len(m.state.Views) {
			m.cursor = len(m.state.Views) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.lastError = msg.err.Error()
			return m, nil
		}
		m.lastError = ""
		return m, m.refresh()

	case tea.KeyMsg:
		if m.entering {
			return m.updateEntry(msg)
		}
		return m.updateList(msg)
	}

	return m, nil
}

func (m model) updateEntry(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.entering = false
		m.urlInput = ""
		return m, nil
	case "enter":
		url := strings.TrimSpace(m.urlInput)
		m.entering = false
		m.urlInput = ""
		if url == "" {
			return m, nil
		}
		return m, func() tea.Msg {
			_, err := m.client.AddTab(url)
			return actionMsg{err: err}
		}
	case "backspace":
		if len(m.urlInput) > 0 {
			m.urlInput = m.urlInput[:len(m.urlInput)-1]
		}
		return m, nil
	default:
		if msg.Type == tea.KeyRunes {
			m.urlInput += string(msg.Runes)
		}
		return m, nil
	}
}

func (m model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "j", "down":
		if m.state != nil && m.cursor < len(m.state.Views)-1 {
			m.cursor++
		}
		return m, nil

	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "enter":
		id, ok := m.cursorID()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return actionMsg{err: m.client.SelectView(id, true)}
		}

	case "x":
		id, ok := m.cursorID()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return actionMsg{err: m.client.DestroyView(id)}
		}

	case "m":
		if m.state == nil {
			return m, nil
		}
		idx := m.cursor
		if idx < 0 || idx >= len(m.state.Views) {
			return m, nil
		}
		v := m.state.Views[idx]
		return m, func() tea.Msg {
			return actionMsg{err: m.client.MuteView(v.ID, !v.Muted)}
		}

	case "n":
		m.entering = true
		m.urlInput = ""
		return m, nil

	case "+", "=":
		return m, func() tea.Msg {
			_, err := m.client.ChangeZoom("in")
			return actionMsg{err: err}
		}

	case "-":
		return m, func() tea.Msg {
			_, err := m.client.ChangeZoom("out")
			return actionMsg{err: err}
		}

	case "0":
		return m, func() tea.Msg {
			_, err := m.client.ResetZoom()
			return actionMsg{err: err}
		}

	case "r":
		return m, m.refresh()
	}

	return m, nil
}

func (m model) cursorID() (int, bool) {
	if m.state == nil || m.cursor < 0 || m.cursor >= len(m.state.Views) {
		return 0, false
	}
	return m.state.Views[m.cursor].ID, true
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("62"))

	currentMarkStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("42"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)
)

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 {
		return ""
	}

	var b strings.Builder

	header := "kestrel tabs"
	if m.state != nil && m.state.Incognito {
		header += " (incognito)"
	}
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	if m.state == nil || len(m.state.Views) == 0 {
		b.WriteString(mutedStyle.Render("  no tabs — press n to open one"))
		b.WriteString("\n")
	} else {
		for i, v := range m.state.Views {
			row := m.renderRow(v, v.ID == m.state.Selected)
			if i == m.cursor {
				row = selectedRowStyle.Render("> " + row)
			} else {
				row = "  " + row
			}
			b.WriteString(row)
			b.WriteString("\n")
		}
	}

	if m.entering {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("open url: %s_", m.urlInput))
		b.WriteString("\n")
	}

	if m.lastError != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("error: " + m.lastError))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render(
		"j/k navigate · enter select · n new · x close · m mute · +/-/0 zoom · r refresh · q quit"))

	return b.String()
}

func (m model) renderRow(v ipc.ViewInfo, selected bool) string {
	mark := " "
	if selected {
		mark = currentMarkStyle.Render("*")
	}

	label := v.Title
	if label == "" {
		label = v.URL
	}
	if label == "" {
		label = "(blank)"
	}

	extras := ""
	if v.Zoom != 0 && v.Zoom != 1.0 {
		extras += fmt.Sprintf(" [%d%%]", int(v.Zoom*100))
	}
	if v.Muted {
		extras += mutedStyle.Render(" [muted]")
	}

	return fmt.Sprintf("%s %3d  %s%s", mark, v.ID, label, extras)
}
