// Package textinput provides the prompt used to open a playlist or a music
// folder while the player runs.
package textinput

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/tapedeck/internal/ui"
	"github.com/llehouerou/tapedeck/internal/ui/popup"
	"github.com/llehouerou/tapedeck/internal/ui/styles"
)

var _ popup.Popup = (*Model)(nil)

// historySize bounds the remembered entries.
const historySize = 20

// Result is sent when the prompt is submitted or canceled.
type Result struct {
	Text     string
	Canceled bool // esc was pressed
}

// ActionType implements popup.Action.
func (Result) ActionType() string { return "textinput.result" }

// Msg wraps r for the application.
func (r Result) Msg() popup.ActionMsg {
	return popup.ActionMsg{Source: "textinput", Action: r}
}

// Model is a single line input popup. Submitted entries are kept and can
// be recalled with up and down.
type Model struct {
	ui.Base
	title   string
	input   textinput.Model
	history []string // oldest first
	recall  int      // index into history, len(history) while editing
	draft   string   // text typed before recalling
}

// New creates a new text input model.
func New() Model {
	in := textinput.New()
	in.Prompt = "> "
	in.PromptStyle = styles.T().S().Muted
	in.TextStyle = styles.T().S().Base
	in.PlaceholderStyle = styles.T().S().Subtle
	return Model{input: in}
}

// Start focuses an empty input with a title and a placeholder.
func (m *Model) Start(title, placeholder string, width, height int) {
	m.title = title
	m.input.Placeholder = placeholder
	m.input.SetValue("")
	m.input.Focus()
	m.recall = len(m.history)
	m.draft = ""
	m.SetSize(width, height)
}

// Reset blurs the input. The history is kept.
func (m *Model) Reset() {
	m.title = ""
	m.input.Reset()
	m.input.Blur()
}

// History returns the submitted entries, oldest first.
func (m *Model) History() []string {
	return slices.Clone(m.history)
}

// SetSize implements popup.Popup.
func (m *Model) SetSize(width, height int) {
	m.Base.SetSize(width, height)
	m.input.Width = max(width-lipgloss.Width(m.input.Prompt)-1, 10)
}

// Init implements popup.Popup.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements popup.Popup.
func (m *Model) Update(msg tea.Msg) (popup.Popup, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			return m, func() tea.Msg { return Result{Canceled: true}.Msg() }
		case "enter":
			text := strings.TrimSpace(m.input.Value())
			m.remember(text)
			return m, func() tea.Msg { return Result{Text: text}.Msg() }
		case "up":
			m.step(-1)
			return m, nil
		case "down":
			m.step(1)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) remember(text string) {
	if text == "" {
		return
	}
	m.history = slices.DeleteFunc(m.history, func(s string) bool { return s == text })
	m.history = append(m.history, text)
	if len(m.history) > historySize {
		m.history = m.history[len(m.history)-historySize:]
	}
}

// step moves through the history; past the newest entry the draft returns.
func (m *Model) step(delta int) {
	next := m.recall + delta
	if next < 0 || next > len(m.history) {
		return
	}
	if m.recall == len(m.history) {
		m.draft = m.input.Value()
	}
	m.recall = next
	if next == len(m.history) {
		m.input.SetValue(m.draft)
	} else {
		m.input.SetValue(m.history[next])
	}
	m.input.CursorEnd()
}

// View implements popup.Popup.
func (m *Model) View() string {
	if m.Hidden() {
		return ""
	}
	t := styles.T()
	hint := "enter open · esc cancel"
	if len(m.history) > 0 {
		hint = "↑/↓ recent · " + hint
	}
	title := lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Render(m.title)
	return title + "\n\n" + m.input.View() + "\n\n" + t.S().Subtle.Render(hint)
}
