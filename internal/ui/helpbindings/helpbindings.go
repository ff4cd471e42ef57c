// Package helpbindings provides a scrollable popup listing the key
// bindings in effect.
package helpbindings

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/tapedeck/internal/keymap"
	"github.com/llehouerou/tapedeck/internal/ui"
	"github.com/llehouerou/tapedeck/internal/ui/popup"
	"github.com/llehouerou/tapedeck/internal/ui/styles"
)

var _ popup.Popup = (*Model)(nil)

var contextLabels = map[string]string{
	"global":   "Global",
	"playback": "Playback",
	"playlist": "Playlists",
}

// Close signals the help popup should close.
type Close struct{}

// ActionType implements popup.Action.
func (Close) ActionType() string { return "helpbindings.close" }

func closeCmd() tea.Msg {
	return popup.ActionMsg{Source: "helpbindings", Action: Close{}}
}

// entry is one line of the help listing: a context header when keys is
// empty, a binding otherwise.
type entry struct {
	keys, text string
}

// Model holds the state for the help bindings popup.
type Model struct {
	ui.Base
	entries  []entry
	keyWidth int
	toggle   string // key that opened the popup, closes it too
	offset   int
}

// New lists bindings grouped by context, in the order the contexts first
// appear. Keys that r resolves to another action are left out.
func New(bindings []keymap.Binding, r *keymap.Resolver) Model {
	m := Model{toggle: r.Hint(keymap.ActionHelp)}
	var contexts []string
	byContext := make(map[string][]keymap.Binding)
	for _, b := range bindings {
		if _, ok := byContext[b.Context]; !ok {
			contexts = append(contexts, b.Context)
		}
		byContext[b.Context] = append(byContext[b.Context], b)
	}
	for _, ctx := range contexts {
		label := contextLabels[ctx]
		if label == "" {
			label = ctx
		}
		var group []entry
		for _, b := range byContext[ctx] {
			var keys []string
			for _, k := range b.Keys {
				if r.Resolve(k) == b.Action {
					keys = append(keys, keyLabel(k))
				}
			}
			if len(keys) == 0 {
				continue
			}
			e := entry{keys: strings.Join(keys, ", "), text: b.Description}
			m.keyWidth = max(m.keyWidth, lipgloss.Width(e.keys))
			group = append(group, e)
		}
		if len(group) > 0 {
			m.entries = append(m.entries, entry{text: label})
			m.entries = append(m.entries, group...)
		}
	}
	return m
}

func keyLabel(k string) string {
	if k == " " {
		return "space"
	}
	return k
}

// Init implements popup.Popup.
func (m *Model) Init() tea.Cmd { return nil }

// Update implements popup.Popup.
func (m *Model) Update(msg tea.Msg) (popup.Popup, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch k := key.String(); {
	case k == "esc" || k == "q" || (k == m.toggle && k != ""):
		return m, closeCmd
	case k == "j" || k == "down":
		m.offset = min(m.offset+1, m.maxOffset())
	case k == "k" || k == "up":
		m.offset = max(m.offset-1, 0)
	}
	return m, nil
}

// View implements popup.Popup.
func (m *Model) View() string {
	if m.Hidden() {
		return ""
	}
	lines := m.lines()
	width := 0
	for _, l := range lines {
		width = max(width, lipgloss.Width(l))
	}

	end := min(m.offset+m.visibleHeight(), len(lines))
	visible := lines[min(m.offset, end):end]
	for i, l := range visible {
		visible[i] = l + strings.Repeat(" ", width-lipgloss.Width(l))
	}

	s := styles.T().S()
	return s.Title.Render("Help") + "\n\n" +
		strings.Join(visible, "\n") + "\n\n" +
		s.Subtle.Render(m.footer())
}

func (m *Model) lines() []string {
	t := styles.T()
	keyStyle := lipgloss.NewStyle().Foreground(t.Primary).Bold(true)
	headerStyle := lipgloss.NewStyle().Foreground(t.Secondary).Bold(true)
	rule := t.S().Subtle.Render(strings.Repeat("─", m.keyWidth+15))

	lines := make([]string, 0, len(m.entries)*2)
	for i, e := range m.entries {
		if e.keys == "" {
			if i > 0 {
				lines = append(lines, "")
			}
			lines = append(lines, headerStyle.Render(e.text), rule)
			continue
		}
		pad := strings.Repeat(" ", m.keyWidth-lipgloss.Width(e.keys))
		lines = append(lines, keyStyle.Render(e.keys+pad)+"  "+t.S().Base.Render(e.text))
	}
	return lines
}

func (m *Model) footer() string {
	closeKeys := "esc"
	if m.toggle != "" {
		closeKeys = m.toggle + "/esc"
	}
	if m.maxOffset() == 0 {
		return closeKeys + " close"
	}
	return "j/k scroll · " + closeKeys + " close"
}

// visibleHeight leaves room for the title, the footer and their blank lines.
func (m *Model) visibleHeight() int {
	return max(m.Height()-4, 5)
}

func (m *Model) maxOffset() int {
	return max(len(m.lines())-m.visibleHeight(), 0)
}
