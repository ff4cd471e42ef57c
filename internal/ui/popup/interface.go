// Package popup renders modal components over the playlist view.
package popup

import tea "github.com/charmbracelet/bubbletea"

// Popup is a modal component. It receives every message while open.
type Popup interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Popup, tea.Cmd)
	// View renders the content only; Render adds the frame.
	View() string
	SetSize(width, height int)
}

// Action is what a popup reports back when the user is done with it.
type Action interface {
	ActionType() string
}

// ActionMsg carries an Action from the popup named Source to the
// application.
type ActionMsg struct {
	Source string
	Action Action
}
