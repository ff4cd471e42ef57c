// internal/app/keys.go
package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/tapedeck/internal/keymap"
)

const (
	seekStep   = 5 * time.Second
	volumeStep = 0.05
)

// handleKey dispatches a key press to the open popup, or resolves it to an
// action.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.Popup != nil {
		var cmd tea.Cmd
		m.Popup, cmd = m.Popup.Update(msg)
		return m, cmd
	}

	action := m.keys.Resolve(msg.String())
	switch action {
	case keymap.ActionQuit:
		m.Close()
		return m, tea.Quit
	case keymap.ActionHelp:
		m.Popup = m.Help
		return m, m.Popup.Init()
	case keymap.ActionOpenSource:
		if m.opener == nil {
			return m.setStatus("Opening sources is not available", false)
		}
		m.Input.Start("Open playlist or folder", "xspf file, URL or music folder", m.Width, m.Height)
		m.Popup = m.Input
		return m, m.Popup.Init()
	}

	if cmd, ok := m.handlePlaybackAction(action); ok {
		return m, cmd
	}
	if m.handleCursorAction(action) {
		m.layout(false)
	}
	return m, nil
}

// handlePlaybackAction runs transport actions against the bound backend.
func (m Model) handlePlaybackAction(action keymap.Action) (tea.Cmd, bool) {
	b := m.backend()
	switch action {
	case keymap.ActionPlayPause:
		if b == nil || b.Source() == "" || m.scrub.Root() == nil {
			m.registry.Play()
		} else {
			b.Toggle()
		}
		return TickCmd(true), true
	case keymap.ActionStop:
		if b != nil {
			b.Pause(true)
			b.Seek(0)
		}
		return nil, true
	case keymap.ActionNextTrack:
		m.registry.Next()
		return nil, true
	case keymap.ActionPrevTrack:
		m.registry.Previous()
		return nil, true
	case keymap.ActionSeekForward, keymap.ActionSeekBack:
		if b != nil && b.Ready() {
			step := seekStep
			if action == keymap.ActionSeekBack {
				step = -step
			}
			pos := max(b.Position()+step, 0)
			if d := b.Duration(); d > 0 {
				pos = min(pos, d)
			}
			b.Seek(pos)
		}
		return nil, true
	case keymap.ActionVolumeUp, keymap.ActionVolumeDown:
		step := volumeStep
		if action == keymap.ActionVolumeDown {
			step = -step
		}
		m.setVolume(m.volume() + step)
		return nil, true
	case keymap.ActionToggleLoop:
		loop := b != nil && !b.Loop()
		if b == nil && len(m.backends) > 0 {
			loop = !m.backends[0].Loop()
		}
		for _, x := range m.backends {
			x.SetLoop(loop)
		}
		return nil, true
	}
	return nil, false
}

// volume returns the level of the bound backend, or of the first one.
func (m Model) volume() float64 {
	if b := m.backend(); b != nil {
		return b.Volume()
	}
	if len(m.backends) > 0 {
		return m.backends[0].Volume()
	}
	return 1
}

// setVolume applies v to every backend so switching playlists keeps it.
func (m Model) setVolume(v float64) {
	v = max(0, min(v, 1))
	for _, b := range m.backends {
		b.SetVolume(v)
	}
}

// handleCursorAction moves the keyboard cursor. It returns true when the
// view must be laid out again.
func (m *Model) handleCursorAction(action keymap.Action) bool {
	mask := selectable(m.Lines)
	height := m.listHeight()
	switch action {
	case keymap.ActionMoveUp:
		m.Cursor.Move(-1, mask, height)
	case keymap.ActionMoveDown:
		m.Cursor.Move(1, mask, height)
	case keymap.ActionPageUp:
		m.Cursor.Move(-max(height/2, 1), mask, height)
	case keymap.ActionPageDown:
		m.Cursor.Move(max(height/2, 1), mask, height)
	case keymap.ActionJumpStart:
		m.Cursor.JumpStart(mask, height)
	case keymap.ActionJumpEnd:
		m.Cursor.JumpEnd(mask, height)
	case keymap.ActionJumpToRow:
		m.jumpToBound()
	case keymap.ActionSelect:
		if line, ok := m.cursorLine(); ok {
			line.Playlist.SwitchTrack(line.Row)
		}
		return false
	default:
		return false
	}
	return true
}

// jumpToBound moves the cursor to the row bound to the scrubber.
func (m *Model) jumpToBound() {
	root := m.scrub.Root()
	if root == nil {
		return
	}
	for i, line := range m.Lines {
		if line.Row == root {
			m.Cursor.Jump(i, selectable(m.Lines), m.listHeight())
			return
		}
	}
}

// cursorLine returns the row line under the cursor.
func (m Model) cursorLine() (Line, bool) {
	pos := m.Cursor.Pos()
	if pos < 0 || pos >= len(m.Lines) || m.Lines[pos].Row == nil {
		return Line{}, false
	}
	return m.Lines[pos], true
}

