// internal/app/update.go
package app

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/tapedeck/internal/errmsg"
	"github.com/llehouerou/tapedeck/internal/events"
	"github.com/llehouerou/tapedeck/internal/state"
	"github.com/llehouerou/tapedeck/internal/ui/helpbindings"
	"github.com/llehouerou/tapedeck/internal/ui/popup"
	"github.com/llehouerou/tapedeck/internal/ui/textinput"
)

// Update handles messages and returns updated model and commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		if m.Popup != nil {
			m.Popup.SetSize(m.Width, m.Height)
		}
		m.layout(true)
		return m, nil

	case TickMsg:
		b := m.backend()
		return m, TickCmd(b != nil && b.IsPlaying() || m.scrub.Dragging())

	case BusEventMsg:
		next, cmd := m.handleBusEvent(msg.Event)
		return next, tea.Batch(cmd, next.WatchEvents())

	case BusClosedMsg:
		return m, nil

	case SourceOpenedMsg:
		if msg.Err != nil {
			m.log.Warn("open source", "location", msg.Location, "err", msg.Err)
			return m.setStatus(errmsg.FormatWith(errmsg.OpSourceOpen, msg.Location, msg.Err), false)
		}
		m.layout(true)
		return m.setStatus(fmt.Sprintf("Opened %s (%d tracks)", title(msg.Controller.Playlist().Title, msg.Location), msg.Controller.Playlist().Len()), true)

	case ClearStatusMsg:
		if msg.Version == m.version {
			m.Status = ""
		}
		return m, nil

	case popup.ActionMsg:
		return m.handlePopupAction(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)
	}

	if m.Popup != nil {
		var cmd tea.Cmd
		m.Popup, cmd = m.Popup.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleBusEvent reacts to a forwarded bus event.
func (m Model) handleBusEvent(e events.Event) (Model, tea.Cmd) {
	switch e.Type {
	case events.PlaylistCreated:
		m.layout(true)
	case events.ContextElementChanged:
		m.layout(false)
	case events.Play:
		return m, TickCmd(true)
	case events.Error:
		if f, ok := e.Data.(events.Failure); ok {
			m.log.Warn("playback failure", "kind", f.Kind, "source", f.Source, "err", f.Err)
			next, cmd := m.setStatus(failureText(f), false)
			return next.(Model), cmd
		}
	case events.Volume, events.LoopingChanged:
		m.saveSettings()
	}
	return m, nil
}

// handlePopupAction handles the result of the open popup.
func (m Model) handlePopupAction(msg popup.ActionMsg) (tea.Model, tea.Cmd) {
	switch a := msg.Action.(type) {
	case helpbindings.Close:
		m.Popup = nil
		return m, nil
	case textinput.Result:
		m.Popup = nil
		m.Input.Reset()
		if a.Canceled || a.Text == "" || m.opener == nil {
			return m, nil
		}
		m.Status, m.StatusOK = "Opening "+a.Text+"…", true
		return m, m.OpenSourceCmd(a.Text)
	}
	return m, nil
}

// setStatus shows text in the status bar until a newer message replaces it
// or the delay elapses.
func (m Model) setStatus(text string, ok bool) (tea.Model, tea.Cmd) {
	m.version++
	m.Status, m.StatusOK = text, ok
	return m, ClearStatusCmd(m.version)
}

// saveSettings persists the volume and looping of the current backend.
func (m Model) saveSettings() {
	if m.store == nil {
		return
	}
	loop := false
	if b := m.backend(); b != nil {
		loop = b.Loop()
	} else if len(m.backends) > 0 {
		loop = m.backends[0].Loop()
	}
	m.store.SaveSettings(state.Settings{Volume: m.volume(), Loop: loop})
}

func failureText(f events.Failure) string {
	err := f.Err
	if err == nil {
		err = errors.New(string(f.Kind) + " error")
	}
	return errmsg.FormatWith(errmsg.ForFailure(f.Kind), f.Source, err)
}

func title(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
