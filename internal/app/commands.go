// internal/app/commands.go
package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	playingTick = 100 * time.Millisecond
	idleTick    = time.Second
	statusDelay = 5 * time.Second
	openTimeout = time.Minute
)

// TickCmd returns a command that sends TickMsg, often while playing.
func TickCmd(playing bool) tea.Cmd {
	d := idleTick
	if playing {
		d = playingTick
	}
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// ClearStatusCmd returns a command that clears status version after a delay.
func ClearStatusCmd(version int) tea.Cmd {
	return tea.Tick(statusDelay, func(time.Time) tea.Msg {
		return ClearStatusMsg{Version: version}
	})
}

// WatchEvents returns a command that waits for the next forwarded bus event.
func (m Model) WatchEvents() tea.Cmd {
	if m.sub == nil {
		return nil
	}
	sub := m.sub
	return func() tea.Msg {
		select {
		case e := <-sub.Events:
			return BusEventMsg{Event: e}
		case <-sub.Done:
			return BusClosedMsg{}
		}
	}
}

// OpenSourceCmd loads location in the background.
func (m Model) OpenSourceCmd(location string) tea.Cmd {
	opener := m.opener
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
		defer cancel()
		c, err := opener.Open(ctx, location)
		return SourceOpenedMsg{Location: location, Controller: c, Err: err}
	}
}
