// Package testutil provides helpers for testing terminal components.
package testutil

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/llehouerou/tapedeck/internal/ui/popup"
)

// StripANSI removes escape sequences so rendered output can be compared
// without style interference.
func StripANSI(s string) string {
	return ansi.Strip(s)
}

// ContainsLine reports whether a single line of output contains substr.
func ContainsLine(output, substr string) bool {
	for line := range strings.SplitSeq(output, "\n") {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

// ExecuteCmd runs a command and returns the resulting message.
func ExecuteCmd(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	return cmd()
}

// LastAction runs the last command of h and returns the popup action of
// type A it produced from source. The test fails on anything else.
func LastAction[A popup.Action](t testing.TB, h *PopupHarness, source string) A {
	t.Helper()
	var zero A
	msg, ok := ExecuteCmd(h.LastCommand()).(popup.ActionMsg)
	if !ok {
		t.Fatalf("last command did not produce a popup.ActionMsg")
		return zero
	}
	if msg.Source != source {
		t.Errorf("Source = %q, want %q", msg.Source, source)
	}
	a, ok := msg.Action.(A)
	if !ok {
		t.Fatalf("action = %T, want %T", msg.Action, zero)
	}
	return a
}
