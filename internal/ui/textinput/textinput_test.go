package textinput

import (
	"slices"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/tapedeck/internal/ui/testutil"
)

func newTestInput() (*Model, *testutil.PopupHarness) {
	m := New()
	m.Start("Open", "path or URL", 80, 24)
	return &m, testutil.NewPopupHarness(&m)
}

func getResult(t *testing.T, h *testutil.PopupHarness) Result {
	t.Helper()
	return testutil.LastAction[Result](t, h, "textinput")
}

func TestTextInput_TypeCharacters(t *testing.T) {
	_, h := newTestInput()

	h.Type("~/lists/road.xspf")
	h.SendEnter()

	result := getResult(t, h)
	if result.Text != "~/lists/road.xspf" {
		t.Errorf("Text = %q, want %q", result.Text, "~/lists/road.xspf")
	}
	if result.Canceled {
		t.Error("expected Canceled=false")
	}
}

func TestTextInput_BackspaceAndTrim(t *testing.T) {
	_, h := newTestInput()

	h.Type("  /music/")
	h.SendSpecialKey(tea.KeyBackspace)
	h.Type("s  ")
	h.SendEnter()

	if got := getResult(t, h).Text; got != "/musics" {
		t.Errorf("Text = %q, want %q", got, "/musics")
	}
}

func TestTextInput_Cancel(t *testing.T) {
	m, h := newTestInput()
	h.Type("draft")
	h.SendEscape()

	if !getResult(t, h).Canceled {
		t.Error("expected Canceled=true")
	}
	if len(m.History()) != 0 {
		t.Errorf("canceled text remembered: %v", m.History())
	}
}

func TestTextInput_History(t *testing.T) {
	m, h := newTestInput()
	for _, s := range []string{"a.xspf", "b.xspf", "a.xspf", ""} {
		m.Start("Open", "", 80, 24)
		h.Type(s)
		h.SendEnter()
	}
	if got := m.History(); !slices.Equal(got, []string{"b.xspf", "a.xspf"}) {
		t.Fatalf("History() = %v", got)
	}

	m.Start("Open", "", 80, 24)
	h.Type("new")
	h.SendUp()
	if got := m.input.Value(); got != "a.xspf" {
		t.Errorf("first recall = %q, want newest entry", got)
	}
	h.SendUp()
	h.SendUp()
	if got := m.input.Value(); got != "b.xspf" {
		t.Errorf("recall past the oldest = %q, want b.xspf", got)
	}
	h.SendDown()
	h.SendDown()
	if got := m.input.Value(); got != "new" {
		t.Errorf("draft = %q, want it restored", got)
	}
	if !h.ViewContains("recent") {
		t.Errorf("view = %q", testutil.StripANSI(h.View()))
	}
}

func TestTextInput_View(t *testing.T) {
	_, h := newTestInput()

	if !h.ViewContains("Open") || !h.ViewContains("esc cancel") || h.ViewContains("recent") {
		t.Errorf("view = %q", testutil.StripANSI(h.View()))
	}

	m := New()
	if m.View() != "" {
		t.Error("view should be empty before Start")
	}
}

func TestTextInput_Reset(t *testing.T) {
	m := New()
	m.Start("Open", "", 80, 24)
	m.input.SetValue("x")
	m.Reset()

	if m.input.Value() != "" || m.input.Focused() || m.title != "" {
		t.Errorf("Reset left state behind: value=%q title=%q", m.input.Value(), m.title)
	}
}
