package popup

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
)

type fakePopup struct {
	w, h int
	body string
}

func (f *fakePopup) Init() tea.Cmd                   { return nil }
func (f *fakePopup) Update(tea.Msg) (Popup, tea.Cmd) { return f, nil }
func (f *fakePopup) View() string                    { return f.body }
func (f *fakePopup) SetSize(w, h int)                { f.w, f.h = w, h }

func TestCompose(t *testing.T) {
	base := "aaaaaaaaaa\nbbbbbbbbbb\ncccccccccc"
	over := "\n   XYZ\n"

	got := Compose(base, over, 10)
	want := "aaaaaaaaaa\nbbbXYZbbbb\ncccccccccc"
	if got != want {
		t.Errorf("Compose() = %q, want %q", got, want)
	}
}

func TestCompose_PadsShortBase(t *testing.T) {
	got := Compose("ab", "    Z", 6)
	if got != "ab  Z " {
		t.Errorf("Compose() = %q, want %q", got, "ab  Z ")
	}
}

func TestCompose_WideCharacterBoundary(t *testing.T) {
	got := Compose("日本語テキスト", " X", 14)
	if w := ansi.StringWidth(got); w != 14 {
		t.Errorf("width = %d, want 14 in %q", w, got)
	}
	if !strings.Contains(got, "X") {
		t.Errorf("overlay missing in %q", got)
	}
}

func TestCenter(t *testing.T) {
	got := Center("ab", 6, 3)
	if got != "\n  ab" {
		t.Errorf("Center() = %q, want %q", got, "\n  ab")
	}
}

func TestRender_SizesPopup(t *testing.T) {
	p := &fakePopup{body: "hello"}
	out := ansi.Strip(Render(p, 40, 12))

	if p.w != 34 || p.h != 8 {
		t.Errorf("SetSize(%d, %d), want (34, 8)", p.w, p.h)
	}
	if !strings.Contains(out, "╭") || !strings.Contains(out, "hello") {
		t.Errorf("Render() = %q, want a bordered box with the content", out)
	}
}
