// internal/app/view.go
package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/tapedeck/internal/icons"
	"github.com/llehouerou/tapedeck/internal/keymap"
	"github.com/llehouerou/tapedeck/internal/lastplayed"
	"github.com/llehouerou/tapedeck/internal/playback"
	"github.com/llehouerou/tapedeck/internal/playlist"
	"github.com/llehouerou/tapedeck/internal/scrubber"
	"github.com/llehouerou/tapedeck/internal/source"
	"github.com/llehouerou/tapedeck/internal/ui"
	"github.com/llehouerou/tapedeck/internal/ui/element"
	"github.com/llehouerou/tapedeck/internal/ui/popup"
	"github.com/llehouerou/tapedeck/internal/ui/render"
	"github.com/llehouerou/tapedeck/internal/ui/styles"
)

// playerInfo is the backend state shown by one frame. It is read before the
// element tree is locked.
type playerInfo struct {
	bound    *element.Element
	active   *playlist.Controller
	track    playback.Track
	playing  bool
	ready    bool
	pos, dur time.Duration
	volume   float64
	loop     bool
}

func (m Model) readPlayer() playerInfo {
	info := playerInfo{
		bound:  m.scrub.Root(),
		active: m.registry.Active(),
		volume: m.volume(),
	}
	if b := m.backend(); b != nil {
		info.track = b.Track()
		info.playing = b.IsPlaying()
		info.ready = b.Ready()
		info.pos = b.Position()
		info.dur = b.Duration()
		info.loop = b.Loop()
	}
	return info
}

// View renders the application UI.
func (m Model) View() string {
	if m.Width <= 0 || m.Height <= 0 {
		return ""
	}
	info := m.readPlayer()

	view := lipgloss.JoinVertical(lipgloss.Left,
		m.renderList(info),
		m.renderStatus(info),
	)
	if m.Popup != nil {
		view = popup.Compose(view, popup.Render(m.Popup, m.Width, m.Height), m.Width)
	}
	return view
}

func (m Model) renderList(info playerInfo) string {
	height := m.listHeight()
	lines := make([]string, 0, height)

	if len(m.Lines) == 0 {
		lines = append(lines, styles.T().S().Subtle.Render(render.Fit(m.emptyHint(), m.Width)))
	}

	start, end := m.Cursor.VisibleRange(len(m.Lines), height)
	cols := columns(m.Width)

	m.scrub.Lock()
	for i := start; i < end; i++ {
		line := m.Lines[i]
		if line.Row == nil {
			lines = append(lines, m.renderHeader(line.Playlist, line.Playlist == info.active))
			continue
		}
		lines = append(lines, renderRow(line.Row, cols, info, i == m.Cursor.Pos()))
	}
	m.scrub.Unlock()

	blank := strings.Repeat(" ", m.Width)
	for len(lines) < height {
		lines = append(lines, blank)
	}
	return strings.Join(lines, "\n")
}

func (m Model) emptyHint() string {
	if key := m.keys.Hint(keymap.ActionOpenSource); key != "" && m.opener != nil {
		return "No playlist. Press " + key + " to open one."
	}
	return "No playlist."
}

// renderHeader renders the title line of a playlist.
func (m Model) renderHeader(c *playlist.Controller, active bool) string {
	t := styles.T()
	list := c.Playlist()
	name := render.Sanitize(list.Title)
	if name == "" {
		name = "Untitled playlist"
	}
	if c.Container().Attr(source.AttrKind) == source.KindFolder {
		name = icons.FormatDir(name)
	} else {
		name = icons.FormatPlaylist(name)
	}
	detail := fmt.Sprintf(" %d tracks · %s", list.Len(), c.Backend().Kind())
	if list.Creator != "" {
		detail = " by " + render.Sanitize(list.Creator) + " ·" + detail
	}

	nameW := max(m.Width-lipgloss.Width(detail), 1)
	name = render.Truncate(name, nameW)
	if active {
		name = styles.NewGradient(t.Primary, t.Secondary).Bold().Render(name)
	} else {
		name = t.S().Title.Render(name)
	}
	return render.Row(name, t.S().Muted.Render(render.Truncate(detail, m.Width-1)), m.Width)
}

// renderRow renders one player row. The scrubber must be locked.
func renderRow(row *element.Element, cols rowColumns, info playerInfo, cursor bool) string {
	s := styles.T().S()
	bound := row == info.bound

	glyph, glyphStyle := "·", s.Subtle
	switch {
	case bound && info.playing:
		glyph, glyphStyle = "▶", s.Playing
	case bound:
		glyph, glyphStyle = "⏸", s.Paused
	case row.HasClass(playlist.ClassActive):
		glyph, glyphStyle = "▷", s.Paused
	}
	if p := row.FindByClass(scrubber.ClassPlayButton); p != nil && !bound && p.Attr(scrubber.AttrPlayProgress) != "" {
		glyph = "◦"
	}

	nameStyle := s.Base
	if bound {
		nameStyle = s.Current
	}

	var b strings.Builder
	b.WriteString(glyphStyle.Render(render.Fit(" "+glyph, ui.ButtonWidth)))
	b.WriteString(s.Muted.Render(render.FitRight(text(row, playlist.ClassTrackNum), ui.TrackNumWidth-1) + " "))
	b.WriteString(nameStyle.Render(render.Fit(text(row, playlist.ClassTrackName), cols.name)))
	b.WriteString(s.Muted.Render(render.Fit(text(row, playlist.ClassLastPlay), cols.lastPlay)))
	b.WriteString(s.Muted.Render(render.FitRight(text(row, playlist.ClassTime), ui.TimeWidth-1) + " "))
	b.WriteString(" ")
	b.WriteString(render.Shaft(shaftState(row, cols.shaft, bound)))

	out := b.String()
	if cursor {
		out = s.Cursor.Render(out)
	}
	return out
}

func text(row *element.Element, class string) string {
	if el := row.FindByClass(class); el != nil {
		return el.Text
	}
	return ""
}

// shaftState reads the shaft styles written by the scrubber and the last
// played tracker.
func shaftState(row *element.Element, width int, bound bool) render.ShaftState {
	st := render.ShaftState{Width: width, Active: bound}
	shaft := row.FindByClass(scrubber.ClassShaft)
	if shaft == nil {
		return st
	}
	if head := shaft.FindByClass(scrubber.ClassPlayhead); head != nil {
		st.Offset = int(head.Style(scrubber.StyleLeft))
	}
	if load := shaft.FindByClass(scrubber.ClassLoadProgress); load != nil && bound {
		st.LoadStart = load.Style(scrubber.StyleLeftPercent) / 100
		st.LoadEnd = st.LoadStart + load.Style(scrubber.StyleWidthPercent)/100
	}
	if saved := shaft.FindByClass(lastplayed.ClassProgress); saved != nil {
		st.Saved = saved.Style(scrubber.StyleWidthPercent) / 100
	}
	return st
}

// renderStatus renders the bordered bar below the playlists.
func (m Model) renderStatus(info playerInfo) string {
	t := styles.T()
	frameW, _ := styles.PanelFrame()
	inner := max(m.Width-frameW, 1)

	var left string
	switch {
	case m.Status != "" && !m.StatusOK:
		left = t.S().Error.Render(render.Truncate(m.Status, inner/2))
	case m.Status != "":
		left = t.S().Base.Render(render.Truncate(m.Status, inner/2))
	case info.track.ID != "":
		left = nowPlaying(info, inner/2)
	default:
		left = t.S().Subtle.Render("Stopped")
	}

	right := fmt.Sprintf("%s / %s  %s%d%%", playlist.FormatTime(info.pos), playlist.FormatTime(info.dur), icons.Volume(), int(info.volume*100+0.5))
	if info.loop {
		right += "  " + icons.Loop()
	}
	if key := m.keys.Hint(keymap.ActionHelp); key != "" {
		right += "  " + key + " help"
	}
	right = t.S().Muted.Render(render.Truncate(right, max(inner-lipgloss.Width(left)-1, 0)))

	return styles.PanelStyle(info.playing).
		Width(inner).
		Render(render.Row(left, right, inner))
}

func nowPlaying(info playerInfo, width int) string {
	s := styles.T().S()
	title := info.track.Title
	if title == "" {
		title = info.track.Location
	}
	if info.track.Creator != "" {
		title = info.track.Creator + " - " + title
	}
	glyph, style := "⏸ ", s.Paused
	if info.playing {
		glyph, style = "▶ ", s.Playing
	} else if !info.ready {
		glyph = "… "
	}
	return style.Render(glyph) + s.Current.Render(render.Truncate(title, max(width-2, 1)))
}
