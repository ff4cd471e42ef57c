// internal/app/layout.go
package app

import (
	"github.com/llehouerou/tapedeck/internal/playlist"
	"github.com/llehouerou/tapedeck/internal/scrubber"
	"github.com/llehouerou/tapedeck/internal/ui"
	"github.com/llehouerou/tapedeck/internal/ui/element"
)

// rowColumns is the horizontal split of a row.
type rowColumns struct {
	name, lastPlay, shaft int
}

// columns splits width between the row parts. The last play label is
// dropped first when the terminal is narrow.
func columns(width int) rowColumns {
	shaft := max(width/ui.ShaftWidthDivisor, ui.MinShaftWidth)
	fixed := ui.ButtonWidth + ui.TrackNumWidth + ui.TimeWidth + 1 // gap before the shaft
	c := rowColumns{shaft: shaft, lastPlay: ui.LastPlayWidth}
	c.name = width - fixed - c.lastPlay - c.shaft
	if c.name < 10 {
		c.name += c.lastPlay
		c.lastPlay = 0
	}
	if c.name < 1 {
		c.shaft = max(c.shaft+c.name-1, 0)
		c.name = 1
	}
	return c
}

// buildLines lists a header line and one line per row for every playlist.
func (m Model) buildLines() []Line {
	var lines []Line
	for _, c := range m.registry.Playlists() {
		lines = append(lines, Line{Playlist: c})
		for _, row := range c.Rows() {
			lines = append(lines, Line{Playlist: c, Row: row})
		}
	}
	return lines
}

// selectable marks the lines the cursor may stop on.
func selectable(lines []Line) []bool {
	mask := make([]bool, len(lines))
	for i, l := range lines {
		mask[i] = l.Row != nil
	}
	return mask
}

// layout rebuilds the line list and assigns every element its box in
// screen cells. With remeasure set, the scrubber re-reads its shaft width.
func (m *Model) layout(remeasure bool) {
	m.Lines = m.buildLines()
	height := m.listHeight()
	m.Cursor.EnsureVisible(selectable(m.Lines), height)
	offset := m.Cursor.Offset()
	cols := columns(m.Width)

	m.scrub.Lock()
	m.root.SetBox(element.Rect{W: m.Width, H: height})
	var current *playlist.Controller
	for i, line := range m.Lines {
		y := i - offset
		if line.Row == nil {
			current = line.Playlist
			// Container spans its header and rows.
			current.Container().SetBox(element.Rect{Y: y, W: m.Width, H: len(current.Rows()) + 1})
			continue
		}
		layoutRow(line.Row, y, m.Width, cols)
	}
	m.scrub.Unlock()

	if remeasure {
		m.scrub.Relayout()
	}
}

func layoutRow(row *element.Element, y, width int, cols rowColumns) {
	row.SetBox(element.Rect{Y: y, W: width, H: 1})

	x := 0
	place := func(class string, w int) {
		if el := row.FindByClass(class); el != nil {
			el.SetBox(element.Rect{X: x, Y: y, W: w, H: 1})
		}
		x += w
	}

	place(scrubber.ClassPlayButton, ui.ButtonWidth)
	x -= ui.ButtonWidth
	place(playlist.ClassPlayIcon, ui.ButtonWidth)

	labelsX := x
	labelsW := ui.TrackNumWidth + cols.name + cols.lastPlay + ui.TimeWidth
	if labels := row.FindByClass(playlist.ClassLabels); labels != nil {
		labels.SetBox(element.Rect{X: labelsX, Y: y, W: labelsW, H: 1})
	}
	place(playlist.ClassTrackNum, ui.TrackNumWidth)
	place(playlist.ClassTrackName, cols.name)
	place(playlist.ClassLastPlay, cols.lastPlay)
	place(playlist.ClassTime, ui.TimeWidth)

	shaft := row.FindByClass(scrubber.ClassShaft)
	if shaft == nil {
		return
	}
	box := element.Rect{X: width - cols.shaft, Y: y, W: cols.shaft, H: 1}
	shaft.SetBox(box)
	for _, child := range shaft.Children() {
		if child.HasClass(scrubber.ClassPlayhead) {
			child.SetBox(element.Rect{X: box.X, Y: y, W: ui.PlayheadWidth, H: 1})
			continue
		}
		child.SetBox(box)
	}
}
