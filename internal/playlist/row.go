package playlist

import (
	"fmt"
	"strconv"
	"time"

	"github.com/llehouerou/tapedeck/internal/scrubber"
	"github.com/llehouerou/tapedeck/internal/ui/element"
)

// Row classes.
const (
	ClassRow       = "player"
	ClassActive    = "player-active"
	ClassPlayIcon  = "play-icon"
	ClassLabels    = "labels"
	ClassTrackNum  = "track-num"
	ClassTrackName = "track-name"
	ClassLastPlay  = "track-last-play"
	ClassTime      = "time"
	ClassShaftBar  = "shaft-bar"
)

// AttrTrackID tags a row with the ID of its track.
const AttrTrackID = "data-playitem-id"

const untitled = "Untitled track"

// NewRow builds the player row of t. position is the 1-based place of the
// track in its playlist, shown when t has no track number.
func NewRow(t Track, position int) *element.Element {
	num := t.TrackNumber
	if num <= 0 {
		num = position
	}
	title := t.Title
	if title == "" {
		title = untitled
	}

	button := element.New(scrubber.ClassPlayButton)
	button.AppendChild(element.New(ClassPlayIcon))

	labels := element.New(ClassLabels)
	labels.AppendChildren(
		text(ClassTrackNum, strconv.Itoa(num)),
		text(ClassTrackName, title),
		text(ClassLastPlay, ""),
		text(ClassTime, FormatTime(t.Duration)),
	)

	shaft := element.New(scrubber.ClassShaft)
	shaft.AppendChildren(
		element.New(scrubber.ClassPlayhead),
		element.New(scrubber.ClassProgress),
		element.New(scrubber.ClassLoadProgress),
		element.New(ClassShaftBar),
	)

	row := element.New(ClassRow)
	row.AppendChildren(button, labels, shaft)
	return row
}

func text(class, s string) *element.Element {
	el := element.New(class)
	el.Text = s
	return el
}

// FormatTime formats d as m:ss.
func FormatTime(d time.Duration) string {
	d = max(d, 0).Round(time.Second)
	total := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
