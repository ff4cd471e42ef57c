package render

import (
	"strings"

	"github.com/llehouerou/tapedeck/internal/ui/styles"
)

const (
	playedBlock = "▓"
	loadedBlock = "▒"
	emptyBlock  = "░"
	headBlock   = "█"
)

// ShaftState is what a row's shaft shows. Offsets are cells, fractions are
// relative to the shaft width.
type ShaftState struct {
	Width     int
	Offset    int     // playhead cell
	Active    bool    // playhead and played fill are drawn
	LoadStart float64 // loaded range
	LoadEnd   float64
	Saved     float64 // last played fraction
}

// Shaft renders a one-line scrubber bar.
// Format: ▓▓▓▓█▒▒▒░░░░
func Shaft(st ShaftState) string {
	if st.Width <= 0 {
		return ""
	}
	s := styles.T().S()
	offset := max(0, min(st.Offset, st.Width-1))
	loadFrom := cell(st.LoadStart, st.Width)
	loadTo := cell(st.LoadEnd, st.Width)
	saved := cell(st.Saved, st.Width)

	var b strings.Builder
	played := 0
	if st.Active {
		played = offset
		b.WriteString(styles.NewGradient(styles.T().Primary, styles.T().Secondary).Render(strings.Repeat(playedBlock, played)))
	}

	// Consecutive cells of the same kind share one styled run.
	var run strings.Builder
	kind := -1
	flush := func() {
		if run.Len() == 0 {
			return
		}
		switch kind {
		case 0:
			b.WriteString(s.ShaftHead.Render(run.String()))
		case 1:
			b.WriteString(s.ShaftLoaded.Render(run.String()))
		case 2:
			b.WriteString(s.ShaftSaved.Render(run.String()))
		default:
			b.WriteString(s.ShaftEmpty.Render(run.String()))
		}
		run.Reset()
	}
	for i := played; i < st.Width; i++ {
		k, block := 3, emptyBlock
		switch {
		case st.Active && i == offset:
			k, block = 0, headBlock
		case i >= loadFrom && i < loadTo:
			k, block = 1, loadedBlock
		case i < saved:
			k, block = 2, playedBlock
		}
		if k != kind {
			flush()
			kind = k
		}
		run.WriteString(block)
	}
	flush()
	return b.String()
}

func cell(f float64, width int) int {
	return max(0, min(int(f*float64(width)), width))
}
