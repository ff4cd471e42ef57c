package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rivo/uniseg"
)

// gray stands in for colors without a fixed RGB value, like ANSI indexes.
var gray = colorful.Color{R: 0.5, G: 0.5, B: 0.5}

// Gradient colors text from one color on the left to another on the right,
// blending in HCL space.
type Gradient struct {
	from, to colorful.Color
	bold     bool
}

// NewGradient returns a gradient between two hex colors.
func NewGradient(from, to lipgloss.Color) Gradient {
	return Gradient{from: toColorful(from), to: toColorful(to)}
}

// Bold returns a copy of g rendering bold text.
func (g Gradient) Bold() Gradient {
	g.bold = true
	return g
}

// At returns the color at t in [0,1].
func (g Gradient) At(t float64) lipgloss.Color {
	switch {
	case t <= 0:
		return lipgloss.Color(g.from.Hex())
	case t >= 1:
		return lipgloss.Color(g.to.Hex())
	}
	return lipgloss.Color(g.from.BlendHcl(g.to, t).Clamped().Hex())
}

// Render paints each grapheme of text with its place in the gradient.
func (g Gradient) Render(text string) string {
	var clusters []string
	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		clusters = append(clusters, gr.Str())
	}

	var b strings.Builder
	for i, c := range clusters {
		t := 0.0
		if len(clusters) > 1 {
			t = float64(i) / float64(len(clusters)-1)
		}
		b.WriteString(lipgloss.NewStyle().Foreground(g.At(t)).Bold(g.bold).Render(c))
	}
	return b.String()
}

func toColorful(c lipgloss.Color) colorful.Color {
	col, err := colorful.Hex(string(c))
	if err != nil {
		return gray
	}
	return col
}
