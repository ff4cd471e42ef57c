package styles

import "github.com/charmbracelet/lipgloss"

// PanelStyle returns the border of a playlist panel. The panel holding the
// row bound to the scrubber is highlighted.
func PanelStyle(active bool) lipgloss.Style {
	color := T().Border
	if active {
		color = T().BorderFocus
	}
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(color)
}

// PanelFrame returns the horizontal and vertical cells taken by a panel
// border.
func PanelFrame() (int, int) {
	return PanelStyle(false).GetFrameSize()
}
