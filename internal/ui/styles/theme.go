package styles

import "github.com/charmbracelet/lipgloss"

// Theme defines the color palette and pre-built styles for the application.
type Theme struct {
	// Brand/accent colors
	Primary   lipgloss.Color // Purple - played fill start, active row
	Secondary lipgloss.Color // Gold/orange - played fill end

	// Text hierarchy (most to least prominent)
	FgBase   lipgloss.Color // Track names
	FgMuted  lipgloss.Color // Labels, times
	FgSubtle lipgloss.Color // Empty shaft, help

	// Backgrounds
	BgActive lipgloss.Color // Row under the cursor

	// Borders
	Border      lipgloss.Color // Playlist panels
	BorderFocus lipgloss.Color // Panel holding the active row

	// Shaft
	Loaded lipgloss.Color // Buffered range
	Saved  lipgloss.Color // Last played progress

	// Status colors
	Success lipgloss.Color // Green - playing
	Error   lipgloss.Color // Red - failed loads

	styles *Styles
}

// Styles contains pre-built lipgloss styles for rows and shafts.
type Styles struct {
	Base    lipgloss.Style // Track name
	Muted   lipgloss.Style // Number, last play, time
	Subtle  lipgloss.Style // Help, placeholders
	Title   lipgloss.Style // Playlist title
	Cursor  lipgloss.Style // Row under the keyboard cursor
	Current lipgloss.Style // Name of the row bound to the scrubber
	Playing lipgloss.Style // Play button while playing
	Paused  lipgloss.Style // Play button otherwise

	ShaftHead   lipgloss.Style
	ShaftLoaded lipgloss.Style
	ShaftSaved  lipgloss.Style
	ShaftEmpty  lipgloss.Style

	Error lipgloss.Style
}

var defaultTheme = Theme{
	Primary:   lipgloss.Color("#a78bfa"),
	Secondary: lipgloss.Color("#f1a208"),

	FgBase:   lipgloss.Color("#c0c0c0"),
	FgMuted:  lipgloss.Color("#808080"),
	FgSubtle: lipgloss.Color("#585858"),

	BgActive: lipgloss.Color("#303030"),

	Border:      lipgloss.Color("#585858"),
	BorderFocus: lipgloss.Color("#a78bfa"),

	Loaded: lipgloss.Color("#6b6b8f"),
	Saved:  lipgloss.Color("#4a3f6b"),

	Success: lipgloss.Color("#42b883"),
	Error:   lipgloss.Color("#ff5555"),
}

// T returns the default theme.
func T() *Theme {
	return &defaultTheme
}

// S returns the pre-built styles for this theme.
func (t *Theme) S() *Styles {
	if t.styles == nil {
		t.styles = t.buildStyles()
	}
	return t.styles
}

func (t *Theme) buildStyles() *Styles {
	base := lipgloss.NewStyle().Foreground(t.FgBase)

	return &Styles{
		Base:    base,
		Muted:   lipgloss.NewStyle().Foreground(t.FgMuted),
		Subtle:  lipgloss.NewStyle().Foreground(t.FgSubtle),
		Title:   base.Bold(true),
		Cursor:  lipgloss.NewStyle().Background(t.BgActive),
		Current: lipgloss.NewStyle().Foreground(t.Primary).Bold(true),
		Playing: lipgloss.NewStyle().Foreground(t.Success).Bold(true),
		Paused:  lipgloss.NewStyle().Foreground(t.Primary),

		ShaftHead:   lipgloss.NewStyle().Foreground(t.Secondary),
		ShaftLoaded: lipgloss.NewStyle().Foreground(t.Loaded),
		ShaftSaved:  lipgloss.NewStyle().Foreground(t.Saved),
		ShaftEmpty:  lipgloss.NewStyle().Foreground(t.FgSubtle),

		Error: lipgloss.NewStyle().Foreground(t.Error),
	}
}
