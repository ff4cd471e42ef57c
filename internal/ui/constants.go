package ui

// Layout constants for consistent sizing across UI components.
const (
	// ScrollMargin is the number of lines to keep visible above/below the cursor.
	ScrollMargin = 2

	// BorderHeight is the vertical space consumed by a standard panel border.
	BorderHeight = 2

	// StatusBarHeight is the bordered now-playing bar below the playlists.
	StatusBarHeight = BorderHeight + 1

	// Row columns, in cells.
	ButtonWidth   = 3
	TrackNumWidth = 4
	LastPlayWidth = 15
	TimeWidth     = 7
	PlayheadWidth = 1

	// ShaftWidthDivisor determines the share of the row taken by the shaft.
	// The shaft gets 1/ShaftWidthDivisor of the width.
	ShaftWidthDivisor = 3

	// MinShaftWidth is the minimum width for a usable shaft.
	MinShaftWidth = 5
)
