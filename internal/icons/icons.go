package icons

// Style represents the icon style to use.
type Style string

const (
	StyleNerd    Style = "nerd"
	StyleUnicode Style = "unicode"
	StyleNone    Style = "none"
)

// Icons holds the icon characters for the current style.
type Icons struct {
	Folder   string
	Playlist string
	Loop     string
	Volume   string
}

var (
	nerdIcons = Icons{
		Folder:   "\uf07b ", // nf-fa-folder
		Playlist: "󰲸 ",      // nf-md-playlist_music
		Loop:     "󰑘",       // nf-md-repeat_once
		Volume:   "󰕾 ",      // nf-md-volume_high
	}

	unicodeIcons = Icons{
		Folder:   "📁 ",
		Playlist: "📋 ",
		Loop:     "🔂",
		Volume:   "🔊 ",
	}

	noneIcons = Icons{
		Folder:   "/",
		Playlist: "",
		Loop:     "loop",
		Volume:   "vol ",
	}

	// current holds the active icon set
	current = noneIcons
)

// Init initializes the icons based on the style.
// Call this once at startup with the config value.
func Init(style string) {
	switch Style(style) {
	case StyleNerd:
		current = nerdIcons
	case StyleUnicode:
		current = unicodeIcons
	case StyleNone:
		current = noneIcons
	default:
		current = noneIcons
	}
}

// FormatDir formats the title of a folder playlist.
// For "none" style the indicator is a suffix ("/").
func FormatDir(name string) string {
	if current == noneIcons {
		return name + current.Folder
	}
	return current.Folder + name
}

// FormatPlaylist formats the title of a playlist document.
func FormatPlaylist(name string) string {
	return current.Playlist + name
}

// Loop returns the track loop indicator.
func Loop() string {
	return current.Loop
}

// Volume returns the prefix of the volume level.
func Volume() string {
	return current.Volume
}
