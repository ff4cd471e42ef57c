package playback

import (
	"net/url"
	"path"
	"strings"
	"time"
)

// Track is a playable item. Tracks are immutable once loaded from a
// playlist source.
type Track struct {
	ID          string
	Location    string
	Title       string
	Creator     string
	Album       string
	TrackNumber int // 0 when unknown
	Duration    time.Duration
}

// Extension returns the lower-cased file extension of the location,
// without the dot.
func (t Track) Extension() string {
	return Extension(t.Location)
}

// IsRemote reports whether the location is an http(s) URL.
func (t Track) IsRemote() bool {
	return IsRemote(t.Location)
}

// Extension returns the lower-cased extension of a path or URL, without the
// dot. Query strings and fragments of URLs are ignored.
func Extension(location string) string {
	p := location
	if IsRemote(location) {
		if u, err := url.Parse(location); err == nil {
			p = u.Path
		}
	}
	return strings.TrimPrefix(strings.ToLower(path.Ext(p)), ".")
}

// IsRemote reports whether location is an http(s) URL.
func IsRemote(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

func splitNames(s string) []string {
	return strings.Fields(s)
}
