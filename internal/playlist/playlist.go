// Package playlist renders playlists as player rows and drives a backend
// from row clicks and end-of-track events.
package playlist

import (
	"slices"
	"sort"

	"github.com/llehouerou/tapedeck/internal/playback"
)

// Track is the playable item of a playlist.
type Track = playback.Track

// Playlist holds an ordered collection of tracks and the descriptive
// fields of its source document.
type Playlist struct {
	Title      string
	Creator    string
	Annotation string
	Info       string
	Location   string
	Identifier string
	Image      string
	Date       string
	License    string

	tracks []playback.Track
}

// NewPlaylist creates a playlist holding tracks.
func NewPlaylist(tracks ...playback.Track) *Playlist {
	p := &Playlist{tracks: make([]playback.Track, 0, len(tracks))}
	p.Add(tracks...)
	return p
}

// Add appends tracks to the playlist. Tracks whose ID is already present
// are skipped: IDs are unique within a playlist.
func (p *Playlist) Add(tracks ...playback.Track) {
	for _, t := range tracks {
		if p.Index(t.ID) >= 0 {
			continue
		}
		p.tracks = append(p.tracks, t)
	}
}

// Tracks returns a copy of all tracks.
func (p *Playlist) Tracks() []playback.Track {
	return slices.Clone(p.tracks)
}

// Track returns the track at index, or false if out of bounds.
func (p *Playlist) Track(index int) (playback.Track, bool) {
	if index < 0 || index >= len(p.tracks) {
		return playback.Track{}, false
	}
	return p.tracks[index], true
}

// Index returns the position of the track with id, or -1.
func (p *Playlist) Index(id string) int {
	return slices.IndexFunc(p.tracks, func(t playback.Track) bool { return t.ID == id })
}

// Len returns the number of tracks.
func (p *Playlist) Len() int {
	return len(p.tracks)
}

// Entry lists the alternate formats of one track, keyed by file extension.
type Entry map[string]playback.Track

// Extensions returns the entry's extensions in sorted order.
func (e Entry) Extensions() []string {
	exts := make([]string, 0, len(e))
	for ext := range e {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Available returns every extension offered by at least one entry.
func Available(entries []Entry) []string {
	var exts []string
	for _, e := range entries {
		for _, ext := range e.Extensions() {
			if !slices.Contains(exts, ext) {
				exts = append(exts, ext)
			}
		}
	}
	return exts
}

// Pick builds the playlist of the tracks available as ext, in entry order.
func Pick(entries []Entry, ext string) *Playlist {
	p := NewPlaylist()
	for _, e := range entries {
		if t, ok := e[ext]; ok {
			p.Add(t)
		}
	}
	return p
}
