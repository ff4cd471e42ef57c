// Package xspf reads XSPF playlists into playlist entries. Alternate
// locations of a track are grouped by file extension.
package xspf

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/llehouerou/tapedeck/internal/playback"
	"github.com/llehouerou/tapedeck/internal/playlist"
)

const maxDocumentSize = 8 << 20

// ErrBadStatus is returned by Load when a remote playlist cannot be fetched.
var ErrBadStatus = errors.New("xspf: unexpected http status")

// document mirrors the XSPF schema. Numeric fields are read as text so a
// malformed number only drops that field.
type document struct {
	XMLName    xml.Name `xml:"playlist"`
	Title      string   `xml:"title"`
	Creator    string   `xml:"creator"`
	Annotation string   `xml:"annotation"`
	Info       string   `xml:"info"`
	Location   string   `xml:"location"`
	Identifier string   `xml:"identifier"`
	Image      string   `xml:"image"`
	Date       string   `xml:"date"`
	License    string   `xml:"license"`
	Tracks     []track  `xml:"trackList>track"`
}

type track struct {
	Locations   []string `xml:"location"`
	Identifiers []string `xml:"identifier"`
	Title       string   `xml:"title"`
	Creator     string   `xml:"creator"`
	Annotation  string   `xml:"annotation"`
	Info        string   `xml:"info"`
	Image       string   `xml:"image"`
	Album       string   `xml:"album"`
	TrackNum    string   `xml:"trackNum"`
	Duration    string   `xml:"duration"`
}

// Playlist is a parsed XSPF document.
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

	// Entries holds one entry per track that has at least one location
	// with a file extension.
	Entries []playlist.Entry
}

// Parse reads an XSPF document. Relative track locations are resolved
// against base, a directory or an http(s) URL; an empty base keeps them
// as they are.
func Parse(r io.Reader, base string) (*Playlist, error) {
	var doc document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse xspf: %w", err)
	}

	p := &Playlist{
		Title:      strings.TrimSpace(doc.Title),
		Creator:    strings.TrimSpace(doc.Creator),
		Annotation: strings.TrimSpace(doc.Annotation),
		Info:       strings.TrimSpace(doc.Info),
		Location:   strings.TrimSpace(doc.Location),
		Identifier: strings.TrimSpace(doc.Identifier),
		Image:      strings.TrimSpace(doc.Image),
		Date:       strings.TrimSpace(doc.Date),
		License:    strings.TrimSpace(doc.License),
	}
	for _, t := range doc.Tracks {
		if e := t.entry(base); len(e) > 0 {
			p.Entries = append(p.Entries, e)
		}
	}
	return p, nil
}

func (t track) entry(base string) playlist.Entry {
	var locations []string
	for _, loc := range t.Locations {
		if loc = strings.TrimSpace(loc); loc != "" {
			locations = append(locations, resolve(base, loc))
		}
	}
	if len(locations) == 0 {
		return nil
	}

	id := locations[0]
	for _, ident := range t.Identifiers {
		if ident = strings.TrimSpace(ident); ident != "" {
			id = ident
			break
		}
	}

	num, _ := strconv.Atoi(strings.TrimSpace(t.TrackNum))
	ms, _ := strconv.ParseInt(strings.TrimSpace(t.Duration), 10, 64)

	e := playlist.Entry{}
	for _, loc := range locations {
		ext := playback.Extension(loc)
		if ext == "" {
			continue
		}
		if _, dup := e[ext]; dup {
			continue
		}
		e[ext] = playback.Track{
			ID:          id,
			Location:    loc,
			Title:       strings.TrimSpace(t.Title),
			Creator:     strings.TrimSpace(t.Creator),
			Album:       strings.TrimSpace(t.Album),
			TrackNumber: max(num, 0),
			Duration:    time.Duration(max(ms, 0)) * time.Millisecond,
		}
	}
	return e
}

func resolve(base, loc string) string {
	if rest, ok := strings.CutPrefix(loc, "file://"); ok {
		return rest
	}
	if base == "" || playback.IsRemote(loc) || filepath.IsAbs(loc) {
		return loc
	}
	if playback.IsRemote(base) {
		b, err := url.Parse(base)
		if err != nil {
			return loc
		}
		ref, err := url.Parse(loc)
		if err != nil {
			return loc
		}
		return b.ResolveReference(ref).String()
	}
	return filepath.Join(base, filepath.FromSlash(loc))
}

// Load reads a playlist from a file or an http(s) URL.
func Load(ctx context.Context, client *http.Client, location string) (*Playlist, error) {
	if !playback.IsRemote(location) {
		f, err := os.Open(location)
		if err != nil {
			return nil, fmt.Errorf("open playlist: %w", err)
		}
		defer f.Close()
		return Parse(io.LimitReader(f, maxDocumentSize), filepath.Dir(location))
	}

	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch playlist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}
	return Parse(io.LimitReader(resp.Body, maxDocumentSize), location)
}

// Apply copies the document fields onto p.
func (x *Playlist) Apply(p *playlist.Playlist) {
	p.Title = x.Title
	p.Creator = x.Creator
	p.Annotation = x.Annotation
	p.Info = x.Info
	p.Location = x.Location
	p.Identifier = x.Identifier
	p.Image = x.Image
	p.Date = x.Date
	p.License = x.License
}
