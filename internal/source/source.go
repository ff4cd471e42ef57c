// Package source turns a location given on the command line or typed in
// the player into a playlist: an xspf document (file or URL) or a music
// folder.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/llehouerou/tapedeck/internal/library"
	"github.com/llehouerou/tapedeck/internal/playback"
	"github.com/llehouerou/tapedeck/internal/playlist"
	"github.com/llehouerou/tapedeck/internal/scrubber"
	"github.com/llehouerou/tapedeck/internal/ui/element"
	"github.com/llehouerou/tapedeck/internal/xspf"
)

const (
	// ClassPlaylist marks the container of one playlist under the root.
	ClassPlaylist = "playlist"
	// AttrLocation tags a playlist container with the location it came from.
	AttrLocation = "data-location"
	// AttrKind tells folder playlists from xspf documents.
	AttrKind = "data-kind"

	KindFolder   = "folder"
	KindPlaylist = "xspf"
)

// ErrEmptyLocation is returned by Open for a blank location.
var ErrEmptyLocation = errors.New("source: empty location")

// Opener builds playlists under a shared root element.
type Opener struct {
	Backends []playback.Backend
	Scrubber *scrubber.Scrubber
	Root     *element.Element
	Options  playlist.SetupOptions
	Client   *http.Client
	Log      *slog.Logger
}

// Open loads location and sets up a playlist for it. The playlist container
// is appended to the root once a backend was found.
func (o *Opener) Open(ctx context.Context, location string) (*playlist.Controller, error) {
	if location == "" {
		return nil, ErrEmptyLocation
	}
	log := o.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	entries, doc, err := o.read(ctx, location, log)
	if err != nil {
		return nil, err
	}

	container := element.New(ClassPlaylist)
	container.SetAttr(AttrLocation, location)
	kind := KindPlaylist
	if doc == nil {
		kind = KindFolder
	}
	container.SetAttr(AttrKind, kind)
	opts := o.Options
	opts.Log = log.With("source", location)
	c, err := playlist.Setup(entries, container, o.Backends, o.Scrubber, opts)
	if err != nil {
		return nil, fmt.Errorf("set up %s: %w", location, err)
	}

	list := c.Playlist()
	if doc != nil {
		doc.Apply(list)
	}
	if list.Title == "" {
		list.Title = filepath.Base(filepath.Clean(location))
	}

	o.Scrubber.Lock()
	o.Root.AppendChild(container)
	o.Scrubber.Unlock()

	log.Info("playlist opened", "source", location, "tracks", list.Len(), "backend", c.Backend().Kind())
	return c, nil
}

func (o *Opener) read(ctx context.Context, location string, log *slog.Logger) ([]playlist.Entry, *xspf.Playlist, error) {
	if !playback.IsRemote(location) {
		if st, err := os.Stat(location); err == nil && st.IsDir() {
			entries, err := library.Scan(ctx, location, log)
			if err != nil {
				return nil, nil, err
			}
			return entries, nil, nil
		}
	}
	doc, err := xspf.Load(ctx, o.Client, location)
	if err != nil {
		return nil, nil, err
	}
	return doc.Entries, doc, nil
}

// OpenAll opens every location in order. A location that fails is logged
// and skipped; the joined errors are returned with the playlists that
// could be opened.
func (o *Opener) OpenAll(ctx context.Context, locations []string) ([]*playlist.Controller, error) {
	var (
		opened []*playlist.Controller
		errs   []error
	)
	for _, loc := range locations {
		c, err := o.Open(ctx, loc)
		if err != nil {
			if o.Log != nil {
				o.Log.Warn("open source", "source", loc, "err", err)
			}
			errs = append(errs, err)
			continue
		}
		opened = append(opened, c)
	}
	return opened, errors.Join(errs...)
}
