package playlist

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/llehouerou/tapedeck/internal/playback"
	"github.com/llehouerou/tapedeck/internal/scrubber"
	"github.com/llehouerou/tapedeck/internal/ui/element"
)

// ErrNoPlayableFormat is returned by Setup when no supported backend can
// play any format offered by the entries.
var ErrNoPlayableFormat = errors.New("playlist: no playable format")

// SetupOptions configure Setup.
type SetupOptions struct {
	Options
	// Preference orders extensions; nil uses playback.DefaultPreference.
	Preference []string
	Config     playback.Config
	Log        *slog.Logger
}

// Setup picks the first backend and format able to play entries, binds the
// backend to scrub and builds a controller for the matching tracks. A
// backend failing to initialize is skipped.
func Setup(
	entries []Entry,
	container *element.Element,
	backends []playback.Backend,
	scrub *scrubber.Scrubber,
	opts SetupOptions,
) (*Controller, error) {
	log := opts.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	available := Available(entries)
	remaining := slices.Clone(backends)
	var initErr error
	for {
		b, ext, ok := playback.Select(remaining, available, opts.Preference)
		if !ok {
			return nil, errors.Join(ErrNoPlayableFormat, initErr)
		}
		if err := b.Init(opts.Config, scrub); err != nil {
			// Fall back to the next backend able to play something.
			initErr = fmt.Errorf("init %s backend: %w", b.Kind(), err)
			log.Warn("backend unavailable", "backend", b.Kind(), "err", err)
			remaining = slices.DeleteFunc(remaining, func(x playback.Backend) bool { return x == b })
			continue
		}
		return build(entries, container, b, ext, scrub, opts, log), nil
	}
}

func build(
	entries []Entry,
	container *element.Element,
	b playback.Backend,
	ext string,
	scrub *scrubber.Scrubber,
	opts SetupOptions,
	log *slog.Logger,
) *Controller {
	list := Pick(entries, ext)
	if skipped := len(entries) - list.Len(); skipped > 0 {
		log.Info("tracks without the selected format skipped", "format", ext, "skipped", skipped)
	}
	log.Info("playlist backend selected", "backend", b.Kind(), "format", ext)
	return NewController(b.Events(), b, scrub, list, container, opts.Options, log)
}
