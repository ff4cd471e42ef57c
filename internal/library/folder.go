// Package library builds playlist entries from a music folder. Files that
// share a base name are alternate formats of the same track.
package library

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/dhowden/tag"

	"github.com/llehouerou/tapedeck/internal/playback"
	"github.com/llehouerou/tapedeck/internal/playlist"
)

const numWorkers = 8

// ErrNotDirectory is returned by Scan when root is not a directory.
var ErrNotDirectory = errors.New("library: not a directory")

// MusicExtensions lists the extensions picked up by Scan.
var MusicExtensions = []string{"mp3", "flac", "wav", "ogg", "oga", "opus", "m4a", "mp4", "flv"}

// IsMusicFile reports whether path has a music extension.
func IsMusicFile(path string) bool {
	return slices.Contains(MusicExtensions, playback.Extension(path))
}

// file is a discovered music file.
type file struct {
	path string
	key  string // path relative to root, without extension
	ext  string
}

// trackInfo holds what the tags of one file told us.
type trackInfo struct {
	file
	title  string
	artist string
	album  string
	number int
}

// Scan walks root and returns one entry per track. Entries are ordered by
// directory, then track number, then name. Tags are read with dhowden/tag;
// without a title tag the file name is used.
func Scan(ctx context.Context, root string, log *slog.Logger) ([]playlist.Entry, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	st, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat music folder: %w", err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}

	files, err := discover(ctx, root)
	if err != nil {
		return nil, err
	}
	infos := readTags(ctx, files, log)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return group(infos), nil
}

func discover(ctx context.Context, root string) ([]file, error) {
	var files []file
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		// Unreadable entries are skipped so the rest of the folder still loads.
		if walkErr != nil || d.IsDir() || !IsMusicFile(path) {
			return nil //nolint:nilerr // intentionally skipping errors
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		ext := playback.Extension(path)
		files = append(files, file{
			path: path,
			key:  filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel))),
			ext:  ext,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk music folder: %w", err)
	}
	return files, nil
}

func readTags(ctx context.Context, files []file, log *slog.Logger) []trackInfo {
	workCh := make(chan int)
	infos := make([]trackInfo, len(files))

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Go(func() {
			for i := range workCh {
				infos[i] = readTrack(files[i], log)
			}
		})
	}

	for i := range files {
		if ctx.Err() != nil {
			break
		}
		workCh <- i
	}
	close(workCh)
	wg.Wait()
	return infos
}

func readTrack(f file, log *slog.Logger) trackInfo {
	info := trackInfo{file: f}
	fh, err := os.Open(f.path)
	if err != nil {
		log.Debug("open music file", "path", f.path, "err", err)
		return info
	}
	defer fh.Close()

	m, err := tag.ReadFrom(fh)
	if err != nil {
		log.Debug("read tags", "path", f.path, "err", err)
		return info
	}
	info.title = m.Title()
	info.artist = m.Artist()
	info.album = m.Album()
	info.number, _ = m.Track()
	return info
}

func group(infos []trackInfo) []playlist.Entry {
	byKey := make(map[string][]trackInfo)
	var keys []string
	for _, info := range infos {
		if _, ok := byKey[info.key]; !ok {
			keys = append(keys, info.key)
		}
		byKey[info.key] = append(byKey[info.key], info)
	}

	// The first file with tags describes the track for every format.
	describe := func(key string) trackInfo {
		formats := byKey[key]
		for _, f := range formats {
			if f.title != "" {
				return f
			}
		}
		return formats[0]
	}

	slices.SortFunc(keys, func(a, b string) int {
		da, db := filepath.Dir(a), filepath.Dir(b)
		if c := cmp.Compare(da, db); c != 0 {
			return c
		}
		na, nb := describe(a).number, describe(b).number
		if na > 0 && nb > 0 && na != nb {
			return cmp.Compare(na, nb)
		}
		return cmp.Compare(a, b)
	})

	entries := make([]playlist.Entry, 0, len(keys))
	for _, key := range keys {
		meta := describe(key)
		if meta.title == "" {
			meta.title = path.Base(key)
		}
		e := playlist.Entry{}
		for _, f := range byKey[key] {
			e[f.ext] = playback.Track{
				ID:          key,
				Location:    f.path,
				Title:       meta.title,
				Creator:     meta.artist,
				Album:       meta.album,
				TrackNumber: meta.number,
			}
		}
		entries = append(entries, e)
	}
	return entries
}
