package library

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// id3 builds an ID3v2.3 tag with the given text frames.
func id3(frames map[string]string) []byte {
	var body []byte
	for _, id := range []string{"TIT2", "TPE1", "TALB", "TRCK"} {
		text, ok := frames[id]
		if !ok {
			continue
		}
		data := append([]byte{0}, text...)
		hdr := make([]byte, 10)
		copy(hdr, id)
		binary.BigEndian.PutUint32(hdr[4:], uint32(len(data)))
		body = append(body, hdr...)
		body = append(body, data...)
	}
	n := len(body)
	size := []byte{byte(n >> 21 & 0x7f), byte(n >> 14 & 0x7f), byte(n >> 7 & 0x7f), byte(n & 0x7f)}
	out := append([]byte{'I', 'D', '3', 3, 0, 0}, size...)
	out = append(out, body...)
	return append(out, make([]byte, 64)...)
}

func write(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "b-side.mp3"), id3(map[string]string{
		"TIT2": "Second", "TPE1": "Band", "TALB": "Debut", "TRCK": "2/9",
	}))
	write(t, filepath.Join(root, "b-side.ogg"), []byte("not really ogg"))
	write(t, filepath.Join(root, "a-side.mp3"), id3(map[string]string{"TIT2": "First", "TRCK": "1"}))
	write(t, filepath.Join(root, "notes.txt"), []byte("ignored"))
	write(t, filepath.Join(root, "live", "encore.flac"), []byte("garbage"))

	entries, err := Scan(context.Background(), root, nil)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	first := entries[0]["mp3"]
	assert.Equal(t, "a-side", first.ID)
	assert.Equal(t, "First", first.Title)
	assert.Equal(t, 1, first.TrackNumber)

	second := entries[1]
	assert.Equal(t, []string{"mp3", "ogg"}, second.Extensions())
	assert.Equal(t, "Second", second["ogg"].Title, "tags of one format describe all formats")
	assert.Equal(t, "Band", second["mp3"].Creator)
	assert.Equal(t, "Debut", second["mp3"].Album)
	assert.Equal(t, 2, second["mp3"].TrackNumber)
	assert.Equal(t, filepath.Join(root, "b-side.ogg"), second["ogg"].Location)

	encore := entries[2]["flac"]
	assert.Equal(t, "live/encore", encore.ID)
	assert.Equal(t, "encore", encore.Title, "untagged files fall back to the file name")
}

func TestScan_Errors(t *testing.T) {
	_, err := Scan(context.Background(), filepath.Join(t.TempDir(), "missing"), nil)
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "a.mp3")
	write(t, file, []byte("x"))
	_, err = Scan(context.Background(), file, nil)
	assert.ErrorIs(t, err, ErrNotDirectory)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Scan(ctx, t.TempDir(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsMusicFile(t *testing.T) {
	assert.True(t, IsMusicFile("/a/b.MP3"))
	assert.True(t, IsMusicFile("x.opus"))
	assert.False(t, IsMusicFile("cover.jpg"))
	assert.False(t, IsMusicFile("README"))
}
