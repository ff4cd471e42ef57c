package mpris

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindAlbumArt(t *testing.T) {
	tests := []struct {
		name   string
		covers []string
		track  string // relative to the temp dir unless absolute or remote
		want   string // cover name, empty for none
	}{
		{"single cover", []string{"cover.jpg"}, "track.mp3", "cover.jpg"},
		{"none", nil, "track.mp3", ""},
		{"cover before folder", []string{"folder.jpg", "cover.jpg"}, "track.mp3", "cover.jpg"},
		{"front as last resort", []string{"front.png"}, "track.mp3", "front.png"},
		{"remote track", []string{"cover.jpg"}, "http://example.com/music/track.mp3", ""},
		{"no location", []string{"cover.jpg"}, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, c := range tt.covers {
				if err := os.WriteFile(filepath.Join(dir, c), []byte("fake"), 0o600); err != nil {
					t.Fatal(err)
				}
			}
			track := tt.track
			if track != "" && !filepath.IsAbs(track) && filepath.Base(track) == track {
				track = filepath.Join(dir, track)
			}
			want := ""
			if tt.want != "" {
				want = filepath.Join(dir, tt.want)
			}
			if got := FindAlbumArt(track); got != want {
				t.Errorf("FindAlbumArt(%q) = %q, want %q", track, got, want)
			}
		})
	}
}
