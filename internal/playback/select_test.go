package playback

import (
	"testing"

	"github.com/llehouerou/tapedeck/internal/events"
)

func TestSelect(t *testing.T) {
	bus := events.NewBus()
	native := NewMock(bus, "mp3", "ogg", "flac", "wav")
	native.SetKind("native")
	plugin := NewMock(bus, "flv", "mp3")
	plugin.SetKind("plugin")
	unsupported := NewMock(bus, "flv", "mp3")
	unsupported.SetKind("unsupported")
	unsupported.SetSupported(false)

	tests := []struct {
		name      string
		backends  []Backend
		available []string
		order     []string
		wantKind  string
		wantExt   string
		wantOK    bool
	}{
		{
			name:      "flv first goes to plugin",
			backends:  []Backend{native, plugin},
			available: []string{"mp3", "flv"},
			wantKind:  "plugin",
			wantExt:   "flv",
			wantOK:    true,
		},
		{
			name:      "backend order breaks ties",
			backends:  []Backend{native, plugin},
			available: []string{"mp3"},
			wantKind:  "native",
			wantExt:   "mp3",
			wantOK:    true,
		},
		{
			name:      "unsupported backend skipped",
			backends:  []Backend{unsupported, native},
			available: []string{"flv", "wav"},
			wantKind:  "native",
			wantExt:   "wav",
			wantOK:    true,
		},
		{
			name:      "custom order",
			backends:  []Backend{native, plugin},
			available: []string{"mp3", "flac"},
			order:     []string{"flac", "mp3"},
			wantKind:  "native",
			wantExt:   "flac",
			wantOK:    true,
		},
		{
			name:      "nothing playable",
			backends:  []Backend{unsupported},
			available: []string{"flv"},
		},
		{
			name:      "extension outside preference",
			backends:  []Backend{native},
			available: []string{"aiff"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, ext, ok := Select(tt.backends, tt.available, tt.order)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if b.Kind() != tt.wantKind || ext != tt.wantExt {
				t.Errorf("Select() = %s/%s, want %s/%s", b.Kind(), ext, tt.wantKind, tt.wantExt)
			}
		})
	}
}

func TestExtension(t *testing.T) {
	tests := []struct {
		location string
		want     string
	}{
		{"/music/a.MP3", "mp3"},
		{"https://example.com/a.ogg?token=1#x", "ogg"},
		{"http://example.com/dir.v2/track", ""},
		{"song.flac", "flac"},
		{"noext", ""},
	}
	for _, tt := range tests {
		if got := Extension(tt.location); got != tt.want {
			t.Errorf("Extension(%q) = %q, want %q", tt.location, got, tt.want)
		}
	}
}
