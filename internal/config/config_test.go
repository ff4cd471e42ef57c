//nolint:goconst // test cases intentionally repeat strings for readability
package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("Could not get home dir: %v", err)
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "tilde expands to home",
			input:    "~/music",
			expected: filepath.Join(home, "music"),
		},
		{
			name:     "absolute path unchanged",
			input:    "/usr/local/music",
			expected: "/usr/local/music",
		},
		{
			name:     "relative path unchanged",
			input:    "lists/road.xspf",
			expected: "lists/road.xspf",
		},
		{
			name:     "empty string unchanged",
			input:    "",
			expected: "",
		},
		{
			name:     "tilde only",
			input:    "~",
			expected: home,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandPath(tt.input)
			if result != tt.expected {
				t.Errorf("expandPath(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestGetConfigPaths(t *testing.T) {
	paths := getConfigPaths()

	if len(paths) != 2 {
		t.Fatalf("getConfigPaths() = %v, want 2 paths", paths)
	}
	if paths[len(paths)-1] != "config.toml" {
		t.Errorf("last config path = %q, want %q", paths[len(paths)-1], "config.toml")
	}
	if filepath.Base(filepath.Dir(paths[0])) != "tapedeck" {
		t.Errorf("first config path = %q, want it under a tapedeck directory", paths[0])
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("could not write config file: %v", err)
	}
	return path
}

func TestLoadFiles_Defaults(t *testing.T) {
	cfg, err := LoadFiles(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("LoadFiles() error = %v", err)
	}

	if !cfg.AutoNextEnabled() || !cfg.LastPlayedEnabled() || !cfg.MPRISEnabled() {
		t.Errorf("boolean defaults not applied: %+v", cfg)
	}
	if cfg.HasBridgeConfig() || cfg.HasControlConfig() {
		t.Error("optional surfaces enabled without configuration")
	}
	if cfg.InitialVolume() != 1 {
		t.Errorf("InitialVolume() = %v, want 1", cfg.InitialVolume())
	}
	if cfg.NotificationsEnabled() || !cfg.NotificationAlbumArt() {
		t.Errorf("notification defaults not applied: %+v", cfg.Notifications)
	}
}

func TestLoadFiles_BasicConfig(t *testing.T) {
	path := writeConfig(t, `
sources = ["/music", "~/lists/road.xspf"]
auto_next = false
poll_interval = "40ms"
preference = [".OGG", "mp3"]
volume = 1.5
icons = "nerd"

[bridge]
url = "ws://localhost:8910/agent/"
provider = "rtmp"

[control]
listen = "127.0.0.1:8911"

[notifications]
enabled = true
album_art = false
timeout = "3s"

[last_played]
enabled = false
db_path = "~/tapedeck.db"
`)

	cfg, err := LoadFiles(path)
	if err != nil {
		t.Fatalf("LoadFiles() error = %v", err)
	}

	home, _ := os.UserHomeDir()
	if want := []string{"/music", filepath.Join(home, "lists", "road.xspf")}; !slices.Equal(cfg.Sources, want) {
		t.Errorf("Sources = %v, want %v", cfg.Sources, want)
	}
	if cfg.AutoNextEnabled() {
		t.Error("AutoNextEnabled() = true, want false")
	}
	if cfg.PollInterval != 40*time.Millisecond {
		t.Errorf("PollInterval = %v, want 40ms", cfg.PollInterval)
	}
	if !slices.Equal(cfg.Preference, []string{"ogg", "mp3"}) {
		t.Errorf("Preference = %v, want normalized [ogg mp3]", cfg.Preference)
	}
	if cfg.InitialVolume() != 1 {
		t.Errorf("InitialVolume() = %v, want clamped 1", cfg.InitialVolume())
	}
	if cfg.Icons != "nerd" {
		t.Errorf("Icons = %q, want nerd", cfg.Icons)
	}
	if cfg.Bridge.URL != "ws://localhost:8910/agent" || cfg.Bridge.Provider != "rtmp" {
		t.Errorf("Bridge = %+v", cfg.Bridge)
	}
	if !cfg.HasControlConfig() || cfg.Control.Listen != "127.0.0.1:8911" {
		t.Errorf("Control = %+v", cfg.Control)
	}
	if cfg.LastPlayedEnabled() {
		t.Error("LastPlayedEnabled() = true, want false")
	}
	if !cfg.NotificationsEnabled() || cfg.NotificationAlbumArt() || cfg.Notifications.Timeout != 3*time.Second {
		t.Errorf("Notifications = %+v", cfg.Notifications)
	}
	if cfg.LastPlayed.DBPath != filepath.Join(home, "tapedeck.db") {
		t.Errorf("LastPlayed.DBPath = %q", cfg.LastPlayed.DBPath)
	}
}

func TestLoadFiles_LaterFileWins(t *testing.T) {
	global := writeConfig(t, "volume = 0.2\n[control]\nlisten = \":1\"\n")
	local := writeConfig(t, "volume = 0.7\n")

	cfg, err := LoadFiles(global, local, filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadFiles() error = %v", err)
	}
	if cfg.InitialVolume() != 0.7 {
		t.Errorf("InitialVolume() = %v, want 0.7", cfg.InitialVolume())
	}
	if cfg.Control.Listen != ":1" {
		t.Errorf("Control.Listen = %q, want value kept from the first file", cfg.Control.Listen)
	}
}

func TestLoadFiles_InvalidToml(t *testing.T) {
	if _, err := LoadFiles(writeConfig(t, "invalid = [[[")); err == nil {
		t.Error("LoadFiles() expected error for invalid TOML, got nil")
	}
}

func TestLoadFiles_InvalidBridgeURL(t *testing.T) {
	_, err := LoadFiles(writeConfig(t, "[bridge]\nurl = \"http://localhost:8910\"\n"))
	if !errors.Is(err, ErrInvalidBridgeURL) {
		t.Errorf("LoadFiles() error = %v, want ErrInvalidBridgeURL", err)
	}
}

func TestLoad_LocalConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	if err := os.WriteFile("config.toml", []byte(`sources = ["here.xspf"]`), 0o600); err != nil {
		t.Fatalf("could not write config file: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	// Values may also come from the user config; the local file wins for sources.
	if !slices.Equal(cfg.Sources, []string{"here.xspf"}) {
		t.Errorf("Sources = %v, want [here.xspf]", cfg.Sources)
	}
}
