package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ErrInvalidBridgeURL is returned by Load when bridge.url is not a ws:// or
// wss:// address.
var ErrInvalidBridgeURL = errors.New("bridge url must use ws or wss")

type Config struct {
	Sources      []string      `koanf:"sources"`       // xspf files, playlist URLs or music folders
	AutoNext     *bool         `koanf:"auto_next"`     // advance when a track ends (default: true)
	PollInterval time.Duration `koanf:"poll_interval"` // playing tick rate, e.g. "15ms" (default: 15ms)
	Preference   []string      `koanf:"preference"`    // extension order (default: flv mp3 ogg flac wav)
	Volume       *float64      `koanf:"volume"`        // volume used when none was saved (0-1)
	Icons        string        `koanf:"icons"`         // "nerd", "unicode", or "none"

	// Remote player agent reached over a websocket
	Bridge BridgeConfig `koanf:"bridge"`

	// HTTP control surface (disabled when listen is empty)
	Control ControlConfig `koanf:"control"`

	// Per-track resume positions
	LastPlayed LastPlayedConfig `koanf:"last_played"`

	MPRIS *bool `koanf:"mpris"` // register on the session bus (default: true)

	// Desktop notification when a track starts
	Notifications NotificationsConfig `koanf:"notifications"`
}

// BridgeConfig holds the remote agent settings.
type BridgeConfig struct {
	URL      string `koanf:"url"`      // e.g., "ws://localhost:8910/agent"
	Provider string `koanf:"provider"` // forwarded with every load
}

// ControlConfig holds the HTTP control server settings.
type ControlConfig struct {
	Listen string `koanf:"listen"` // e.g., "127.0.0.1:8911"
}

// NotificationsConfig holds now playing notification settings.
type NotificationsConfig struct {
	Enabled  *bool         `koanf:"enabled"`   // default: false
	AlbumArt *bool         `koanf:"album_art"` // default: true
	Timeout  time.Duration `koanf:"timeout"`   // e.g. "5s"; 0 uses the server default
}

// LastPlayedConfig holds resume position settings.
type LastPlayedConfig struct {
	Enabled *bool  `koanf:"enabled"` // default: true
	DBPath  string `koanf:"db_path"` // default: $XDG_DATA_HOME/tapedeck/tapedeck.db
}

func Load() (*Config, error) {
	return LoadFiles(getConfigPaths()...)
}

// LoadFiles reads the given TOML files in order, later files overriding
// earlier ones. Missing files are skipped.
func LoadFiles(paths ...string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	for i, src := range cfg.Sources {
		cfg.Sources[i] = expandPath(src)
	}
	cfg.LastPlayed.DBPath = expandPath(cfg.LastPlayed.DBPath)

	cfg.Bridge.URL = strings.TrimSuffix(cfg.Bridge.URL, "/")
	if cfg.Bridge.URL != "" {
		u, err := url.Parse(cfg.Bridge.URL)
		if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidBridgeURL, cfg.Bridge.URL)
		}
	}

	for i, ext := range cfg.Preference {
		cfg.Preference[i] = strings.ToLower(strings.TrimPrefix(ext, "."))
	}

	return cfg, nil
}

func getConfigPaths() []string {
	return []string{
		// 1. $XDG_CONFIG_HOME/tapedeck/config.toml
		filepath.Join(xdg.ConfigHome, "tapedeck", "config.toml"),
		// 2. ./config.toml (pwd, highest priority)
		"config.toml",
	}
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// AutoNextEnabled reports whether playlists advance when a track ends.
func (c *Config) AutoNextEnabled() bool {
	return c.AutoNext == nil || *c.AutoNext
}

// LastPlayedEnabled reports whether resume positions are kept.
func (c *Config) LastPlayedEnabled() bool {
	return c.LastPlayed.Enabled == nil || *c.LastPlayed.Enabled
}

// MPRISEnabled reports whether the MPRIS server should be started.
func (c *Config) MPRISEnabled() bool {
	return c.MPRIS == nil || *c.MPRIS
}

// NotificationsEnabled reports whether now playing notifications are sent.
func (c *Config) NotificationsEnabled() bool {
	return c.Notifications.Enabled != nil && *c.Notifications.Enabled
}

// NotificationAlbumArt reports whether notifications carry cover art.
func (c *Config) NotificationAlbumArt() bool {
	return c.Notifications.AlbumArt == nil || *c.Notifications.AlbumArt
}

// HasBridgeConfig returns true if a remote player agent is configured.
func (c *Config) HasBridgeConfig() bool {
	return c.Bridge.URL != ""
}

// HasControlConfig returns true if the HTTP control server is enabled.
func (c *Config) HasControlConfig() bool {
	return c.Control.Listen != ""
}

// InitialVolume returns the configured volume clamped to [0,1], or 1.
func (c *Config) InitialVolume() float64 {
	if c.Volume == nil {
		return 1
	}
	return max(0, min(*c.Volume, 1))
}
