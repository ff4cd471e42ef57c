package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/tapedeck/internal/app"
	"github.com/llehouerou/tapedeck/internal/bridge"
	"github.com/llehouerou/tapedeck/internal/config"
	"github.com/llehouerou/tapedeck/internal/control"
	"github.com/llehouerou/tapedeck/internal/events"
	"github.com/llehouerou/tapedeck/internal/icons"
	"github.com/llehouerou/tapedeck/internal/lastplayed"
	"github.com/llehouerou/tapedeck/internal/logging"
	"github.com/llehouerou/tapedeck/internal/metrics"
	"github.com/llehouerou/tapedeck/internal/mpris"
	"github.com/llehouerou/tapedeck/internal/notify"
	"github.com/llehouerou/tapedeck/internal/playback"
	"github.com/llehouerou/tapedeck/internal/player"
	"github.com/llehouerou/tapedeck/internal/playlist"
	"github.com/llehouerou/tapedeck/internal/scrubber"
	"github.com/llehouerou/tapedeck/internal/source"
	"github.com/llehouerou/tapedeck/internal/state"
	"github.com/llehouerou/tapedeck/internal/stderr"
	"github.com/llehouerou/tapedeck/internal/ui/element"
)

const (
	fetchTimeout    = 30 * time.Second
	shutdownTimeout = 5 * time.Second
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "tapedeck: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("tapedeck", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: tapedeck [flags] [playlist.xspf | URL | folder]...")
		fs.PrintDefaults()
	}
	logPath := fs.String("log", "", "log file (default $XDG_STATE_HOME/tapedeck/tapedeck.log)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	log, logFile, err := logging.Open(*logPath)
	if err != nil {
		return err
	}
	defer logFile.Close()

	// Capture C library output (ALSA, faad2) before audio starts.
	if err := stderr.Start(log); err != nil {
		log.Warn("stderr capture unavailable", "err", err)
	}
	defer stderr.Stop()
	defer func() {
		// While stderr is captured a panic report would only reach the log.
		if r := recover(); r != nil {
			log.Error("panic", "err", r)
			stderr.WriteOriginal(fmt.Sprintf("tapedeck: panic: %v\n", r))
			panic(r)
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	icons.Init(cfg.Icons)

	var store state.Interface
	if cfg.LastPlayedEnabled() {
		mgr, err := state.Open(cfg.LastPlayed.DBPath)
		if err != nil {
			log.Warn("state unavailable, positions will not be saved", "err", err)
		} else {
			store = mgr
			defer mgr.Close()
		}
	}

	bus := events.NewBus()
	scrub := scrubber.New(bus, log)
	defer scrub.Close()
	registry := playlist.NewRegistry(bus, scrub)
	defer registry.Close()

	backends := []playback.Backend{player.New(bus, player.NewSpeaker(), nil, log)}
	if cfg.HasBridgeConfig() {
		backends = append(backends, bridge.New(bus, cfg.Bridge.URL, log))
	}
	defer func() {
		for _, b := range backends {
			if err := b.Close(); err != nil {
				log.Warn("close backend", "backend", b.Kind(), "err", err)
			}
		}
	}()

	m := metrics.New(bus)
	defer m.Close()

	if store != nil {
		tracker := lastplayed.New(bus, store, scrub, registry, log)
		defer tracker.Close()
	}

	root := element.New()
	opener := &source.Opener{
		Backends: backends,
		Scrubber: scrub,
		Root:     root,
		Options: playlist.SetupOptions{
			Options:    playlist.Options{AutoNext: cfg.AutoNextEnabled()},
			Preference: cfg.Preference,
			Config: playback.Config{
				BridgeURL:    cfg.Bridge.URL,
				Provider:     cfg.Bridge.Provider,
				PollInterval: cfg.PollInterval,
			},
			Log: log,
		},
		Client: &http.Client{Timeout: fetchTimeout},
		Log:    log,
	}
	locations := append(cfg.Sources, fs.Args()...)
	if _, err := opener.OpenAll(context.Background(), locations); err != nil {
		log.Warn("some sources could not be opened", "err", err)
	}

	restoreSettings(backends, store, cfg, log)

	if cfg.HasControlConfig() {
		srv := control.New(scrub, registry, m.Registry, log)
		addr, err := srv.Start(cfg.Control.Listen)
		if err != nil {
			log.Warn("control server unavailable", "err", err)
		} else {
			log.Info("control server listening", "addr", addr)
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := srv.Shutdown(ctx); err != nil {
					log.Warn("shutdown control server", "err", err)
				}
			}()
		}
	}

	if cfg.MPRISEnabled() {
		adapter, err := mpris.New(scrub, registry, log)
		if err != nil {
			log.Warn("mpris unavailable", "err", err)
		} else {
			defer adapter.Close()
		}
	}

	if cfg.NotificationsEnabled() {
		notifier, err := notify.New()
		if err != nil {
			log.Warn("notifications unavailable", "err", err)
		} else {
			w := notify.Watch(bus, scrub, notifier, notify.Options{
				AlbumArt: cfg.NotificationAlbumArt(),
				Timeout:  cfg.Notifications.Timeout,
			}, log)
			defer w.Close()
		}
	}

	model := app.New(app.Options{
		Bus:      bus,
		Scrubber: scrub,
		Registry: registry,
		Backends: backends,
		Root:     root,
		Opener:   opener,
		State:    store,
		Log:      log,
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}

// restoreSettings applies the saved volume and looping to every backend.
// The configured volume is used when nothing can be restored.
func restoreSettings(backends []playback.Backend, store state.Interface, cfg *config.Config, log *slog.Logger) {
	settings := state.Settings{Volume: cfg.InitialVolume()}
	if store != nil {
		s, err := store.GetSettings()
		if err != nil {
			log.Warn("load settings", "err", err)
		} else {
			settings = s
		}
	}
	for _, b := range backends {
		b.SetVolume(settings.Volume)
		b.SetLoop(settings.Loop)
	}
}
