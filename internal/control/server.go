// Package control serves a small JSON API to drive playback from scripts,
// plus the Prometheus metrics endpoint.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/llehouerou/tapedeck/internal/playback"
)

// Backends gives access to the backend currently driving the scrubber.
type Backends interface {
	Backend() playback.Backend
}

// Navigator moves through the current playlist.
type Navigator interface {
	Play() bool
	Next() bool
	Previous() bool
}

// Status is the body of GET /status.
type Status struct {
	State    string  `json:"state"`
	Backend  string  `json:"backend,omitempty"`
	Source   string  `json:"source,omitempty"`
	TrackID  string  `json:"track_id,omitempty"`
	Title    string  `json:"title,omitempty"`
	Creator  string  `json:"creator,omitempty"`
	Album    string  `json:"album,omitempty"`
	Position float64 `json:"position"`
	Duration float64 `json:"duration"`
	Volume   float64 `json:"volume"`
	Loop     bool    `json:"loop"`
}

// Server is the HTTP control surface.
type Server struct {
	backends Backends
	nav      Navigator
	gatherer prometheus.Gatherer
	log      *slog.Logger
	router   chi.Router
	srv      *http.Server
}

// New builds the router. gatherer may be nil to disable /metrics.
func New(backends Backends, nav Navigator, gatherer prometheus.Gatherer, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Server{backends: backends, nav: nav, gatherer: gatherer, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))

	r.Get("/status", s.handleStatus)
	r.Post("/play", s.handlePlay)
	r.Post("/pause", s.handlePause)
	r.Post("/toggle", s.handleToggle)
	r.Post("/next", s.handleNext)
	r.Post("/previous", s.handlePrevious)
	r.Post("/seek", s.handleSeek)
	r.Post("/volume", s.handleVolume)
	r.Post("/loop", s.handleLoop)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	s.router = r
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.router }

// Start listens on addr and serves in the background. It returns the bound
// address, useful when addr uses port 0.
func (s *Server) Start(addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("listen control: %w", err)
	}
	s.srv = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("control server stopped", "err", err)
		}
	}()
	s.log.Info("control server listening", "addr", ln.Addr().String())
	return ln.Addr().String(), nil
}

// Shutdown stops the server started by Start.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("control request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// backend returns the active backend or writes a 409.
func (s *Server) backend(w http.ResponseWriter) (playback.Backend, bool) {
	b := s.backends.Backend()
	if b == nil {
		writeError(w, http.StatusConflict, "no backend initialized")
		return nil, false
	}
	return b, true
}

func (s *Server) status() Status {
	b := s.backends.Backend()
	if b == nil {
		return Status{State: playback.StateIdle.String()}
	}
	t := b.Track()
	return Status{
		State:    b.State().String(),
		Backend:  b.Kind(),
		Source:   b.Source(),
		TrackID:  t.ID,
		Title:    t.Title,
		Creator:  t.Creator,
		Album:    t.Album,
		Position: b.Position().Seconds(),
		Duration: b.Duration().Seconds(),
		Volume:   b.Volume(),
		Loop:     b.Loop(),
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handlePlay(w http.ResponseWriter, _ *http.Request) {
	if !s.nav.Play() {
		writeError(w, http.StatusConflict, "nothing to play")
		return
	}
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handlePause(w http.ResponseWriter, _ *http.Request) {
	b, ok := s.backend(w)
	if !ok {
		return
	}
	b.Pause(false)
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	b, ok := s.backend(w)
	if !ok {
		return
	}
	if b.Source() == "" {
		s.handlePlay(w, r)
		return
	}
	b.Toggle()
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleNext(w http.ResponseWriter, _ *http.Request) {
	if !s.nav.Next() {
		writeError(w, http.StatusConflict, "no next track")
		return
	}
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handlePrevious(w http.ResponseWriter, _ *http.Request) {
	if !s.nav.Previous() {
		writeError(w, http.StatusConflict, "no previous track")
		return
	}
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	b, ok := s.backend(w)
	if !ok {
		return
	}
	q := r.URL.Query()
	switch {
	case q.Has("percent"):
		p, err := unitParam(q.Get("percent"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "percent: "+err.Error())
			return
		}
		b.SeekPercent(p)
	case q.Has("position"):
		secs, err := strconv.ParseFloat(q.Get("position"), 64)
		if err != nil || secs < 0 {
			writeError(w, http.StatusBadRequest, "position must be a non-negative number of seconds")
			return
		}
		b.Seek(time.Duration(secs * float64(time.Second)))
	default:
		writeError(w, http.StatusBadRequest, "percent or position is required")
		return
	}
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	b, ok := s.backend(w)
	if !ok {
		return
	}
	v, err := unitParam(r.URL.Query().Get("level"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "level: "+err.Error())
		return
	}
	b.SetVolume(v)
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleLoop(w http.ResponseWriter, r *http.Request) {
	b, ok := s.backend(w)
	if !ok {
		return
	}
	loop := !b.Loop()
	if raw := r.URL.Query().Get("enabled"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "enabled must be a boolean")
			return
		}
		loop = v
	}
	b.SetLoop(loop)
	writeJSON(w, http.StatusOK, s.status())
}

var errOutOfRange = errors.New("must be a number between 0 and 1")

func unitParam(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || v > 1 {
		return 0, errOutOfRange
	}
	return v, nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
