// Package server publishes the last successfully generated calendar over HTTP.
package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/tartampluch/chronos-ics/internal/config"
)

// snapshot is one published calendar. It is immutable once stored.
type snapshot struct {
	ics     []byte
	etag    string
	events  int
	modTime time.Time // second precision, the resolution of Last-Modified
}

// CalendarServer serves the most recent calendar handed to Update.
// Failed regenerations never reach Update, so clients keep getting the last
// good document.
type CalendarServer struct {
	current  atomic.Pointer[snapshot]
	Port     string
	BindAddr string // defaults to config.LocalhostBindAddr
	Logger   *slog.Logger
}

// NewCalendarServer returns a server for port, logging through logger
// (slog.Default() when nil).
func NewCalendarServer(port string, logger *slog.Logger) *CalendarServer {
	return &CalendarServer{
		Port:     port,
		BindAddr: config.LocalhostBindAddr,
		Logger:   logger,
	}
}

// Addr returns the listen address.
func (s *CalendarServer) Addr() string {
	host := s.BindAddr
	if host == "" {
		host = config.LocalhostBindAddr
	}
	return host + config.AddrSeparator + s.Port
}

// Handler routes the calendar and the readiness check.
func (s *CalendarServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(config.RouteHealth, s.serveHealth)
	mux.Handle(config.RouteRoot, s)
	return mux
}

// Start listens on Addr and blocks until ctx is cancelled.
func (s *CalendarServer) Start(ctx context.Context) error {
	if s.Port == "" {
		return errors.New(config.ErrPortRequired)
	}

	log := s.log()
	srv := &http.Server{
		Addr:         s.Addr(),
		Handler:      s.Handler(),
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
		ErrorLog:     slog.NewLogLogger(log.Handler(), slog.LevelWarn),
	}

	listenErr := make(chan error, config.ChannelBufferSize)
	go func() {
		log.Info(config.MsgServerListen, config.LogKeyPort, s.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	case <-ctx.Done():
	}

	log.Info(config.MsgServerStop)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%s: %w", config.ErrServerShutdown, err)
	}
	return nil
}

// Update atomically replaces the served calendar.
//
// generatedAt becomes Last-Modified. Identical bytes keep the previous
// Last-Modified so conditional requests stay valid across no-op refreshes.
func (s *CalendarServer) Update(data []byte, events int, generatedAt time.Time) {
	sum := sha256.Sum256(data)
	next := &snapshot{
		ics:     data,
		etag:    fmt.Sprintf(config.FormatETag, hex.EncodeToString(sum[:])),
		events:  events,
		modTime: generatedAt.UTC().Truncate(time.Second),
	}
	if prev := s.current.Load(); prev != nil && prev.etag == next.etag {
		next.modTime = prev.modTime
	}
	s.current.Store(next)

	s.log().Debug(config.MsgCacheUpdated,
		config.LogKeySizeBytes, len(data),
		config.LogKeyEvents, events,
		config.LogKeyETag, next.etag,
	)
}

// Ready reports whether a calendar has been published yet.
func (s *CalendarServer) Ready() bool {
	return s.current.Load() != nil
}

// ServeHTTP serves the calendar. Conditional and HEAD requests are answered
// by http.ServeContent from the snapshot's ETag and modification time.
func (s *CalendarServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !allowed(w, r) {
		return
	}

	snap := s.current.Load()
	if snap == nil {
		unavailable(w)
		return
	}

	h := w.Header()
	h.Set(config.HeaderContentType, config.MimeTextCalendar)
	h.Set(config.HeaderXContentType, config.MimeNoSniff)
	h.Set(config.HeaderCacheControl, config.CacheControlPrivate)
	h.Set(config.HeaderETag, snap.etag)

	http.ServeContent(w, r, "", snap.modTime, bytes.NewReader(snap.ics))
}

// serveHealth answers 200 once a calendar is published, 503 before.
func (s *CalendarServer) serveHealth(w http.ResponseWriter, r *http.Request) {
	if !allowed(w, r) {
		return
	}
	if !s.Ready() {
		unavailable(w)
		return
	}

	snap := s.current.Load()
	w.Header().Set(config.HeaderContentType, config.MimeTextPlain)
	w.Header().Set(config.HeaderCacheControl, config.CacheControlNoStore)
	if r.Method == http.MethodGet {
		_, _ = fmt.Fprintf(w, config.FormatHealth, snap.events, snap.modTime.Format(time.RFC3339))
	}
}

func allowed(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	w.Header().Set(config.HeaderAllow, config.AllowedMethods)
	http.Error(w, config.HTTPMsgMethodNotAll, http.StatusMethodNotAllowed)
	return false
}

func unavailable(w http.ResponseWriter) {
	w.Header().Set(config.HeaderRetryAfter, config.RetryAfterSeconds)
	http.Error(w, config.HTTPMsgInitializing, http.StatusServiceUnavailable)
}

func (s *CalendarServer) log() *slog.Logger {
	l := s.Logger
	if l == nil {
		l = slog.Default()
	}
	return l.With(config.LogKeyComponent, config.CompServer)
}
