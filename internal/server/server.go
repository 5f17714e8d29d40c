package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/tartampluch/go-roster/internal/config"
	"github.com/tartampluch/go-roster/internal/dashboard"
	"github.com/tartampluch/go-roster/internal/metrics"
	"github.com/tartampluch/go-roster/internal/roster"
)

// cacheItem stores the published snapshot and its metadata for HTTP caching.
type cacheItem struct {
	snapshot     *dashboard.Snapshot
	etag         string
	lastModified string // RFC1123 format required by HTTP headers
}

// RosterServer serves the calendar feed and the dashboard read API.
type RosterServer struct {
	// cache uses atomic.Pointer for lock-free reads: clients poll often,
	// while writes only happen on sync.
	cache atomic.Pointer[cacheItem]

	Port    string
	Metrics *metrics.Metrics
}

// NewRosterServer creates a new instance of the server.
func NewRosterServer(port string, m *metrics.Metrics) *RosterServer {
	return &RosterServer{
		Port:    port,
		Metrics: m,
	}
}

// Handler builds the router. Every data route answers 503 until the first Publish.
func (s *RosterServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.GetHead)
	r.Use(s.instrument)

	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(config.HeaderAllow, config.AllowedMethods)
		http.Error(w, config.HTTPMsgMethodNotAll, http.StatusMethodNotAllowed)
	})

	r.Get(config.RouteRoot, s.handleCalendar)
	r.Get(config.RouteCalendar, s.handleCalendar)
	r.Get(config.RouteUpcoming, s.handleUpcoming)
	r.Get(config.RouteNext, s.handleNext)
	r.Get(config.RouteCSV, s.handleCSV)
	r.Method(http.MethodGet, config.RouteMetrics, s.Metrics.Handler())

	return r
}

// Start initializes the HTTP server and blocks until the context is cancelled.
func (s *RosterServer) Start(ctx context.Context) error {
	if s.Port == "" {
		return errors.New(config.ErrPortRequired)
	}

	srv := &http.Server{
		Addr:         config.LocalhostBindAddr + config.AddrSeparator + s.Port,
		Handler:      s.Handler(),
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	serverError := make(chan error, config.ChannelBufferSize)

	go func() {
		slog.Info(config.MsgServerListen,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyPort, s.Port,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverError <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info(config.MsgServerStop, config.LogKeyComponent, config.CompServer)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: %w", config.ErrServerShutdown, err)
		}
		return nil

	case err := <-serverError:
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}
}

// Publish atomically replaces the served snapshot.
// Last-Modified only moves when the calendar bytes change.
func (s *RosterServer) Publish(snap *dashboard.Snapshot) {
	if snap == nil {
		return
	}
	hash := sha256.Sum256(snap.Calendar)
	etag := fmt.Sprintf(config.FormatETag, hex.EncodeToString(hash[:]))

	lastMod := time.Now().UTC().Format(http.TimeFormat)
	if prev := s.cache.Load(); prev != nil && prev.etag == etag {
		lastMod = prev.lastModified
	}

	s.cache.Store(&cacheItem{
		snapshot:     snap,
		etag:         etag,
		lastModified: lastMod,
	})

	slog.Debug(config.MsgCacheUpdated,
		config.LogKeyComponent, config.CompServer,
		config.LogKeySizeBytes, len(snap.Calendar),
		config.LogKeyETag, etag,
	)
}

// ready loads the published item or answers 503.
func (s *RosterServer) ready(w http.ResponseWriter) (*cacheItem, bool) {
	item := s.cache.Load()
	if item == nil {
		w.Header().Set(config.HeaderRetryAfter, config.RetryAfterSeconds)
		http.Error(w, config.HTTPMsgInitializing, http.StatusServiceUnavailable)
		return nil, false
	}
	return item, true
}

// handleCalendar serves the ICS content with HTTP caching support.
func (s *RosterServer) handleCalendar(w http.ResponseWriter, r *http.Request) {
	item, ok := s.ready(w)
	if !ok {
		return
	}

	w.Header().Set(config.HeaderContentType, config.MimeTextCalendar)
	w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
	w.Header().Set(config.HeaderCacheControl, config.CacheControlPrivate)
	w.Header().Set(config.HeaderETag, item.etag)
	w.Header().Set(config.HeaderLastModified, item.lastModified)

	if notModified(r, item) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	if r.Method == http.MethodGet {
		if _, err := io.Copy(w, bytes.NewReader(item.snapshot.Calendar)); err != nil {
			logWriteError(err)
		}
	}
}

func notModified(r *http.Request, item *cacheItem) bool {
	if match := r.Header.Get(config.HeaderIfNoneMatch); match != "" {
		return match == item.etag
	}

	since := r.Header.Get(config.HeaderIfModifiedSince)
	if since == "" {
		return false
	}
	clientTime, err := time.Parse(http.TimeFormat, since)
	if err != nil {
		return false
	}
	serverTime, err := time.Parse(http.TimeFormat, item.lastModified)
	if err != nil {
		return false
	}
	return !serverTime.After(clientTime)
}

func (s *RosterServer) handleUpcoming(w http.ResponseWriter, _ *http.Request) {
	item, ok := s.ready(w)
	if !ok {
		return
	}
	writeJSON(w, newUpcomingResponse(item.snapshot))
}

func (s *RosterServer) handleNext(w http.ResponseWriter, _ *http.Request) {
	item, ok := s.ready(w)
	if !ok {
		return
	}
	writeJSON(w, newNextResponse(item.snapshot))
}

func (s *RosterServer) handleCSV(w http.ResponseWriter, _ *http.Request) {
	item, ok := s.ready(w)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := roster.WriteCSV(&buf, item.snapshot.Members); err != nil {
		slog.Error(config.ErrCSVWrite, config.LogKeyComponent, config.CompServer, config.LogKeyError, err)
		http.Error(w, config.HTTPMsgInternalErr, http.StatusInternalServerError)
		return
	}

	w.Header().Set(config.HeaderContentType, config.MimeCSV)
	w.Header().Set(config.HeaderContentDisposition,
		fmt.Sprintf(config.FormatAttachment, roster.CSVFileName(item.snapshot.Reference)))
	w.Header().Set(config.HeaderCacheControl, config.CacheControlPrivate)
	if _, err := io.Copy(w, &buf); err != nil {
		logWriteError(err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set(config.HeaderContentType, config.MimeJSON)
	w.Header().Set(config.HeaderCacheControl, config.CacheControlPrivate)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logWriteError(err)
	}
}

func logWriteError(err error) {
	slog.Error(config.ErrWriteResp,
		config.LogKeyComponent, config.CompServer,
		config.LogKeyError, err,
	)
}

// instrument counts requests by route pattern and status code.
func (s *RosterServer) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := config.RouteUnmatched
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.Metrics.ObserveRequest(route, status)
	})
}
