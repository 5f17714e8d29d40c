package main

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/tartampluch/go-roster/internal/config"
	"github.com/tartampluch/go-roster/internal/dashboard"
	"github.com/tartampluch/go-roster/internal/metrics"
	"github.com/tartampluch/go-roster/internal/roster"
	"github.com/tartampluch/go-roster/internal/server"
	"golang.org/x/sync/errgroup"
)

// sourceFromFlag treats http(s) URLs as web sources and anything else as a
// local path. Credentials may be embedded in the URL.
func sourceFromFlag(raw string) (roster.Source, error) {
	if raw == "" {
		return roster.Source{}, errors.New(config.ErrSourceRequired)
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != config.SchemeHTTP && u.Scheme != config.SchemeHTTPS) {
		return roster.Source{Mode: config.SourceModeLocal, LocalPath: raw}, nil
	}

	src := roster.Source{Mode: config.SourceModeWeb}
	if u.User != nil {
		src.WebUser = u.User.Username()
		src.WebPass, _ = u.User.Password()
		u.User = nil
	}
	src.WebURL = u.String()
	return src, nil
}

func checkPort(port string) error {
	n, err := strconv.Atoi(port)
	if err != nil {
		return errors.New(config.ErrPortNumber)
	}
	if n < config.MinPort || n > config.MaxPort {
		return errors.New(config.ErrPortRange)
	}
	return nil
}

// runHeadless serves the feed without a desktop session, refreshing the
// roster every opts.interval minutes until ctx is cancelled.
func runHeadless(ctx context.Context, opts options) error {
	src, err := sourceFromFlag(opts.source)
	if err != nil {
		return err
	}
	if err := checkPort(opts.port); err != nil {
		return err
	}

	m := metrics.New()
	svc := newService(m)
	svc.Reconfigure(opts.window, opts.limit, nil)
	srv := server.NewRosterServer(opts.port, m)

	interval := time.Duration(opts.interval) * time.Minute
	if interval <= 0 {
		interval = config.DefaultRefreshMin * time.Minute
	}

	// The server shuts down gracefully on ctx; a failed listen cancels the loop.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Start(gctx) })
	g.Go(func() error { return syncLoop(gctx, svc, srv, src, interval) })
	return g.Wait()
}

// syncLoop refreshes and publishes once immediately, then on every tick.
// A failed sync keeps the previous snapshot online.
func syncLoop(ctx context.Context, svc *dashboard.Service, srv *server.RosterServer, src roster.Source, interval time.Duration) error {
	log := slog.With(config.LogKeyComponent, config.CompWorker)

	var greeter dashboard.Greeter
	templates := []dashboard.Template{dashboard.DefaultTemplate()}

	refresh := func() {
		snap, _, err := svc.Refresh(ctx, src)
		if err != nil {
			log.Error(config.MsgSyncFailed, config.LogKeyError, err)
			return
		}
		srv.Publish(snap)
		log.Info(config.MsgSyncDone,
			config.LogKeyTotal, snap.TotalMembers,
			config.LogKeyUpcoming, len(snap.Upcoming),
		)
		for _, g := range greeter.Pending(snap, templates) {
			log.Info(config.MsgGreetingReady,
				config.LogKeyName, g.Person.Name,
				config.LogKeyValue, g.Subject,
			)
		}
	}

	refresh()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	log.Info(config.MsgWorkerStart, config.LogKeyInterval, interval)

	for {
		select {
		case <-ctx.Done():
			log.Info(config.MsgWorkerStop)
			return nil
		case <-ticker.C:
			refresh()
		}
	}
}
