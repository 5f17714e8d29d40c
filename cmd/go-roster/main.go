package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"fyne.io/fyne/v2/app"
	"github.com/tartampluch/go-roster/internal/calendar"
	"github.com/tartampluch/go-roster/internal/config"
	"github.com/tartampluch/go-roster/internal/dashboard"
	"github.com/tartampluch/go-roster/internal/engine"
	"github.com/tartampluch/go-roster/internal/metrics"
	"github.com/tartampluch/go-roster/internal/roster"
	"github.com/tartampluch/go-roster/internal/server"
	"github.com/tartampluch/go-roster/internal/ui"
)

// options are the command line flags.
type options struct {
	version  bool
	debug    bool
	headless bool
	source   string
	port     string
	window   int
	limit    int
	interval int
}

func parseFlags(fs *flag.FlagSet, args []string) (options, error) {
	var o options
	fs.BoolVar(&o.version, config.FlagVersion, false, config.FlagDescVersion)
	fs.BoolVar(&o.debug, config.FlagDebug, false, config.FlagDescDebug)
	fs.BoolVar(&o.headless, config.FlagHeadless, false, config.FlagDescHeadless)
	fs.StringVar(&o.source, config.FlagSource, "", config.FlagDescSource)
	fs.StringVar(&o.port, config.FlagPort, config.DefaultPort, config.FlagDescPort)
	fs.IntVar(&o.window, config.FlagWindow, config.DefaultWindowDays, config.FlagDescWindow)
	fs.IntVar(&o.limit, config.FlagLimit, config.DefaultLimit, config.FlagDescLimit)
	fs.IntVar(&o.interval, config.FlagInterval, config.DefaultRefreshMin, config.FlagDescInterval)
	err := fs.Parse(args)
	return o, err
}

// main delegates to runMain so deferred calls run before os.Exit.
func main() {
	os.Exit(runMain())
}

func runMain() int {
	opts, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		return config.ExitCodeError
	}
	if opts.version {
		printVersion()
		return config.ExitCodeSuccess
	}

	if closer := setupLogging(opts.debug); closer != nil {
		defer func() { _ = closer.Close() }()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logStartupInfo()

	run := runDesktop
	if opts.headless {
		run = runHeadless
	}
	if err := run(ctx, opts); err != nil {
		slog.Error(config.ErrAppFailed,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err,
		)
		return config.ExitCodeError
	}

	slog.Info(config.MsgAppStop, config.LogKeyComponent, config.CompMain)
	return config.ExitCodeSuccess
}

// newService wires the roster loader, calendar and metrics into a dashboard.
func newService(m *metrics.Metrics) *dashboard.Service {
	clock := engine.RealClock{}
	loader := roster.NewLoader(roster.NewHTTPFetcher())
	return dashboard.NewService(clock, loader, &calendar.Builder{Clock: clock}, m)
}

// runDesktop starts the tray application. The port comes from preferences;
// the other flags only apply to headless mode.
func runDesktop(ctx context.Context, _ options) error {
	a := app.NewWithID(config.AppID)
	a.Preferences().SetString(config.PrefLastRun, config.Version)

	m := metrics.New()
	port := a.Preferences().StringWithFallback(config.PrefServerPort, config.DefaultPort)
	gui := ui.NewRosterApp(a, ctx, server.NewRosterServer(port, m), newService(m))

	go func() {
		<-ctx.Done()
		slog.Info(config.MsgCtxCancel, config.LogKeyComponent, config.CompMain)
		a.Quit()
	}()

	// Blocks until the app quits.
	gui.Run()
	return nil
}

func printVersion() {
	fmt.Printf(config.MsgVersionOutput,
		config.AppName,
		config.Version,
		config.Commit,
		config.Date,
		runtime.GOOS,
		runtime.GOARCH,
	)
}

func logStartupInfo() {
	slog.Info(config.MsgAppStarting,
		config.LogKeyComponent, config.CompMain,
		slog.Group(config.LogKeyBuild,
			slog.String(config.LogKeyApp, config.AppName),
			slog.String(config.LogKeyVersion, config.Version),
			slog.String(config.LogKeyGoVer, runtime.Version()),
		),
		slog.Group(config.LogKeyEnv,
			slog.String(config.LogKeyOS, runtime.GOOS),
			slog.String(config.LogKeyArch, runtime.GOARCH),
			slog.Int(config.LogKeyPID, os.Getpid()),
		),
	)
}

// setupLogging installs a JSON slog handler writing to stdout and, when the
// cache directory is usable, to a log file truncated on each start.
func setupLogging(debug bool) io.Closer {
	writers := []io.Writer{os.Stdout}
	var logFile *os.File

	if logPath, err := logFilePath(); err == nil {
		f, err := os.OpenFile(logPath, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, config.FilePermUserRW)
		if err == nil {
			writers = append(writers, f)
			logFile = f
		} else {
			fmt.Fprintf(os.Stderr, config.MsgLogWarning, config.ErrLogFile, logPath, err)
		}
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(io.MultiWriter(writers...), &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})))

	if logFile == nil {
		return nil
	}
	return logFile
}

func logFilePath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCacheDir, err)
	}

	appDir := filepath.Join(cacheDir, config.AppID)
	if err := os.MkdirAll(appDir, config.DirPermUserRWX); err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCreateDir, err)
	}
	return filepath.Join(appDir, config.LogFileName), nil
}
