package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/go-roster/internal/calendar"
	"github.com/tartampluch/go-roster/internal/config"
	"github.com/tartampluch/go-roster/internal/dashboard"
	"github.com/tartampluch/go-roster/internal/roster"
	"github.com/tartampluch/go-roster/internal/server"
	"github.com/zalando/go-keyring"
)

// RosterApp encapsulates the UI state, preferences, and background logic.
type RosterApp struct {
	App         fyne.App
	Window      fyne.Window
	Preferences fyne.Preferences
	I18nBundle  *i18n.Bundle
	Localizer   *i18n.Localizer
	Ctx         context.Context

	Server    *server.RosterServer
	Dashboard *dashboard.Service

	Tray desktop.App
	Menu *fyne.Menu

	TrayStatusItem   *fyne.MenuItem
	TrayRosterItem   *fyne.MenuItem
	TrayRefreshItem  *fyne.MenuItem
	TraySettingsItem *fyne.MenuItem

	SupportedLanguages []string
	configChan         chan string

	rosterWindow fyne.Window
	greeter      dashboard.Greeter
}

// NewRosterApp constructs the application and wires dependencies.
func NewRosterApp(a fyne.App, ctx context.Context, srv *server.RosterServer, svc *dashboard.Service) *RosterApp {
	a.SetIcon(theme.AccountIcon())

	return &RosterApp{
		App:                a,
		Preferences:        a.Preferences(),
		Ctx:                ctx,
		Server:             srv,
		Dashboard:          svc,
		SupportedLanguages: config.SupportedLanguages,
		configChan:         make(chan string, config.ChannelBufferSize),
	}
}

// Run launches the application services and the main UI loop.
func (app *RosterApp) Run() {
	app.SetupI18n()
	app.applySettings()
	app.watchPreferences()

	go func() {
		if err := app.Server.Start(app.Ctx); err != nil {
			slog.Error(config.ErrServerStartup,
				config.LogKeyError, err,
				config.LogKeyComponent, config.CompUI)

			app.App.SendNotification(fyne.NewNotification(
				config.TitleStartupError,
				fmt.Sprintf(config.MsgPortBusy, app.Server.Port)))
		}
	}()

	if desk, ok := app.App.(desktop.App); ok {
		app.Tray = desk
		app.Tray.SetSystemTrayIcon(app.App.Icon())
		app.setupTrayMenu()
	} else {
		slog.Warn(config.ErrTrayNotSupported,
			config.LogKeyComponent, config.CompUI)
	}

	go app.backgroundWorker()
	app.App.Run()
}

// watchPreferences monitors changes to settings to trigger immediate updates.
func (app *RosterApp) watchPreferences() {
	app.Preferences.AddChangeListener(func() {
		select {
		case app.configChan <- config.PrefInterval:
		default:
		}
	})
}

// setupTrayMenu constructs the system tray menu.
func (app *RosterApp) setupTrayMenu() {
	// The status line doubles as a shortcut to the roster window.
	app.TrayStatusItem = fyne.NewMenuItem(config.FallbackTrayLabel, func() {
		app.ShowRosterWindow()
	})

	app.TrayRosterItem = fyne.NewMenuItem(app.GetMsg(config.TKeyWinRoster), func() {
		app.ShowRosterWindow()
	})

	app.TrayRefreshItem = fyne.NewMenuItem(app.GetMsg(config.TKeyMenuRefresh), func() {
		go app.performSync(true)
	})

	app.TraySettingsItem = fyne.NewMenuItem(app.GetMsg(config.TKeyMenuSettings), func() {
		app.ShowSettingsWindow()
	})

	app.Menu = fyne.NewMenu(config.AppName,
		app.TrayStatusItem,
		fyne.NewMenuItemSeparator(),
		app.TrayRosterItem,
		app.TrayRefreshItem,
		app.TraySettingsItem,
	)

	if app.Tray != nil {
		app.Tray.SetSystemTrayMenu(app.Menu)
	}
}

// RefreshTrayMenu updates localized labels in the tray menu.
func (app *RosterApp) RefreshTrayMenu() {
	if app.Menu == nil {
		return
	}
	app.TrayRosterItem.Label = app.GetMsg(config.TKeyWinRoster)
	app.TrayRefreshItem.Label = app.GetMsg(config.TKeyMenuRefresh)
	app.TraySettingsItem.Label = app.GetMsg(config.TKeyMenuSettings)
	app.updateTrayStatus(app.Dashboard.Current())
}

// syncInterval reads the refresh period. Zero disables periodic syncs.
func (app *RosterApp) syncInterval() time.Duration {
	minutes := app.Preferences.IntWithFallback(config.PrefInterval, config.DefaultRefreshMin)
	if minutes <= config.DisabledInterval {
		return 0
	}
	return time.Duration(minutes) * time.Minute
}

// backgroundWorker syncs once at startup, then on every tick. Interval
// changes arrive on configChan and re-arm the ticker.
func (app *RosterApp) backgroundWorker() {
	log := slog.With(config.LogKeyComponent, config.CompWorker)

	app.performSync(false)

	var ticker *time.Ticker
	var tick <-chan time.Time
	arm := func(d time.Duration) {
		if ticker != nil {
			ticker.Stop()
			ticker, tick = nil, nil
		}
		if d > 0 {
			ticker = time.NewTicker(d)
			tick = ticker.C
		}
	}
	defer arm(0)

	interval := app.syncInterval()
	arm(interval)
	log.Info(config.MsgWorkerStart, config.LogKeyInterval, interval)

	for {
		select {
		case <-app.Ctx.Done():
			log.Info(config.MsgWorkerStop)
			return

		case <-app.configChan:
			if next := app.syncInterval(); next != interval {
				log.Info(config.MsgUpdateSync, config.LogKeyOld, interval, config.LogKeyNew, next)
				interval = next
				arm(interval)
			}

		case <-tick:
			app.performSync(false)
		}
	}
}

// performSync refreshes the dashboard snapshot and publishes it.
func (app *RosterApp) performSync(manual bool) {
	slog.Info(config.MsgSyncReq,
		config.LogKeyComponent, config.CompUI,
		config.LogKeyManual, manual)

	if manual {
		app.App.SendNotification(fyne.NewNotification(config.AppName, app.GetMsg(config.TKeyNotifStart)))
	}

	cfg := app.loadSyncConfig()

	snap, _, err := app.Dashboard.Refresh(app.Ctx, cfg.Source)
	if err != nil {
		slog.Error(config.MsgSyncFailed, config.LogKeyError, err, config.LogKeyComponent, config.CompUI)
		if manual {
			app.App.SendNotification(fyne.NewNotification(config.TitleSyncError, app.GetMsg(config.TKeyNotifError)))
		}
		app.updateTrayStatus(nil)
		return
	}

	app.Server.Publish(snap)
	app.updateTrayStatus(snap)

	for _, g := range app.greeter.Pending(snap, []dashboard.Template{app.greetingTemplate()}) {
		app.App.SendNotification(fyne.NewNotification(g.Subject, g.Body))
	}

	if manual {
		app.App.SendNotification(fyne.NewNotification(config.AppName, app.GetMsg(config.TKeyNotifSuccess)))
	}
}

// updateTrayStatus shows who is next and how long until then.
// A nil snapshot means the last sync failed.
func (app *RosterApp) updateTrayStatus(snap *dashboard.Snapshot) {
	if app.Menu == nil || app.TrayStatusItem == nil {
		return
	}

	app.TrayStatusItem.Label = app.trayLabel(snap)
	app.Menu.Refresh()
}

func (app *RosterApp) trayLabel(snap *dashboard.Snapshot) string {
	if snap == nil {
		return config.FallbackTrayError
	}
	if snap.Next.Empty() {
		return app.GetMsg(config.TKeyTrayNone)
	}

	names := make([]string, len(snap.Next.People))
	for i, p := range snap.Next.People {
		names[i] = p.Name
	}
	joined := strings.Join(names, config.NameSeparator)
	countdown := app.Countdown(snap.Next.DaysUntil)

	data := map[string]interface{}{"Names": joined, "Countdown": countdown}
	if msg, ok := app.localize(config.TKeyTrayNext, data, nil); ok {
		return msg
	}
	return fmt.Sprintf(config.FallbackTrayNext, joined, countdown)
}

// syncConfig gathers everything a sync reads from preferences.
type syncConfig struct {
	Source          roster.Source
	ReminderTrigger string
	WindowDays      int
	Limit           int
}

// loadSyncConfig assembles the sync configuration from UI preferences and Keyring.
func (app *RosterApp) loadSyncConfig() syncConfig {
	cfg := syncConfig{
		Source: roster.Source{
			Mode:      app.Preferences.String(config.PrefSourceMode),
			LocalPath: app.Preferences.String(config.PrefLocalPath),
			WebURL:    app.Preferences.String(config.PrefCardDAVURL),
			WebUser:   app.Preferences.String(config.PrefUsername),
		},
		WindowDays: app.Preferences.IntWithFallback(config.PrefWindowDays, config.DefaultWindowDays),
		Limit:      app.Preferences.IntWithFallback(config.PrefLimit, config.DefaultLimit),
	}

	if user := cfg.Source.WebUser; user != "" {
		if p, err := keyring.Get(config.KeyringService, user); err == nil {
			cfg.Source.WebPass = p
		} else {
			slog.Debug(config.MsgPassFail,
				config.LogKeyUser, user,
				config.LogKeyError, err,
				config.LogKeyComponent, config.CompUI)
		}
	}

	if app.Preferences.Bool(config.PrefReminderEnabled) {
		val := app.Preferences.IntWithFallback(config.PrefReminderValue, config.DefaultReminderValue)
		unit := app.Preferences.StringWithFallback(config.PrefReminderUnit, config.UnitDays)
		dir := app.Preferences.StringWithFallback(config.PrefReminderDir, config.DirBefore)
		cfg.ReminderTrigger = reminderTrigger(val, unit, dir)
	}

	return cfg
}

// reminderTrigger formats an ISO 8601 duration for VALARM TRIGGER.
// Hours and minutes need the T designator: "PT30M" is 30 minutes, "P30M" 30 months.
func reminderTrigger(val int, unit, dir string) string {
	prefix := config.ISOPeriodPrefix
	if dir == config.DirBefore {
		prefix = config.ISONegativePrefix
	}

	switch unit {
	case config.UnitHours:
		return fmt.Sprintf("%s%s%d%s", prefix, config.ISOTimePrefix, val, config.ISOHour)
	case config.UnitMinutes:
		return fmt.Sprintf("%s%s%d%s", prefix, config.ISOTimePrefix, val, config.ISOMinute)
	default:
		return fmt.Sprintf("%s%d%s", prefix, val, config.ISODay)
	}
}

// applySettings pushes the tunables and a freshly localized calendar builder
// into the dashboard service. The next sync rebuilds the snapshot.
func (app *RosterApp) applySettings() {
	cfg := app.loadSyncConfig()
	app.Dashboard.Reconfigure(cfg.WindowDays, cfg.Limit, &calendar.Builder{
		Clock:           app.Dashboard.Clock,
		FormatSummary:   app.buildSummaryFormatter(),
		ReminderTrigger: cfg.ReminderTrigger,
	})
}

// greetingTemplate reads the user's birthday message.
func (app *RosterApp) greetingTemplate() dashboard.Template {
	t := dashboard.Template{
		ID:      config.PrefGreetingBody,
		Subject: app.Preferences.StringWithFallback(config.PrefGreetingSubject, config.DefaultGreetingSubject),
		Body:    app.Preferences.StringWithFallback(config.PrefGreetingBody, config.DefaultGreetingTemplate),
		Active:  true,
	}
	if t.Validate() != nil {
		return dashboard.DefaultTemplate()
	}
	return t
}

// buildSummaryFormatter returns a closure that localizes the event summary.
func (app *RosterApp) buildSummaryFormatter() func(name string, age int, yearKnown bool) string {
	return func(name string, age int, yearKnown bool) string {
		data := map[string]interface{}{"Name": name, "Age": age}
		switch {
		case !yearKnown:
			if msg, ok := app.localize(config.TKeyEvtSummary, data, nil); ok {
				return msg
			}
			return fmt.Sprintf(config.FallbackSummary, name)
		case age == 0:
			if msg, ok := app.localize(config.TKeyEvtSummaryBirth, data, nil); ok {
				return msg
			}
			return fmt.Sprintf(config.FallbackSummaryBirth, name)
		default:
			if msg, ok := app.localize(config.TKeyEvtSummaryAge, data, nil); ok {
				return msg
			}
			return fmt.Sprintf(config.FallbackSummaryAge, name, age)
		}
	}
}
