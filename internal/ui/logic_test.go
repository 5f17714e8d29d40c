package ui

import (
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/tartampluch/go-roster/internal/config"
)

// loadSyncConfig only reads preferences, so a bare RosterApp is enough.
func TestLoadSyncConfig_Preferences(t *testing.T) {
	tests := []struct {
		name        string
		prefs       func(p fyne.Preferences)
		wantTrigger string
		wantWindow  int
		wantLimit   int
	}{
		{
			name:       "Nothing set",
			prefs:      func(fyne.Preferences) {},
			wantWindow: config.DefaultWindowDays,
			wantLimit:  config.DefaultLimit,
		},
		{
			name: "Reminder stored but disabled",
			prefs: func(p fyne.Preferences) {
				p.SetInt(config.PrefReminderValue, 3)
			},
			wantWindow: config.DefaultWindowDays,
			wantLimit:  config.DefaultLimit,
		},
		{
			name: "Default unit and direction",
			prefs: func(p fyne.Preferences) {
				p.SetBool(config.PrefReminderEnabled, true)
			},
			wantTrigger: "-P1D",
			wantWindow:  config.DefaultWindowDays,
			wantLimit:   config.DefaultLimit,
		},
		{
			name: "Hours after, custom window",
			prefs: func(p fyne.Preferences) {
				p.SetBool(config.PrefReminderEnabled, true)
				p.SetInt(config.PrefReminderValue, 2)
				p.SetString(config.PrefReminderUnit, config.UnitHours)
				p.SetString(config.PrefReminderDir, config.DirAfter)
				p.SetInt(config.PrefWindowDays, 60)
				p.SetInt(config.PrefLimit, 0)
			},
			wantTrigger: "PT2H",
			wantWindow:  60,
			wantLimit:   0,
		},
		{
			name: "Minutes before",
			prefs: func(p fyne.Preferences) {
				p.SetBool(config.PrefReminderEnabled, true)
				p.SetInt(config.PrefReminderValue, 30)
				p.SetString(config.PrefReminderUnit, config.UnitMinutes)
			},
			wantTrigger: "-PT30M",
			wantWindow:  config.DefaultWindowDays,
			wantLimit:   config.DefaultLimit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := test.NewApp()
			app := &RosterApp{App: a, Preferences: a.Preferences()}
			tt.prefs(app.Preferences)

			cfg := app.loadSyncConfig()

			assert.Equal(t, tt.wantTrigger, cfg.ReminderTrigger)
			assert.Equal(t, tt.wantWindow, cfg.WindowDays)
			assert.Equal(t, tt.wantLimit, cfg.Limit)
		})
	}
}

func TestReminderTrigger(t *testing.T) {
	tests := []struct {
		val       int
		unit, dir string
		want      string
	}{
		{1, config.UnitDays, config.DirBefore, "-P1D"},
		{3, config.UnitDays, config.DirAfter, "P3D"},
		{2, config.UnitHours, config.DirBefore, "-PT2H"},
		{15, config.UnitMinutes, config.DirAfter, "PT15M"},
		{4, "weeks", config.DirAfter, "P4D"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, reminderTrigger(tt.val, tt.unit, tt.dir))
		})
	}
}

func TestSyncInterval(t *testing.T) {
	a := test.NewApp()
	app := &RosterApp{App: a, Preferences: a.Preferences()}

	assert.Equal(t, config.DefaultRefreshMin*time.Minute, app.syncInterval())

	app.Preferences.SetInt(config.PrefInterval, 15)
	assert.Equal(t, 15*time.Minute, app.syncInterval())

	app.Preferences.SetInt(config.PrefInterval, config.DisabledInterval)
	assert.Zero(t, app.syncInterval(), "Zero disables periodic syncs")
}
