package ui

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/tartampluch/go-roster/internal/config"
	"github.com/tartampluch/go-roster/internal/dashboard"
	"github.com/zalando/go-keyring"
)

// settingsForm holds the editable widgets of the settings window.
type settingsForm struct {
	// Source
	modeSelect *widget.Select
	urlEntry   *widget.Entry
	userEntry  *widget.Entry
	passEntry  *widget.Entry
	pathEntry  *widget.Entry

	// General
	langSelect    *widget.Select
	entryInterval *NumericalEntry
	entryPort     *NumericalEntry

	// Upcoming list
	entryWindow *NumericalEntry
	entryLimit  *NumericalEntry

	// Calendar reminders
	checkReminder *widget.Check
	entryRemValue *NumericalEntry
	selectRemUnit *widget.Select
	selectRemDir  *widget.Select
	units         []choice
	dirs          []choice

	// Greeting
	greetSubject *widget.Entry
	greetBody    *widget.Entry
}

// ShowSettingsWindow displays the configuration dialog. A second call focuses
// the open window.
func (app *RosterApp) ShowSettingsWindow() {
	if app.Window != nil {
		slog.Debug(config.MsgSettingsFocus, config.LogKeyComponent, config.CompUISet)
		app.Window.RequestFocus()
		return
	}

	slog.Info(config.MsgSettingsOpen, config.LogKeyComponent, config.CompUISet)
	w := app.App.NewWindow(app.GetMsg(config.TKeyWinTitle))
	app.Window = w

	form := &settingsForm{}

	// Cards toggle sections; the window follows their height.
	var relayout func()
	onLayoutChange := func() {
		if relayout != nil {
			relayout()
		}
	}

	cards := []fyne.CanvasObject{
		app.buildSourceCard(w, form, onLayoutChange),
		app.buildGeneralCard(form),
		app.buildUpcomingCard(form),
		app.buildNotifCard(form, onLayoutChange),
		app.buildGreetingCard(form),
	}

	btnSave := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnSave), theme.DocumentSaveIcon(), func() {
		if err := form.validate(); err != nil {
			slog.Warn(config.MsgSettingsInvalid, config.LogKeyComponent, config.CompUISet, config.LogKeyError, err)
			dialog.ShowError(err, w)
			return
		}
		app.saveSettings(form)
		w.Close()
	})
	btnSave.Importance = widget.HighImportance
	btnCancel := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnCancel), theme.CancelIcon(), w.Close)

	footer := widget.NewLabel(fmt.Sprintf(app.GetMsg(config.TKeyLblFooter), config.Version))
	footer.Alignment = fyne.TextAlignCenter
	footer.TextStyle = fyne.TextStyle{Italic: true}

	body := container.NewVBox(cards...)
	body.Add(container.NewGridWithColumns(config.LayoutColumnsDouble, btnCancel, btnSave))
	body.Add(footer)
	content := container.NewPadded(body)

	relayout = func() {
		content.Refresh()
		w.Resize(fyne.NewSize(config.SettingsWindowWidth, content.MinSize().Height))
	}

	w.SetContent(content)
	w.SetFixedSize(true)
	w.SetOnClosed(func() { app.Window = nil })

	relayout()
	w.Show()
}

// validate reports the first field that blocks saving.
// Other numeric fields fall back to defaults instead.
func (f *settingsForm) validate() error {
	if err := f.entryPort.Validate(); err != nil {
		return err
	}
	greeting := dashboard.Template{Subject: f.greetSubject.Text, Body: f.greetBody.Text}
	return greeting.Validate()
}

// -----------------------------------------------------------------------------
// Cards
// -----------------------------------------------------------------------------

// buildSourceCard lets the user pick a web roster or a local file.
func (app *RosterApp) buildSourceCard(w fyne.Window, f *settingsForm, onLayoutChange func()) *widget.Card {
	labelWeb := app.GetMsg(config.TKeyModeCardDAV)
	labelLocal := app.GetMsg(config.TKeyModeLocal)

	f.urlEntry = widget.NewEntry()
	f.urlEntry.SetText(app.Preferences.String(config.PrefCardDAVURL))
	f.urlEntry.PlaceHolder = config.PlaceholderURL

	f.userEntry = widget.NewEntry()
	f.userEntry.SetText(app.Preferences.String(config.PrefUsername))

	f.passEntry = widget.NewPasswordEntry()
	if user := f.userEntry.Text; user != "" {
		if pwd, err := keyring.Get(config.KeyringService, user); err == nil {
			f.passEntry.SetText(pwd)
		}
	}

	f.pathEntry = widget.NewEntry()
	f.pathEntry.SetText(app.Preferences.String(config.PrefLocalPath))

	browseBtn := widget.NewButton(app.GetMsg(config.TKeyBtnBrowse), func() {
		d := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
			if err != nil || r == nil {
				return
			}
			defer r.Close()
			f.pathEntry.SetText(r.URI().Path())
		}, w)
		d.SetFilter(storage.NewExtensionFileFilter([]string{config.ExtVCF, config.ExtVCard, config.ExtYAML, config.ExtYML}))
		d.Show()
	})

	itemURL := widget.NewFormItem(app.GetMsg(config.TKeyLblURL), f.urlEntry)
	itemURL.HintText = app.GetMsg(config.TKeyHelpURL)
	webForm := widget.NewForm(
		itemURL,
		widget.NewFormItem(app.GetMsg(config.TKeyLblUser), f.userEntry),
		widget.NewFormItem(app.GetMsg(config.TKeyLblPass), f.passEntry),
	)
	localForm := container.NewBorder(nil, nil, nil, browseBtn, f.pathEntry)

	showMode := func(selected string) {
		if selected == labelLocal {
			webForm.Hide()
			localForm.Show()
		} else {
			webForm.Show()
			localForm.Hide()
		}
	}

	f.modeSelect = widget.NewSelect([]string{labelWeb, labelLocal}, nil)
	if app.Preferences.String(config.PrefSourceMode) == config.SourceModeLocal {
		f.modeSelect.SetSelected(labelLocal)
	} else {
		f.modeSelect.SetSelected(labelWeb)
	}
	showMode(f.modeSelect.Selected)

	// Wired after the initial selection so opening the window does not relayout twice.
	f.modeSelect.OnChanged = func(selected string) {
		showMode(selected)
		onLayoutChange()
	}

	return widget.NewCard(app.GetMsg(config.TKeyLblSource), "", container.NewVBox(f.modeSelect, webForm, localForm))
}

// buildGeneralCard holds language, refresh interval and server port.
func (app *RosterApp) buildGeneralCard(f *settingsForm) *widget.Card {
	f.langSelect = widget.NewSelect(app.SupportedLanguages, nil)
	f.langSelect.SetSelected(app.Preferences.StringWithFallback(config.PrefLanguage, config.DefaultLanguage))

	f.entryInterval = NewNumericalEntry()
	f.entryInterval.SetInt(app.Preferences.IntWithFallback(config.PrefInterval, config.DefaultRefreshMin))

	// The port is the only field that blocks saving.
	f.entryPort = NewNumericalEntry()
	f.entryPort.SetText(app.Preferences.StringWithFallback(config.PrefServerPort, config.DefaultPort))
	f.entryPort.Validator = app.validatePort

	itemLang := widget.NewFormItem(app.GetMsg(config.TKeyLblLanguage), f.langSelect)
	itemLang.HintText = app.GetMsg(config.TKeyHelpLanguage)

	interval := container.NewBorder(nil, nil, nil, widget.NewLabel(app.GetMsg(config.TKeyLblMinutes)), f.entryInterval)
	itemInterval := widget.NewFormItem(app.GetMsg(config.TKeyLblRefresh), interval)
	itemInterval.HintText = app.GetMsg(config.TKeyHelpInterval)

	itemPort := widget.NewFormItem(app.GetMsg(config.TKeyLblPort), f.entryPort)
	itemPort.HintText = app.GetMsg(config.TKeyHelpPort)

	return widget.NewCard(app.GetMsg(config.TKeyLblGeneral), "", widget.NewForm(itemLang, itemInterval, itemPort))
}

// validatePort accepts 1 through 65535, with localized errors.
func (app *RosterApp) validatePort(s string) error {
	if s == "" {
		return errors.New(app.GetMsg(config.TKeyErrPortReq))
	}
	port, err := strconv.Atoi(s)
	if err != nil {
		return errors.New(app.GetMsg(config.TKeyErrPortNum))
	}
	if port < config.MinPort || port > config.MaxPort {
		return errors.New(app.GetMsg(config.TKeyErrPortRange))
	}
	return nil
}

// buildUpcomingCard constructs the window and limit inputs of the dashboard.
func (app *RosterApp) buildUpcomingCard(f *settingsForm) *widget.Card {
	f.entryWindow = NewNumericalEntry()
	f.entryWindow.SetInt(app.Preferences.IntWithFallback(config.PrefWindowDays, config.DefaultWindowDays))

	f.entryLimit = NewNumericalEntry()
	f.entryLimit.SetInt(app.Preferences.IntWithFallback(config.PrefLimit, config.DefaultLimit))

	window := container.NewBorder(nil, nil, nil, widget.NewLabel(app.GetMsg(config.TKeyUnitDays)), f.entryWindow)
	itemWindow := widget.NewFormItem(app.GetMsg(config.TKeyLblWindowDays), window)
	itemWindow.HintText = app.GetMsg(config.TKeyHelpWindowDays)

	itemLimit := widget.NewFormItem(app.GetMsg(config.TKeyLblLimit), f.entryLimit)
	itemLimit.HintText = app.GetMsg(config.TKeyHelpLimit)

	return widget.NewCard(app.GetMsg(config.TKeyLblUpcoming), "", widget.NewForm(itemWindow, itemLimit))
}

// buildNotifCard constructs the calendar reminder row: value, unit, direction.
func (app *RosterApp) buildNotifCard(f *settingsForm, onLayoutChange func()) *widget.Card {
	units := []choice{
		{config.UnitDays, app.GetMsg(config.TKeyUnitDays)},
		{config.UnitHours, app.GetMsg(config.TKeyUnitHours)},
		{config.UnitMinutes, app.GetMsg(config.TKeyUnitMinutes)},
	}
	dirs := []choice{
		{config.DirBefore, app.GetMsg(config.TKeyDirBefore)},
		{config.DirAfter, app.GetMsg(config.TKeyDirAfter)},
	}

	f.units, f.dirs = units, dirs

	f.entryRemValue = NewNumericalEntry()
	f.entryRemValue.SetInt(app.Preferences.IntWithFallback(config.PrefReminderValue, config.DefaultReminderValue))

	f.selectRemUnit = widget.NewSelect(labels(units), nil)
	f.selectRemUnit.SetSelected(labelOf(units, app.Preferences.StringWithFallback(config.PrefReminderUnit, config.UnitDays)))

	f.selectRemDir = widget.NewSelect(labels(dirs), nil)
	f.selectRemDir.SetSelected(labelOf(dirs, app.Preferences.StringWithFallback(config.PrefReminderDir, config.DirBefore)))

	controls := container.NewHBox(f.selectRemUnit, f.selectRemDir, widget.NewLabel(app.GetMsg(config.TKeyLblStartDay)))
	row := container.NewBorder(nil, nil, nil, controls, f.entryRemValue)

	f.checkReminder = widget.NewCheck(app.GetMsg(config.TKeyLblEnableRem), nil)
	f.checkReminder.SetChecked(app.Preferences.Bool(config.PrefReminderEnabled))
	setVisible(row, f.checkReminder.Checked)

	f.checkReminder.OnChanged = func(on bool) {
		setVisible(row, on)
		onLayoutChange()
	}

	return widget.NewCard(app.GetMsg(config.TKeyLblNotif), "", container.NewVBox(f.checkReminder, row))
}

// buildGreetingCard constructs the birthday message editor.
func (app *RosterApp) buildGreetingCard(f *settingsForm) *widget.Card {
	current := app.greetingTemplate()

	f.greetSubject = widget.NewEntry()
	f.greetSubject.SetText(current.Subject)

	f.greetBody = widget.NewMultiLineEntry()
	f.greetBody.Wrapping = fyne.TextWrapWord
	f.greetBody.SetText(current.Body)

	itemBody := widget.NewFormItem(app.GetMsg(config.TKeyLblGreetBody), f.greetBody)
	itemBody.HintText = app.GetMsg(config.TKeyHelpGreetBody)

	return widget.NewCard(app.GetMsg(config.TKeyLblGreeting), "", widget.NewForm(
		widget.NewFormItem(app.GetMsg(config.TKeyLblGreetSubject), f.greetSubject),
		itemBody,
	))
}

// -----------------------------------------------------------------------------
// Persistence
// -----------------------------------------------------------------------------

// saveSettings persists the form, then applies it and triggers a sync.
func (app *RosterApp) saveSettings(f *settingsForm) {
	slog.Info(config.MsgSettingsSave, config.LogKeyComponent, config.CompUISet)

	app.saveSource(f)
	app.saveGeneral(f)
	app.saveReminders(f)

	app.Preferences.SetInt(config.PrefWindowDays, f.entryWindow.IntOr(config.DefaultWindowDays))
	app.Preferences.SetInt(config.PrefLimit, f.entryLimit.IntOr(config.DefaultLimit))
	app.Preferences.SetString(config.PrefGreetingSubject, f.greetSubject.Text)
	app.Preferences.SetString(config.PrefGreetingBody, f.greetBody.Text)

	app.UpdateLocalizer()
	app.applySettings()
	app.RefreshTrayMenu()
	go app.performSync(true)
}

func (app *RosterApp) saveSource(f *settingsForm) {
	mode := config.SourceModeWeb
	if f.modeSelect.Selected == app.GetMsg(config.TKeyModeLocal) {
		mode = config.SourceModeLocal
	}
	app.Preferences.SetString(config.PrefSourceMode, mode)
	app.Preferences.SetString(config.PrefCardDAVURL, f.urlEntry.Text)
	app.Preferences.SetString(config.PrefUsername, f.userEntry.Text)
	app.Preferences.SetString(config.PrefLocalPath, f.pathEntry.Text)

	// An empty password keeps whatever the keyring already holds.
	if f.userEntry.Text != "" && f.passEntry.Text != "" {
		if err := keyring.Set(config.KeyringService, f.userEntry.Text, f.passEntry.Text); err != nil {
			slog.Error(config.MsgCredSaveFail, config.LogKeyError, err, config.LogKeyComponent, config.CompUISet)
		}
	}
}

func (app *RosterApp) saveGeneral(f *settingsForm) {
	app.Preferences.SetString(config.PrefLanguage, f.langSelect.Selected)

	interval := f.entryInterval.IntOr(config.DisabledInterval)
	if interval == config.DisabledInterval {
		slog.Info(config.MsgRefreshOff, config.LogKeyComponent, config.CompUISet)
	}
	app.Preferences.SetInt(config.PrefInterval, interval)

	if f.entryPort.Text != "" {
		app.Preferences.SetString(config.PrefServerPort, f.entryPort.Text)
	}
}

// saveReminders disables reminders when the value is empty, whatever the checkbox says.
func (app *RosterApp) saveReminders(f *settingsForm) {
	value := f.entryRemValue.IntOr(-1)
	if value < 0 {
		app.Preferences.SetBool(config.PrefReminderEnabled, false)
		slog.Info(config.MsgReminderOff, config.LogKeyComponent, config.CompUISet)
	} else {
		app.Preferences.SetBool(config.PrefReminderEnabled, f.checkReminder.Checked)
		app.Preferences.SetInt(config.PrefReminderValue, value)
	}

	app.Preferences.SetString(config.PrefReminderUnit, valueOf(f.units, f.selectRemUnit.Selected))
	app.Preferences.SetString(config.PrefReminderDir, valueOf(f.dirs, f.selectRemDir.Selected))
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// choice pairs a stored preference value with its localized label.
type choice struct {
	value string
	label string
}

func labels(cs []choice) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.label
	}
	return out
}

// labelOf returns the label for value, or the first label when unknown.
func labelOf(cs []choice, value string) string {
	for _, c := range cs {
		if c.value == value {
			return c.label
		}
	}
	return cs[0].label
}

// valueOf returns the value for label, or the first value when unknown.
func valueOf(cs []choice, label string) string {
	for _, c := range cs {
		if c.label == label {
			return c.value
		}
	}
	return cs[0].value
}

func setVisible(o fyne.CanvasObject, visible bool) {
	if visible {
		o.Show()
	} else {
		o.Hide()
	}
}
