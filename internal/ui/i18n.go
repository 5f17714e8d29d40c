package ui

import (
	"embed"
	"encoding/json"
	"log/slog"
	"path"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/go-roster/internal/config"
	"github.com/tartampluch/go-roster/internal/engine"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

const (
	localesDir   = "locales"
	localePrefix = "active."
	localeSuffix = ".json"
)

// localeCode extracts "fr" from "active.fr.json".
func localeCode(fileName string) (string, bool) {
	if !strings.HasPrefix(fileName, localePrefix) || !strings.HasSuffix(fileName, localeSuffix) {
		return "", false
	}
	code := strings.TrimSuffix(strings.TrimPrefix(fileName, localePrefix), localeSuffix)
	if code == "" {
		return "", false
	}
	if _, err := language.Parse(code); err != nil {
		return "", false
	}
	return code, true
}

// SetupI18n loads every embedded locale into a bundle and records the
// languages it found.
func (app *RosterApp) SetupI18n() {
	log := slog.With(config.LogKeyComponent, config.CompI18n)

	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir(localesDir)
	if err != nil {
		log.Error(config.ErrLocalesAccess, config.LogKeyError, err)
		return
	}

	var detected []string
	for _, entry := range entries {
		name := entry.Name()
		code, ok := localeCode(name)
		if !ok {
			log.Warn(config.MsgLocaleBadName, config.LogKeyFile, name)
			continue
		}

		if _, err := bundle.LoadMessageFileFS(localeFS, path.Join(localesDir, name)); err != nil {
			log.Error(config.ErrLocaleLoad, config.LogKeyFile, name, config.LogKeyError, err)
			continue
		}
		detected = append(detected, code)
		log.Debug(config.MsgLocaleLoaded, config.LogKeyLang, code, config.LogKeyFile, name)
	}

	app.SupportedLanguages = detected
	app.I18nBundle = bundle
	app.UpdateLocalizer()
}

// UpdateLocalizer refreshes the translator based on the user's language preference.
func (app *RosterApp) UpdateLocalizer() {
	if app.I18nBundle == nil {
		return
	}
	lang := app.Preferences.StringWithFallback(config.PrefLanguage, config.DefaultLanguage)
	app.Localizer = i18n.NewLocalizer(app.I18nBundle, lang)
}

// localize renders a message. ok is false when no localizer is set or the
// message is missing, and callers then use their English fallback.
func (app *RosterApp) localize(id string, data map[string]interface{}, plural interface{}) (msg string, ok bool) {
	if app.Localizer == nil {
		return "", false
	}
	msg, err := app.Localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    id,
		TemplateData: data,
		PluralCount:  plural,
	})
	if err != nil || msg == "" {
		slog.Debug(config.MsgTransMissing,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyKey, id,
			config.LogKeyError, err,
		)
		return "", false
	}
	return msg, true
}

// GetMsg translates a plain key, returning the key itself when missing.
func (app *RosterApp) GetMsg(key string) string {
	if msg, ok := app.localize(key, nil, nil); ok {
		return msg
	}
	return key
}

// Countdown renders a day count in the active language.
func (app *RosterApp) Countdown(days int) string {
	if days <= 0 {
		if msg, ok := app.localize(config.TKeyCountdownToday, nil, nil); ok {
			return msg
		}
	} else if msg, ok := app.localize(config.TKeyCountdownDays, map[string]interface{}{"Count": days}, days); ok {
		return msg
	}
	return engine.CountdownLabel(days)
}
