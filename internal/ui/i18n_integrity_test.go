package ui_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-roster/internal/config"
)

// keysByArea lists every translation key the code looks up, grouped by the
// part of the UI that uses it.
var keysByArea = map[string][]string{
	"tray": {
		config.TKeyMenuRefresh, config.TKeyMenuSettings, config.TKeyMenuExport,
		config.TKeyTrayNone, config.TKeyTrayNext,
		config.TKeyCountdownToday, config.TKeyCountdownDays,
	},
	"notifications": {
		config.TKeyNotifStart, config.TKeyNotifSuccess, config.TKeyNotifError, config.TKeyNotifExported,
	},
	"roster": {
		config.TKeyWinRoster, config.TKeyLblRosterSummary,
		config.TKeyColName, config.TKeyColDate, config.TKeyColCountdown, config.TKeyColAge,
		config.TKeyFormatDate, config.TKeyAgeBirth,
	},
	"settings": {
		config.TKeyWinTitle, config.TKeyBtnSave, config.TKeyBtnCancel, config.TKeyLblFooter,
		config.TKeyLblSource, config.TKeyModeCardDAV, config.TKeyModeLocal, config.TKeyBtnBrowse,
		config.TKeyLblURL, config.TKeyHelpURL, config.TKeyLblUser, config.TKeyLblPass,
		config.TKeyLblGeneral, config.TKeyLblLanguage, config.TKeyHelpLanguage,
		config.TKeyLblRefresh, config.TKeyLblMinutes, config.TKeyHelpInterval,
		config.TKeyLblPort, config.TKeyHelpPort,
		config.TKeyLblUpcoming, config.TKeyLblWindowDays, config.TKeyHelpWindowDays,
		config.TKeyLblLimit, config.TKeyHelpLimit,
		config.TKeyLblNotif, config.TKeyLblEnableRem, config.TKeyLblStartDay,
		config.TKeyUnitDays, config.TKeyUnitHours, config.TKeyUnitMinutes,
		config.TKeyDirBefore, config.TKeyDirAfter,
		config.TKeyLblGreeting, config.TKeyLblGreetSubject, config.TKeyLblGreetBody, config.TKeyHelpGreetBody,
	},
	"validation": {
		config.TKeyErrPortReq, config.TKeyErrPortNum, config.TKeyErrPortRange,
	},
	"calendar": {
		config.TKeyEvtSummary, config.TKeyEvtSummaryAge, config.TKeyEvtSummaryBirth,
	},
}

var placeholder = regexp.MustCompile(`\{\{\.\w+\}\}|%[sd]`)

func TestI18nIntegrity_KeysPresent(t *testing.T) {
	for _, lang := range config.SupportedLanguages {
		messages := loadLocale(t, lang)
		for area, keys := range keysByArea {
			t.Run(lang+"/"+area, func(t *testing.T) {
				for _, key := range keys {
					assert.Containsf(t, messages, key, "%s is looked up by the %s UI", key, area)
				}
			})
		}
	}
}

// Every locale carries the same keys as English, with the same placeholders.
func TestI18nIntegrity_Parity(t *testing.T) {
	reference := loadLocale(t, config.DefaultLanguage)

	for _, lang := range config.SupportedLanguages {
		if lang == config.DefaultLanguage {
			continue
		}
		t.Run(lang, func(t *testing.T) {
			messages := loadLocale(t, lang)
			assert.ElementsMatch(t, keysOf(reference), keysOf(messages))

			for key, want := range reference {
				got, ok := messages[key]
				if !ok {
					continue
				}
				assert.Equalf(t, placeholders(want), placeholders(got), "placeholders of %s", key)
			}
		})
	}
}

func TestI18nIntegrity_PluralForms(t *testing.T) {
	for _, lang := range config.SupportedLanguages {
		t.Run(lang, func(t *testing.T) {
			forms, ok := loadLocale(t, lang)[config.TKeyCountdownDays].(map[string]interface{})
			require.True(t, ok, "countdown must be a plural map")
			assert.Contains(t, forms, "one")
			assert.Contains(t, forms, "other")
		})
	}
}

func TestI18nIntegrity_NoOrphans(t *testing.T) {
	used := make(map[string]bool)
	for _, keys := range keysByArea {
		for _, k := range keys {
			used[k] = true
		}
	}
	for key := range loadLocale(t, config.DefaultLanguage) {
		assert.Truef(t, used[key], "%s is translated but never looked up", key)
	}
}

// loadLocale reads a locale file whether tests run from internal/ui or the root.
func loadLocale(t *testing.T, lang string) map[string]interface{} {
	t.Helper()

	name := "active." + lang + ".json"
	content, err := os.ReadFile(filepath.Join("locales", name))
	if os.IsNotExist(err) {
		content, err = os.ReadFile(filepath.Join("internal", "ui", "locales", name))
	}
	require.NoError(t, err, "Must load %s", name)

	var messages map[string]interface{}
	require.NoError(t, json.Unmarshal(content, &messages), "%s must be valid JSON", name)
	return messages
}

func keysOf(m map[string]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// placeholders collects the template fields of a message, plural forms included.
func placeholders(v interface{}) []string {
	var out []string
	switch msg := v.(type) {
	case string:
		out = placeholder.FindAllString(msg, -1)
	case map[string]interface{}:
		seen := map[string]bool{}
		for _, form := range msg {
			for _, p := range placeholders(form) {
				if !seen[p] {
					seen[p] = true
					out = append(out, p)
				}
			}
		}
	}
	sort.Strings(out)
	return out
}
