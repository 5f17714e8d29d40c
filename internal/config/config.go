package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client.
var UserAgent = "Go-Roster/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName           = "Go Roster"
	AppID             = "com.github.tartampluch.go-roster"
	KeyringService    = "com.github.tartampluch.go-roster"
	LocalhostBindAddr = "127.0.0.1"
	LogFileName       = "app.log"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	DirPermUserRWX fs.FileMode = 0700

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagVersion  = "version"
	FlagDebug    = "debug"
	FlagHeadless = "headless"
	FlagSource   = "source"
	FlagPort     = "port"
	FlagWindow   = "window"
	FlagLimit    = "limit"
	FlagInterval = "interval"

	FlagDescVersion  = "Show application version and exit"
	FlagDescDebug    = "Enable debug logging to stdout"
	FlagDescHeadless = "Serve the feed without the system tray"
	FlagDescSource   = "Headless roster source: a .vcf/.yaml path or an http(s) URL"
	FlagDescPort     = "Headless HTTP port"
	FlagDescWindow   = "Headless upcoming window in days"
	FlagDescLimit    = "Headless upcoming list size"
	FlagDescInterval = "Headless refresh interval in minutes"

	MsgVersionOutput = "%s version %s (commit %s, built %s) %s/%s\n"
)

// -----------------------------------------------------------------------------
// UI Constants & Preferences
// -----------------------------------------------------------------------------

const (
	SettingsWindowWidth = 600

	// Preference Keys
	PrefCardDAVURL      = "carddav_url"
	PrefUsername        = "username"
	PrefLanguage        = "language"
	PrefInterval        = "refresh_interval_min"
	PrefServerPort      = "server_port"
	PrefSourceMode      = "source_mode"
	PrefLocalPath       = "local_path"
	PrefWindowDays      = "upcoming_window_days"
	PrefLimit           = "upcoming_limit"
	PrefReminderEnabled = "reminder_enabled"
	PrefReminderValue   = "reminder_value"
	PrefReminderUnit    = "reminder_unit"
	PrefReminderDir     = "reminder_direction"
	PrefGreetingSubject = "greeting_subject"
	PrefGreetingBody    = "greeting_body"
	PrefLastRun         = "last_run_version"
)

// SupportedLanguages defines the list of available UI languages (ISO 639-1).
var SupportedLanguages = []string{"en", "fr"}

// -----------------------------------------------------------------------------
// UI Roster Window Constants
// -----------------------------------------------------------------------------

const (
	RosterWinWidth  = 600
	RosterWinHeight = 420

	// Table Column IDs
	ColIDName      = 0
	ColIDDate      = 1
	ColIDCountdown = 2
	ColIDAge       = 3
	ColumnCount    = 4

	// Table Layout
	ColWidthName      = 220
	ColWidthDate      = 110
	ColWidthCountdown = 130
	ColWidthAge       = 100

	// Display Formats & Placeholders
	DateFormatDisplay = "2006-01-02"
	TablePlaceholder  = "Cell Content"
	AgeUnknown        = "-"
	AgeBirth          = "(birth)"
	FallbackAgeBirth  = "Birth"

	// FormatAgeTransition renders "previous → next" ages.
	FormatAgeTransition      = "%d → %d"
	FormatAgeTransitionBirth = "%s → %d"
	LogMsgOpenWin     = "Opening roster window"
	LogMsgSorted      = "Roster sorted"

	// Sorting Indicators
	SortIconAsc  = " ▲"
	SortIconDesc = " ▼"
)

// -----------------------------------------------------------------------------
// Translation Keys (I18n)
// -----------------------------------------------------------------------------

const (
	TKeyWinTitle         = "win_title"
	TKeyWinRoster        = "win_roster_title"
	TKeyMenuRefresh      = "menu_refresh"
	TKeyMenuSettings     = "menu_settings"
	TKeyMenuExport       = "menu_export_csv"
	TKeyTrayNone         = "tray_none"
	TKeyCountdownToday   = "countdown_today"
	TKeyCountdownDays    = "countdown_days" // Plural, requires Count
	TKeyTrayNext         = "tray_next"      // Requires Names, Countdown
	TKeyNotifStart       = "notif_sync_start"
	TKeyNotifSuccess     = "notif_sync_success"
	TKeyNotifError       = "notif_err_sync"
	TKeyNotifExported    = "notif_exported"
	TKeyModeCardDAV      = "mode_carddav"
	TKeyModeLocal        = "mode_local"
	TKeyLblLanguage      = "lbl_language"
	TKeyHelpLanguage     = "help_language"
	TKeyLblMinutes       = "lbl_minutes_suffix"
	TKeyLblRefresh       = "lbl_refresh_interval"
	TKeyHelpInterval     = "help_interval"
	TKeyLblPort          = "lbl_server_port"
	TKeyHelpPort         = "help_port"
	TKeyLblGeneral       = "lbl_general"
	TKeyLblUpcoming      = "lbl_upcoming"
	TKeyLblWindowDays    = "lbl_window_days"
	TKeyHelpWindowDays   = "help_window_days"
	TKeyLblLimit         = "lbl_limit"
	TKeyHelpLimit        = "help_limit"
	TKeyLblEnableRem     = "lbl_enable_reminders"
	TKeyUnitDays         = "unit_days"
	TKeyUnitHours        = "unit_hours"
	TKeyUnitMinutes      = "unit_minutes"
	TKeyDirBefore        = "dir_before"
	TKeyDirAfter         = "dir_after"
	TKeyLblNotif         = "lbl_notifications"
	TKeyLblGreeting      = "lbl_greeting"
	TKeyLblGreetSubject  = "lbl_greeting_subject"
	TKeyLblGreetBody     = "lbl_greeting_body"
	TKeyHelpGreetBody    = "help_greeting_body"
	TKeyBtnSave          = "btn_save"
	TKeyBtnCancel        = "btn_cancel"
	TKeyLblFooter        = "lbl_footer"
	TKeyBtnBrowse        = "btn_browse"
	TKeyLblURL           = "lbl_url"
	TKeyHelpURL          = "help_carddav_url"
	TKeyLblUser          = "lbl_user"
	TKeyLblPass          = "lbl_pass"
	TKeyLblSource        = "lbl_source"
	TKeyLblStartDay      = "lbl_start_of_day"
	TKeyEvtSummary       = "event_summary"       // Requires Name
	TKeyEvtSummaryAge    = "event_summary_age"   // Requires Name, Age
	TKeyEvtSummaryBirth  = "event_summary_birth" // Requires Name (For age 0)
	TKeyLblRosterSummary = "lbl_roster_summary"  // Requires Total, Recent, Events

	// Column Headers & Formats
	TKeyColName      = "col_name"
	TKeyColDate      = "col_date"
	TKeyColCountdown = "col_countdown"
	TKeyColAge       = "col_age"
	TKeyFormatDate   = "format_date_short"
	TKeyAgeBirth     = "age_birth"

	// Validation Errors (UI)
	TKeyErrPortReq   = "err_port_required"
	TKeyErrPortNum   = "err_port_number"
	TKeyErrPortRange = "err_port_range"
)

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	SourceModeWeb        = "web"
	SourceModeLocal      = "local"
	DefaultPort          = "18080"
	DefaultRefreshMin    = 60
	DefaultLanguage      = "en"
	DefaultWindowDays    = 14
	DefaultLimit         = 5
	RecentMemberDays     = 30
	RecentEventsLimit    = 3
	DefaultReminderValue = 1
	UIDNamespace         = "go-roster-v1" // Namespace seed for deterministic member IDs
	DisabledInterval     = 0

	// Greeting template placeholder and defaults.
	GreetingPlaceholder     = "{name}"
	DefaultGreetingSubject  = "Happy Birthday!"
	MinGreetingSubject      = 3
	MinGreetingBody         = 10
	DefaultGreetingTemplate = "Dear {name},\n\nWishing you a blessed birthday filled with joy and love!"
)

// Countdown labels (canonical English rendering of the engine).
const (
	LabelToday      = "Today"
	LabelOneDay     = "1 day to go"
	LabelManyDays   = "%d days to go"
	LabelNoUpcoming = "No upcoming birthdays"
)

// ISO8601 Duration Components for Reminders
const (
	ISOPeriodPrefix   = "P"
	ISONegativePrefix = "-P"
	ISOTimePrefix     = "T"
	ISODay            = "D"
	ISOHour           = "H"
	ISOMinute         = "M"
)

// -----------------------------------------------------------------------------
// Standards: iCalendar & vCard
// -----------------------------------------------------------------------------

const (
	// iCal Properties
	ICalVersion   = "2.0"
	ICalProdid    = "-//Go Roster//Birthdays//EN"
	ICalCalName   = "Member Birthdays"
	ICalMethod    = "PUBLISH"
	ICalScale     = "GREGORIAN"
	ICalComponent = "VALARM"
	ICalAction    = "DISPLAY"
	ICalDomain    = "goroster"

	// iCal/vCard Fields
	PropUID         = "UID"
	PropSummary     = "SUMMARY"
	PropDTStart     = "DTSTART"
	PropDTStamp     = "DTSTAMP"
	PropRefresh     = "REFRESH-INTERVAL"
	PropAction      = "ACTION"
	PropDescription = "DESCRIPTION"
	PropTrigger     = "TRIGGER"
	PropVersion     = "VERSION"
	PropProdid      = "PRODID"
	PropXWRCalName  = "X-WR-CALNAME"
	PropCalScale    = "CALSCALE"
	PropMethod      = "METHOD"

	VCardBDAY  = "BDAY"
	VCardFN    = "FN"
	VCardEmail = "EMAIL"
	VCardUID   = "UID"
	VCardREV   = "REV"

	DefaultICalRefresh = 1 * time.Hour
)

// -----------------------------------------------------------------------------
// Data Formats, Limits & File Extensions
// -----------------------------------------------------------------------------

const (
	// Date layouts accepted when normalizing birthdays
	DateFormatFullDash  = "2006-01-02"
	DateFormatFullBasic = "20060102"
	DateFormatRFC3339   = time.RFC3339
	DateFormatFullT     = "2006-01-02T15:04:05Z"
	DateFormatNoYearD   = "--01-02"
	DateFormatNoYearB   = "--0102"
	DateFormatREVBasic  = "20060102T150405Z"

	// Limits
	MinPort = 1
	MaxPort = 65535

	// UID Generation
	FormatHashInput = "%s|%s"
	FormatUID       = "%s-%d@%s"

	// File Extensions
	ExtVCF   = ".vcf"
	ExtVCard = ".vcard"
	ExtYAML  = ".yaml"
	ExtYML   = ".yml"

	// CSV Export
	CSVFilePattern = "members_%s.csv"
)

// CSVHeader is the column order of the roster dump.
var CSVHeader = []string{"id", "name", "email", "birthday", "created_at"}

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	HTTPTimeout         = 30 * time.Second
	ShutdownTimeout     = 5 * time.Second
	ServerReadTimeout   = 10 * time.Second
	ServerWriteTimeout  = 30 * time.Second
	ServerIdleTimeout   = 60 * time.Second
	RetryAfterSeconds   = "10"
	AllowedMethods      = "GET, HEAD"
	MaxHTTPResponseSize = 256 * 1024 * 1024 // 256MB
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
	AddrSeparator       = ":"

	// Routes
	RouteRoot     = "/"
	RouteCalendar = "/calendar.ics"
	RouteUpcoming = "/api/upcoming"
	RouteNext     = "/api/next"
	RouteCSV      = "/api/members.csv"
	RouteMetrics  = "/metrics"

	// RouteUnmatched labels requests that hit no route in metrics.
	RouteUnmatched = "unmatched"
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType        = "Content-Type"
	HeaderContentDisposition = "Content-Disposition"
	HeaderCacheControl       = "Cache-Control"
	HeaderETag               = "ETag"
	HeaderLastModified       = "Last-Modified"
	HeaderRetryAfter         = "Retry-After"
	HeaderAllow              = "Allow"
	HeaderXContentType       = "X-Content-Type-Options"
	HeaderUserAgent          = "User-Agent"
	HeaderIfNoneMatch        = "If-None-Match"
	HeaderIfModifiedSince    = "If-Modified-Since"
	HeaderAccept             = "Accept"

	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeJSON            = "application/json; charset=utf-8"
	MimeCSV             = "text/csv; charset=utf-8"
	MimeNoSniff         = "nosniff"
	AcceptRoster        = "text/vcard, application/yaml;q=0.9, */*;q=0.5"
	CacheControlPrivate = "private, no-cache"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`
	// FormatAttachment expects a file name.
	FormatAttachment = `attachment; filename="%s"`
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrLocalPathEmpty   = "configuration error: local path is empty"
	ErrWebURLEmpty      = "configuration error: web URL is empty"
	ErrFetcherMissing   = "internal error: network fetcher is not initialized"
	ErrLoaderMissing    = "internal error: roster loader is not initialized"
	ErrModeUnsupport    = "configuration error: unsupported source mode"
	ErrServerStartup    = "server startup failed"
	ErrServerShutdown   = "server shutdown failed"
	ErrPortRequired     = "server port is required"
	ErrPortNumber       = "server port must be a number"
	ErrPortRange        = "server port must be between 1 and 65535"
	ErrInvalidURL       = "invalid URL structure"
	ErrProtocol         = "unsupported protocol scheme (http/https only)"
	ErrRosterRead       = "failed to read roster source"
	ErrRosterParse      = "failed to parse roster"
	ErrYAMLParse        = "failed to decode YAML roster"
	ErrICalEncode       = "failed to encode iCalendar data"
	ErrCSVWrite         = "failed to write CSV export"
	ErrInvalidDate      = "invalid anniversary date"
	ErrInvalidRefDate   = "invalid reference date"
	ErrLogFile          = "failed to open log file"
	ErrCacheDir         = "could not determine user cache dir"
	ErrCreateDir        = "could not create app cache dir"
	ErrAppFailed        = "application failed unexpectedly"
	ErrWriteResp        = "failed to write response body"
	ErrLocalesAccess    = "failed to access embedded locales"
	ErrLocaleLoad       = "failed to load locale file"
	ErrTrayNotSupported = "system tray not supported on this platform/driver"
	ErrSnapshotBuild    = "failed to build dashboard snapshot"
	ErrGreetingSubject  = "greeting subject must be at least 3 characters"
	ErrGreetingBody     = "greeting body must be at least 10 characters"
	ErrRequestBuild     = "failed to create request"
	ErrNetwork          = "network error during fetch"
	ErrHTTPStatus       = "server returned unexpected status"
	ErrResponseTooLarge = "response exceeds the maximum roster size"
	ErrSourceRequired   = "headless mode requires -source"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Roster initializing, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
	HTTPMsgInternalErr  = "Internal Server Error"
)

// -----------------------------------------------------------------------------
// Fallbacks & Defaults
// -----------------------------------------------------------------------------

const (
	FallbackSummary       = "Birthday: %s"
	FallbackSummaryAge    = "Birthday: %s (%d)"
	FallbackSummaryBirth  = "Birthday: %s (birth)"
	FallbackTrayError     = "Go Roster: Sync Error"
	FallbackTrayNext      = "%s: %s"
	FallbackTrayLabel     = "Go Roster"
	FallbackRosterSummary = "%d members, %d joined recently, %d upcoming events"
	FallbackName          = "Unknown"
	NameSeparator         = ", "

	// StubVCalendar is the minimal valid iCalendar object used when no events are found.
	StubVCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + ICalProdid + "\r\nEND:VCALENDAR\r\n"

	TitleStartupError = "Startup Error"
	TitleSyncError    = "Sync Error"

	MsgPortBusy        = "Port %s is busy or unavailable."
	MsgSyncReq         = "Sync requested"
	MsgSyncFailed      = "Synchronization failed. Check logs."
	MsgSyncStarted     = "Roster synchronization started"
	MsgSyncDone        = "Roster synchronization finished"
	MsgWorkerStart     = "Background worker started"
	MsgWorkerStop      = "Worker stopping due to context cancellation"
	MsgUpdateSync      = "Updating sync interval"
	MsgAppStop         = "Application stopped gracefully"
	MsgCtxCancel       = "Context cancelled, shutting down UI"
	MsgSkippedCard     = "Skipping malformed vCard"
	MsgSkippedDate     = "Skipping invalid date format"
	MsgSkippedPerson   = "Excluding member without a valid birthday"
	MsgSkippedEvent    = "Excluding event without a valid date"
	MsgRosterLoaded    = "Roster loaded"
	MsgGenSuccess      = "Calendar generation successful"
	MsgSnapshotReused  = "Roster unchanged, reusing snapshot"
	MsgSnapshotBuilt   = "Dashboard snapshot rebuilt"
	MsgAppStarting     = "Starting application"
	MsgServerListen    = "HTTP server listening"
	MsgServerStop      = "Shutting down HTTP server..."
	MsgCacheUpdated    = "Published snapshot updated"
	MsgLocaleBadName   = "Skipping malformed locale filename"
	MsgLocaleLoaded    = "Locale loaded successfully"
	MsgTransMissing    = "Missing translation key"
	MsgPassFail        = "Password retrieval failed (might be empty)"
	MsgLogWarning      = "Warning: %s at %s: %v\n"
	MsgBdayToday       = "Birthday found today"
	MsgGreetingSkipped = "No active greeting template"
	MsgGreetingReady   = "Birthday greeting ready"
	MsgExported        = "Roster exported to CSV"
	MsgFetchStart      = "Initiating roster download"
	MsgFetchBadStatus  = "Server returned error status"
	MsgFetchOK         = "Roster downloading"
	MsgSettingsOpen    = "Opening settings window"
	MsgSettingsFocus   = "Settings window already open, requesting focus"
	MsgSettingsSave    = "Saving preferences"
	MsgCredSaveFail    = "Failed to save credentials to keyring"
	MsgRefreshOff      = "Auto-refresh disabled via settings"
	MsgReminderOff     = "Reminders disabled via settings (value is empty)"
	MsgSettingsInvalid = "Settings rejected"

	PlaceholderURL = "https://..."
)

// -----------------------------------------------------------------------------
// Reminder Units & Directions
// -----------------------------------------------------------------------------

const (
	UnitDays    = "d"
	UnitHours   = "h"
	UnitMinutes = "m"
	DirBefore   = "before"
	DirAfter    = "after"
)

// -----------------------------------------------------------------------------
// Metrics
// -----------------------------------------------------------------------------

const (
	MetricsNamespace = "goroster"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyURL       = "url"
	LogKeyStatus    = "status_code"
	LogKeyFile      = "file"
	LogKeyFormat    = "format"
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyPort      = "port"
	LogKeyMode      = "mode"
	LogKeyInterval  = "interval"
	LogKeyOld       = "old"
	LogKeyNew       = "new"
	LogKeyUser      = "user"
	LogKeyID        = "member_id"
	LogKeyEventID   = "event_id"
	LogKeyEvents    = "total_events"
	LogKeyTotal     = "total_members"
	LogKeyFound     = "birthdays_found"
	LogKeyToday     = "birthdays_today"
	LogKeyUpcoming  = "birthdays_upcoming"
	LogKeySizeBytes = "size_bytes"
	LogKeyETag      = "etag"
	LogKeyManual    = "manual"
	LogKeyValue     = "value"
	LogKeyStats     = "stats"
	LogKeySortCol   = "sort_column"
	LogKeySortAsc   = "sort_asc"
	LogKeyCount     = "count"
	LogKeyName      = "name"
	LogKeyDOB       = "date_of_birth"
	LogKeyDuration  = "duration_ms"
	LogKeyVersion   = "version"
	LogKeyReference = "reference_date"

	LogKeyContentLength = "content_length"

	// Startup Info Keys
	LogKeyBuild = "build"
	LogKeyApp   = "app"
	LogKeyGoVer = "go_version"
	LogKeyEnv   = "env"
	LogKeyOS    = "os"
	LogKeyArch  = "arch"
	LogKeyPID   = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompUI        = "ui"
	CompUISet     = "ui_settings"
	CompEngine    = "engine"
	CompRoster    = "roster"
	CompCalendar  = "calendar"
	CompDashboard = "dashboard"
	CompServer    = "server"
	CompFetcher   = "fetcher"
	CompWorker    = "worker"
	CompMain      = "main"
	CompI18n      = "i18n"
)

// -----------------------------------------------------------------------------
// UI Layout Constants
// -----------------------------------------------------------------------------

const (
	LayoutColumnsDouble = 2
)
