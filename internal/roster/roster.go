// Package roster loads member records from vCard collections (local file or
// CardDAV/WebDAV URL) and YAML roster files, normalizing every birthday into
// the engine's canonical Date.
package roster

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tartampluch/go-roster/internal/config"
	"github.com/tartampluch/go-roster/internal/engine"
)

// Format names a roster document encoding.
type Format string

const (
	FormatVCard Format = "vcard"
	FormatYAML  Format = "yaml"
)

// Source contains all parameters required to locate a roster.
type Source struct {
	Mode      string // config.SourceModeLocal or config.SourceModeWeb
	LocalPath string // Absolute path to the .vcf or .yaml file
	WebURL    string // CardDAV or WebDAV URL
	WebUser   string // HTTP Basic Auth Username
	WebPass   string // HTTP Basic Auth Password
}

// Roster is an immutable snapshot of the member list and its events.
type Roster struct {
	Members []engine.Person
	Events  []engine.Event // Only YAML rosters carry events.

	// Version is the SHA-256 of the raw document; equal versions mean equal members.
	Version string

	Format Format

	// LoadedAt is set by Loader.Load; Decode leaves it zero.
	LoadedAt time.Time
}

// Loader reads a Source into a Roster.
type Loader struct {
	Fetcher Fetcher // Only required for web sources.
}

// NewLoader creates a Loader with the given network fetcher.
func NewLoader(f Fetcher) *Loader {
	return &Loader{Fetcher: f}
}

// Load acquires the source document and decodes it.
func (l *Loader) Load(ctx context.Context, src Source) (*Roster, error) {
	start := time.Now()
	log := slog.With(
		config.LogKeyComponent, config.CompRoster,
		config.LogKeyMode, src.Mode,
	)

	reader, format, err := l.acquireStream(ctx, src)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s: %w", config.ErrRosterRead, err)
	}
	defer func() { _ = reader.Close() }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrRosterRead, err)
	}

	r, err := Decode(ctx, data, format)
	if err != nil {
		return nil, err
	}
	r.LoadedAt = time.Now()

	log.Info(config.MsgRosterLoaded,
		config.LogKeyFormat, string(format),
		config.LogKeyTotal, len(r.Members),
		config.LogKeyEvents, len(r.Events),
		config.LogKeyDuration, time.Since(start).Milliseconds(),
	)
	return r, nil
}

// Decode parses a raw roster document.
func Decode(ctx context.Context, data []byte, format Format) (*Roster, error) {
	var (
		members []engine.Person
		events  = []engine.Event{}
		err     error
	)
	switch format {
	case FormatYAML:
		members, events, err = decodeYAML(data)
	case FormatVCard:
		members, err = decodeVCards(ctx, data)
	default:
		err = fmt.Errorf("%s: %q", config.ErrRosterParse, format)
	}
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(data)
	return &Roster{
		Members: members,
		Events:  events,
		Version: hex.EncodeToString(sum[:]),
		Format:  format,
	}, nil
}

// acquireStream opens the appropriate data source based on configuration.
func (l *Loader) acquireStream(ctx context.Context, src Source) (io.ReadCloser, Format, error) {
	switch src.Mode {
	case config.SourceModeLocal:
		if src.LocalPath == "" {
			return nil, "", errors.New(config.ErrLocalPathEmpty)
		}
		f, err := os.Open(src.LocalPath)
		if err != nil {
			return nil, "", err
		}
		return f, FormatForPath(src.LocalPath), nil
	case config.SourceModeWeb:
		if src.WebURL == "" {
			return nil, "", errors.New(config.ErrWebURLEmpty)
		}
		if l.Fetcher == nil {
			return nil, "", errors.New(config.ErrFetcherMissing)
		}
		rc, err := l.Fetcher.Fetch(ctx, src.WebURL, src.WebUser, src.WebPass)
		if err != nil {
			return nil, "", err
		}
		return rc, formatForURL(src.WebURL), nil
	default:
		return nil, "", fmt.Errorf("%s: %q", config.ErrModeUnsupport, src.Mode)
	}
}

// FormatForPath picks the decoder from the file extension. Anything that is
// not YAML is read as vCard, the CardDAV export format.
func FormatForPath(p string) Format {
	switch strings.ToLower(path.Ext(p)) {
	case config.ExtYAML, config.ExtYML:
		return FormatYAML
	default:
		return FormatVCard
	}
}

func formatForURL(raw string) Format {
	u, err := url.Parse(raw)
	if err != nil {
		return FormatVCard
	}
	return FormatForPath(u.Path)
}

// recordNamespace seeds deterministic IDs for records that carry none.
var recordNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte(config.UIDNamespace))

// recordID derives a stable identifier from the fields that identify a member
// or an event when the source has no explicit one.
func recordID(name, rawDate string) string {
	input := fmt.Sprintf(config.FormatHashInput, name, rawDate)
	return uuid.NewSHA1(recordNamespace, []byte(input)).String()
}

// normalizeBirthday parses a raw birthday. Failures are expected data
// incompleteness: the member is kept with an absent birthday.
func normalizeBirthday(id string, raw any) engine.Date {
	return normalizeDate(config.LogKeyID, id, raw)
}

// normalizeDate parses a raw date, logging failures under idKey.
func normalizeDate(idKey, id string, raw any) engine.Date {
	if raw == nil {
		return engine.Date{}
	}
	if s, ok := raw.(string); ok && strings.TrimSpace(s) == "" {
		return engine.Date{}
	}
	d, err := engine.ParseDate(raw)
	if err != nil {
		slog.Debug(config.MsgSkippedDate,
			config.LogKeyComponent, config.CompRoster,
			idKey, id,
			config.LogKeyValue, fmt.Sprint(raw),
		)
		return engine.Date{}
	}
	return d
}
