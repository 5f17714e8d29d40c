package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tartampluch/go-roster/internal/config"
)

var (
	// ErrInvalidDate reports a member birthday that cannot be read as a calendar date.
	ErrInvalidDate = errors.New(config.ErrInvalidDate)

	// ErrInvalidReferenceDate reports a caller-supplied "today" that is not a real date.
	ErrInvalidReferenceDate = errors.New(config.ErrInvalidRefDate)
)

// Timestamp mirrors the {seconds, nanoseconds} shape document stores use for
// instants. It is interpreted in UTC.
type Timestamp struct {
	Seconds     int64 `json:"seconds" yaml:"seconds"`
	Nanoseconds int64 `json:"nanoseconds" yaml:"nanoseconds"`
}

// Time converts the timestamp to a UTC instant.
func (ts Timestamp) Time() time.Time {
	return time.Unix(ts.Seconds, ts.Nanoseconds).UTC()
}

// ParseDate normalizes any accepted external representation of a birthday
// into a Date. Accepted inputs are Date, time.Time, Timestamp, unix seconds,
// a decoded {"seconds": n} map and the string layouts found in vCard and
// roster files. Yearless strings (--MM-DD) yield a Date with Year 0.
func ParseDate(value any) (Date, error) {
	switch v := value.(type) {
	case nil:
		return Date{}, ErrInvalidDate
	case Date:
		return checked(v)
	case *Date:
		if v == nil {
			return Date{}, ErrInvalidDate
		}
		return checked(*v)
	case time.Time:
		if v.IsZero() {
			return Date{}, ErrInvalidDate
		}
		return DateOf(v), nil
	case *time.Time:
		if v == nil || v.IsZero() {
			return Date{}, ErrInvalidDate
		}
		return DateOf(*v), nil
	case Timestamp:
		return DateOf(v.Time()), nil
	case *Timestamp:
		if v == nil {
			return Date{}, ErrInvalidDate
		}
		return DateOf(v.Time()), nil
	case int64:
		return DateOf(time.Unix(v, 0).UTC()), nil
	case int:
		return DateOf(time.Unix(int64(v), 0).UTC()), nil
	case map[string]any:
		return parseTimestampMap(v)
	case string:
		return parseDateString(v)
	default:
		return Date{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidDate, value)
	}
}

// parseDateString handles the textual layouts, full dates first.
func parseDateString(value string) (Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Date{}, ErrInvalidDate
	}

	formatsWithYear := []string{
		config.DateFormatFullDash,
		config.DateFormatFullBasic,
		config.DateFormatRFC3339,
		config.DateFormatFullT,
	}
	for _, f := range formatsWithYear {
		if t, err := time.Parse(f, value); err == nil {
			return DateOf(t), nil
		}
	}

	// Truncated vCard dates: the parse year is 0, a leap year, so --02-29 is accepted.
	formatsWithoutYear := []string{config.DateFormatNoYearD, config.DateFormatNoYearB}
	for _, f := range formatsWithoutYear {
		if t, err := time.Parse(f, value); err == nil {
			return Date{Month: t.Month(), Day: t.Day()}, nil
		}
	}

	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
}

func parseTimestampMap(m map[string]any) (Date, error) {
	raw, ok := m["seconds"]
	if !ok {
		return Date{}, fmt.Errorf("%w: timestamp without seconds", ErrInvalidDate)
	}
	switch s := raw.(type) {
	case float64:
		return DateOf(time.Unix(int64(s), 0).UTC()), nil
	case int64:
		return DateOf(time.Unix(s, 0).UTC()), nil
	case int:
		return DateOf(time.Unix(int64(s), 0).UTC()), nil
	default:
		return Date{}, fmt.Errorf("%w: seconds of type %T", ErrInvalidDate, raw)
	}
}

func checked(d Date) (Date, error) {
	if !d.Valid() {
		return Date{}, fmt.Errorf("%w: %s", ErrInvalidDate, d)
	}
	return d, nil
}
