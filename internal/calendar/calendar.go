// Package calendar renders member birthdays as an iCalendar feed that
// calendar clients can subscribe to.
package calendar

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/emersion/go-ical"
	"github.com/tartampluch/go-roster/internal/config"
	"github.com/tartampluch/go-roster/internal/engine"
)

// Builder converts a member list into ICS bytes.
type Builder struct {
	Clock engine.Clock // Source of DTSTAMP. Defaults to the real clock.

	// FormatSummary allows the UI to inject localized strings into the feed.
	FormatSummary func(name string, age int, yearKnown bool) string

	// ReminderTrigger is an ISO8601 duration (e.g. "-P1D"). Empty disables alarms.
	ReminderTrigger string
}

// Stats summarizes one Build call.
type Stats struct {
	Members int // Members in the input.
	Dated   int // Members with a usable birthday.
	Events  int // VEVENTs written.
	Today   int // Members celebrating on the reference date.
}

// Build generates events for the year before, the year of and the year after
// reference. Events are never created for years before a known birth year.
func (b *Builder) Build(people []engine.Person, reference engine.Date) ([]byte, Stats, error) {
	stats := Stats{Members: len(people)}

	cal := ical.NewCalendar()
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, config.ICalCalName)
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	// RFC 7986: Suggest a refresh interval
	refreshProp := ical.NewProp(config.PropRefresh)
	refreshProp.SetDuration(config.DefaultICalRefresh)
	cal.Props.Set(refreshProp)

	clock := b.Clock
	if clock == nil {
		clock = engine.RealClock{}
	}
	dtStampProp := ical.NewProp(config.PropDTStamp)
	dtStampProp.SetDateTime(clock.Now().UTC())

	for _, p := range people {
		if !p.Birthday.Valid() {
			continue
		}
		stats.Dated++

		events, isToday := b.createEvents(p, reference)
		if isToday {
			stats.Today++
			slog.Info(config.MsgBdayToday,
				config.LogKeyComponent, config.CompCalendar,
				config.LogKeyName, p.Name,
				config.LogKeyDOB, p.Birthday.String())
		}

		for _, e := range events {
			e.Props.Set(dtStampProp)
			cal.Children = append(cal.Children, e.Component)
		}
	}
	stats.Events = len(cal.Children)

	// Clients flag an empty VCALENDAR as invalid, so emit the stub instead.
	if stats.Events == 0 {
		logSuccess(stats)
		return []byte(config.StubVCalendar), stats, nil
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, Stats{}, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}

	logSuccess(stats)
	return buf.Bytes(), stats, nil
}

func logSuccess(stats Stats) {
	slog.Info(config.MsgGenSuccess,
		config.LogKeyComponent, config.CompCalendar,
		slog.Group(config.LogKeyStats,
			slog.Int(config.LogKeyTotal, stats.Members),
			slog.Int(config.LogKeyFound, stats.Dated),
			slog.Int(config.LogKeyToday, stats.Today),
		),
	)
}

func (b *Builder) createEvents(p engine.Person, reference engine.Date) ([]*ical.Event, bool) {
	var events []*ical.Event
	isToday := false

	for _, y := range []int{reference.Year - 1, reference.Year, reference.Year + 1} {
		if p.Birthday.YearKnown() && y < p.Birthday.Year {
			continue
		}

		day := p.Birthday.OccurrenceIn(y)
		if day == reference {
			isToday = true
		}

		event := ical.NewEvent()
		event.Props.SetText(config.PropUID, fmt.Sprintf(config.FormatUID, p.ID, y, config.ICalDomain))

		summary := b.summary(p, y)
		event.Props.SetText(config.PropSummary, summary)

		dtStartProp := ical.NewProp(config.PropDTStart)
		dtStartProp.SetDate(day.Time())
		event.Props.Set(dtStartProp)

		if b.ReminderTrigger != "" {
			addAlarm(event, b.ReminderTrigger, summary)
		}

		events = append(events, event)
	}
	return events, isToday
}

func (b *Builder) summary(p engine.Person, year int) string {
	yearKnown := p.Birthday.YearKnown()
	age := 0
	if yearKnown {
		age = year - p.Birthday.Year
	}

	if b.FormatSummary != nil {
		return b.FormatSummary(p.Name, age, yearKnown)
	}
	switch {
	case !yearKnown:
		return fmt.Sprintf(config.FallbackSummary, p.Name)
	case age == 0:
		return fmt.Sprintf(config.FallbackSummaryBirth, p.Name)
	default:
		return fmt.Sprintf(config.FallbackSummaryAge, p.Name, age)
	}
}

// addAlarm appends a DISPLAY alarm (notification) to the event.
func addAlarm(event *ical.Event, trigger, description string) {
	alarm := ical.NewComponent(config.ICalComponent)
	alarm.Props.SetText(config.PropAction, config.ICalAction)
	alarm.Props.SetText(config.PropDescription, description)

	// Set trigger manually to avoid "VALUE=TEXT" param
	triggerProp := ical.NewProp(config.PropTrigger)
	triggerProp.Value = trigger
	alarm.Props.Set(triggerProp)

	event.Children = append(event.Children, alarm)
}
