package calendar_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-roster/internal/calendar"
	"github.com/tartampluch/go-roster/internal/config"
	"github.com/tartampluch/go-roster/internal/engine"
)

// MockClock allows fixing DTSTAMP for deterministic output.
type MockClock struct {
	CurrentTime time.Time
}

func (m MockClock) Now() time.Time {
	return m.CurrentTime
}

var fixedClock = MockClock{CurrentTime: time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)}

func build(t *testing.T, b *calendar.Builder, people []engine.Person, ref engine.Date) (string, calendar.Stats) {
	t.Helper()
	if b.Clock == nil {
		b.Clock = fixedClock
	}
	data, stats, err := b.Build(people, ref)
	require.NoError(t, err)
	return string(data), stats
}

func TestBuild_Basic(t *testing.T) {
	people := []engine.Person{
		{ID: "m1", Name: "John Doe", Birthday: engine.NewDate(1990, time.June, 15)},
	}

	ics, stats := build(t, &calendar.Builder{}, people, engine.NewDate(2025, time.June, 15))

	assert.Contains(t, ics, "BEGIN:VCALENDAR", "Should start with VCALENDAR")
	assert.Contains(t, ics, "SUMMARY:Birthday: John Doe (35)", "Should contain the event summary")
	assert.Contains(t, ics, "UID:m1-2025@"+config.ICalDomain)
	assert.Contains(t, ics, "DTSTAMP:20250615T120000Z")
	assert.Equal(t, 1, stats.Today, "Should detect 1 birthday today")
	assert.Equal(t, 3, stats.Events)
}

func TestBuild_GeneratesYearRange(t *testing.T) {
	people := []engine.Person{
		{ID: "m1", Name: "New Year Eve", Birthday: engine.NewDate(0, time.December, 31)},
	}

	ics, _ := build(t, &calendar.Builder{}, people, engine.NewDate(2025, time.June, 15))

	assert.Contains(t, ics, "DTSTART;VALUE=DATE:20241231", "Should include previous year")
	assert.Contains(t, ics, "DTSTART;VALUE=DATE:20251231", "Should include current year")
	assert.Contains(t, ics, "DTSTART;VALUE=DATE:20261231", "Should include next year")
	assert.Equal(t, 3, strings.Count(ics, "BEGIN:VEVENT"), "Should generate exactly 3 events (Prev, Curr, Next)")
	assert.Contains(t, ics, "SUMMARY:Birthday: New Year Eve\r\n", "Yearless birthdays carry no age")
}

func TestBuild_LeapDayFallsOnMarchFirst(t *testing.T) {
	people := []engine.Person{
		{ID: "leap", Name: "Leapling", Birthday: engine.NewDate(2000, time.February, 29)},
	}

	ics, _ := build(t, &calendar.Builder{}, people, engine.NewDate(2025, time.January, 10))

	assert.Contains(t, ics, "DTSTART;VALUE=DATE:20240229", "Leap years keep Feb 29")
	assert.Contains(t, ics, "DTSTART;VALUE=DATE:20250301")
	assert.Contains(t, ics, "DTSTART;VALUE=DATE:20260301")
}

func TestBuild_BabyBornThisYear(t *testing.T) {
	people := []engine.Person{
		{ID: "baby", Name: "Baby", Birthday: engine.NewDate(2025, time.May, 1)},
	}

	ics, _ := build(t, &calendar.Builder{}, people, engine.NewDate(2025, time.June, 15))

	assert.NotContains(t, ics, "DTSTART;VALUE=DATE:20240501", "Should NOT generate event before birth")
	assert.Contains(t, ics, "DTSTART;VALUE=DATE:20250501")
	assert.Contains(t, ics, "SUMMARY:Birthday: Baby (birth)", "Should indicate birth event")
	assert.Contains(t, ics, "DTSTART;VALUE=DATE:20260501")
	assert.Contains(t, ics, "SUMMARY:Birthday: Baby (1)", "Should indicate 1 year old")
	assert.Equal(t, 2, strings.Count(ics, "BEGIN:VEVENT"))
}

func TestBuild_FutureBirthAndInvalidDates(t *testing.T) {
	people := []engine.Person{
		{ID: "future", Name: "Future", Birthday: engine.NewDate(2030, time.January, 1)},
		{ID: "absent", Name: "Absent"},
		{ID: "bad", Name: "Bad", Birthday: engine.Date{Year: 1990, Month: time.February, Day: 30}},
	}

	ics, stats := build(t, &calendar.Builder{}, people, engine.NewDate(2025, time.June, 15))

	assert.Equal(t, config.StubVCalendar, ics, "No events should produce the stub calendar")
	assert.Equal(t, 3, stats.Members)
	assert.Equal(t, 1, stats.Dated)
	assert.Zero(t, stats.Events)
}

func TestBuild_EmptyRoster(t *testing.T) {
	ics, stats := build(t, &calendar.Builder{}, nil, engine.NewDate(2025, time.June, 15))
	assert.Equal(t, config.StubVCalendar, ics)
	assert.Zero(t, stats.Today)
}

func TestBuild_WithReminders(t *testing.T) {
	people := []engine.Person{
		{ID: "m1", Name: "Reminder Guy", Birthday: engine.NewDate(1990, time.January, 1)},
	}

	ics, _ := build(t, &calendar.Builder{ReminderTrigger: "-P1D"}, people, engine.NewDate(2025, time.June, 15))

	assert.Contains(t, ics, "BEGIN:VALARM", "ICS should contain an alarm component")
	assert.Contains(t, ics, "TRIGGER:-P1D", "Alarm trigger should match configuration")
	assert.Contains(t, ics, "ACTION:DISPLAY", "Alarm action should be DISPLAY")
	assert.Equal(t, 3, strings.Count(ics, "BEGIN:VALARM"))
}

func TestBuild_FormatSummaryInjection(t *testing.T) {
	var calls []string
	b := &calendar.Builder{
		FormatSummary: func(name string, age int, yearKnown bool) string {
			calls = append(calls, fmt.Sprintf("%s/%d/%t", name, age, yearKnown))
			return "Anniversaire " + name
		},
	}
	people := []engine.Person{
		{ID: "m1", Name: "Marie", Birthday: engine.NewDate(2000, time.March, 3)},
	}

	ics, _ := build(t, b, people, engine.NewDate(2025, time.June, 15))

	assert.Contains(t, ics, "SUMMARY:Anniversaire Marie")
	assert.Equal(t, []string{"Marie/24/true", "Marie/25/true", "Marie/26/true"}, calls)
}

func TestBuild_DeterministicOutput(t *testing.T) {
	people := []engine.Person{
		{ID: "a", Name: "Alice", Birthday: engine.NewDate(1980, time.April, 2)},
		{ID: "b", Name: "Bob", Birthday: engine.NewDate(0, time.July, 9)},
	}
	ref := engine.NewDate(2025, time.June, 15)

	first, _ := build(t, &calendar.Builder{}, people, ref)
	second, _ := build(t, &calendar.Builder{}, people, ref)
	assert.Equal(t, first, second, "Identical input must give byte-identical feeds")
}
