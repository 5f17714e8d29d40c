package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-roster/internal/engine"
)

func sampleEvents() []engine.Event {
	return []engine.Event{
		{ID: "sod", Title: "School of Disciples", Date: engine.NewDate(2025, time.January, 10), Attendees: []string{"m1", "m2"}},
		{ID: "service", Title: "Sunday Service", Date: engine.NewDate(2025, time.January, 19), Attendees: []string{"m1"}},
		{ID: "undated", Title: "Draft", Date: engine.Date{}},
		{ID: "sop", Title: "School of Prayer", Date: engine.NewDate(2025, time.January, 15)},
		{ID: "yearless", Title: "Anniversary", Date: engine.NewDate(0, time.March, 1)},
		{ID: "later", Title: "Retreat", Date: engine.NewDate(2025, time.March, 1)},
	}
}

func eventIDs(events []engine.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}

func TestUpcomingEvents(t *testing.T) {
	ref := engine.NewDate(2025, time.January, 15)

	got, err := engine.UpcomingEvents(sampleEvents(), ref)
	require.NoError(t, err)
	assert.Equal(t, []string{"sop", "service", "later"}, eventIDs(got), "Today's event counts as upcoming")

	t.Run("Ties keep input order", func(t *testing.T) {
		events := []engine.Event{
			{ID: "b", Date: ref.AddDays(2)},
			{ID: "a", Date: ref.AddDays(2)},
		}
		got, err := engine.UpcomingEvents(events, ref)
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "a"}, eventIDs(got))
	})

	t.Run("Empty", func(t *testing.T) {
		got, err := engine.UpcomingEvents(nil, ref)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("Invalid reference", func(t *testing.T) {
		_, err := engine.UpcomingEvents(sampleEvents(), engine.NewDate(0, time.January, 1))
		assert.ErrorIs(t, err, engine.ErrInvalidReferenceDate)
	})
}

func TestRecentEvents(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{"Latest three", 3, []string{"later", "service", "sop"}},
		{"Limit above size", 10, []string{"later", "service", "sop", "sod"}},
		{"Zero", 0, []string{}},
		{"Negative", -1, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, eventIDs(engine.RecentEvents(sampleEvents(), tt.limit)))
		})
	}
}

func TestEvents_DoNotMutateInput(t *testing.T) {
	events := sampleEvents()
	before := eventIDs(events)

	_, err := engine.UpcomingEvents(events, engine.NewDate(2025, time.January, 1))
	require.NoError(t, err)
	engine.RecentEvents(events, 3)

	assert.Equal(t, before, eventIDs(events))
}

func TestEvent_AttendeeCount(t *testing.T) {
	assert.Equal(t, 2, sampleEvents()[0].AttendeeCount())
	assert.Zero(t, engine.Event{}.AttendeeCount())
}
