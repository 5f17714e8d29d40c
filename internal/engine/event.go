package engine

import (
	"log/slog"
	"sort"

	"github.com/tartampluch/go-roster/internal/config"
)

// Event is a dated gathering with the members who attended it.
type Event struct {
	ID        string
	Title     string
	Date      Date     // Zero when the source date was unusable.
	Attendees []string // Member IDs.
}

// AttendeeCount is the number of recorded attendees.
func (e Event) AttendeeCount() int {
	return len(e.Attendees)
}

// UpcomingEvents returns the events dated on or after reference, soonest
// first. Events without a usable date are left out. Ties keep input order.
func UpcomingEvents(events []Event, reference Date) ([]Event, error) {
	if err := checkReference(reference); err != nil {
		return nil, err
	}

	out := make([]Event, 0, len(events))
	for _, e := range datedEvents(events) {
		if !e.Date.Before(reference) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

// RecentEvents returns up to limit events, latest date first. Future events
// are included: a freshly planned event is the latest one. A negative limit
// counts as 0.
func RecentEvents(events []Event, limit int) []Event {
	out := datedEvents(events)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out[:min(max(limit, 0), len(out))]
}

// datedEvents copies the events with a valid, year-bearing date.
func datedEvents(events []Event) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if !e.Date.YearKnown() || !e.Date.Valid() {
			slog.Debug(config.MsgSkippedEvent,
				config.LogKeyComponent, config.CompEngine,
				config.LogKeyEventID, e.ID,
				config.LogKeyValue, e.Date.String())
			continue
		}
		out = append(out, e)
	}
	return out
}
