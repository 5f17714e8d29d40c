package server

import (
	"github.com/tartampluch/go-roster/internal/dashboard"
	"github.com/tartampluch/go-roster/internal/engine"
)

// memberJSON is the public shape of a member. Dates use the YYYY-MM-DD
// layout, or --MM-DD when the birth year is unknown.
type memberJSON struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Birthday string `json:"birthday"`
}

type occurrenceJSON struct {
	memberJSON
	Next      string `json:"next"`
	DaysUntil int    `json:"days_until"`
	Label     string `json:"label"`
	Age       *int   `json:"age,omitempty"`
}

type eventJSON struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Date      string `json:"date"`
	Attendees int    `json:"attendees"`
}

type upcomingResponse struct {
	Reference  string           `json:"reference"`
	WindowDays int              `json:"window_days"`
	Limit      int              `json:"limit"`
	Total      int              `json:"total_members"`
	Recent     int              `json:"recent_members"`
	Upcoming   []occurrenceJSON `json:"upcoming"`

	TotalEvents    int         `json:"total_events"`
	UpcomingEvents int         `json:"upcoming_events"`
	RecentEvents   []eventJSON `json:"recent_events"`
}

type nextResponse struct {
	Reference string       `json:"reference"`
	People    []memberJSON `json:"people"`
	Next      string       `json:"next,omitempty"`
	DaysUntil int          `json:"days_until"`
	Label     string       `json:"label"`
}

func newMemberJSON(p engine.Person) memberJSON {
	return memberJSON{
		ID:       p.ID,
		Name:     p.Name,
		Email:    p.Email,
		Birthday: p.Birthday.String(),
	}
}

func newUpcomingResponse(s *dashboard.Snapshot) upcomingResponse {
	items := make([]occurrenceJSON, 0, len(s.Upcoming))
	for _, o := range s.Upcoming {
		item := occurrenceJSON{
			memberJSON: newMemberJSON(o.Person),
			Next:       o.Next.String(),
			DaysUntil:  o.DaysUntil,
			Label:      engine.CountdownLabel(o.DaysUntil),
		}
		if o.Person.Birthday.YearKnown() {
			age := o.AgeNext
			item.Age = &age
		}
		items = append(items, item)
	}

	events := make([]eventJSON, 0, len(s.RecentEvents))
	for _, e := range s.RecentEvents {
		events = append(events, eventJSON{
			ID:        e.ID,
			Title:     e.Title,
			Date:      e.Date.String(),
			Attendees: e.AttendeeCount(),
		})
	}

	return upcomingResponse{
		Reference:      s.Reference.String(),
		WindowDays:     s.WindowDays,
		Limit:          s.Limit,
		Total:          s.TotalMembers,
		Recent:         s.RecentMembers,
		Upcoming:       items,
		TotalEvents:    s.TotalEvents,
		UpcomingEvents: s.UpcomingEvents,
		RecentEvents:   events,
	}
}

func newNextResponse(s *dashboard.Snapshot) nextResponse {
	people := make([]memberJSON, 0, len(s.Next.People))
	for _, p := range s.Next.People {
		people = append(people, newMemberJSON(p))
	}

	resp := nextResponse{
		Reference: s.Reference.String(),
		People:    people,
		DaysUntil: s.Next.DaysUntil,
		Label:     s.Next.Label,
	}
	if !s.Next.Empty() {
		resp.Next = s.Next.Next.String()
	}
	return resp
}
