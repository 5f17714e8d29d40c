package roster

import (
	"fmt"
	"strings"
	"time"

	"github.com/tartampluch/go-roster/internal/config"
	"github.com/tartampluch/go-roster/internal/engine"
	"gopkg.in/yaml.v3"
)

// yamlRoster is the on-disk layout of a roster file:
//
//	members:
//	  - id: m-001
//	    name: Mary Johnson
//	    email: mary@example.com
//	    dob: 1985-01-16
//	    created_at: 2025-01-02T10:00:00Z
//	events:
//	  - id: e-001
//	    title: Sunday Service
//	    date: 2025-01-19
//	    attendees: [m-001]
type yamlRoster struct {
	Members []yamlMember `yaml:"members"`
	Events  []yamlEvent  `yaml:"events"`
}

type yamlMember struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`

	// DOB accepts a date string, a yearless --MM-DD string, unix seconds or
	// a {seconds, nanoseconds} mapping.
	DOB any `yaml:"dob"`

	CreatedAt time.Time `yaml:"created_at"`
}

type yamlEvent struct {
	ID        string   `yaml:"id"`
	Title     string   `yaml:"title"`
	Date      any      `yaml:"date"`
	Attendees []string `yaml:"attendees"`
}

func decodeYAML(data []byte) ([]engine.Person, []engine.Event, error) {
	var doc yamlRoster
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", config.ErrYAMLParse, err)
	}

	members := make([]engine.Person, 0, len(doc.Members))
	for _, m := range doc.Members {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			name = config.FallbackName
		}

		id := strings.TrimSpace(m.ID)
		if id == "" {
			id = recordID(name, fmt.Sprint(m.DOB))
		}

		members = append(members, engine.Person{
			ID:        id,
			Name:      name,
			Email:     strings.TrimSpace(m.Email),
			Birthday:  normalizeBirthday(id, m.DOB),
			CreatedAt: m.CreatedAt,
		})
	}
	return members, decodeEvents(doc.Events), nil
}

// decodeEvents keeps events with an unusable date, zero-dated, so they still
// count toward the total.
func decodeEvents(raw []yamlEvent) []engine.Event {
	events := make([]engine.Event, 0, len(raw))
	for _, e := range raw {
		title := strings.TrimSpace(e.Title)
		id := strings.TrimSpace(e.ID)
		if id == "" {
			id = recordID(title, fmt.Sprint(e.Date))
		}

		attendees := make([]string, 0, len(e.Attendees))
		for _, a := range e.Attendees {
			if a = strings.TrimSpace(a); a != "" {
				attendees = append(attendees, a)
			}
		}

		events = append(events, engine.Event{
			ID:        id,
			Title:     title,
			Date:      normalizeDate(config.LogKeyEventID, id, e.Date),
			Attendees: attendees,
		})
	}
	return events
}
