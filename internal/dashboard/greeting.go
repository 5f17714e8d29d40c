package dashboard

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/tartampluch/go-roster/internal/config"
	"github.com/tartampluch/go-roster/internal/engine"
)

var (
	ErrGreetingSubject = errors.New(config.ErrGreetingSubject)
	ErrGreetingBody    = errors.New(config.ErrGreetingBody)
)

// Template is a birthday message with a {name} placeholder.
type Template struct {
	ID      string
	Subject string
	Body    string
	Active  bool
}

// Greeting is a Template rendered for one member.
type Greeting struct {
	Person  engine.Person
	Subject string
	Body    string
}

// DefaultTemplate is the message used until the user writes their own.
func DefaultTemplate() Template {
	return Template{
		ID:      "default",
		Subject: config.DefaultGreetingSubject,
		Body:    config.DefaultGreetingTemplate,
		Active:  true,
	}
}

// Validate checks the minimum lengths of subject and body.
func (t Template) Validate() error {
	if utf8.RuneCountInString(strings.TrimSpace(t.Subject)) < config.MinGreetingSubject {
		return ErrGreetingSubject
	}
	if utf8.RuneCountInString(strings.TrimSpace(t.Body)) < config.MinGreetingBody {
		return ErrGreetingBody
	}
	return nil
}

// Render substitutes the member's name into subject and body.
func (t Template) Render(p engine.Person) Greeting {
	r := strings.NewReplacer(config.GreetingPlaceholder, p.Name)
	return Greeting{
		Person:  p,
		Subject: r.Replace(t.Subject),
		Body:    r.Replace(t.Body),
	}
}

// ActiveTemplate returns the first active template.
func ActiveTemplate(templates []Template) (Template, bool) {
	for _, t := range templates {
		if t.Active {
			return t, true
		}
	}
	return Template{}, false
}

// Greetings renders the active template for everyone celebrating on the
// snapshot's reference day. It returns an empty slice on any other day.
func Greetings(s *Snapshot, templates []Template) []Greeting {
	out := []Greeting{}
	if s == nil || s.Next.Empty() || s.Next.DaysUntil != 0 {
		return out
	}

	t, ok := ActiveTemplate(templates)
	if !ok {
		slog.Debug(config.MsgGreetingSkipped, config.LogKeyComponent, config.CompDashboard)
		return out
	}

	for _, p := range s.Next.People {
		out = append(out, t.Render(p))
	}
	return out
}

// Greeter hands out each member's greeting at most once per reference day,
// however many snapshots are built that day. The zero value is ready to use.
type Greeter struct {
	mu   sync.Mutex
	day  engine.Date
	sent map[string]bool // Member IDs greeted on day.
}

// Pending returns the greetings of s not yet handed out for s's reference day.
func (g *Greeter) Pending(s *Snapshot, templates []Template) []Greeting {
	all := Greetings(s, templates)
	if len(all) == 0 {
		return all
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.sent == nil || g.day != s.Reference {
		g.day = s.Reference
		g.sent = make(map[string]bool)
	}

	out := make([]Greeting, 0, len(all))
	for _, greeting := range all {
		if g.sent[greeting.Person.ID] {
			continue
		}
		g.sent[greeting.Person.ID] = true
		out = append(out, greeting)
	}
	return out
}
