package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/tartampluch/go-roster/internal/config"
)

const (
	// DefaultWindowDays is the look-ahead used by dashboard widgets.
	DefaultWindowDays = config.DefaultWindowDays

	// DefaultLimit caps the upcoming list.
	DefaultLimit = config.DefaultLimit
)

// NextOccurrence returns the soonest date on or after reference that shares
// anniversary's month and day. The anniversary's year is ignored.
func NextOccurrence(anniversary, reference Date) (Date, error) {
	if err := checkReference(reference); err != nil {
		return Date{}, err
	}
	if !anniversary.Valid() {
		return Date{}, fmt.Errorf("%w: %s", ErrInvalidDate, anniversary)
	}
	return nextOccurrence(anniversary, reference), nil
}

// nextOccurrence assumes both dates were validated.
func nextOccurrence(anniversary, reference Date) Date {
	candidate := anniversary.OccurrenceIn(reference.Year)
	if candidate.Before(reference) {
		candidate = anniversary.OccurrenceIn(reference.Year + 1)
	}
	return candidate
}

// Schedule computes the next occurrence of every person with a usable
// birthday, soonest first. People without one are left out and logged at
// debug level. Ties keep input order.
func Schedule(people []Person, reference Date) ([]Occurrence, error) {
	if err := checkReference(reference); err != nil {
		return nil, err
	}
	return schedule(people, reference), nil
}

func schedule(people []Person, reference Date) []Occurrence {
	out := make([]Occurrence, 0, len(people))
	for _, p := range people {
		if !p.Birthday.Valid() {
			slog.Debug(config.MsgSkippedPerson,
				config.LogKeyComponent, config.CompEngine,
				config.LogKeyID, p.ID,
				config.LogKeyValue, p.Birthday.String())
			continue
		}

		next := nextOccurrence(p.Birthday, reference)
		occ := Occurrence{
			Person:    p,
			Next:      next,
			DaysUntil: reference.DaysUntil(next),
		}
		if p.Birthday.YearKnown() {
			occ.AgeNext = next.Year - p.Birthday.Year
		}
		out = append(out, occ)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Next.Before(out[j].Next)
	})
	return out
}

// Upcoming returns the occurrences falling in [reference, reference+windowDays],
// soonest first, truncated to limit. Negative windowDays or limit count as 0.
func Upcoming(people []Person, reference Date, windowDays, limit int) ([]Occurrence, error) {
	if err := checkReference(reference); err != nil {
		return nil, err
	}
	windowDays = max(windowDays, 0)
	limit = max(limit, 0)

	end := reference.AddDays(windowDays)
	out := make([]Occurrence, 0, limit)
	for _, occ := range schedule(people, reference) {
		if len(out) == limit {
			break
		}
		// The schedule is sorted, so the first entry past the window ends the scan.
		if occ.Next.After(end) {
			break
		}
		out = append(out, occ)
	}
	return out, nil
}

// UpcomingWithinWindow is Upcoming reduced to the people themselves.
func UpcomingWithinWindow(people []Person, reference Date, windowDays, limit int) ([]Person, error) {
	occs, err := Upcoming(people, reference, windowDays, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Person, 0, len(occs))
	for _, occ := range occs {
		out = append(out, occ.Person)
	}
	return out, nil
}

// DescribeNextOccurrence finds the nearest birthday with no window applied.
// Every person sharing that date is returned, along with a countdown label.
func DescribeNextOccurrence(people []Person, reference Date) (NextBirthday, error) {
	if err := checkReference(reference); err != nil {
		return NextBirthday{}, err
	}

	occs := schedule(people, reference)
	if len(occs) == 0 {
		return NextBirthday{People: []Person{}, Label: config.LabelNoUpcoming}, nil
	}

	nearest := occs[0].Next
	res := NextBirthday{
		People:    []Person{},
		Next:      nearest,
		DaysUntil: occs[0].DaysUntil,
		Label:     CountdownLabel(occs[0].DaysUntil),
	}
	for _, occ := range occs {
		if occ.Next != nearest {
			break
		}
		res.People = append(res.People, occ.Person)
	}
	return res, nil
}

// CountdownLabel renders a day count the way dashboard widgets show it.
func CountdownLabel(days int) string {
	switch {
	case days <= 0:
		return config.LabelToday
	case days == 1:
		return config.LabelOneDay
	default:
		return fmt.Sprintf(config.LabelManyDays, days)
	}
}

// RecentlyAdded counts people registered within the last days days of now.
// People without a registration time are not counted.
func RecentlyAdded(people []Person, now time.Time, days int) int {
	since := now.AddDate(0, 0, -days)
	count := 0
	for _, p := range people {
		if p.CreatedAt.IsZero() {
			continue
		}
		if !p.CreatedAt.Before(since) {
			count++
		}
	}
	return count
}

func checkReference(reference Date) error {
	if !reference.YearKnown() || !reference.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidReferenceDate, reference)
	}
	return nil
}
