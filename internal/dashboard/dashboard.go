// Package dashboard turns a roster source into a Snapshot of everything the
// tray, the roster window and the HTTP surface display.
//
// A Snapshot is recomputed only when its inputs change: the roster document
// version, the reference day, or the window and limit tunables. Readers get
// the latest Snapshot through Current without locking.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tartampluch/go-roster/internal/calendar"
	"github.com/tartampluch/go-roster/internal/config"
	"github.com/tartampluch/go-roster/internal/engine"
	"github.com/tartampluch/go-roster/internal/metrics"
	"github.com/tartampluch/go-roster/internal/roster"
)

// RosterLoader abstracts roster acquisition so the service can be tested offline.
type RosterLoader interface {
	Load(ctx context.Context, src roster.Source) (*roster.Roster, error)
}

// CalendarBuilder renders the ICS feed for a member list.
type CalendarBuilder interface {
	Build(people []engine.Person, reference engine.Date) ([]byte, calendar.Stats, error)
}

// Snapshot is an immutable view of the roster at a reference day.
type Snapshot struct {
	RosterVersion string
	Reference     engine.Date
	WindowDays    int
	Limit         int

	Members  []engine.Person
	Schedule []engine.Occurrence // Every dated member, soonest first.
	Upcoming []engine.Occurrence // Schedule cut to the window and limit.
	Next     engine.NextBirthday

	Calendar      []byte
	CalendarStats calendar.Stats

	TotalMembers  int
	RecentMembers int // Registered within config.RecentMemberDays.

	TotalEvents    int
	UpcomingEvents int            // Dated on or after Reference.
	RecentEvents   []engine.Event // Latest config.RecentEventsLimit events, newest first.

	BuiltAt time.Time
}

// UpcomingPeople returns the people of the upcoming list, in order.
func (s *Snapshot) UpcomingPeople() []engine.Person {
	out := make([]engine.Person, len(s.Upcoming))
	for i, o := range s.Upcoming {
		out[i] = o.Person
	}
	return out
}

// snapshotKey holds every input a Snapshot depends on.
type snapshotKey struct {
	version    string
	reference  engine.Date
	windowDays int
	limit      int
}

// Service owns the current Snapshot.
type Service struct {
	Clock    engine.Clock
	Loader   RosterLoader
	Calendar CalendarBuilder
	Metrics  *metrics.Metrics

	WindowDays int
	Limit      int

	// mu serializes Refresh and Reconfigure; readers never take it.
	mu      sync.Mutex
	dirty   bool
	current atomic.Pointer[Snapshot]
}

// NewService creates a service with the default window and limit.
func NewService(clock engine.Clock, loader RosterLoader, cal CalendarBuilder, m *metrics.Metrics) *Service {
	return &Service{
		Clock:      clock,
		Loader:     loader,
		Calendar:   cal,
		Metrics:    m,
		WindowDays: config.DefaultWindowDays,
		Limit:      config.DefaultLimit,
	}
}

// Current returns the last published Snapshot, or nil before the first Refresh.
func (s *Service) Current() *Snapshot {
	return s.current.Load()
}

// Reconfigure changes the tunables and the calendar renderer.
// The next Refresh rebuilds the Snapshot even if the roster is unchanged.
func (s *Service) Reconfigure(windowDays, limit int, cal CalendarBuilder) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.WindowDays = windowDays
	s.Limit = limit
	if cal != nil {
		s.Calendar = cal
	}
	s.dirty = true
}

// Refresh loads the roster and publishes a new Snapshot when any input changed.
// It reports whether a rebuild happened.
func (s *Service) Refresh(ctx context.Context, src roster.Source) (*Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	log := slog.With(config.LogKeyComponent, config.CompDashboard)
	log.InfoContext(ctx, config.MsgSyncStarted, config.LogKeyMode, src.Mode)

	snap, rebuilt, err := s.refresh(ctx, src)
	s.Metrics.ObserveSync(time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	log.InfoContext(ctx, config.MsgSyncDone,
		config.LogKeyVersion, shortVersion(snap.RosterVersion),
		config.LogKeyReference, snap.Reference.String(),
		config.LogKeyDuration, time.Since(start).Milliseconds(),
	)
	return snap, rebuilt, nil
}

func (s *Service) refresh(ctx context.Context, src roster.Source) (*Snapshot, bool, error) {
	if s.Loader == nil {
		return nil, false, errors.New(config.ErrLoaderMissing)
	}

	r, err := s.Loader.Load(ctx, src)
	if err != nil {
		return nil, false, err
	}

	clock := s.Clock
	if clock == nil {
		clock = engine.RealClock{}
	}
	now := clock.Now()

	key := snapshotKey{
		version:    r.Version,
		reference:  engine.DateOf(now),
		windowDays: s.WindowDays,
		limit:      s.Limit,
	}

	if prev := s.current.Load(); prev != nil && !s.dirty && keyOf(prev) == key {
		slog.Debug(config.MsgSnapshotReused,
			config.LogKeyComponent, config.CompDashboard,
			config.LogKeyVersion, shortVersion(key.version))
		return prev, false, nil
	}

	snap, err := s.build(r, key, now)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", config.ErrSnapshotBuild, err)
	}

	s.current.Store(snap)
	s.dirty = false
	s.Metrics.IncrementRecomputations()
	s.Metrics.SetRoster(snap.TotalMembers, len(snap.Upcoming))

	slog.Info(config.MsgSnapshotBuilt,
		config.LogKeyComponent, config.CompDashboard,
		config.LogKeyTotal, snap.TotalMembers,
		config.LogKeyUpcoming, len(snap.Upcoming),
		config.LogKeyEvents, snap.TotalEvents,
		config.LogKeyToday, snap.CalendarStats.Today,
	)
	return snap, true, nil
}

func (s *Service) build(r *roster.Roster, key snapshotKey, now time.Time) (*Snapshot, error) {
	schedule, err := engine.Schedule(r.Members, key.reference)
	if err != nil {
		return nil, err
	}
	upcoming, err := engine.Upcoming(r.Members, key.reference, key.windowDays, key.limit)
	if err != nil {
		return nil, err
	}
	next, err := engine.DescribeNextOccurrence(r.Members, key.reference)
	if err != nil {
		return nil, err
	}
	upcomingEvents, err := engine.UpcomingEvents(r.Events, key.reference)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		RosterVersion: key.version,
		Reference:     key.reference,
		WindowDays:    key.windowDays,
		Limit:         key.limit,
		Members:       r.Members,
		Schedule:      schedule,
		Upcoming:      upcoming,
		Next:          next,
		TotalMembers:  len(r.Members),
		RecentMembers: engine.RecentlyAdded(r.Members, now, config.RecentMemberDays),
		BuiltAt:       now,

		TotalEvents:    len(r.Events),
		UpcomingEvents: len(upcomingEvents),
		RecentEvents:   engine.RecentEvents(r.Events, config.RecentEventsLimit),
	}

	if s.Calendar != nil {
		ics, stats, err := s.Calendar.Build(r.Members, key.reference)
		if err != nil {
			return nil, err
		}
		snap.Calendar = ics
		snap.CalendarStats = stats
	} else {
		snap.Calendar = []byte(config.StubVCalendar)
	}
	return snap, nil
}

func keyOf(s *Snapshot) snapshotKey {
	return snapshotKey{
		version:    s.RosterVersion,
		reference:  s.Reference,
		windowDays: s.WindowDays,
		limit:      s.Limit,
	}
}

func shortVersion(v string) string {
	if len(v) > 12 {
		return v[:12]
	}
	return v
}
