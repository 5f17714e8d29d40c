package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-roster/internal/config"
	"github.com/tartampluch/go-roster/internal/dashboard"
	"github.com/tartampluch/go-roster/internal/engine"
	"github.com/tartampluch/go-roster/internal/metrics"
)

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func calendarSnapshot(ics []byte) *dashboard.Snapshot {
	return &dashboard.Snapshot{Calendar: ics, Reference: engine.NewDate(2025, time.January, 14)}
}

// fullSnapshot builds a snapshot through the engine so the API sees real data.
func fullSnapshot(t *testing.T) *dashboard.Snapshot {
	t.Helper()
	ref := engine.NewDate(2025, time.January, 14)
	members := []engine.Person{
		{ID: "1", Name: "Mary Johnson", Email: "mary@example.com", Birthday: engine.NewDate(1985, time.January, 16)},
		{ID: "2", Name: "John Smith", Birthday: engine.NewDate(0, time.January, 15)},
		{ID: "3", Name: "Absent"},
	}
	upcoming, err := engine.Upcoming(members, ref, 14, 5)
	require.NoError(t, err)
	next, err := engine.DescribeNextOccurrence(members, ref)
	require.NoError(t, err)

	return &dashboard.Snapshot{
		Reference:    ref,
		WindowDays:   14,
		Limit:        5,
		Members:      members,
		Upcoming:     upcoming,
		Next:         next,
		Calendar:     []byte(config.StubVCalendar),
		TotalMembers: len(members),

		TotalEvents:    3,
		UpcomingEvents: 1,
		RecentEvents: []engine.Event{
			{ID: "e2", Title: "Sunday Service", Date: engine.NewDate(2025, time.January, 19)},
			{ID: "e1", Title: "School of Disciples", Date: engine.NewDate(2025, time.January, 10), Attendees: []string{"1", "2"}},
		},
	}
}

func serve(srv *RosterServer, req *http.Request) *http.Response {
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w.Result()
}

// -----------------------------------------------------------------------------
// Unit Tests (White-Box Testing of Handler Logic)
// -----------------------------------------------------------------------------

// TestHandler_ServingContent verifies that the handler correctly writes
// the standard HTTP headers and body content when data is available.
func TestHandler_ServingContent(t *testing.T) {
	srv := NewRosterServer("0", nil)
	expectedICS := []byte("BEGIN:VCALENDAR\r\nVERSION:2.0\r\nEND:VCALENDAR")
	srv.Publish(calendarSnapshot(expectedICS))

	for _, route := range []string{config.RouteRoot, config.RouteCalendar} {
		t.Run(route, func(t *testing.T) {
			resp := serve(srv, httptest.NewRequest(http.MethodGet, route, nil))
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, config.MimeTextCalendar, resp.Header.Get(config.HeaderContentType))
			assert.Equal(t, config.MimeNoSniff, resp.Header.Get(config.HeaderXContentType))
			assert.Contains(t, resp.Header.Get(config.HeaderCacheControl), "no-cache")
			assert.NotEmpty(t, resp.Header.Get(config.HeaderETag))
			assert.NotEmpty(t, resp.Header.Get(config.HeaderLastModified))

			body, _ := io.ReadAll(resp.Body)
			assert.Equal(t, expectedICS, body)
		})
	}
}

func TestHandler_Head(t *testing.T) {
	srv := NewRosterServer("0", nil)
	srv.Publish(calendarSnapshot([]byte("DATA")))

	resp := serve(srv, httptest.NewRequest(http.MethodHead, config.RouteCalendar, nil))
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(config.HeaderETag))
	body, _ := io.ReadAll(resp.Body)
	assert.Empty(t, body)
}

// TestHandler_Caching verifies that the server respects ETag headers (If-None-Match)
// and returns 304 Not Modified to save bandwidth.
func TestHandler_Caching(t *testing.T) {
	srv := NewRosterServer("0", nil)
	srv.Publish(calendarSnapshot([]byte("DATA_VERSION_1")))

	resp1 := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	etag := resp1.Header.Get(config.HeaderETag)
	lastMod := resp1.Header.Get(config.HeaderLastModified)
	_ = resp1.Body.Close()
	require.NotEmpty(t, etag, "Server must provide an ETag")

	t.Run("If-None-Match", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(config.HeaderIfNoneMatch, etag)
		resp := serve(srv, req)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusNotModified, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Empty(t, body, "Body must be empty on 304 Not Modified")
	})

	t.Run("If-Modified-Since", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(config.HeaderIfModifiedSince, lastMod)
		resp := serve(srv, req)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusNotModified, resp.StatusCode)
	})

	t.Run("Stale ETag", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(config.HeaderIfNoneMatch, `"stale"`)
		req.Header.Set(config.HeaderIfModifiedSince, lastMod)
		resp := serve(srv, req)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusOK, resp.StatusCode, "A mismatching ETag takes precedence over the date")
	})
}

func TestPublish_KeepsLastModifiedForIdenticalCalendar(t *testing.T) {
	srv := NewRosterServer("0", nil)
	srv.Publish(calendarSnapshot([]byte("SAME")))
	first := srv.cache.Load()

	srv.Publish(calendarSnapshot([]byte("SAME")))
	second := srv.cache.Load()

	assert.NotSame(t, first, second)
	assert.Equal(t, first.etag, second.etag)
	assert.Equal(t, first.lastModified, second.lastModified)

	srv.Publish(nil)
	assert.Same(t, second, srv.cache.Load(), "Publishing nil is ignored")
}

// TestHandler_MethodNotAllowed ensures strictly GET and HEAD are accepted.
func TestHandler_MethodNotAllowed(t *testing.T) {
	srv := NewRosterServer("0", nil)

	resp := serve(srv, httptest.NewRequest(http.MethodPost, "/", nil))
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, config.AllowedMethods, resp.Header.Get(config.HeaderAllow))
}

// TestHandler_Initializing verifies the 503 behavior when data is not yet ready.
func TestHandler_Initializing(t *testing.T) {
	srv := NewRosterServer("0", nil)

	for _, route := range []string{config.RouteRoot, config.RouteUpcoming, config.RouteNext, config.RouteCSV} {
		t.Run(route, func(t *testing.T) {
			resp := serve(srv, httptest.NewRequest(http.MethodGet, route, nil))
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
			assert.Equal(t, config.RetryAfterSeconds, resp.Header.Get(config.HeaderRetryAfter))
		})
	}
}

// -----------------------------------------------------------------------------
// Read API
// -----------------------------------------------------------------------------

func TestHandler_Upcoming(t *testing.T) {
	srv := NewRosterServer("0", nil)
	srv.Publish(fullSnapshot(t))

	resp := serve(srv, httptest.NewRequest(http.MethodGet, config.RouteUpcoming, nil))
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, config.MimeJSON, resp.Header.Get(config.HeaderContentType))

	var got upcomingResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))

	assert.Equal(t, "2025-01-14", got.Reference)
	assert.Equal(t, 14, got.WindowDays)
	assert.Equal(t, 3, got.Total)
	require.Len(t, got.Upcoming, 2)

	assert.Equal(t, "John Smith", got.Upcoming[0].Name)
	assert.Equal(t, "--01-15", got.Upcoming[0].Birthday)
	assert.Equal(t, "2025-01-15", got.Upcoming[0].Next)
	assert.Equal(t, "1 day to go", got.Upcoming[0].Label)
	assert.Nil(t, got.Upcoming[0].Age, "Age is omitted when the birth year is unknown")

	assert.Equal(t, "Mary Johnson", got.Upcoming[1].Name)
	assert.Equal(t, 2, got.Upcoming[1].DaysUntil)
	require.NotNil(t, got.Upcoming[1].Age)
	assert.Equal(t, 40, *got.Upcoming[1].Age)

	assert.Equal(t, 3, got.TotalEvents)
	assert.Equal(t, 1, got.UpcomingEvents)
	assert.Equal(t, []eventJSON{
		{ID: "e2", Title: "Sunday Service", Date: "2025-01-19", Attendees: 0},
		{ID: "e1", Title: "School of Disciples", Date: "2025-01-10", Attendees: 2},
	}, got.RecentEvents)
}

func TestHandler_UpcomingWithoutEvents(t *testing.T) {
	srv := NewRosterServer("0", nil)
	srv.Publish(calendarSnapshot([]byte(config.StubVCalendar)))

	resp := serve(srv, httptest.NewRequest(http.MethodGet, config.RouteUpcoming, nil))
	defer func() { _ = resp.Body.Close() }()

	var raw map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	assert.Equal(t, []any{}, raw["recent_events"], "Empty lists encode as [] not null")
	assert.Equal(t, 0.0, raw["total_events"])
}

func TestHandler_Next(t *testing.T) {
	srv := NewRosterServer("0", nil)
	srv.Publish(fullSnapshot(t))

	resp := serve(srv, httptest.NewRequest(http.MethodGet, config.RouteNext, nil))
	defer func() { _ = resp.Body.Close() }()

	var got nextResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))

	require.Len(t, got.People, 1)
	assert.Equal(t, "John Smith", got.People[0].Name)
	assert.Equal(t, "2025-01-15", got.Next)
	assert.Equal(t, 1, got.DaysUntil)
	assert.Equal(t, "1 day to go", got.Label)
}

func TestHandler_NextEmptyRoster(t *testing.T) {
	srv := NewRosterServer("0", nil)
	next, err := engine.DescribeNextOccurrence(nil, engine.NewDate(2025, time.January, 14))
	require.NoError(t, err)
	srv.Publish(&dashboard.Snapshot{Reference: engine.NewDate(2025, time.January, 14), Next: next})

	resp := serve(srv, httptest.NewRequest(http.MethodGet, config.RouteNext, nil))
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"reference":"2025-01-14","people":[],"days_until":0,"label":"No upcoming birthdays"}`, string(body))
}

func TestHandler_CSV(t *testing.T) {
	srv := NewRosterServer("0", nil)
	srv.Publish(fullSnapshot(t))

	resp := serve(srv, httptest.NewRequest(http.MethodGet, config.RouteCSV, nil))
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, config.MimeCSV, resp.Header.Get(config.HeaderContentType))
	assert.Equal(t, `attachment; filename="members_2025-01-14.csv"`, resp.Header.Get(config.HeaderContentDisposition))

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "id,name,email,birthday,created_at\n"+
		"1,Mary Johnson,mary@example.com,1985-01-16,\n"+
		"2,John Smith,,--01-15,\n"+
		"3,Absent,,,\n", string(body))
}

func TestHandler_MetricsEndpoint(t *testing.T) {
	m := metrics.New()
	srv := NewRosterServer("0", m)
	srv.Publish(calendarSnapshot([]byte("DATA")))
	h := srv.Handler()

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, config.RouteCalendar, nil))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, 3.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues(config.RouteCalendar, "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues(config.RouteUnmatched, "404")))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, config.RouteMetrics, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "goroster_http_requests_total")
}

// -----------------------------------------------------------------------------
// Concurrency Tests (Race Detection)
// -----------------------------------------------------------------------------

// TestServer_RaceCondition validates the thread-safety of atomic.Pointer usage.
// Run this with `go test -race`.
func TestServer_RaceCondition(t *testing.T) {
	srv := NewRosterServer("0", nil)
	h := srv.Handler()
	var wg sync.WaitGroup

	end := time.Now().Add(500 * time.Millisecond)

	for w := 0; w < 5; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			i := 0
			for time.Now().Before(end) {
				srv.Publish(calendarSnapshot([]byte(fmt.Sprintf("VERSION:%d-%d", id, i))))
				i++
				time.Sleep(1 * time.Microsecond)
			}
		}(w)
	}

	for r := 0; r < 20; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) {
				w := httptest.NewRecorder()
				h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

				code := w.Code
				if code != http.StatusOK && code != http.StatusServiceUnavailable {
					t.Errorf("Unexpected status code during race test: %d", code)
				}
			}
		}()
	}

	wg.Wait()
}

// -----------------------------------------------------------------------------
// Integration Tests (Real TCP Lifecycle)
// -----------------------------------------------------------------------------

// TestServer_Lifecycle spins up the actual TCP listener to verify network binding
// and graceful shutdown logic.
func TestServer_Lifecycle(t *testing.T) {
	const port = "18099"

	srv := NewRosterServer(port, nil)
	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 1)

	go func() {
		errChan <- srv.Start(ctx)
	}()

	url := "http://127.0.0.1:" + port + config.RouteCalendar

	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return true
	}, 2*time.Second, 50*time.Millisecond, "Server failed to bind/listen in time")

	resp, err := http.Get(url)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	_ = resp.Body.Close()

	srv.Publish(calendarSnapshot([]byte("BEGIN:VCALENDAR\nEND:VCALENDAR")))

	resp, err = http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, config.MimeTextCalendar, resp.Header.Get(config.HeaderContentType))

	body, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	assert.Contains(t, string(body), "BEGIN:VCALENDAR")

	cancel()

	select {
	case err := <-errChan:
		assert.NoError(t, err, "Server should shutdown gracefully without error")
	case <-time.After(5 * time.Second):
		t.Fatal("Server shutdown timed out")
	}
}

func TestServer_StartRequiresPort(t *testing.T) {
	err := NewRosterServer("", nil).Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrPortRequired)
}
