package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/straviz/straviz-server/internal/health"
	"github.com/straviz/straviz-server/internal/model"
	"github.com/straviz/straviz-server/internal/store"
	"github.com/straviz/straviz-server/internal/strava"
	"github.com/straviz/straviz-server/internal/syncer"
)

type fakeRunner struct {
	count  int
	err    error
	filter strava.Filter
}

func (f *fakeRunner) Run(ctx context.Context, filter strava.Filter) (int, error) {
	f.filter = filter
	return f.count, f.err
}

type fakeActivities struct {
	rows     []*model.Activity
	err      error
	from, to time.Time
}

func (f *fakeActivities) GetByID(ctx context.Context, id int64) (*model.Activity, error) {
	for _, a := range f.rows {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, model.ErrNotFound
}

func (f *fakeActivities) ListByDateRange(ctx context.Context, from, to time.Time) ([]*model.Activity, error) {
	f.from, f.to = from, to
	return f.rows, f.err
}

func (f *fakeActivities) Count(ctx context.Context) (int, error) { return len(f.rows), nil }

type fakeStore struct {
	activities *fakeActivities
}

func (f *fakeStore) Activities() store.Activities { return f.activities }
func (f *fakeStore) BeginBatch(ctx context.Context) (store.Batch, error) {
	panic("not used in handler tests")
}
func (f *fakeStore) HealthPing(ctx context.Context) error { return nil }
func (f *fakeStore) Close() error                         { return nil }

func newTestRouter(runner SyncRunner, st store.Store) http.Handler {
	return NewRouter(runner, st, nil, zerolog.Nop())
}

func TestWelcome(t *testing.T) {
	router := newTestRouter(&fakeRunner{}, &fakeStore{activities: &fakeActivities{}})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["message"] != "Welcome to Straviz API" {
		t.Fatalf("unexpected welcome message %q", body["message"])
	}
}

func TestTriggerSyncSuccess(t *testing.T) {
	runner := &fakeRunner{count: 447}
	router := newTestRouter(runner, &fakeStore{activities: &fakeActivities{}})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/strava/sync", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["message"] != "Synced 447 activities" {
		t.Fatalf("unexpected message %q", body["message"])
	}
	if runner.filter.After != nil || runner.filter.Before != nil {
		t.Fatalf("sync endpoint must request an unbounded fetch")
	}
}

func TestTriggerSyncErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"no credentials", model.ErrNoCredentials, http.StatusUnauthorized},
		{"already running", syncer.ErrSyncInProgress, http.StatusConflict},
		{"upstream rate limited", &strava.UpstreamError{StatusCode: 429, Body: "Rate Limit Exceeded"}, http.StatusTooManyRequests},
		{"upstream server error", &strava.UpstreamError{StatusCode: 503, Body: "down"}, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(&fakeRunner{err: tc.err}, &fakeStore{activities: &fakeActivities{}})

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/strava/sync", nil))

			if rr.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tc.wantStatus, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestTriggerSyncUpstreamBodySurfaced(t *testing.T) {
	runner := &fakeRunner{err: &strava.UpstreamError{StatusCode: 429, Body: "Rate Limit Exceeded"}}
	router := newTestRouter(runner, &fakeStore{activities: &fakeActivities{}})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/strava/sync", nil))

	if !strings.Contains(rr.Body.String(), "Strava API Error: Rate Limit Exceeded") {
		t.Fatalf("upstream body missing from response: %s", rr.Body.String())
	}
}

func fixedClock(year int) func() time.Time {
	return func() time.Time { return time.Date(year, 7, 15, 12, 0, 0, 0, time.UTC) }
}

func TestGetDataYearBounds(t *testing.T) {
	acts := &fakeActivities{}
	st := &fakeStore{activities: acts}
	h := NewActivityHandler(st)
	h.now = fixedClock(2025)

	rr := httptest.NewRecorder()
	h.GetData(rr, httptest.NewRequest(http.MethodGet, "/strava/data?year=2023", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	wantFrom := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	wantTo := time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC)
	if !acts.from.Equal(wantFrom) || !acts.to.Equal(wantTo) {
		t.Fatalf("queried range [%v, %v], want [%v, %v]", acts.from, acts.to, wantFrom, wantTo)
	}
}

func TestGetDataYearDefaults(t *testing.T) {
	cases := []struct {
		name string
		url  string
	}{
		{"omitted", "/strava/data"},
		{"last_year literal", "/strava/data?year=last_year"},
		{"unparseable", "/strava/data?year=banana"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			acts := &fakeActivities{}
			h := NewActivityHandler(&fakeStore{activities: acts})
			h.now = fixedClock(2025)

			rr := httptest.NewRecorder()
			h.GetData(rr, httptest.NewRequest(http.MethodGet, tc.url, nil))

			if got := acts.from.Year(); got != 2024 {
				t.Fatalf("expected previous year 2024, queried %d", got)
			}
		})
	}
}

func TestGetDataMapNesting(t *testing.T) {
	poly := "abc123"
	acts := &fakeActivities{rows: []*model.Activity{{
		ID:          42,
		Name:        "Morning Ride",
		StartDate:   time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
		MapPolyline: &poly,
	}}}
	h := NewActivityHandler(&fakeStore{activities: acts})
	h.now = fixedClock(2025)

	rr := httptest.NewRecorder()
	h.GetData(rr, httptest.NewRequest(http.MethodGet, "/strava/data?year=2024", nil))

	var rows []map[string]json.RawMessage
	if err := json.Unmarshal(rr.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %d", len(rows))
	}
	if _, ok := rows[0]["map_polyline"]; ok {
		t.Fatalf("polyline must not appear at the top level")
	}
	var m map[string]*string
	if err := json.Unmarshal(rows[0]["map"], &m); err != nil {
		t.Fatalf("decode map object: %v", err)
	}
	if m["polyline"] == nil || *m["polyline"] != poly {
		t.Fatalf("polyline not nested under map: %v", m)
	}
	if v, ok := m["summary_polyline"]; !ok || v != nil {
		t.Fatalf("summary_polyline should be present and null, got %v", m)
	}
}

func TestGetDataEmptyResultIsArray(t *testing.T) {
	h := NewActivityHandler(&fakeStore{activities: &fakeActivities{}})
	h.now = fixedClock(2025)

	rr := httptest.NewRecorder()
	h.GetData(rr, httptest.NewRequest(http.MethodGet, "/strava/data?year=2024", nil))

	if got := strings.TrimSpace(rr.Body.String()); got != "[]" {
		t.Fatalf("expected empty JSON array, got %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(&fakeRunner{}, &fakeStore{activities: &fakeActivities{}})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/strava/data", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	router.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected permissive CORS header, got %q", got)
	}
}

func TestHealthEndpointAlways200(t *testing.T) {
	router := newTestRouter(&fakeRunner{}, &fakeStore{activities: &fakeActivities{}})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	// No checker wired in newTestRouter; that must not report green.
	if body["status"] != "unhealthy" {
		t.Fatalf("status = %q, want unhealthy without a checker", body["status"])
	}
}

func TestHealthEndpointReportsHealthy(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// An aggregator with no dependencies reports healthy after its first pass.
	checker := health.NewServiceHealthChecker(zerolog.Nop())
	go checker.Start(ctx, 10*time.Millisecond)
	deadline := time.Now().Add(500 * time.Millisecond)
	for !checker.IsHealthy() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	h := NewHealthHandler(checker)
	rr := httptest.NewRecorder()
	h.CheckHealth(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "healthy" {
		t.Fatalf("status = %q, want healthy", body["status"])
	}
}
