package strava

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/straviz/straviz-server/internal/model"
)

func newTestClient(upstream *httptest.Server) *Client {
	return New(upstream.URL, upstream.URL+"/oauth/token", 5*time.Second)
}

// fakeActivities returns n minimal records with sequential ids starting at base.
func fakeActivities(base, n int) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, map[string]interface{}{
			"id":               base + i,
			"name":             fmt.Sprintf("Run %d", base+i),
			"start_date":       "2024-03-01T06:00:00Z",
			"start_date_local": "2024-03-01T07:00:00Z",
		})
	}
	return out
}

func TestFetchAll_FullPageHeuristic(t *testing.T) {
	pageSizes := []int{200, 200, 47}
	var requests int

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if got := r.URL.Query().Get("per_page"); got != "200" {
			t.Errorf("per_page = %s, want 200", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("authorization = %q", got)
		}
		if page < 1 || page > len(pageSizes) {
			t.Errorf("unexpected page request: %d", page)
			page = len(pageSizes)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(fakeActivities(page*1000, pageSizes[page-1]))
	}))
	defer upstream.Close()

	records, err := newTestClient(upstream).FetchAll(context.Background(), "tok", Filter{})
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if requests != 3 {
		t.Fatalf("expected 3 page requests, got %d", requests)
	}
	if len(records) != 447 {
		t.Fatalf("expected 447 records, got %d", len(records))
	}
}

func TestFetchAll_EmptyFirstPage(t *testing.T) {
	var requests int
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]"))
	}))
	defer upstream.Close()

	records, err := newTestClient(upstream).FetchAll(context.Background(), "tok", Filter{})
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if requests != 1 {
		t.Fatalf("expected exactly 1 request, got %d", requests)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestFetchAll_PassesFilterBounds(t *testing.T) {
	after := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	before := time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("after"); got != strconv.FormatInt(after.Unix(), 10) {
			t.Errorf("after = %s", got)
		}
		if got := r.URL.Query().Get("before"); got != strconv.FormatInt(before.Unix(), 10) {
			t.Errorf("before = %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]"))
	}))
	defer upstream.Close()

	if _, err := newTestClient(upstream).FetchAll(context.Background(), "tok", Filter{After: &after, Before: &before}); err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
}

func TestFetchAll_UpstreamErrorPreservesStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Rate Limit Exceeded", http.StatusTooManyRequests)
	}))
	defer upstream.Close()

	_, err := newTestClient(upstream).FetchAll(context.Background(), "tok", Filter{})
	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected *UpstreamError, got %v", err)
	}
	if upErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", upErr.StatusCode)
	}
}

func TestRefreshToken_Success(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.PostFormValue("grant_type"); got != "refresh_token" {
			t.Errorf("grant_type = %s", got)
		}
		if got := r.PostFormValue("refresh_token"); got != "old-refresh" {
			t.Errorf("refresh_token = %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"new-access","refresh_token":"new-refresh"}`))
	}))
	defer upstream.Close()

	creds := &model.Credentials{ClientID: "1", ClientSecret: "s", RefreshToken: "old-refresh"}
	pair, err := newTestClient(upstream).RefreshToken(context.Background(), creds)
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	if pair.AccessToken != "new-access" || pair.RefreshToken != "new-refresh" {
		t.Fatalf("unexpected pair: %+v", pair)
	}
}

func TestVerifyToken_DecodesAthlete(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/athlete" {
			t.Errorf("path = %s, want /athlete", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":123,"username":"runner42","firstname":"Ada","lastname":"L"}`))
	}))
	defer upstream.Close()

	athlete, err := newTestClient(upstream).VerifyToken(context.Background(), "tok")
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if athlete.ID != 123 || athlete.Username != "runner42" {
		t.Fatalf("unexpected athlete: %+v", athlete)
	}
	if athlete.Firstname != "Ada" || athlete.Lastname != "L" {
		t.Fatalf("unexpected name: %+v", athlete)
	}
}

func TestVerifyToken_InvalidToken(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Authorization Error"}`, http.StatusUnauthorized)
	}))
	defer upstream.Close()

	_, err := newTestClient(upstream).VerifyToken(context.Background(), "bad")
	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected *UpstreamError, got %v", err)
	}
	if upErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", upErr.StatusCode)
	}
}

func TestRefreshToken_Non200(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Bad Request"}`, http.StatusBadRequest)
	}))
	defer upstream.Close()

	creds := &model.Credentials{ClientID: "1", ClientSecret: "s", RefreshToken: "r"}
	_, err := newTestClient(upstream).RefreshToken(context.Background(), creds)
	var refreshErr *AuthRefreshError
	if !errors.As(err, &refreshErr) {
		t.Fatalf("expected *AuthRefreshError, got %v", err)
	}
	if refreshErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", refreshErr.StatusCode)
	}
}
