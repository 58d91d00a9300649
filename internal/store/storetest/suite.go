// Package storetest holds a compliance suite run against every store driver.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/straviz/straviz-server/internal/model"
	"github.com/straviz/straviz-server/internal/store"
)

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }

func testActivity(id int64, start time.Time) *model.Activity {
	return &model.Activity{
		ID:                 id,
		Name:               "Morning Run",
		Distance:           8012.5,
		MovingTime:         2400,
		ElapsedTime:        2520,
		TotalElevationGain: 120.5,
		Type:               "Run",
		SportType:          "Run",
		StartDate:          start,
		StartDateLocal:     start.Add(time.Hour),
		Timezone:           "(GMT+01:00) Europe/Paris",
		UTCOffset:          3600,
		MapPolyline:        strPtr("abc"),
		MapSummaryPolyline: strPtr("xyz"),
		AverageSpeed:       f64Ptr(3.34),
		MaxSpeed:           f64Ptr(4.8),
	}
}

func upsertOne(t *testing.T, s store.Store, a *model.Activity) {
	t.Helper()
	ctx := context.Background()
	b, err := s.BeginBatch(ctx)
	if err != nil {
		t.Fatalf("BeginBatch: %v", err)
	}
	if err := b.Upsert(ctx, a); err != nil {
		_ = b.Rollback()
		t.Fatalf("Upsert: %v", err)
	}
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
}

// Run exercises upsert, overwrite, rollback, and range-query semantics
// against a clean store. makeStore must return an isolated, empty store.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("InsertAndGet", func(t *testing.T) {
		s := makeStore(t)
		start := time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)
		upsertOne(t, s, testActivity(101, start))

		got, err := s.Activities().GetByID(ctx, 101)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if got.Name != "Morning Run" || !got.StartDate.Equal(start) {
			t.Fatalf("unexpected row: %+v", got)
		}
		if got.MapPolyline == nil || *got.MapPolyline != "abc" {
			t.Fatalf("polyline = %v", got.MapPolyline)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		s := makeStore(t)
		if _, err := s.Activities().GetByID(ctx, 999); err != model.ErrNotFound {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("UpsertIsIdempotent", func(t *testing.T) {
		s := makeStore(t)
		start := time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)
		a := testActivity(102, start)
		upsertOne(t, s, a)
		upsertOne(t, s, a)

		n, err := s.Activities().Count(ctx)
		if err != nil {
			t.Fatalf("Count: %v", err)
		}
		if n != 1 {
			t.Fatalf("expected 1 row after double upsert, got %d", n)
		}
	})

	t.Run("UpsertOverwritesInPlace", func(t *testing.T) {
		s := makeStore(t)
		start := time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)
		a := testActivity(103, start)
		upsertOne(t, s, a)

		changed := *a
		changed.Name = "Renamed Run"
		changed.MapPolyline = nil // a newly-null field must overwrite
		upsertOne(t, s, &changed)

		got, err := s.Activities().GetByID(ctx, 103)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if got.Name != "Renamed Run" {
			t.Fatalf("name not updated: %s", got.Name)
		}
		if got.MapPolyline != nil {
			t.Fatalf("expected polyline overwritten to null, got %q", *got.MapPolyline)
		}
		if n, _ := s.Activities().Count(ctx); n != 1 {
			t.Fatalf("row count grew on update: %d", n)
		}
	})

	t.Run("RollbackLeavesStorageUnchanged", func(t *testing.T) {
		s := makeStore(t)
		b, err := s.BeginBatch(ctx)
		if err != nil {
			t.Fatalf("BeginBatch: %v", err)
		}
		for i := int64(0); i < 5; i++ {
			if err := b.Upsert(ctx, testActivity(200+i, time.Date(2024, 6, 1, 6, 0, 0, 0, time.UTC))); err != nil {
				t.Fatalf("Upsert: %v", err)
			}
		}
		if err := b.Rollback(); err != nil {
			t.Fatalf("Rollback: %v", err)
		}
		if n, _ := s.Activities().Count(ctx); n != 0 {
			t.Fatalf("expected empty store after rollback, got %d rows", n)
		}
	})

	t.Run("ListByDateRangeBounds", func(t *testing.T) {
		s := makeStore(t)
		in2023 := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
		endOf2023 := time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC)
		in2024 := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
		upsertOne(t, s, testActivity(301, in2023))
		upsertOne(t, s, testActivity(302, endOf2023))
		upsertOne(t, s, testActivity(303, in2024))

		from := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC)
		got, err := s.Activities().ListByDateRange(ctx, from, to)
		if err != nil {
			t.Fatalf("ListByDateRange: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 rows in 2023, got %d", len(got))
		}
		// Ordered ascending; the Dec 31 23:59:59 boundary is inclusive.
		if got[0].ID != 301 || got[1].ID != 302 {
			t.Fatalf("unexpected order: %d, %d", got[0].ID, got[1].ID)
		}
	})
}
