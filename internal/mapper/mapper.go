// Package mapper normalizes raw Strava activity records into the storage
// schema: nested map flattening and fixed-format timestamp parsing.
package mapper

import (
	"fmt"
	"time"

	"github.com/straviz/straviz-server/internal/model"
	"github.com/straviz/straviz-server/internal/strava"
)

// TimestampLayout is the only accepted format for start_date fields:
// UTC, no fractional seconds.
const TimestampLayout = "2006-01-02T15:04:05Z"

// MalformedRecordError reports a record whose timestamps do not match the
// fixed upstream format. It aborts the whole batch.
type MalformedRecordError struct {
	ActivityID int64
	Field      string
	Value      string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed activity %d: field %s has invalid timestamp %q", e.ActivityID, e.Field, e.Value)
}

// parseTimestamp parses v against TimestampLayout. time.Parse tolerates a
// fractional-second field the layout omits, so the parse is followed by an
// exact round-trip to keep inputs like "...T08:30:00.123Z" out.
func parseTimestamp(v string) (time.Time, bool) {
	t, err := time.Parse(TimestampLayout, v)
	if err != nil || t.Format(TimestampLayout) != v {
		return time.Time{}, false
	}
	return t, true
}

// Map converts one raw record into an Activity. Missing optional fields stay
// nil; a bad timestamp in either start_date field is the only failure mode.
func Map(raw strava.RawActivity) (*model.Activity, error) {
	startDate, ok := parseTimestamp(raw.StartDate)
	if !ok {
		return nil, &MalformedRecordError{ActivityID: raw.ID, Field: "start_date", Value: raw.StartDate}
	}
	startDateLocal, ok := parseTimestamp(raw.StartDateLocal)
	if !ok {
		return nil, &MalformedRecordError{ActivityID: raw.ID, Field: "start_date_local", Value: raw.StartDateLocal}
	}

	a := &model.Activity{
		ID:                 raw.ID,
		Name:               raw.Name,
		Distance:           raw.Distance,
		MovingTime:         raw.MovingTime,
		ElapsedTime:        raw.ElapsedTime,
		TotalElevationGain: raw.TotalElevationGain,
		Type:               raw.Type,
		SportType:          raw.SportType,
		StartDate:          startDate,
		StartDateLocal:     startDateLocal,
		Timezone:           raw.Timezone,
		UTCOffset:          raw.UTCOffset,
		AverageSpeed:       raw.AverageSpeed,
		MaxSpeed:           raw.MaxSpeed,
		AverageHeartrate:   raw.AverageHeartrate,
		MaxHeartrate:       raw.MaxHeartrate,
		ElevHigh:           raw.ElevHigh,
		ElevLow:            raw.ElevLow,
	}
	if raw.Map != nil {
		a.MapPolyline = raw.Map.Polyline
		a.MapSummaryPolyline = raw.Map.SummaryPolyline
	}
	return a, nil
}
