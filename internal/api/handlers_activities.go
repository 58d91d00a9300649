package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/straviz/straviz-server/internal/api/respond"
	"github.com/straviz/straviz-server/internal/model"
	"github.com/straviz/straviz-server/internal/store"
)

// ActivityHandler serves stored activities filtered by year.
type ActivityHandler struct {
	store store.Store
	now   func() time.Time
}

// NewActivityHandler returns an ActivityHandler using the system clock.
func NewActivityHandler(st store.Store) *ActivityHandler {
	return &ActivityHandler{store: st, now: time.Now}
}

// mapObject is the nested path sub-object on an API activity.
type mapObject struct {
	Polyline        *string `json:"polyline"`
	SummaryPolyline *string `json:"summary_polyline"`
}

// activityResponse is the wire shape of one activity: every storage field
// flat, except the two polylines nested under "map".
type activityResponse struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	Distance           float64   `json:"distance"`
	MovingTime         int64     `json:"moving_time"`
	ElapsedTime        int64     `json:"elapsed_time"`
	TotalElevationGain float64   `json:"total_elevation_gain"`
	Type               string    `json:"type"`
	SportType          string    `json:"sport_type"`
	StartDate          time.Time `json:"start_date"`
	StartDateLocal     time.Time `json:"start_date_local"`
	Timezone           string    `json:"timezone"`
	UTCOffset          float64   `json:"utc_offset"`
	Map                mapObject `json:"map"`
	AverageSpeed       *float64  `json:"average_speed,omitempty"`
	MaxSpeed           *float64  `json:"max_speed,omitempty"`
	AverageHeartrate   *float64  `json:"average_heartrate,omitempty"`
	MaxHeartrate       *float64  `json:"max_heartrate,omitempty"`
	ElevHigh           *float64  `json:"elev_high,omitempty"`
	ElevLow            *float64  `json:"elev_low,omitempty"`
}

func toResponse(a *model.Activity) activityResponse {
	return activityResponse{
		ID:                 a.ID,
		Name:               a.Name,
		Distance:           a.Distance,
		MovingTime:         a.MovingTime,
		ElapsedTime:        a.ElapsedTime,
		TotalElevationGain: a.TotalElevationGain,
		Type:               a.Type,
		SportType:          a.SportType,
		StartDate:          a.StartDate,
		StartDateLocal:     a.StartDateLocal,
		Timezone:           a.Timezone,
		UTCOffset:          a.UTCOffset,
		Map: mapObject{
			Polyline:        a.MapPolyline,
			SummaryPolyline: a.MapSummaryPolyline,
		},
		AverageSpeed:     a.AverageSpeed,
		MaxSpeed:         a.MaxSpeed,
		AverageHeartrate: a.AverageHeartrate,
		MaxHeartrate:     a.MaxHeartrate,
		ElevHigh:         a.ElevHigh,
		ElevLow:          a.ElevLow,
	}
}

// resolveYear maps the year query parameter to a calendar year. An omitted,
// unparseable, or literal "last_year" value resolves to the previous year.
func (h *ActivityHandler) resolveYear(raw string) int {
	if raw != "" && raw != "last_year" {
		if y, err := strconv.Atoi(raw); err == nil {
			return y
		}
	}
	return h.now().Year() - 1
}

// GetData handles GET /strava/data?year=YYYY|last_year and returns activities
// whose start_date falls within the resolved calendar year, UTC.
func (h *ActivityHandler) GetData(w http.ResponseWriter, r *http.Request) {
	year := h.resolveYear(r.URL.Query().Get("year"))
	from := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, 12, 31, 23, 59, 59, 0, time.UTC)

	rows, err := h.store.Activities().ListByDateRange(r.Context(), from, to)
	if err != nil {
		respond.WriteInternalError(w, err.Error())
		return
	}

	out := make([]activityResponse, 0, len(rows))
	for _, a := range rows {
		out = append(out, toResponse(a))
	}
	respond.WriteJSON(w, http.StatusOK, out)
}
