package model

import "time"

// Activity is the canonical stored form of one Strava activity. The primary
// key is assigned upstream; re-syncing the same id overwrites every field.
type Activity struct {
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
	MapPolyline        *string   `json:"map_polyline,omitempty"`
	MapSummaryPolyline *string   `json:"map_summary_polyline,omitempty"`

	// Performance metrics are absent for some activity types.
	AverageSpeed     *float64 `json:"average_speed,omitempty"`
	MaxSpeed         *float64 `json:"max_speed,omitempty"`
	AverageHeartrate *float64 `json:"average_heartrate,omitempty"`
	MaxHeartrate     *float64 `json:"max_heartrate,omitempty"`
	ElevHigh         *float64 `json:"elev_high,omitempty"`
	ElevLow          *float64 `json:"elev_low,omitempty"`
}

// Credentials is the OAuth token pair plus the long-lived application
// identity. The access/refresh pair is replaced atomically on every refresh;
// a mismatched pair invalidates future refreshes.
type Credentials struct {
	ClientID     string
	ClientSecret string
	AccessToken  string
	RefreshToken string
}

// HasToken reports whether any access token is available for API calls.
func (c *Credentials) HasToken() bool {
	return c != nil && c.AccessToken != ""
}

// CanRefresh reports whether the stored identity is sufficient to mint a new
// token pair.
func (c *Credentials) CanRefresh() bool {
	return c != nil && c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}
