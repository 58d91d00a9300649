package strava

// RawActivity is one activity record as returned by the athlete/activities
// endpoint. Optional fields stay nil when the upstream omits them; unknown
// fields are ignored.
type RawActivity struct {
	ID                 int64    `json:"id"`
	Name               string   `json:"name"`
	Distance           float64  `json:"distance"`
	MovingTime         int64    `json:"moving_time"`
	ElapsedTime        int64    `json:"elapsed_time"`
	TotalElevationGain float64  `json:"total_elevation_gain"`
	Type               string   `json:"type"`
	SportType          string   `json:"sport_type"`
	StartDate          string   `json:"start_date"`
	StartDateLocal     string   `json:"start_date_local"`
	Timezone           string   `json:"timezone"`
	UTCOffset          float64  `json:"utc_offset"`
	Map                *RawMap  `json:"map,omitempty"`
	AverageSpeed       *float64 `json:"average_speed,omitempty"`
	MaxSpeed           *float64 `json:"max_speed,omitempty"`
	AverageHeartrate   *float64 `json:"average_heartrate,omitempty"`
	MaxHeartrate       *float64 `json:"max_heartrate,omitempty"`
	ElevHigh           *float64 `json:"elev_high,omitempty"`
	ElevLow            *float64 `json:"elev_low,omitempty"`
}

// RawMap is the nested path object on a raw activity.
type RawMap struct {
	Polyline        *string `json:"polyline,omitempty"`
	SummaryPolyline *string `json:"summary_polyline,omitempty"`
}

// TokenPair is the response of a successful token refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Athlete is the subset of the athlete profile used for token verification.
type Athlete struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}
