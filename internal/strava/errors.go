package strava

import "fmt"

// UpstreamError is returned when the activities API answers with a non-2xx
// status. The original status code is preserved so HTTP-facing callers can
// pass it through unchanged.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("strava api error: status %d: %s", e.StatusCode, e.Body)
}

// AuthRefreshError is returned when the token endpoint rejects a refresh.
// Callers may fall back to the last known access token.
type AuthRefreshError struct {
	StatusCode int
	Body       string
}

func (e *AuthRefreshError) Error() string {
	return fmt.Sprintf("strava token refresh failed: status %d: %s", e.StatusCode, e.Body)
}
