package model

import "errors"

var (
	// ErrNotFound is returned by store lookups that match no row.
	ErrNotFound = errors.New("not found")

	// ErrNoCredentials is returned when a sync is triggered without any
	// usable access token on record.
	ErrNoCredentials = errors.New("no strava credentials configured")
)
