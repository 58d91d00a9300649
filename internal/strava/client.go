// Package strava is the outbound client for the Strava v3 API: token refresh
// against the OAuth endpoint and paginated activity listing.
package strava

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/straviz/straviz-server/internal/model"
)

// perPage is the fixed page size requested from the activities endpoint. A
// page holding exactly perPage records implies more pages may exist; a short
// or empty page terminates the walk.
const perPage = 200

// Filter carries optional time-range bounds passed through to the upstream as
// Unix epoch seconds.
type Filter struct {
	After  *time.Time
	Before *time.Time
}

// Client talks to the Strava API with a bounded per-request timeout.
type Client struct {
	http     *resty.Client
	tokenURL string
}

// New returns a Client for the given API base URL and token endpoint.
func New(apiBaseURL, tokenURL string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(apiBaseURL).
		SetTimeout(timeout)
	return &Client{http: c, tokenURL: tokenURL}
}

// RefreshToken exchanges the stored refresh token for a new token pair. A
// non-200 answer yields an *AuthRefreshError carrying status and body.
func (c *Client) RefreshToken(ctx context.Context, creds *model.Credentials) (*TokenPair, error) {
	var pair TokenPair
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"client_id":     creds.ClientID,
			"client_secret": creds.ClientSecret,
			"refresh_token": creds.RefreshToken,
			"grant_type":    "refresh_token",
		}).
		SetResult(&pair).
		Post(c.tokenURL)
	if err != nil {
		return nil, fmt.Errorf("token refresh request: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, &AuthRefreshError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	return &pair, nil
}

// FetchPage requests one page of athlete activities. Caller-supplied filter
// bounds are merged with page/per_page unmodified.
func (c *Client) FetchPage(ctx context.Context, accessToken string, page int, filter Filter) ([]RawActivity, error) {
	params := map[string]string{
		"page":     strconv.Itoa(page),
		"per_page": strconv.Itoa(perPage),
	}
	if filter.After != nil {
		params["after"] = strconv.FormatInt(filter.After.Unix(), 10)
	}
	if filter.Before != nil {
		params["before"] = strconv.FormatInt(filter.Before.Unix(), 10)
	}

	var records []RawActivity
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetQueryParams(params).
		SetResult(&records).
		Get("/athlete/activities")
	if err != nil {
		return nil, fmt.Errorf("activities request: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, &UpstreamError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	return records, nil
}

// FetchAll walks pages starting at 1 until a page comes back with fewer than
// perPage records. This is the upstream's implicit termination heuristic, not
// a cursor; any non-2xx response aborts the whole fetch.
func (c *Client) FetchAll(ctx context.Context, accessToken string, filter Filter) ([]RawActivity, error) {
	var all []RawActivity
	for page := 1; ; page++ {
		records, err := c.FetchPage(ctx, accessToken, page, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
		if len(records) < perPage {
			return all, nil
		}
	}
}

// VerifyToken checks an access token by fetching the athlete profile.
func (c *Client) VerifyToken(ctx context.Context, accessToken string) (*Athlete, error) {
	var athlete Athlete
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&athlete).
		Get("/athlete")
	if err != nil {
		return nil, fmt.Errorf("athlete request: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, &UpstreamError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	return &athlete, nil
}
