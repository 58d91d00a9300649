// Package syncer sequences one full synchronization run: token refresh,
// paginated fetch, per-record mapping, and a single all-or-nothing upsert
// batch.
package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/straviz/straviz-server/internal/credstore"
	"github.com/straviz/straviz-server/internal/mapper"
	"github.com/straviz/straviz-server/internal/model"
	"github.com/straviz/straviz-server/internal/observability"
	"github.com/straviz/straviz-server/internal/store"
	"github.com/straviz/straviz-server/internal/strava"
)

// ErrSyncInProgress is returned when a sync is triggered while another run
// holds the single-flight guard.
var ErrSyncInProgress = errors.New("sync already in progress")

// TokenRefresher mints a new token pair from the stored credentials.
type TokenRefresher interface {
	RefreshToken(ctx context.Context, creds *model.Credentials) (*strava.TokenPair, error)
}

// PageFetcher walks the upstream activity pages to exhaustion. The full-page
// termination heuristic lives behind this interface so it can be swapped for
// a cursor-based strategy.
type PageFetcher interface {
	FetchAll(ctx context.Context, accessToken string, filter strava.Filter) ([]strava.RawActivity, error)
}

// Client is the upstream surface the syncer needs.
type Client interface {
	TokenRefresher
	PageFetcher
}

// Syncer orchestrates sync runs. One run at a time per instance.
type Syncer struct {
	creds  credstore.Store
	client Client
	store  store.Store
	log    zerolog.Logger

	mu sync.Mutex
}

// New returns a Syncer over the given collaborators.
func New(creds credstore.Store, client Client, st store.Store, log zerolog.Logger) *Syncer {
	return &Syncer{creds: creds, client: client, store: st, log: log}
}

// Run executes one sync and returns the number of processed records.
// The batch commits once at the end: any fetch, mapping, or storage error
// leaves the store untouched.
func (s *Syncer) Run(ctx context.Context, filter strava.Filter) (int, error) {
	if !s.mu.TryLock() {
		return 0, ErrSyncInProgress
	}
	defer s.mu.Unlock()

	runID := uuid.New().String()
	log := s.log.With().Str("sync_run", runID).Logger()
	started := time.Now()

	token, err := s.refreshCredentials(ctx, log)
	if err != nil {
		return 0, err
	}

	records, err := s.client.FetchAll(ctx, token, filter)
	if err != nil {
		log.Error().Stack().Err(err).Msg("activity fetch failed")
		return 0, err
	}
	log.Info().Int("records", len(records)).Msg("fetched activities")

	batch, err := s.store.BeginBatch(ctx)
	if err != nil {
		return 0, err
	}
	for _, raw := range records {
		a, err := mapper.Map(raw)
		if err != nil {
			_ = batch.Rollback()
			log.Error().Stack().Err(err).Msg("record mapping failed, batch aborted")
			return 0, err
		}
		if err := batch.Upsert(ctx, a); err != nil {
			_ = batch.Rollback()
			return 0, err
		}
	}
	if err := batch.Commit(); err != nil {
		return 0, err
	}

	observability.RecordSyncCompleted(len(records), time.Since(started))
	log.Info().
		Int("records", len(records)).
		Dur("elapsed", time.Since(started)).
		Msg("sync completed")
	return len(records), nil
}

// refreshCredentials obtains a usable access token. A failed refresh degrades
// to the last known access token when one exists; both tokens are persisted
// together on success.
func (s *Syncer) refreshCredentials(ctx context.Context, log zerolog.Logger) (string, error) {
	creds, err := s.creds.Load(ctx)
	if err != nil {
		return "", err
	}

	if !creds.CanRefresh() {
		if creds.HasToken() {
			log.Warn().Msg("refresh identity incomplete, using stored access token")
			return creds.AccessToken, nil
		}
		return "", model.ErrNoCredentials
	}

	pair, err := s.client.RefreshToken(ctx, creds)
	if err != nil {
		var refreshErr *strava.AuthRefreshError
		if errors.As(err, &refreshErr) && creds.HasToken() {
			log.Warn().Int("status", refreshErr.StatusCode).Msg("token refresh failed, falling back to stored access token")
			return creds.AccessToken, nil
		}
		if !creds.HasToken() {
			log.Error().Stack().Err(err).Msg("token refresh failed with no fallback token")
		}
		return "", err
	}

	creds.AccessToken = pair.AccessToken
	creds.RefreshToken = pair.RefreshToken
	if err := s.creds.Save(ctx, creds); err != nil {
		// The new pair works for this run; persisting it failed, which will
		// surface again on the next refresh.
		log.Error().Stack().Err(err).Msg("failed to persist refreshed token pair")
	}
	return pair.AccessToken, nil
}
