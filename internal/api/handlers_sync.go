package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/straviz/straviz-server/internal/api/respond"
	"github.com/straviz/straviz-server/internal/model"
	"github.com/straviz/straviz-server/internal/strava"
	"github.com/straviz/straviz-server/internal/syncer"
)

// SyncRunner is the orchestrator surface the HTTP layer depends on.
type SyncRunner interface {
	Run(ctx context.Context, filter strava.Filter) (int, error)
}

// SyncHandler triggers sync runs over HTTP.
type SyncHandler struct {
	runner SyncRunner
}

// NewSyncHandler returns a SyncHandler.
func NewSyncHandler(runner SyncRunner) *SyncHandler { return &SyncHandler{runner: runner} }

// TriggerSync handles POST /strava/sync. A full run with no time bounds;
// upstream failures keep their original status code.
func (h *SyncHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	count, err := h.runner.Run(r.Context(), strava.Filter{})
	if err != nil {
		switch {
		case errors.Is(err, model.ErrNoCredentials):
			respond.WriteUnauthorized(w, err.Error())
		case errors.Is(err, syncer.ErrSyncInProgress):
			respond.WriteConflict(w, err.Error())
		default:
			var upErr *strava.UpstreamError
			if errors.As(err, &upErr) {
				respond.WriteError(w, upErr.StatusCode, fmt.Sprintf("Strava API Error: %s", upErr.Body))
				return
			}
			respond.WriteInternalError(w, err.Error())
		}
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Synced %d activities", count),
	})
}
