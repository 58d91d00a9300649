// Package api wires HTTP handlers for the sync and data endpoints.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/straviz/straviz-server/internal/api/recovery"
	"github.com/straviz/straviz-server/internal/api/respond"
	"github.com/straviz/straviz-server/internal/health"
	"github.com/straviz/straviz-server/internal/store"
)

// NewRouter builds the service handler with recovery, CORS and request
// logging wrapped around every route. The middleware sits outside the mux
// so preflight and unmatched requests still get CORS headers.
func NewRouter(runner SyncRunner, st store.Store, checker *health.ServiceHealthChecker, log zerolog.Logger) http.Handler {
	r := mux.NewRouter()

	syncHandler := NewSyncHandler(runner)
	activityHandler := NewActivityHandler(st)
	healthHandler := NewHealthHandler(checker)

	r.HandleFunc("/", welcome).Methods(http.MethodGet)
	r.HandleFunc("/strava/sync", syncHandler.TriggerSync).Methods(http.MethodPost)
	r.HandleFunc("/strava/data", activityHandler.GetData).Methods(http.MethodGet)
	r.HandleFunc("/api/health", healthHandler.CheckHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return recovery.Middleware(CORSMiddleware(RequestLogMiddleware(log)(r)))
}

func welcome(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, map[string]string{"message": "Welcome to Straviz API"})
}
