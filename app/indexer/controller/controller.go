package controller

import (
	"context"
	"net/http"

	"github.com/canopy-network/suinsx/pkg/indexer/pipeline"
	"github.com/go-jose/go-jose/v4/json"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Check probes one dependency. A nil error means healthy.
type Check func(ctx context.Context) error

type Controller struct {
	// Checks are run by the health endpoint, keyed by dependency name.
	Checks   map[string]Check
	Progress *pipeline.Progress
	Logger   *zap.Logger
}

// NewController returns a new controller.
func NewController(logger *zap.Logger, progress *pipeline.Progress, checks map[string]Check) *Controller {
	if checks == nil {
		checks = map[string]Check{}
	}
	return &Controller{
		Checks:   checks,
		Progress: progress,
		Logger:   logger,
	}
}

// NewRouter returns a new router with the operator endpoints.
func (c *Controller) NewRouter() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/health", c.HandleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/pipelines", c.HandlePipelines).Methods(http.MethodGet)
	r.HandleFunc("/api/pipelines/{name}", c.HandlePipeline).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
