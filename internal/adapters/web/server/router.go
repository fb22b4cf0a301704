package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lcalzada-xor/switchmap/internal/adapters/web/middleware"
)

func SetupRoutes(s *Server) http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()

	// Rate limiters. Live traces hold SSH sessions open on switches and
	// refreshes poll the whole fleet; both are cheap to abuse.
	traceLimiter := middleware.NewRateLimiter(30, 1*time.Minute)
	refreshLimiter := middleware.NewRateLimiter(5, 1*time.Minute)
	limitTrace := middleware.RateLimitMiddleware(traceLimiter)
	limitRefresh := middleware.RateLimitMiddleware(refreshLimiter)

	// Topology graph
	api.HandleFunc("/topology", s.TopologyHandler.HandleGetTopology).Methods(http.MethodGet)
	api.Handle("/topology/refresh", limitRefresh(http.HandlerFunc(s.TopologyHandler.HandleRefresh))).Methods(http.MethodPost)
	api.HandleFunc("/topology/refresh/{id}", s.TopologyHandler.HandleRefreshStatus).Methods(http.MethodGet)

	// Offline snapshot
	api.HandleFunc("/graph/stats", s.GraphHandler.HandleStats).Methods(http.MethodGet)
	api.HandleFunc("/graph/build", s.GraphHandler.HandleBuild).Methods(http.MethodPost)
	api.HandleFunc("/graph/invalidate", s.GraphHandler.HandleInvalidate).Methods(http.MethodPost)
	api.HandleFunc("/graph/mac/{mac}", s.GraphHandler.HandleQueryMac).Methods(http.MethodGet)
	api.HandleFunc("/graph/path/{from:[0-9]+}/{to:[0-9]+}", s.GraphHandler.HandlePath).Methods(http.MethodGet)
	api.HandleFunc("/graph/neighbors/{id:[0-9]+}", s.GraphHandler.HandleNeighbors).Methods(http.MethodGet)

	// Endpoint resolution
	api.Handle("/macs/trace/{mac}", limitTrace(http.HandlerFunc(s.MacHandler.HandleTrace))).Methods(http.MethodGet)
	api.HandleFunc("/macs/endpoints/{mac}", s.MacHandler.HandleEndpoints).Methods(http.MethodGet)
	api.HandleFunc("/macs/{mac}/export", s.MacHandler.HandleExport).Methods(http.MethodGet)

	// Inventory
	api.HandleFunc("/switches", s.SwitchHandler.HandleList).Methods(http.MethodGet)
	api.HandleFunc("/discovery-log", s.SwitchHandler.HandleDiscoveryLog).Methods(http.MethodGet)

	// Reports
	api.HandleFunc("/reports/site/{site}", s.ReportHandler.HandleSiteReport).Methods(http.MethodGet)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	return r
}
