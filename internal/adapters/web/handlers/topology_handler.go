package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/lcalzada-xor/switchmap/internal/core/domain"
	"github.com/lcalzada-xor/switchmap/internal/core/services/topology"
)

// TopologyStore is the store surface the topology endpoints need.
type TopologyStore interface {
	Topology(site string) domain.TopologyData
	Neighbors(switchID int) ([]domain.SwitchNode, []domain.LinkEdge, bool)
}

// TopologyHandler serves the topology graph and refresh jobs.
type TopologyHandler struct {
	Store          TopologyStore
	Jobs           *topology.JobRunner
	RebuildTimeout time.Duration
}

// NewTopologyHandler creates a new TopologyHandler
func NewTopologyHandler(store TopologyStore, jobs *topology.JobRunner, rebuildTimeout time.Duration) *TopologyHandler {
	return &TopologyHandler{
		Store:          store,
		Jobs:           jobs,
		RebuildTimeout: rebuildTimeout,
	}
}

// HandleGetTopology returns the current graph, optionally filtered by site.
func (h *TopologyHandler) HandleGetTopology(w http.ResponseWriter, r *http.Request) {
	data := h.Store.Topology(r.URL.Query().Get("site"))
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

// HandleRefresh starts a background rebuild and returns the job id.
func (h *TopologyHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	job := h.Jobs.Start(r.URL.Query().Get("site"), h.RebuildTimeout)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(job)
}

// HandleRefreshStatus reports the state of a rebuild job.
func (h *TopologyHandler) HandleRefreshStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	job, ok := h.Jobs.Job(id)
	if !ok {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job)
}
