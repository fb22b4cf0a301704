package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/lcalzada-xor/switchmap/internal/core/domain"
	"github.com/lcalzada-xor/switchmap/internal/core/services/snapshot"
	"github.com/lcalzada-xor/switchmap/internal/core/services/tracer"
)

// GraphHandler serves offline snapshot queries and switch-to-switch paths.
type GraphHandler struct {
	Snapshot *snapshot.Service
	Tracer   *tracer.Service
	Store    TopologyStore
}

// NewGraphHandler creates a new GraphHandler
func NewGraphHandler(snap *snapshot.Service, trc *tracer.Service, store TopologyStore) *GraphHandler {
	return &GraphHandler{Snapshot: snap, Tracer: trc, Store: store}
}

// HandleStats returns snapshot freshness and size counters.
func (h *GraphHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Snapshot.Stats())
}

// HandleBuild rebuilds the offline snapshot from the current graph.
func (h *GraphHandler) HandleBuild(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Snapshot.Build(r.Context())
	if err != nil {
		http.Error(w, "Snapshot build failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// HandleInvalidate marks the current snapshot stale.
func (h *GraphHandler) HandleInvalidate(w http.ResponseWriter, r *http.Request) {
	h.Snapshot.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

// HandleQueryMac answers a MAC location query from the offline snapshot.
func (h *GraphHandler) HandleQueryMac(w http.ResponseWriter, r *http.Request) {
	mac, err := domain.NormalizeMac(mux.Vars(r)["mac"])
	if err != nil {
		http.Error(w, "Invalid MAC address", http.StatusBadRequest)
		return
	}

	path, endpoint, err := h.Snapshot.QueryMac(r.Context(), mac)
	if err != nil {
		if errors.Is(err, domain.ErrMacNotFound) {
			http.Error(w, "MAC not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Query failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"path":     path,
		"endpoint": endpoint,
	})
}

// HandlePath traces the shortest path between two switches by id.
func (h *GraphHandler) HandlePath(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	fromID, err := strconv.Atoi(vars["from"])
	if err != nil {
		http.Error(w, "Invalid switch id", http.StatusBadRequest)
		return
	}
	toID, err := strconv.Atoi(vars["to"])
	if err != nil {
		http.Error(w, "Invalid switch id", http.StatusBadRequest)
		return
	}

	path, err := h.Tracer.Trace(fromID, toID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(path)
}

// HandleNeighbors lists the direct neighbors of a switch.
func (h *GraphHandler) HandleNeighbors(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid switch id", http.StatusBadRequest)
		return
	}
	neighbors, links, ok := h.Store.Neighbors(id)
	if !ok {
		http.Error(w, "Switch not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"neighbors": neighbors,
		"links":     links,
	})
}
