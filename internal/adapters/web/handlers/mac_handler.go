package handlers

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/lcalzada-xor/switchmap/internal/core/domain"
	"github.com/lcalzada-xor/switchmap/internal/core/services/resolver"
)

// MacHandler serves endpoint resolution for MAC addresses.
type MacHandler struct {
	Resolver *resolver.Resolver
}

// NewMacHandler creates a new MacHandler
func NewMacHandler(res *resolver.Resolver) *MacHandler {
	return &MacHandler{Resolver: res}
}

// HandleTrace resolves the endpoint for a MAC, live trace first, then
// offline graph, then raw sightings.
func (h *MacHandler) HandleTrace(w http.ResponseWriter, r *http.Request) {
	mac := mux.Vars(r)["mac"]
	site := r.URL.Query().Get("site")

	endpoint, err := h.Resolver.Resolve(r.Context(), mac, site)
	if err != nil {
		writeResolveError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(endpoint)
}

// HandleEndpoints lists every known location for a MAC, newest first.
func (h *MacHandler) HandleEndpoints(w http.ResponseWriter, r *http.Request) {
	endpoints, err := h.Resolver.AllEndpoints(r.Context(), mux.Vars(r)["mac"])
	if err != nil {
		writeResolveError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(endpoints)
}

// HandleExport writes the known locations of a MAC as CSV.
func (h *MacHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	mac := mux.Vars(r)["mac"]
	endpoints, err := h.Resolver.AllEndpoints(r.Context(), mac)
	if err != nil {
		writeResolveError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "mac_"+mac+".csv"))

	cw := csv.NewWriter(w)
	cw.Write([]string{"mac", "switch", "mgmt_ip", "port", "vlan", "is_endpoint", "last_seen"})
	for _, ep := range endpoints {
		cw.Write([]string{
			ep.Mac,
			ep.Hostname,
			ep.SwitchIP,
			ep.Port,
			strconv.Itoa(ep.VlanID),
			strconv.FormatBool(ep.IsEndpoint),
			ep.LastSeen.Format("2006-01-02 15:04:05"),
		})
	}
	cw.Flush()
}

func writeResolveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidMac):
		http.Error(w, "Invalid MAC address", http.StatusBadRequest)
	case errors.Is(err, domain.ErrMacNotFound):
		http.Error(w, "MAC not found", http.StatusNotFound)
	default:
		http.Error(w, "Resolution failed: "+err.Error(), http.StatusInternalServerError)
	}
}
