package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/lcalzada-xor/switchmap/internal/core/domain"
)

// SwitchInventory is the inventory surface the switch endpoints read.
type SwitchInventory interface {
	Switches(ctx context.Context, site string) ([]domain.SwitchNode, error)
	DiscoveryLog(ctx context.Context, limit int) ([]domain.DiscoveryEntry, error)
}

// SwitchHandler serves the switch inventory.
type SwitchHandler struct {
	Inventory SwitchInventory
}

// NewSwitchHandler creates a new SwitchHandler
func NewSwitchHandler(inv SwitchInventory) *SwitchHandler {
	return &SwitchHandler{Inventory: inv}
}

// HandleList returns the managed switches, optionally filtered by site.
func (h *SwitchHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	switches, err := h.Inventory.Switches(r.Context(), r.URL.Query().Get("site"))
	if err != nil {
		http.Error(w, "Failed to load switches: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(switches)
}

// HandleDiscoveryLog returns recent poll outcomes, newest first.
func (h *SwitchHandler) HandleDiscoveryLog(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	entries, err := h.Inventory.DiscoveryLog(r.Context(), limit)
	if err != nil {
		http.Error(w, "Failed to load discovery log: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}
