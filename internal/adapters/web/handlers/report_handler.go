package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/lcalzada-xor/switchmap/internal/adapters/reporting"
	"github.com/lcalzada-xor/switchmap/internal/core/services/snapshot"
)

// ReportHandler renders per-site PDF reports.
type ReportHandler struct {
	Store     TopologyStore
	Snapshot  *snapshot.Service
	Inventory SwitchInventory
	Exporter  *reporting.PDFExporter
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(store TopologyStore, snap *snapshot.Service, inv SwitchInventory, exp *reporting.PDFExporter) *ReportHandler {
	return &ReportHandler{Store: store, Snapshot: snap, Inventory: inv, Exporter: exp}
}

// HandleSiteReport builds and streams the PDF overview for one site.
func (h *ReportHandler) HandleSiteReport(w http.ResponseWriter, r *http.Request) {
	site := mux.Vars(r)["site"]

	discovery, err := h.Inventory.DiscoveryLog(r.Context(), 25)
	if err != nil {
		http.Error(w, "Failed to load discovery log: "+err.Error(), http.StatusInternalServerError)
		return
	}

	report := &reporting.SiteReport{
		Site:        site,
		GeneratedAt: time.Now(),
		Topology:    h.Store.Topology(site),
		Stats:       h.Snapshot.Stats(),
		Discovery:   discovery,
	}

	pdfBytes, err := h.Exporter.ExportSiteReport(report)
	if err != nil {
		http.Error(w, "Failed to generate PDF: "+err.Error(), http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("site_%s_%s.pdf", site, time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(pdfBytes)))
	w.Write(pdfBytes)
}
