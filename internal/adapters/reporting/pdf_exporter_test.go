package reporting

import (
	"bytes"
	"testing"
	"time"

	"github.com/lcalzada-xor/switchmap/internal/core/domain"
)

func TestPDFExporterExportSiteReport(t *testing.T) {
	exporter := NewPDFExporter()

	report := &SiteReport{
		Site:        "3",
		GeneratedAt: time.Now(),
		Topology: domain.TopologyData{
			Nodes: []domain.SwitchNode{
				{ID: 1, Hostname: "3_sw_core_L3", MgmtIP: "10.3.0.1", IsCore: true, IsActive: true},
				{ID: 2, Hostname: "3_sw_access_12", MgmtIP: "10.3.0.12", IsActive: true},
			},
			Edges: []domain.LinkEdge{
				{LocalID: 1, RemoteID: 2, LocalPort: "XGE2/0/1", RemotePort: "XGE1/0/49", Confidence: domain.ConfidenceConfirmed},
			},
			LastUpdated: time.Now(),
		},
		Stats: domain.GraphStats{NodeCount: 2, EdgeCount: 1, IsValid: true},
		Discovery: []domain.DiscoveryEntry{
			{SwitchID: 1, Success: true, Detail: "neighbors=1 macs=412", At: time.Now()},
			{SwitchID: 2, Success: false, Detail: "ssh timeout", At: time.Now()},
		},
	}

	data, err := exporter.ExportSiteReport(report)
	if err != nil {
		t.Fatalf("ExportSiteReport failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty PDF output")
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("output does not look like a PDF")
	}
}

func TestPDFExporterEmptySite(t *testing.T) {
	exporter := NewPDFExporter()
	data, err := exporter.ExportSiteReport(&SiteReport{Site: "9", GeneratedAt: time.Now()})
	if err != nil {
		t.Fatalf("ExportSiteReport failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("output does not look like a PDF")
	}
}
