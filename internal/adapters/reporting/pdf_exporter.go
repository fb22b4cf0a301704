package reporting

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/lcalzada-xor/switchmap/internal/core/domain"
)

// SiteReport is the aggregate a site PDF is rendered from.
type SiteReport struct {
	Site        string
	GeneratedAt time.Time
	Topology    domain.TopologyData
	Stats       domain.GraphStats
	Discovery   []domain.DiscoveryEntry
}

// PDFExporter exports site topology reports to PDF format
type PDFExporter struct{}

// NewPDFExporter creates a new PDF exporter instance
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// ExportSiteReport generates a PDF overview of one site: fleet health,
// graph stats, the link table and recent discovery outcomes.
func (e *PDFExporter) ExportSiteReport(report *SiteReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	e.addHeader(pdf, report)
	e.addFleetSummary(pdf, report)
	e.addLinkTable(pdf, report)
	e.addDiscoveryLog(pdf, report)
	e.addFooter(pdf)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFExporter) addHeader(pdf *gofpdf.Fpdf, report *SiteReport) {
	pdf.SetFont("Arial", "B", 24)
	pdf.SetTextColor(0, 51, 102) // Dark blue
	pdf.CellFormat(0, 15, fmt.Sprintf("Site %s Topology Report", report.Site), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated: %s", report.GeneratedAt.Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	if !report.Topology.LastUpdated.IsZero() {
		pdf.CellFormat(0, 6, fmt.Sprintf("Topology as of: %s", report.Topology.LastUpdated.Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	}
	pdf.Ln(8)
}

func (e *PDFExporter) addFleetSummary(pdf *gofpdf.Fpdf, report *SiteReport) {
	active, cores := 0, 0
	for _, sw := range report.Topology.Nodes {
		if sw.IsActive {
			active++
		}
		if sw.IsCoreSwitch() {
			cores++
		}
	}

	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 10, "Fleet Summary", "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	rows := [][2]string{
		{"Switches", fmt.Sprintf("%d", len(report.Topology.Nodes))},
		{"Active", fmt.Sprintf("%d", active)},
		{"Core switches", fmt.Sprintf("%d", cores)},
		{"Links", fmt.Sprintf("%d", len(report.Topology.Edges))},
		{"Snapshot valid", fmt.Sprintf("%t", report.Stats.IsValid)},
	}
	for _, row := range rows {
		pdf.CellFormat(60, 7, row[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, row[1], "1", 1, "R", false, 0, "")
	}
	pdf.Ln(6)
}

func (e *PDFExporter) addLinkTable(pdf *gofpdf.Fpdf, report *SiteReport) {
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, "Inter-Switch Links", "", 1, "L", false, 0, "")

	byID := map[int]string{}
	for _, sw := range report.Topology.Nodes {
		byID[sw.ID] = sw.Hostname
	}

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(55, 7, "From", "1", 0, "L", true, 0, "")
	pdf.CellFormat(30, 7, "Port", "1", 0, "L", true, 0, "")
	pdf.CellFormat(55, 7, "To", "1", 0, "L", true, 0, "")
	pdf.CellFormat(30, 7, "Confidence", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, edge := range report.Topology.Edges {
		pdf.CellFormat(55, 6, byID[edge.LocalID], "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, edge.LocalPort, "1", 0, "L", false, 0, "")
		pdf.CellFormat(55, 6, byID[edge.RemoteID], "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, string(edge.Confidence), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(6)
}

func (e *PDFExporter) addDiscoveryLog(pdf *gofpdf.Fpdf, report *SiteReport) {
	if len(report.Discovery) == 0 {
		return
	}
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, "Recent Discovery", "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, entry := range report.Discovery {
		status := "OK"
		if !entry.Success {
			status = "FAIL"
			pdf.SetTextColor(180, 0, 0)
		}
		line := fmt.Sprintf("%s  switch %d  %s  %s",
			entry.At.Format("01-02 15:04"), entry.SwitchID, status, entry.Detail)
		pdf.CellFormat(0, 5, line, "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}
}

func (e *PDFExporter) addFooter(pdf *gofpdf.Fpdf) {
	pdf.SetY(-20)
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(150, 150, 150)
	pdf.CellFormat(0, 5, "switchmap - automated network topology report", "", 1, "C", false, 0, "")
}
