// Package report renders case and batch findings to PDF. Every
// generated report is recorded in the chain of custody.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"cyberlens/internal/domain/models"
	"cyberlens/pkg/logger"
)

type recordLoader interface {
	LoadCase(fileID string) (*models.CaseRecord, error)
	LoadBatch(batchID string) (*models.BatchRecord, error)
}

type chainAppender interface {
	Append(action, actor, target string, sha256 *string, meta map[string]any) error
}

// Generator renders forensic reports into the reports directory.
type Generator struct {
	store      recordLoader
	reportsDir string
	chain      chainAppender
	actor      string
	logger     *logger.Logger
}

func NewGenerator(store recordLoader, reportsDir string, chain chainAppender, actor string, log *logger.Logger) *Generator {
	return &Generator{
		store:      store,
		reportsDir: reportsDir,
		chain:      chain,
		actor:      actor,
		logger:     log.WithComponent("report"),
	}
}

// CaseReport renders the full forensic report for one analyzed case
// and returns the path of the written PDF.
func (g *Generator) CaseReport(fileID string) (string, error) {
	record, err := g.store.LoadCase(fileID)
	if err != nil {
		return "", fmt.Errorf("load case %s: %w", fileID, err)
	}

	pdf := newDocument()
	g.renderCasePage(pdf, record)

	path := filepath.Join(g.reportsDir, "case_report_"+fileID+".pdf")
	if err := g.write(pdf, path); err != nil {
		return "", err
	}
	if err := g.logGeneration("case", fileID, path); err != nil {
		return "", err
	}
	return path, nil
}

// BatchReport renders the unified intelligence report for one batch.
func (g *Generator) BatchReport(batchID string) (string, error) {
	record, err := g.store.LoadBatch(batchID)
	if err != nil {
		return "", fmt.Errorf("load batch %s: %w", batchID, err)
	}

	pdf := newDocument()
	g.renderBatchSummary(pdf, record)
	g.renderBatchCases(pdf, record.Cases)

	path := filepath.Join(g.reportsDir, "unified_report_"+batchID+".pdf")
	if err := g.write(pdf, path); err != nil {
		return "", err
	}
	if err := g.logGeneration("batch", batchID, path); err != nil {
		return "", err
	}
	return path, nil
}

func newDocument() *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	return pdf
}

func (g *Generator) write(pdf *fpdf.Fpdf, path string) error {
	if err := os.MkdirAll(g.reportsDir, 0o755); err != nil {
		return fmt.Errorf("create reports directory: %w", err)
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write report %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (g *Generator) logGeneration(reportType, target, path string) error {
	if err := g.chain.Append(models.ActionGenerateReport, g.actor, target, nil, map[string]any{
		"report_type": reportType,
		"path":        path,
	}); err != nil {
		return fmt.Errorf("chain event for report %s: %w", target, err)
	}
	g.logger.Info().Str("type", reportType).Str("target", target).Str("path", path).Msg("report generated")
	return nil
}

func (g *Generator) renderCasePage(pdf *fpdf.Fpdf, record *models.CaseRecord) {
	title(pdf, "CYBERLENS - FORENSIC INTELLIGENCE REPORT")

	meta(pdf, "File ID: "+record.FileID)
	meta(pdf, "Analyzed: "+record.AnalyzedAt.Format(time.RFC3339))
	meta(pdf, fmt.Sprintf("Verdict: %s (%s, score %.3f)",
		record.ScamClass.Category, record.Risk.RiskLevel, record.Risk.Score))
	pdf.Ln(6)

	// core fonts are cp1252; translate OCR text so stray unicode
	// does not corrupt the page
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	section(pdf, "Raw OCR Text")
	body(pdf, tr(truncate(record.RawText, 2000)))
	pdf.Ln(4)

	section(pdf, "Risk Rationale")
	body(pdf, record.Risk.Rationale)
	pdf.Ln(4)

	section(pdf, "Entity Risk Analysis")
	renderEntityTable(pdf, record.Risk.EntityDetails)
	pdf.Ln(4)

	section(pdf, "OSINT Threat Intelligence")
	for _, report := range record.OSINTHits {
		renderOSINTReport(pdf, report)
	}
	if len(record.OSINTHits) == 0 {
		body(pdf, "No enrichable entities in this case.")
	}
	pdf.Ln(4)

	if len(record.URLQRFindings) > 0 {
		section(pdf, "URL / QR Findings")
		for _, f := range record.URLQRFindings {
			origin := "text"
			if f.FromQR {
				origin = "qr"
			}
			body(pdf, fmt.Sprintf("%s [%s] risk %d (%s) %s",
				f.URL, origin, f.CombinedRisk, f.RiskLevel, strings.Join(f.Heuristics.Tags, ", ")))
		}
		body(pdf, fmt.Sprintf("Scanned %d, high %d, medium %d, low %d",
			record.URLSummary.TotalURLsScanned, record.URLSummary.HighRisk,
			record.URLSummary.MediumRisk, record.URLSummary.LowRisk))
	}
}

func (g *Generator) renderBatchSummary(pdf *fpdf.Fpdf, record *models.BatchRecord) {
	title(pdf, "CyberLens Unified Intelligence Report")

	meta(pdf, "Batch ID: "+record.BatchID)
	meta(pdf, "Analyzed: "+record.AnalyzedAt.Format(time.RFC3339))
	pdf.Ln(6)

	section(pdf, "1. Executive Summary")
	s := record.Summary
	body(pdf, fmt.Sprintf("Total Cases: %d", s.TotalCases))
	body(pdf, fmt.Sprintf("Unique Entities: %d", s.UniqueEntities))
	body(pdf, fmt.Sprintf("Average Risk Score: %.2f", s.AverageRisk))
	body(pdf, fmt.Sprintf("Dominant Scam Category: %s", s.DominantCategory))
	pdf.Ln(4)

	if len(s.Categories) > 0 {
		section(pdf, "2. Category Distribution")
		// iterate the closed category set for a stable row order
		for _, cat := range models.Categories {
			if n, ok := s.Categories[cat]; ok {
				body(pdf, fmt.Sprintf("%-40s %d", cat, n))
			}
		}
		if n, ok := s.Categories[models.CategoryUnclassified]; ok {
			body(pdf, fmt.Sprintf("%-40s %d", models.CategoryUnclassified, n))
		}
	}
}

func (g *Generator) renderBatchCases(pdf *fpdf.Fpdf, cases []models.CaseRecord) {
	pdf.AddPage()
	section(pdf, "3. Individual Case Findings")
	for i, c := range cases {
		pdf.Ln(3)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, fmt.Sprintf("Case #%d - %s", i+1, c.FileID), "", 1, "L", false, 0, "")
		body(pdf, fmt.Sprintf("Scam Category: %s", c.ScamClass.Category))
		body(pdf, fmt.Sprintf("Risk Score: %.3f (%s)", c.Risk.Score, c.Risk.RiskLevel))
		body(pdf, fmt.Sprintf("Entities Found: %d", len(c.Entities)))
		body(pdf, fmt.Sprintf("URLs/QRs Detected: %d", len(c.URLQRFindings)))
	}
}

func renderEntityTable(pdf *fpdf.Fpdf, details []models.EntityRiskDetail) {
	if len(details) == 0 {
		body(pdf, "No entities extracted.")
		return
	}

	pdf.SetFont("Helvetica", "B", 10)
	widths := []float64{70, 25, 20, 65}
	for i, head := range []string{"Entity", "Type", "Risk", "Tags"} {
		pdf.CellFormat(widths[i], 7, head, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, d := range details {
		pdf.CellFormat(widths[0], 6, truncate(d.Entity, 40), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, string(d.Type), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 6, fmt.Sprintf("%d", d.RiskScore), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, truncate(strings.Join(d.Tags, ", "), 45), "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}
}

func renderOSINTReport(pdf *fpdf.Fpdf, report models.OSINTReport) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("%s (%s) - aggregate %d, %s",
		report.Entity, report.Type, report.AggregateScore, report.Risk), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, src := range report.Sources {
		line := "- " + strings.ToUpper(src.Source) + ": " + describeSource(src)
		pdf.CellFormat(0, 5, truncate(line, 110), "", 1, "L", false, 0, "")
		if src.UsedFallback {
			pdf.CellFormat(0, 5, "  [FALLBACK DATA USED]", "", 1, "L", false, 0, "")
		}
	}
	pdf.Ln(2)
}

func describeSource(src models.SourceResult) string {
	switch {
	case src.UsedFallback && src.Fallback != nil:
		return fmt.Sprintf("fallback risk=%s tags=%s", src.Fallback.Risk, strings.Join(src.Fallback.Tags, ","))
	case src.UsedFallback:
		return "unavailable, fallback used"
	case src.Note != "":
		return src.Note
	case src.Registrar != "" || src.AgeTag != "":
		return fmt.Sprintf("registrar=%s created=%s age=%s", src.Registrar, src.Created, src.AgeTag)
	case src.Listed:
		return "listed"
	case src.AbuseConfidence > 0:
		return fmt.Sprintf("abuse_confidence=%d", src.AbuseConfidence)
	default:
		return fmt.Sprintf("positives=%d score=%d risk=%s", src.Positives, src.Score, src.Risk)
	}
}

func title(pdf *fpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, text, "", 1, "C", false, 0, "")
	pdf.Ln(2)
}

func section(pdf *fpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 9, text, "", 1, "L", false, 0, "")
}

func meta(pdf *fpdf.Fpdf, text string) {
	pdf.SetFont("Courier", "", 10)
	pdf.CellFormat(0, 5, text, "", 1, "L", false, 0, "")
}

func body(pdf *fpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 5, text, "", "L", false)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
