// Package report exports synchronization results as PDF documents.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/concordia/internal/common"
	"github.com/ternarybob/concordia/internal/models"
)

// Generator renders a synchronization result into a PDF report
type Generator struct {
	outputDir string
	logger    arbor.ILogger
}

// NewGenerator creates a report generator
func NewGenerator(config *common.ReportConfig, logger arbor.ILogger) *Generator {
	return &Generator{
		outputDir: config.OutputDir,
		logger:    logger,
	}
}

// Generate writes the PDF report for a result and returns its path
func (g *Generator) Generate(result *models.FinalSynchronizationResult) (string, error) {
	if result == nil {
		return "", fmt.Errorf("result cannot be nil")
	}

	if err := os.MkdirAll(g.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Plan Synchronization Report", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "Plan Synchronization Report")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, fmt.Sprintf("Strategic plan: %s", result.StrategicPlan))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Action plan: %s", result.ActionPlan))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Assessed: %s    Run: %s", result.AssessmentDate, result.RunID))
	pdf.Ln(10)

	g.writeScores(pdf, result)
	g.writeObjectives(pdf, result)
	g.writeInsights(pdf, result)

	path := filepath.Join(g.outputDir, fmt.Sprintf("synchronization_%s.pdf", result.RunID))
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	g.logger.Info().
		Str("path", path).
		Str("run_id", result.RunID).
		Msg("Report generated")

	return path, nil
}

func (g *Generator) writeScores(pdf *fpdf.Fpdf, result *models.FinalSynchronizationResult) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, "Scores")
	pdf.Ln(9)

	pdf.SetFont("Helvetica", "", 11)
	rows := [][2]string{
		{"Overall synchronization", fmt.Sprintf("%.1f / 100", result.OverallScore)},
		{"Semantic alignment", fmt.Sprintf("%.1f / 100", result.EmbeddingScore)},
		{"Entity matching", fmt.Sprintf("%.1f / 100", result.EntityScore)},
		{"Objectives with strong support", fmt.Sprintf("%d of %d",
			result.Summary.ObjectivesWithStrongSupport, result.Summary.TotalObjectives)},
		{"Strategic entities matched", fmt.Sprintf("%d of %d",
			result.Summary.MatchedEntities, result.Summary.TotalStrategicEntities)},
	}
	for _, row := range rows {
		pdf.Cell(90, 6, row[0])
		pdf.Cell(0, 6, row[1])
		pdf.Ln(6)
	}
	pdf.Ln(4)
}

func (g *Generator) writeObjectives(pdf *fpdf.Fpdf, result *models.FinalSynchronizationResult) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, "Objectives")
	pdf.Ln(9)

	for _, objective := range result.ObjectiveSynchronizations {
		pdf.SetFont("Helvetica", "B", 11)
		support := "weak support"
		if objective.HasStrongSupport {
			support = "strong support"
		}
		pdf.MultiCell(0, 6, fmt.Sprintf("%s - %.1f (%s)", objective.ObjectiveTitle, objective.CombinedScore, support), "", "L", false)

		pdf.SetFont("Helvetica", "", 10)
		if len(objective.Gaps) > 0 {
			pdf.MultiCell(0, 5, "Gaps: "+strings.Join(objective.Gaps, "; "), "", "L", false)
		}
		if len(objective.TopMatchingActions) > 0 {
			pdf.MultiCell(0, 5, "Closest actions: "+strings.Join(objective.TopMatchingActions, "; "), "", "L", false)
		}
		pdf.Ln(3)
	}
}

func (g *Generator) writeInsights(pdf *fpdf.Fpdf, result *models.FinalSynchronizationResult) {
	writeList := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		pdf.SetFont("Helvetica", "B", 14)
		pdf.Cell(0, 8, title)
		pdf.Ln(9)
		pdf.SetFont("Helvetica", "", 10)
		for _, item := range items {
			pdf.MultiCell(0, 5, "- "+item, "", "L", false)
		}
		pdf.Ln(4)
	}

	writeList("Strengths", result.Strengths)
	writeList("Weaknesses", result.Weaknesses)

	if len(result.Recommendations) > 0 {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.Cell(0, 8, "Recommendations")
		pdf.Ln(9)
		pdf.SetFont("Helvetica", "", 10)
		for _, rec := range result.Recommendations {
			pdf.MultiCell(0, 5, fmt.Sprintf("[%s] %s: %s",
				strings.ToUpper(rec.Priority), rec.Objective, strings.Join(rec.Actions, "; ")), "", "L", false)
		}
	}
}
