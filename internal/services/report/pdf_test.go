package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ternarybob/concordia/internal/common"
	"github.com/ternarybob/concordia/internal/models"
)

func TestGenerator_Generate(t *testing.T) {
	t.Run("Writes a PDF file for a result", func(t *testing.T) {
		dir := t.TempDir()
		generator := NewGenerator(&common.ReportConfig{OutputDir: dir}, common.GetLogger())

		result := &models.FinalSynchronizationResult{
			RunID:          "run_report",
			AssessmentDate: "2026-01-15",
			StrategicPlan:  "Strategic Plan 2026",
			ActionPlan:     "Action Plan 2026",
			OverallScore:   82.5,
			EmbeddingScore: 80,
			EntityScore:    86.25,
			ObjectiveSynchronizations: []models.ObjectiveSynchronization{{
				ObjectiveTitle:   "Grow digital revenue",
				CombinedScore:    92,
				HasStrongSupport: true,
			}},
			Strengths: []string{"Digital revenue work is well covered"},
			Recommendations: []models.Recommendation{{
				Priority: models.PriorityHigh, Objective: "Enter new markets",
				Actions: []string{"Define market entry actions"},
			}},
			Summary: models.SynchronizationSummary{TotalObjectives: 1, ObjectivesWithStrongSupport: 1},
		}

		path, err := generator.Generate(result)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}

		if !strings.Contains(filepath.Base(path), "run_report") {
			t.Errorf("Expected run id in filename, got %s", path)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("Report file missing: %v", err)
		}
		if info.Size() == 0 {
			t.Error("Report file is empty")
		}
	})

	t.Run("Nil result is rejected", func(t *testing.T) {
		generator := NewGenerator(&common.ReportConfig{OutputDir: t.TempDir()}, common.GetLogger())
		if _, err := generator.Generate(nil); err == nil {
			t.Fatal("Expected error for nil result")
		}
	})
}
