package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/ternarybob/concordia/internal/models"
	"github.com/ternarybob/concordia/internal/services/pipeline"
)

func runAnalyze(args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	var configFiles configPaths
	fs.Var(&configFiles, "config", "Configuration file path (repeatable)")
	strategicPath := fs.String("strategic", "", "Path to the strategic plan (JSON or markdown)")
	actionPath := fs.String("action", "", "Path to the action plan (JSON or markdown)")
	force := fs.Bool("force", false, "Re-run the analysis even when inputs are unchanged")
	asJSON := fs.Bool("json", false, "Print the full result as JSON")
	exportPDF := fs.Bool("report", false, "Also export a PDF report")
	_ = fs.Parse(args)

	if *strategicPath == "" || *actionPath == "" {
		fmt.Fprintln(os.Stderr, "analyze requires -strategic and -action")
		fs.Usage()
		os.Exit(1)
	}

	application := setup(configFiles)
	defer application.Close()

	logger := application.Logger
	opts := pipeline.RunOptions{
		SkipCache: *force,
		Progress: func(event models.ProgressEvent) {
			logger.Info().Str("stage", string(event.Stage)).Msg(event.Message)
		},
	}

	result, err := application.Analyze(context.Background(), *strategicPath, *actionPath, opts)
	if err != nil {
		logger.Fatal().Err(err).Msg("Analysis failed")
		os.Exit(1)
	}

	if *asJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			logger.Fatal().Err(err).Msg("Failed to encode result")
			os.Exit(1)
		}
	} else {
		printSummary(result)
	}

	if *exportPDF {
		path, err := application.Report.Generate(result)
		if err != nil {
			logger.Fatal().Err(err).Msg("Report export failed")
			os.Exit(1)
		}
		fmt.Printf("\nReport written to %s\n", path)
	}
}

func printSummary(result *models.FinalSynchronizationResult) {
	fmt.Printf("\nSynchronization: %s <-> %s\n", result.StrategicPlan, result.ActionPlan)
	fmt.Printf("Run %s, assessed %s\n\n", result.RunID, result.AssessmentDate)
	fmt.Printf("  Overall score:    %.1f / 100\n", result.OverallScore)
	fmt.Printf("  Semantic score:   %.1f / 100\n", result.EmbeddingScore)
	fmt.Printf("  Entity score:     %.1f / 100\n", result.EntityScore)
	fmt.Printf("  Strong support:   %d of %d objectives\n",
		result.Summary.ObjectivesWithStrongSupport, result.Summary.TotalObjectives)
	fmt.Printf("  Entities matched: %d of %d\n\n",
		result.Summary.MatchedEntities, result.Summary.TotalStrategicEntities)

	for _, objective := range result.ObjectiveSynchronizations {
		marker := "WEAK"
		if objective.HasStrongSupport {
			marker = "OK  "
		}
		fmt.Printf("  [%s] %-50s %.1f\n", marker, objective.ObjectiveTitle, objective.CombinedScore)
		for _, gap := range objective.Gaps {
			fmt.Printf("         gap: %s\n", gap)
		}
	}

	if len(result.Recommendations) > 0 {
		fmt.Println("\nRecommendations:")
		for _, rec := range result.Recommendations {
			fmt.Printf("  [%s] %s\n", rec.Priority, rec.Objective)
			for _, action := range rec.Actions {
				fmt.Printf("         - %s\n", action)
			}
		}
	}
}
