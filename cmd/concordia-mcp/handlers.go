package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ternarybob/concordia/internal/app"
	"github.com/ternarybob/concordia/internal/models"
	"github.com/ternarybob/concordia/internal/services/pipeline"
)

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

// handleAnalyzeAlignment implements the analyze_alignment tool
func handleAnalyzeAlignment(application *app.App) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		strategicPath, err := request.RequireString("strategic_path")
		if err != nil || strategicPath == "" {
			return textResult("Error: strategic_path parameter is required"), nil
		}
		actionPath, err := request.RequireString("action_path")
		if err != nil || actionPath == "" {
			return textResult("Error: action_path parameter is required"), nil
		}
		force := request.GetBool("force", false)

		result, err := application.Analyze(ctx, strategicPath, actionPath, pipeline.RunOptions{SkipCache: force})
		if err != nil {
			application.Logger.Error().Err(err).Msg("Analysis failed")
			return textResult(fmt.Sprintf("Analysis error: %v", err)), nil
		}

		return textResult(formatResultSummary(result)), nil
	}
}

// handleGetResult implements the get_result tool
func handleGetResult(application *app.App) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		storage := application.Storage.ResultStorage()

		var result *models.FinalSynchronizationResult
		var err error
		if runID := request.GetString("run_id", ""); runID != "" {
			result, err = storage.GetResult(runID)
		} else {
			result, err = storage.GetLatestResult()
		}
		if err != nil {
			return textResult(fmt.Sprintf("Result not found: %v", err)), nil
		}

		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return textResult(fmt.Sprintf("Failed to encode result: %v", err)), nil
		}

		return textResult(string(data)), nil
	}
}

// handleListResults implements the list_results tool
func handleListResults(application *app.App) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := request.GetInt("limit", 10)
		if limit > 50 {
			limit = 50
		}

		results, err := application.Storage.ResultStorage().ListResults(limit)
		if err != nil {
			return textResult(fmt.Sprintf("List error: %v", err)), nil
		}
		if len(results) == 0 {
			return textResult("No synchronization runs stored yet."), nil
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("# Synchronization Runs (%d)\n\n", len(results)))
		for _, result := range results {
			sb.WriteString(fmt.Sprintf("- **%s** (%s): %s <-> %s, overall %.1f\n",
				result.RunID, result.AssessmentDate,
				result.StrategicPlan, result.ActionPlan, result.OverallScore))
		}

		return textResult(sb.String()), nil
	}
}

// handleAskAlignment implements the ask_alignment tool
func handleAskAlignment(application *app.App) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := request.RequireString("question")
		if err != nil || question == "" {
			return textResult("Error: question parameter is required"), nil
		}

		answer, err := application.Ask(ctx, question)
		if err != nil {
			application.Logger.Error().Err(err).Msg("Question failed")
			return textResult(fmt.Sprintf("Question error: %v", err)), nil
		}

		return textResult(answer), nil
	}
}

// formatResultSummary renders a result as markdown for tool output
func formatResultSummary(result *models.FinalSynchronizationResult) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Synchronization Result %s\n\n", result.RunID))
	sb.WriteString(fmt.Sprintf("**%s** <-> **%s** (assessed %s)\n\n",
		result.StrategicPlan, result.ActionPlan, result.AssessmentDate))
	sb.WriteString(fmt.Sprintf("- Overall score: %.1f / 100\n", result.OverallScore))
	sb.WriteString(fmt.Sprintf("- Semantic score: %.1f / 100\n", result.EmbeddingScore))
	sb.WriteString(fmt.Sprintf("- Entity score: %.1f / 100\n", result.EntityScore))
	sb.WriteString(fmt.Sprintf("- Strong support: %d of %d objectives\n",
		result.Summary.ObjectivesWithStrongSupport, result.Summary.TotalObjectives))
	sb.WriteString(fmt.Sprintf("- Entities matched: %d of %d\n\n",
		result.Summary.MatchedEntities, result.Summary.TotalStrategicEntities))

	sb.WriteString("## Objectives\n\n")
	for _, objective := range result.ObjectiveSynchronizations {
		support := "weak"
		if objective.HasStrongSupport {
			support = "strong"
		}
		sb.WriteString(fmt.Sprintf("- %s: %.1f (%s support)\n",
			objective.ObjectiveTitle, objective.CombinedScore, support))
		for _, gap := range objective.Gaps {
			sb.WriteString(fmt.Sprintf("  - gap: %s\n", gap))
		}
	}

	if len(result.Recommendations) > 0 {
		sb.WriteString("\n## Recommendations\n\n")
		for _, rec := range result.Recommendations {
			sb.WriteString(fmt.Sprintf("- [%s] %s: %s\n",
				rec.Priority, rec.Objective, strings.Join(rec.Actions, "; ")))
		}
	}

	return sb.String()
}
