package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createAnalyzeAlignmentTool returns the analyze_alignment tool definition
func createAnalyzeAlignmentTool() mcp.Tool {
	return mcp.NewTool("analyze_alignment",
		mcp.WithDescription("Analyze how well an action plan supports a strategic plan and return the synchronization scores"),
		mcp.WithString("strategic_path",
			mcp.Required(),
			mcp.Description("Path to the strategic plan document (JSON or markdown)"),
		),
		mcp.WithString("action_path",
			mcp.Required(),
			mcp.Description("Path to the action plan document (JSON or markdown)"),
		),
		mcp.WithBoolean("force",
			mcp.Description("Re-run the analysis even when the inputs are unchanged (default: false)"),
		),
	)
}

// createGetResultTool returns the get_result tool definition
func createGetResultTool() mcp.Tool {
	return mcp.NewTool("get_result",
		mcp.WithDescription("Retrieve a stored synchronization result as JSON"),
		mcp.WithString("run_id",
			mcp.Description("Run id to retrieve (format: run_{uuid}); omit for the latest result"),
		),
	)
}

// createListResultsTool returns the list_results tool definition
func createListResultsTool() mcp.Tool {
	return mcp.NewTool("list_results",
		mcp.WithDescription("List stored synchronization runs, newest first"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum results to return (default: 10, max: 50)"),
		),
	)
}

// createAskAlignmentTool returns the ask_alignment tool definition
func createAskAlignmentTool() mcp.Tool {
	return mcp.NewTool("ask_alignment",
		mcp.WithDescription("Ask a natural-language question about the latest synchronization result"),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("The question to answer, e.g. 'which objectives lack support?'"),
		),
	)
}
