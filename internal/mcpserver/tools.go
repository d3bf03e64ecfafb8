package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/terra-clan/compliance-engine/internal/models"
)

// ListFrameworksTool handles the list_frameworks MCP tool.
type ListFrameworksTool struct {
	catalog Catalog
}

// NewListFrameworksTool creates a ListFrameworksTool.
func NewListFrameworksTool(catalog Catalog) *ListFrameworksTool {
	return &ListFrameworksTool{catalog: catalog}
}

// Definition returns the MCP tool definition for list_frameworks.
func (t *ListFrameworksTool) Definition() mcp.Tool {
	return mcp.NewTool("list_frameworks",
		mcp.WithDescription("List the compliance frameworks available for scoring, with their ids and question counts."),
	)
}

// Handle processes the list_frameworks tool call.
func (t *ListFrameworksTool) Handle(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list := t.catalog.List()
	if len(list) == 0 {
		return mcp.NewToolResultText("No frameworks are loaded."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d framework(s):\n", len(list))
	for _, fw := range list {
		sum := fw.Summary()
		fmt.Fprintf(&b, "- %s: %s (version %s), %d sections, %d questions\n",
			sum.ID, sum.Name, sum.Version, sum.Sections, sum.QuestionCount)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// AnalyzeTool handles the analyze_assessment MCP tool.
type AnalyzeTool struct {
	analyzer Analyzer
}

// NewAnalyzeTool creates an AnalyzeTool.
func NewAnalyzeTool(analyzer Analyzer) *AnalyzeTool {
	return &AnalyzeTool{analyzer: analyzer}
}

// Definition returns the MCP tool definition for analyze_assessment.
func (t *AnalyzeTool) Definition() mcp.Tool {
	return mcp.NewTool("analyze_assessment",
		mcp.WithDescription(
			"Score a set of control responses against a framework. Returns the full report as JSON: "+
				"overall score, maturity level, section and category scores, gaps, phased remediation and recommendations.",
		),
		mcp.WithString("framework_id",
			mcp.Required(),
			mcp.Description("Framework id from list_frameworks, e.g. cmmc or nist-800-171"),
		),
		mcp.WithString("responses",
			mcp.Required(),
			mcp.Description(`JSON object of question id to answer value, e.g. {"AC.L1-3.1.1": 2}`),
		),
	)
}

// Handle processes the analyze_assessment tool call.
func (t *AnalyzeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, errResult := analyzeRequest(ctx, t.analyzer, req)
	if errResult != nil {
		return errResult, nil
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode report: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// RecommendationsTool handles the get_recommendations MCP tool.
type RecommendationsTool struct {
	analyzer Analyzer
}

// NewRecommendationsTool creates a RecommendationsTool.
func NewRecommendationsTool(analyzer Analyzer) *RecommendationsTool {
	return &RecommendationsTool{analyzer: analyzer}
}

// Definition returns the MCP tool definition for get_recommendations.
func (t *RecommendationsTool) Definition() mcp.Tool {
	return mcp.NewTool("get_recommendations",
		mcp.WithDescription("Return the prioritized remediation recommendations for a set of control responses, as readable text."),
		mcp.WithString("framework_id",
			mcp.Required(),
			mcp.Description("Framework id from list_frameworks"),
		),
		mcp.WithString("responses",
			mcp.Required(),
			mcp.Description(`JSON object of question id to answer value, e.g. {"AC.L1-3.1.1": 0}`),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max recommendations to show (default: all the engine returns)"),
		),
	)
}

// Handle processes the get_recommendations tool call.
func (t *RecommendationsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, errResult := analyzeRequest(ctx, t.analyzer, req)
	if errResult != nil {
		return errResult, nil
	}

	recs := report.Recommendations
	if limit := intArg(req, "limit", 0); limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}

	if len(recs) == 0 {
		if report.StrongPosture {
			return mcp.NewToolResultText(fmt.Sprintf(
				"No recommendations: every answered control meets the threshold. Overall score %d%% (%s).",
				report.OverallScore, report.Maturity.Name)), nil
		}
		return mcp.NewToolResultText("No recommendations: no questions have been answered yet."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Overall score %d%% (%s). %d recommendation(s):\n",
		report.OverallScore, report.Maturity.Name, len(recs))
	for i, rec := range recs {
		fmt.Fprintf(&b, "\n%d. [%s] %s (%s)\n", i+1, strings.ToUpper(string(rec.Priority)), rec.Title, rec.QuestionID)
		fmt.Fprintf(&b, "   %s\n", rec.Description)
		fmt.Fprintf(&b, "   Effort: %s, timeframe: %s, impact: +%d\n", rec.Effort, rec.Timeframe, rec.Impact)
		for _, step := range rec.Steps {
			fmt.Fprintf(&b, "   - %s\n", step)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

// analyzeRequest parses the shared framework_id/responses arguments and runs
// the analyzer. A non-nil result is a tool error to return as-is.
func analyzeRequest(ctx context.Context, analyzer Analyzer, req mcp.CallToolRequest) (*models.Report, *mcp.CallToolResult) {
	frameworkID := req.GetString("framework_id", "")
	if frameworkID == "" {
		return nil, mcp.NewToolResultError("'framework_id' is required")
	}

	responses, err := parseResponses(req.GetArguments()["responses"])
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("invalid 'responses': %v", err))
	}

	report, err := analyzer.Analyze(ctx, frameworkID, responses)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err))
	}
	return report, nil
}

// parseResponses accepts the responses argument as a JSON string or an object.
func parseResponses(raw interface{}) (models.Responses, error) {
	switch v := raw.(type) {
	case nil:
		return nil, errors.New("required")
	case string:
		var out models.Responses
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			return nil, fmt.Errorf("expected a JSON object of integers: %w", err)
		}
		return out, nil
	case map[string]interface{}:
		out := make(models.Responses, len(v))
		for id, val := range v {
			f, ok := val.(float64)
			if !ok || f != math.Trunc(f) {
				return nil, fmt.Errorf("value for %s must be an integer", id)
			}
			out[id] = int(f)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported type %T", raw)
	}
}

// intArg extracts an integer argument; JSON numbers arrive as float64.
func intArg(req mcp.CallToolRequest, key string, def int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return def
	}
	return int(v)
}
