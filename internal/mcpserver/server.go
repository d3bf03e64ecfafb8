// Package mcpserver exposes the scoring engine as MCP tools so agents can
// score assessments without going through the HTTP API.
package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/terra-clan/compliance-engine/internal/models"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Analyzer scores a response set against a framework
type Analyzer interface {
	Analyze(ctx context.Context, frameworkID string, responses models.Responses) (*models.Report, error)
}

// Catalog lists loaded frameworks
type Catalog interface {
	Get(id string) *models.Framework
	List() []*models.Framework
}

// New creates the MCP server with every tool registered.
func New(analyzer Analyzer, catalog Catalog) *server.MCPServer {
	s := server.NewMCPServer(
		"compliance-engine",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	listTool := NewListFrameworksTool(catalog)
	s.AddTool(listTool.Definition(), listTool.Handle)

	analyzeTool := NewAnalyzeTool(analyzer)
	s.AddTool(analyzeTool.Definition(), analyzeTool.Handle)

	recTool := NewRecommendationsTool(analyzer)
	s.AddTool(recTool.Definition(), recTool.Handle)

	return s
}

const instructions = `Compliance assessment scoring for CMMC 2.0 and NIST SP 800-171.
Call list_frameworks first to get framework ids and question counts.
Responses are a JSON object mapping question id to an answer value:
0 = Not Implemented, 1 = Partially, 2 = Largely, 3 = Fully Implemented.
Unanswered questions are simply omitted.`
