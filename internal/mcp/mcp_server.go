// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/tierscope/internal/contract"
	"github.com/huangsam/tierscope/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Roster arguments shared by the roster tools.
var rosterOptions = []mcp.ToolOption{
	mcp.WithString("roster_path", mcp.Description("Path to a .json, .yaml or .csv roster file. Defaults to the configured roster or the roster store.")),
	mcp.WithString("roster_json", mcp.Description("Inline JSON roster, either a list of students or {\"students\": [...]}. Takes precedence over roster_path.")),
}

// NewMCPServer initializes and configures the tierscope MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Tierscope Classification Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: classify_students ---
	s.AddTool(mcp.NewTool("classify_students", append([]mcp.ToolOption{
		mcp.WithDescription("Classify students into Excellent, Good, Average or Weak tiers and flag anomalies."),
		mcp.WithNumber("clusters", mcp.Description("Number of k-means clusters (2-10). Defaults to 4.")),
		mcp.WithString("normalization", mcp.Description("Feature normalization. Defaults to 'minmax'."),
			mcp.Enum(string(schema.MinMaxNorm), string(schema.ZScoreNorm), string(schema.RobustNorm))),
		mcp.WithNumber("limit", mcp.Description("Limit the number of results returned.")),
	}, rosterOptions...)...), h.handleClassifyStudents)

	// --- 2. Tool: get_flagged_students ---
	s.AddTool(mcp.NewTool("get_flagged_students", append([]mcp.ToolOption{
		mcp.WithDescription("List Excellent students and students with anomalies, most severe first."),
		mcp.WithNumber("limit", mcp.Description("Limit the length of each list.")),
	}, rosterOptions...)...), h.handleFlaggedStudents)

	// --- 3. Tool: compare_methods ---
	s.AddTool(mcp.NewTool("compare_methods", append([]mcp.ToolOption{
		mcp.WithDescription("Compare k-means, kNN, combined and pipeline tiers against reference labels."),
		mcp.WithString("reference", mcp.Description("Reference labels. Defaults to 'total-score'."),
			mcp.Enum(string(schema.TotalScoreReference), string(schema.BlendedReference))),
	}, rosterOptions...)...), h.handleCompareMethods)

	// --- 4. Tool: get_tier_metrics ---
	s.AddTool(mcp.NewTool("get_tier_metrics",
		mcp.WithDescription("Describe the composite formulas, penalties, tier cut-offs and anomaly rules."),
		mcp.WithString("preset", mcp.Description("Cluster composite preset to mark active."),
			mcp.Enum(string(schema.StandardPreset), string(schema.CompactPreset))),
	), h.handleTierMetrics)

	return s
}

// StartMCPServer starts the tierscope MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
