// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/GarnettJZ/makan-apa/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the makan MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Makan Free Time Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: find_mutual_gaps ---
	s.AddTool(mcp.NewTool("find_mutual_gaps",
		mcp.WithDescription("Find the free time slots shared by everyone in a list of class timetables."),
		mcp.WithString("people", mcp.Description("Comma-separated people as INTAKE, INTAKE:GROUP or name=INTAKE:GROUP."), mcp.Required()),
		mcp.WithString("week", mcp.Description("Any date (YYYY-MM-DD) inside the target week. Defaults to the current week.")),
		mcp.WithNumber("min_mutual", mcp.Description("Minimum shared gap in hours (e.g. 0.5).")),
		mcp.WithNumber("day_start", mcp.Description("Start of the day window in hours (e.g. 8).")),
		mcp.WithNumber("day_end", mcp.Description("End of the day window in hours (e.g. 20).")),
	), h.handleFindMutualGaps)

	// --- 2. Tool: get_schedule ---
	s.AddTool(mcp.NewTool("get_schedule",
		mcp.WithDescription("List the classes and personal free time of one intake group for a week."),
		mcp.WithString("person", mcp.Description("Person as INTAKE, INTAKE:GROUP or name=INTAKE:GROUP."), mcp.Required()),
		mcp.WithString("week", mcp.Description("Any date (YYYY-MM-DD) inside the target week.")),
	), h.handleGetSchedule)

	return s
}

// StartMCPServer starts the makan MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
