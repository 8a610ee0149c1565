package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/GarnettJZ/makan-apa/core"
	"github.com/GarnettJZ/makan-apa/internal/contract"
	"github.com/GarnettJZ/makan-apa/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

func (h *toolHandler) handleFindMutualGaps(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	people, err := contract.ParsePeopleList(request.GetString("people", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid people: %v", err)), nil
	}
	cfg.People = people
	if err := applyWeek(cfg, request.GetString("week", "")); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid week: %v", err)), nil
	}

	window := cfg.Window
	window.Start = request.GetFloat("day_start", window.Start)
	window.End = request.GetFloat("day_end", window.End)
	minMutual := request.GetFloat("min_mutual", cfg.MinMutualGap)
	if err := contract.ValidateThresholds(window, cfg.MinPersonalGap, minMutual); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid thresholds: %v", err)), nil
	}
	cfg.Window = window
	cfg.MinMutualGap = minMutual

	report, _, err := core.GetMutualGapsResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("mutual gap query failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetSchedule(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	person, err := contract.ParsePersonRef(request.GetString("person", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid person: %v", err)), nil
	}
	cfg.People = []schema.PersonRef{person}
	if err := applyWeek(cfg, request.GetString("week", "")); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid week: %v", err)), nil
	}

	report, _, err := core.GetScheduleResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("schedule query failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(report.People[0], "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

// applyWeek overrides the configured week when the caller names one.
func applyWeek(cfg *contract.Config, week string) error {
	if week == "" {
		return nil
	}
	monday, err := contract.ParseWeek(week)
	if err != nil {
		return err
	}
	cfg.Week = monday
	return nil
}
