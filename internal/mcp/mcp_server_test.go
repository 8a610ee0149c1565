package mcp_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/GarnettJZ/makan-apa/internal/contract"
	"github.com/GarnettJZ/makan-apa/internal/iocache"
	mcp_internal "github.com/GarnettJZ/makan-apa/internal/mcp"
	"github.com/GarnettJZ/makan-apa/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fileConfig points the server at a local timetable file so no network is used.
func fileConfig(t *testing.T) *contract.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "timetable.json")
	data := `[
		{"person_id":"UC1F2301:G1","day":"Mon","time_range":"09:00-10:30","module_id":"CT047-3-3-CSEC-L"},
		{"person_id":"UC1F2301:G1","day":"Mon","time_range":"13:00-14:00"},
		{"person_id":"UC1F2302:G2","day":"Mon","time_range":"09:30-11:00"},
		{"person_id":"UC1F2302:G2","day":"Mon","time_range":"12:30-13:30"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	return &contract.Config{
		Week:           time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC),
		Window:         schema.DefaultDayWindow,
		MinPersonalGap: contract.DefaultMinGap,
		MinMutualGap:   contract.DefaultMinMutual,
		Days:           schema.DefaultDays,
		Source:         schema.FileSource,
		SourceFile:     path,
		Workers:        2,
		Output:         schema.JSONOut,
		CacheBackend:   schema.NoneBackend,
		CacheTTL:       contract.DefaultCacheTTL,
	}
}

func callTool(t *testing.T, baseCfg *contract.Config, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	s := mcp_internal.NewMCPServer(baseCfg, &iocache.MockCacheManager{})
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
	res, err := tool.Handler(context.Background(), req)
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	return res
}

func resultText(res *mcp.CallToolResult) string {
	return res.Content[0].(mcp.TextContent).Text
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	baseCfg := fileConfig(t)

	t.Run("find_mutual_gaps with one person", func(t *testing.T) {
		res := callTool(t, baseCfg, "find_mutual_gaps", map[string]any{"people": "UC1F2301:G1"})
		assert.True(t, res.IsError, "The response should indicate an error state")
		assert.Contains(t, resultText(res), "at least 2 person reference(s) required")
	})

	t.Run("find_mutual_gaps empty group", func(t *testing.T) {
		res := callTool(t, baseCfg, "find_mutual_gaps", map[string]any{"people": "UC1F2301:,UC1F2302:G2"})
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(res), "invalid people")
	})

	t.Run("find_mutual_gaps inverted window", func(t *testing.T) {
		res := callTool(t, baseCfg, "find_mutual_gaps", map[string]any{
			"people":    "UC1F2301:G1,UC1F2302:G2",
			"day_start": 18.0,
			"day_end":   9.0,
		})
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(res), "must be after day-start")
	})

	t.Run("find_mutual_gaps negative min_mutual", func(t *testing.T) {
		res := callTool(t, baseCfg, "find_mutual_gaps", map[string]any{
			"people":     "UC1F2301:G1,UC1F2302:G2",
			"min_mutual": -1.0,
		})
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(res), "min-mutual cannot be negative")
	})

	t.Run("get_schedule bad week", func(t *testing.T) {
		res := callTool(t, baseCfg, "get_schedule", map[string]any{"person": "UC1F2301:G1", "week": "next tuesday"})
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(res), "invalid week")
	})

	t.Run("get_schedule missing person", func(t *testing.T) {
		res := callTool(t, baseCfg, "get_schedule", map[string]any{})
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(res), "invalid person")
	})
}

func TestMCPServerFindMutualGaps(t *testing.T) {
	baseCfg := fileConfig(t)

	res := callTool(t, baseCfg, "find_mutual_gaps", map[string]any{
		"people": "UC1F2301:G1,UC1F2302:G2",
		"week":   "2026-01-14",
	})
	require.False(t, res.IsError, resultText(res))

	var report schema.GapReport
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &report))
	assert.Equal(t, "2026-01-12", report.Week)
	require.Len(t, report.People, 2)

	// Monday: 08:00-09:00 and 11:00-12:30 are shared
	require.GreaterOrEqual(t, len(report.Mutual), 2)
	assert.Equal(t, schema.Monday, report.Mutual[0].Day)
	assert.Equal(t, 8.0, report.Mutual[0].Start)
	assert.Equal(t, 9.0, report.Mutual[0].End)
	assert.Equal(t, 11.0, report.Mutual[1].Start)
	assert.Equal(t, 12.5, report.Mutual[1].End)

	// The base config is never mutated by a call
	assert.Empty(t, baseCfg.People)
}

func TestMCPServerFindMutualGapsNarrowWindow(t *testing.T) {
	res := callTool(t, fileConfig(t), "find_mutual_gaps", map[string]any{
		"people":     "UC1F2301:G1,UC1F2302:G2",
		"day_start":  11.0,
		"day_end":    12.5,
		"min_mutual": 1.0,
	})
	require.False(t, res.IsError, resultText(res))

	var report schema.GapReport
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &report))
	assert.Equal(t, schema.DayWindow{Start: 11, End: 12.5}, report.Window)
	require.NotEmpty(t, report.Mutual)
	assert.Equal(t, 11.0, report.Mutual[0].Start)
	assert.Equal(t, 12.5, report.Mutual[0].End)
}

func TestMCPServerGetSchedule(t *testing.T) {
	res := callTool(t, fileConfig(t), "get_schedule", map[string]any{"person": "alice=UC1F2301:G1"})
	require.False(t, res.IsError, resultText(res))

	var person schema.PersonReport
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &person))
	assert.Equal(t, "alice", person.ID)
	assert.False(t, person.Empty)
	require.Len(t, person.Classes, 2)
	assert.Equal(t, 9.0, person.Classes[0].Start)
	assert.Equal(t, "Lecture", person.Classes[0].Category)
}
