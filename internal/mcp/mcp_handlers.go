package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huangsam/tierscope/core"
	"github.com/huangsam/tierscope/internal/contract"
	"github.com/huangsam/tierscope/internal/roster"
	"github.com/huangsam/tierscope/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rotisserie/eris"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
}

// resolveRoster applies the roster arguments. It returns inline records when roster_json
// is set, otherwise nil and the roster is loaded from cfg.
func resolveRoster(cfg *contract.Config, request mcp.CallToolRequest) ([]schema.StudentRecord, error) {
	if js := request.GetString("roster_json", ""); js != "" {
		records, err := roster.ParseJSON([]byte(js))
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, core.ErrEmptyRoster
		}
		return records, nil
	}
	if p := request.GetString("roster_path", ""); p != "" {
		cfg.RosterPath = p
	}
	return nil, nil
}

func toolResultJSON(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleClassifyStudents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if c := request.GetInt("clusters", 0); c != 0 {
		cfg.Clusters = c
	}
	if n := request.GetString("normalization", ""); n != "" {
		cfg.Normalization = schema.NormalizationMethod(n)
	}
	if l := request.GetInt("limit", 0); l > 0 {
		cfg.ResultLimit = l
	}
	if err := contract.RevalidateModel(cfg); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid classification parameters: %v", err)), nil
	}

	records, err := resolveRoster(cfg, request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid roster: %v", eris.ToString(err, false))), nil
	}

	results, err := core.GetClassificationResults(ctx, cfg, h.mgr, records)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("classification failed: %v", eris.ToString(err, false))), nil
	}
	return toolResultJSON(core.TopResults(results, cfg.ResultLimit))
}

func (h *toolHandler) handleFlaggedStudents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if l := request.GetInt("limit", 0); l > 0 {
		cfg.ResultLimit = l
	}

	records, err := resolveRoster(cfg, request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid roster: %v", eris.ToString(err, false))), nil
	}

	results, err := core.GetClassificationResults(ctx, cfg, h.mgr, records)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("classification failed: %v", eris.ToString(err, false))), nil
	}
	flagged := core.FlagStudents(results)
	flagged.Excellent = core.LimitResults(flagged.Excellent, cfg.ResultLimit)
	flagged.Anomalies = core.LimitResults(flagged.Anomalies, cfg.ResultLimit)
	return toolResultJSON(flagged)
}

func (h *toolHandler) handleCompareMethods(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if r := request.GetString("reference", ""); r != "" {
		cfg.Reference = schema.ReferencePreset(r)
	}
	if err := contract.RevalidateModel(cfg); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid comparison parameters: %v", err)), nil
	}

	records, err := resolveRoster(cfg, request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid roster: %v", eris.ToString(err, false))), nil
	}
	if records == nil {
		if records, err = core.LoadRoster(cfg, h.mgr); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("loading roster failed: %v", eris.ToString(err, false))), nil
		}
	}

	result, err := core.CompareMethods(ctx, records, core.OptionsFromConfig(cfg), cfg.Reference)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("comparison failed: %v", eris.ToString(err, false))), nil
	}
	return toolResultJSON(result)
}

func (h *toolHandler) handleTierMetrics(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	preset := schema.CompositePreset(request.GetString("preset", string(h.baseCfg.Preset)))
	if _, ok := schema.ValidCompositePresets[preset]; !ok && preset != "" {
		return mcp.NewToolResultError(fmt.Sprintf("invalid preset '%s'. must be standard, compact", preset)), nil
	}
	return toolResultJSON(core.BuildMetricsModel(preset))
}
