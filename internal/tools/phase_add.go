package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/waypoint/internal/config"
	"github.com/HendryAvila/waypoint/internal/roadmap"
	"github.com/mark3labs/mcp-go/mcp"
)

// PhaseAddTool handles the waypoint_phase_add MCP tool.
// It appends a draft phase to the end of the roadmap.
type PhaseAddTool struct {
	config config.Store
	store  roadmap.Store
}

// NewPhaseAddTool creates a PhaseAddTool with its dependencies.
func NewPhaseAddTool(cfg config.Store, store roadmap.Store) *PhaseAddTool {
	return &PhaseAddTool{config: cfg, store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *PhaseAddTool) Definition() mcp.Tool {
	return mcp.NewTool("waypoint_phase_add",
		mcp.WithDescription(
			"Add a new draft phase at the end of the roadmap. "+
				"Phase numbers are assigned automatically with gaps, so phases "+
				"can be inserted between existing ones later (waypoint_phase_insert).",
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Short phase name, e.g. 'UI polish'"),
		),
		mcp.WithString("goal",
			mcp.Description("One-line goal describing what done looks like"),
		),
		mcp.WithString("scope",
			mcp.Description("Scope bullets, one per line"),
		),
		mcp.WithString("depends",
			mcp.Description("Comma-separated phase numbers that must be complete first, e.g. '0010, 0020'"),
		),
		mcp.WithString("category",
			mcp.Description("Optional category tag used by triage matching, e.g. 'ui'"),
		),
	)
}

// Handle processes the waypoint_phase_add tool call.
func (t *PhaseAddTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := strings.TrimSpace(req.GetString("name", ""))
	if name == "" {
		return mcp.NewToolResultError("'name' is required"), nil
	}

	projectRoot, settings, err := projectContext(t.config)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var added *roadmap.PhaseRecord
	err = withRoadmapLock(projectRoot, settings, func() error {
		doc, err := t.store.Load(projectRoot)
		if err != nil {
			return err
		}

		record := roadmap.PhaseRecord{
			Number:    doc.NextPhaseNumber(),
			Name:      name,
			Status:    roadmap.StatusDraft,
			Goal:      strings.TrimSpace(req.GetString("goal", "")),
			Category:  strings.TrimSpace(req.GetString("category", "")),
			CreatedAt: roadmap.Now(),
		}
		for _, line := range strings.Split(req.GetString("scope", ""), "\n") {
			if s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "-")); s != "" {
				record.Scope = append(record.Scope, s)
			}
		}
		for _, d := range strings.Split(req.GetString("depends", ""), ",") {
			if dep := strings.TrimSpace(d); dep != "" {
				record.Dependencies = append(record.Dependencies, roadmap.PhaseNumber(dep))
			}
		}
		roadmap.SortDependencies(record.Dependencies)

		doc.Phases = append(doc.Phases, record)
		if err := t.store.Save(projectRoot, doc); err != nil {
			return err
		}
		added = &record
		return nil
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"# Phase Added\n\n**Phase %s:** %s (draft)\n\n%s",
		added.Number, added.Name, resultJSON(added),
	)), nil
}
