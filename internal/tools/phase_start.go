package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/waypoint/internal/config"
	"github.com/HendryAvila/waypoint/internal/lifecycle"
	"github.com/HendryAvila/waypoint/internal/roadmap"
	"github.com/mark3labs/mcp-go/mcp"
)

// PhaseStartTool handles the waypoint_phase_start MCP tool.
type PhaseStartTool struct {
	config config.Store
	store  roadmap.Store
}

// NewPhaseStartTool creates a PhaseStartTool with its dependencies.
func NewPhaseStartTool(cfg config.Store, store roadmap.Store) *PhaseStartTool {
	return &PhaseStartTool{config: cfg, store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *PhaseStartTool) Definition() mcp.Tool {
	return mcp.NewTool("waypoint_phase_start",
		mcp.WithDescription(
			"Start a draft phase, making it the single active phase. "+
				"Fails if another phase is already active or if any dependency "+
				"of this phase is not complete.",
		),
		mcp.WithString("phase",
			mcp.Required(),
			mcp.Description("Phase number to start, e.g. '0020'"),
		),
	)
}

// Handle processes the waypoint_phase_start tool call.
func (t *PhaseStartTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	number := roadmap.PhaseNumber(strings.TrimSpace(req.GetString("phase", "")))
	if number == "" {
		return mcp.NewToolResultError("'phase' is required"), nil
	}

	projectRoot, settings, err := projectContext(t.config)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var started *roadmap.PhaseRecord
	err = withRoadmapLock(projectRoot, settings, func() error {
		doc, err := t.store.Load(projectRoot)
		if err != nil {
			return err
		}
		if err := lifecycle.Start(doc, number); err != nil {
			return err
		}
		if err := t.store.Save(projectRoot, doc); err != nil {
			return err
		}
		started = doc.Phase(number)
		return nil
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"# Phase Started\n\n**Phase %s:** %s is now active.\n\n"+
			"Work the tasks, then close it with `waypoint_phase_close` — "+
			"unfinished tasks will be filed as backlog items automatically.",
		started.Number, started.Name,
	)), nil
}
