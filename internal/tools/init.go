package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/waypoint/internal/config"
	"github.com/HendryAvila/waypoint/internal/roadmap"
	"github.com/mark3labs/mcp-go/mcp"
)

// InitTool handles the waypoint_init MCP tool.
// It creates the waypoint/ directory with settings and an empty roadmap.
type InitTool struct {
	config config.Store
	store  roadmap.Store
}

// NewInitTool creates an InitTool with its dependencies.
func NewInitTool(cfg config.Store, store roadmap.Store) *InitTool {
	return &InitTool{config: cfg, store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *InitTool) Definition() mcp.Tool {
	return mcp.NewTool("waypoint_init",
		mcp.WithDescription(
			"Initialize roadmap tracking for this project. "+
				"Creates the waypoint/ directory with settings and an empty roadmap document. "+
				"This is always the first step.",
		),
		mcp.WithString("project",
			mcp.Required(),
			mcp.Description("Project name"),
		),
	)
}

// Handle processes the waypoint_init tool call.
func (t *InitTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := strings.TrimSpace(req.GetString("project", ""))
	if project == "" {
		return mcp.NewToolResultError("'project' is required"), nil
	}

	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("finding project root: %w", err)
	}

	// Guard: don't overwrite an existing project.
	if t.config.Exists(projectRoot) {
		return mcp.NewToolResultError(
			"A waypoint project already exists in this directory. Use waypoint_status to see current state.",
		), nil
	}

	if err := t.config.Save(projectRoot, config.NewSettings(project)); err != nil {
		return nil, fmt.Errorf("writing settings: %w", err)
	}
	if err := t.store.Init(projectRoot, roadmap.NewDocument()); err != nil {
		return nil, fmt.Errorf("writing roadmap: %w", err)
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"# Waypoint Initialized\n\n"+
			"**Project:** %s\n"+
			"**Roadmap:** `waypoint/roadmap.md`\n\n"+
			"Next steps:\n"+
			"1. Add phases with `waypoint_phase_add`\n"+
			"2. Start the first phase with `waypoint_phase_start`\n"+
			"3. Track work with `waypoint_task_add` / `waypoint_task_done`",
		project,
	)), nil
}
