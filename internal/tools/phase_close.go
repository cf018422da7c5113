package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/waypoint/internal/archive"
	"github.com/HendryAvila/waypoint/internal/config"
	"github.com/HendryAvila/waypoint/internal/lifecycle"
	"github.com/HendryAvila/waypoint/internal/roadmap"
	"github.com/mark3labs/mcp-go/mcp"
)

// PhaseCloseTool handles the waypoint_phase_close MCP tool.
// It is the workhorse of the lifecycle: it runs the full close
// transaction — orphan the unfinished tasks into the backlog, archive
// the phase snapshot, trim the roadmap to a summary — atomically under
// the roadmap lock.
type PhaseCloseTool struct {
	config config.Store
	store  roadmap.Store
}

// NewPhaseCloseTool creates a PhaseCloseTool with its dependencies.
func NewPhaseCloseTool(cfg config.Store, store roadmap.Store) *PhaseCloseTool {
	return &PhaseCloseTool{config: cfg, store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *PhaseCloseTool) Definition() mcp.Tool {
	return mcp.NewTool("waypoint_phase_close",
		mcp.WithDescription(
			"Close the currently active phase. Every task left undone becomes "+
				"an open backlog item (the task itself is kept, marked deferred), "+
				"the full phase detail is archived, and the roadmap keeps a summary. "+
				"The close is all-or-nothing: on any failure the phase stays active. "+
				"Returns the closed phase and the newly created backlog items, "+
				"e.g. for the commit/PR step that follows.",
		),
	)
}

// Handle processes the waypoint_phase_close tool call.
func (t *PhaseCloseTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectRoot, settings, err := projectContext(t.config)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result *lifecycle.CloseResult
	err = withRoadmapLock(projectRoot, settings, func() error {
		arch, err := archive.Open(projectRoot)
		if err != nil {
			return err
		}
		defer arch.Close()

		result, err = lifecycle.CloseActive(projectRoot, t.store, arch)
		return err
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Phase Closed: %s\n\n", result.PhaseName)
	fmt.Fprintf(&b, "**Phase %s** is complete (closed %s). Full detail archived.\n\n", result.PhaseNumber, result.ClosedAt)
	if len(result.NewItems) == 0 {
		b.WriteString("All tasks were done — no backlog items created.\n\n")
	} else {
		fmt.Fprintf(&b, "**%d unfinished task(s) filed to the backlog:**\n", len(result.NewItems))
		for _, item := range result.NewItems {
			fmt.Fprintf(&b, "- `%s` %s\n", item.ID, item.Description)
		}
		b.WriteString("\nRun `waypoint_triage` to assign them to upcoming phases.\n\n")
	}
	b.WriteString(resultJSON(result))

	return mcp.NewToolResultText(b.String()), nil
}
