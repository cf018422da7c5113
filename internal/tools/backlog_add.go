package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/waypoint/internal/config"
	"github.com/HendryAvila/waypoint/internal/roadmap"
	"github.com/mark3labs/mcp-go/mcp"
)

// BacklogAddTool handles the waypoint_backlog_add MCP tool.
type BacklogAddTool struct {
	config config.Store
	store  roadmap.Store
}

// NewBacklogAddTool creates a BacklogAddTool with its dependencies.
func NewBacklogAddTool(cfg config.Store, store roadmap.Store) *BacklogAddTool {
	return &BacklogAddTool{config: cfg, store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *BacklogAddTool) Definition() mcp.Tool {
	return mcp.NewTool("waypoint_backlog_add",
		mcp.WithDescription(
			"Add an open item to the backlog. Backlog items are unscheduled "+
				"work; run waypoint_triage to assign them to phases.",
		),
		mcp.WithString("description",
			mcp.Required(),
			mcp.Description("What the work is"),
		),
		mcp.WithString("tag",
			mcp.Description("Optional category tag matched against phase categories during triage, e.g. 'ui'"),
		),
	)
}

// Handle processes the waypoint_backlog_add tool call.
func (t *BacklogAddTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	description := strings.TrimSpace(req.GetString("description", ""))
	if description == "" {
		return mcp.NewToolResultError("'description' is required"), nil
	}

	projectRoot, settings, err := projectContext(t.config)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var added roadmap.BacklogItem
	err = withRoadmapLock(projectRoot, settings, func() error {
		doc, err := t.store.Load(projectRoot)
		if err != nil {
			return err
		}
		item := doc.AppendBacklog(roadmap.BacklogItem{
			Description: description,
			Status:      roadmap.BacklogOpen,
			Tag:         strings.TrimSpace(req.GetString("tag", "")),
		})
		added = *item
		return t.store.Save(projectRoot, doc)
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Added backlog item `%s`: %s\n\n%s", added.ID, added.Description, resultJSON(added),
	)), nil
}
