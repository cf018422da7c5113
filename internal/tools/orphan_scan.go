package tools

import (
	"context"
	"fmt"

	"github.com/HendryAvila/waypoint/internal/archive"
	"github.com/HendryAvila/waypoint/internal/config"
	"github.com/HendryAvila/waypoint/internal/roadmap"
	"github.com/HendryAvila/waypoint/internal/triage"
	"github.com/mark3labs/mcp-go/mcp"
)

// OrphanScanTool handles the waypoint_orphan_scan MCP tool.
type OrphanScanTool struct {
	config config.Store
	store  roadmap.Store
}

// NewOrphanScanTool creates an OrphanScanTool with its dependencies.
func NewOrphanScanTool(cfg config.Store, store roadmap.Store) *OrphanScanTool {
	return &OrphanScanTool{config: cfg, store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *OrphanScanTool) Definition() mcp.Tool {
	return mcp.NewTool("waypoint_orphan_scan",
		mcp.WithDescription(
			"Scan archived phases for tasks that are neither done nor deferred "+
				"and file a backlog item for each. Idempotent — running it twice "+
				"creates no duplicates. Run it before triage so nothing is missed.",
		),
	)
}

// Handle processes the waypoint_orphan_scan tool call.
func (t *OrphanScanTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectRoot, settings, err := projectContext(t.config)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result *triage.ScanResult
	err = withRoadmapLock(projectRoot, settings, func() error {
		arch, err := archive.Open(projectRoot)
		if err != nil {
			return err
		}
		defer arch.Close()

		doc, err := t.store.Load(projectRoot)
		if err != nil {
			return err
		}
		result, err = triage.ScanOrphans(doc, arch)
		if err != nil {
			return err
		}
		if len(result.NewItems) == 0 {
			return nil // nothing to persist
		}
		return t.store.Save(projectRoot, doc)
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(result.NewItems) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf(
			"Scanned %d archived phase(s); no orphaned tasks found.", result.ScannedEntries,
		)), nil
	}

	text := fmt.Sprintf("# Orphan Scan\n\nScanned %d archived phase(s); filed %d backlog item(s):\n",
		result.ScannedEntries, len(result.NewItems))
	for _, item := range result.NewItems {
		text += fmt.Sprintf("- `%s` %s\n", item.ID, item.Description)
	}
	text += "\n" + resultJSON(result)
	return mcp.NewToolResultText(text), nil
}
