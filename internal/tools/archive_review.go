package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/waypoint/internal/archive"
	"github.com/HendryAvila/waypoint/internal/config"
	"github.com/HendryAvila/waypoint/internal/roadmap"
	"github.com/mark3labs/mcp-go/mcp"
)

// ArchiveTool handles the waypoint_archive MCP tool: the surface the
// memory-integration collaborator uses. It can list entries, fetch one
// phase's full snapshot, mark an entry reviewed, or delete it once the
// collaborator reports no promotable content remains.
type ArchiveTool struct {
	config config.Store
}

// NewArchiveTool creates an ArchiveTool with its dependencies.
func NewArchiveTool(cfg config.Store) *ArchiveTool {
	return &ArchiveTool{config: cfg}
}

// Definition returns the MCP tool definition for registration.
func (t *ArchiveTool) Definition() mcp.Tool {
	return mcp.NewTool("waypoint_archive",
		mcp.WithDescription(
			"Inspect or manage archived phase snapshots. Actions: "+
				"'list' all entries, 'show' one phase's full snapshot, "+
				"'review' to mark an entry reviewed, 'delete' to remove an "+
				"entry whose content has been fully promoted elsewhere.",
		),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("One of: list, show, review, delete"),
			mcp.Enum("list", "show", "review", "delete"),
		),
		mcp.WithString("phase",
			mcp.Description("Phase number (required for show/review/delete)"),
		),
	)
}

// Handle processes the waypoint_archive tool call.
func (t *ArchiveTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action := req.GetString("action", "")
	phase := roadmap.PhaseNumber(strings.TrimSpace(req.GetString("phase", "")))
	if action != "list" && phase == "" {
		return mcp.NewToolResultError("'phase' is required for " + action), nil
	}

	projectRoot, settings, err := projectContext(t.config)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	arch, err := archive.Open(projectRoot)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	defer arch.Close()

	switch action {
	case "list":
		entries, err := arch.List()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if len(entries) == 0 {
			return mcp.NewToolResultText("The archive is empty — no phases have been closed yet."), nil
		}
		var b strings.Builder
		b.WriteString("# Archived Phases\n\n")
		for _, e := range entries {
			reviewed := ""
			if e.Reviewed {
				reviewed = " (reviewed)"
			}
			fmt.Fprintf(&b, "- **%s** %s — closed %s, %d task(s)%s\n",
				e.PhaseNumber, e.PhaseName, e.ClosedAt, len(e.Snapshot.Tasks), reviewed)
		}
		return mcp.NewToolResultText(b.String()), nil

	case "show":
		entry, err := arch.Get(phase)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf(
			"# Archive: Phase %s — %s\n\nClosed %s.\n\n%s",
			entry.PhaseNumber, entry.PhaseName, entry.ClosedAt, resultJSON(entry),
		)), nil

	case "review":
		if err := mutateArchive(projectRoot, settings, func() error { return arch.MarkReviewed(phase) }); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Marked archive entry %s reviewed.", phase)), nil

	case "delete":
		if err := mutateArchive(projectRoot, settings, func() error { return arch.Delete(phase) }); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf(
			"Deleted archive entry %s. The phase summary remains in the roadmap.", phase,
		)), nil

	default:
		return mcp.NewToolResultError("'action' must be one of: list, show, review, delete"), nil
	}
}

// mutateArchive wraps an archive mutation in the roadmap lock so
// archive writes serialize with roadmap transactions that also touch
// the archive (close, orphan scan).
func mutateArchive(projectRoot string, settings *config.Settings, fn func() error) error {
	return withRoadmapLock(projectRoot, settings, fn)
}
