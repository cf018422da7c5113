package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/waypoint/internal/config"
	"github.com/HendryAvila/waypoint/internal/roadmap"
	"github.com/HendryAvila/waypoint/internal/triage"
	"github.com/mark3labs/mcp-go/mcp"
)

// TriageTool handles the waypoint_triage MCP tool.
//
// Over MCP there is no synchronous human in the loop, so only the
// unattended modes are exposed: dry-run (report only) and auto (assign
// high-confidence items, leave everything that would need confirmation
// open and report it). The interactive mode lives in the wayctl CLI,
// where a terminal decision oracle is available.
type TriageTool struct {
	config config.Store
	store  roadmap.Store
}

// NewTriageTool creates a TriageTool with its dependencies.
func NewTriageTool(cfg config.Store, store roadmap.Store) *TriageTool {
	return &TriageTool{config: cfg, store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *TriageTool) Definition() mcp.Tool {
	return mcp.NewTool("waypoint_triage",
		mcp.WithDescription(
			"Triage open backlog items against draft and active phases. "+
				"Items scoring high confidence (≥ 0.70) are assigned automatically in "+
				"auto mode; everything else is left open and reported for a human pass. "+
				"Dry-run computes the same report without changing anything.",
		),
		mcp.WithString("mode",
			mcp.Description("'dry-run' (report only, default) or 'auto' (assign high-confidence items)"),
			mcp.DefaultString("dry-run"),
			mcp.Enum("dry-run", "auto"),
		),
	)
}

// Handle processes the waypoint_triage tool call.
func (t *TriageTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mode := triage.Mode(req.GetString("mode", string(triage.ModeDryRun)))
	if mode != triage.ModeDryRun && mode != triage.ModeAuto {
		return mcp.NewToolResultError("'mode' must be 'dry-run' or 'auto'"), nil
	}

	projectRoot, settings, err := projectContext(t.config)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var report *triage.Report
	if mode == triage.ModeDryRun {
		// Read-only: no lock, no save.
		doc, err := t.store.Load(projectRoot)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		report, err = triage.Run(doc, mode, nil)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	} else {
		err = withRoadmapLock(projectRoot, settings, func() error {
			doc, err := t.store.Load(projectRoot)
			if err != nil {
				return err
			}
			report, err = triage.Run(doc, mode, triage.LeaveOpenOracle{})
			if err != nil {
				return err
			}
			if err := renameArchiveEntries(projectRoot, doc, report.RenamedPhases); err != nil {
				return err
			}
			return t.store.Save(projectRoot, doc)
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	return mcp.NewToolResultText(renderTriageReport(report)), nil
}

func renderTriageReport(report *triage.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Triage Report (%s)\n\n", report.Mode)
	if len(report.Outcomes) == 0 {
		b.WriteString("No open backlog items.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "**Assigned:** %d · **Left open:** %d · **Skipped:** %d\n\n",
		report.Assigned, report.LeftOpen, report.Skipped)
	for _, o := range report.Outcomes {
		target := ""
		if o.Phase != "" {
			target = fmt.Sprintf(" → phase %s", o.Phase)
		}
		fmt.Fprintf(&b, "- `%s` %s — %s (%.2f, %s)%s\n",
			o.ItemID, o.Description, o.Action, o.Score, o.Band, target)
	}
	b.WriteString("\n")
	b.WriteString(resultJSON(report))
	return b.String()
}
