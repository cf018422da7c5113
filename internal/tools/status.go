package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/waypoint/internal/config"
	"github.com/HendryAvila/waypoint/internal/roadmap"
	"github.com/mark3labs/mcp-go/mcp"
)

// StatusTool handles the waypoint_status MCP tool. Read-only: it takes
// no lock and may observe a snapshot slightly behind a concurrent writer.
type StatusTool struct {
	config config.Store
	store  roadmap.Store
}

// NewStatusTool creates a StatusTool with its dependencies.
func NewStatusTool(cfg config.Store, store roadmap.Store) *StatusTool {
	return &StatusTool{config: cfg, store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool("waypoint_status",
		mcp.WithDescription(
			"Show the roadmap: every phase with its status, the active phase, "+
				"and the open backlog. Read-only.",
		),
	)
}

// Handle processes the waypoint_status tool call.
func (t *StatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectRoot, settings, err := projectContext(t.config)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	doc, err := t.store.Load(projectRoot)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Roadmap: %s\n\n", settings.Project)

	if len(doc.Phases) == 0 {
		b.WriteString("No phases yet. Add one with `waypoint_phase_add`.\n")
	} else {
		b.WriteString("## Phases\n\n")
		for i := range doc.Phases {
			p := &doc.Phases[i]
			marker := " "
			if p.Number == doc.ActivePhase {
				marker = "▶"
			}
			line := fmt.Sprintf("%s **%s** %s — %s", marker, p.Number, p.Name, p.Status)
			if !p.IsSummary() && len(p.Tasks) > 0 {
				done := 0
				for _, task := range p.Tasks {
					if task.Done {
						done++
					}
				}
				line += fmt.Sprintf(" (%d/%d tasks done)", done, len(p.Tasks))
			}
			b.WriteString(line + "\n")
		}
	}

	open, assigned, skipped := 0, 0, 0
	for i := range doc.Backlog {
		switch doc.Backlog[i].Status {
		case roadmap.BacklogOpen:
			open++
		case roadmap.BacklogAssigned:
			assigned++
		case roadmap.BacklogSkipped:
			skipped++
		}
	}
	fmt.Fprintf(&b, "\n## Backlog\n\n%d open · %d assigned · %d skipped\n", open, assigned, skipped)
	if open > 0 {
		b.WriteString("\nOpen items:\n")
		for i := range doc.Backlog {
			it := &doc.Backlog[i]
			if it.Status == roadmap.BacklogOpen {
				fmt.Fprintf(&b, "- `%s` %s\n", it.ID, it.Description)
			}
		}
		b.WriteString("\nRun `waypoint_triage` to assign them.\n")
	}

	return mcp.NewToolResultText(b.String()), nil
}
