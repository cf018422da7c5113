package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/waypoint/internal/archive"
	"github.com/HendryAvila/waypoint/internal/config"
	"github.com/HendryAvila/waypoint/internal/roadmap"
	"github.com/HendryAvila/waypoint/internal/triage"
	"github.com/mark3labs/mcp-go/mcp"
)

// PhaseInsertTool handles the waypoint_phase_insert MCP tool.
type PhaseInsertTool struct {
	config config.Store
	store  roadmap.Store
}

// NewPhaseInsertTool creates a PhaseInsertTool with its dependencies.
func NewPhaseInsertTool(cfg config.Store, store roadmap.Store) *PhaseInsertTool {
	return &PhaseInsertTool{config: cfg, store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *PhaseInsertTool) Definition() mcp.Tool {
	return mcp.NewTool("waypoint_phase_insert",
		mcp.WithDescription(
			"Insert a new draft phase immediately after an existing phase. "+
				"The engine picks the smallest free number between the neighbors; "+
				"if the gap is exhausted, later phases are renumbered (all "+
				"cross-references are rewritten, so existing numbers stay valid).",
		),
		mcp.WithString("after",
			mcp.Required(),
			mcp.Description("Number of the predecessor phase, e.g. '0020'"),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Short phase name"),
		),
		mcp.WithString("goal",
			mcp.Description("One-line goal"),
		),
		mcp.WithString("category",
			mcp.Description("Optional category tag used by triage matching"),
		),
	)
}

// Handle processes the waypoint_phase_insert tool call.
func (t *PhaseInsertTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	after := roadmap.PhaseNumber(strings.TrimSpace(req.GetString("after", "")))
	name := strings.TrimSpace(req.GetString("name", ""))
	if after == "" {
		return mcp.NewToolResultError("'after' is required"), nil
	}
	if name == "" {
		return mcp.NewToolResultError("'name' is required"), nil
	}

	projectRoot, settings, err := projectContext(t.config)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var created roadmap.PhaseRecord
	var renamed map[roadmap.PhaseNumber]roadmap.PhaseNumber
	err = withRoadmapLock(projectRoot, settings, func() error {
		doc, err := t.store.Load(projectRoot)
		if err != nil {
			return err
		}
		record, moves, err := triage.InsertPhase(doc, after, name,
			strings.TrimSpace(req.GetString("goal", "")),
			strings.TrimSpace(req.GetString("category", "")), nil)
		if err != nil {
			return err
		}
		if err := renameArchiveEntries(projectRoot, doc, moves); err != nil {
			return err
		}
		if err := t.store.Save(projectRoot, doc); err != nil {
			return err
		}
		created = *record
		renamed = moves
		return nil
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Phase Inserted\n\n**Phase %s:** %s (draft), after phase %s.\n",
		created.Number, created.Name, after)
	if len(renamed) > 0 {
		b.WriteString("\nRenumbered to open a gap:\n")
		for from, to := range renamed {
			fmt.Fprintf(&b, "- %s → %s\n", from, to)
		}
	}
	b.WriteString("\n" + resultJSON(created))
	return mcp.NewToolResultText(b.String()), nil
}

// renameArchiveEntries applies a renumbering to the archive so entries
// for complete phases stay keyed by their new numbers.
func renameArchiveEntries(projectRoot string, doc *roadmap.Document, moves map[roadmap.PhaseNumber]roadmap.PhaseNumber) error {
	if len(moves) == 0 {
		return nil
	}
	arch, err := archive.Open(projectRoot)
	if err != nil {
		return err
	}
	defer arch.Close()

	for from, to := range moves {
		p := doc.Phase(to)
		if p == nil || p.Status != roadmap.StatusComplete {
			continue
		}
		if err := arch.Rename(from, to); err != nil {
			return fmt.Errorf("rekeying archive entry %s: %w", from, err)
		}
	}
	return nil
}
