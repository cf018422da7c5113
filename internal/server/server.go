// Package server wires all MCP components and creates the server instance.
//
// This is the composition root (DIP): it creates concrete implementations
// and injects them into the tools/prompts/resources that depend on
// abstractions. No business logic lives here — only wiring.
package server

import (
	"github.com/HendryAvila/waypoint/internal/config"
	"github.com/HendryAvila/waypoint/internal/prompts"
	"github.com/HendryAvila/waypoint/internal/resources"
	"github.com/HendryAvila/waypoint/internal/roadmap"
	"github.com/HendryAvila/waypoint/internal/tools"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
func New() (*server.MCPServer, error) {
	// --- Create shared dependencies ---

	cfgStore := config.NewFileStore()
	docStore := roadmap.NewFileStore()

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"waypoint",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register lifecycle tools ---

	initTool := tools.NewInitTool(cfgStore, docStore)
	s.AddTool(initTool.Definition(), initTool.Handle)

	phaseAddTool := tools.NewPhaseAddTool(cfgStore, docStore)
	s.AddTool(phaseAddTool.Definition(), phaseAddTool.Handle)

	phaseStartTool := tools.NewPhaseStartTool(cfgStore, docStore)
	s.AddTool(phaseStartTool.Definition(), phaseStartTool.Handle)

	phaseCloseTool := tools.NewPhaseCloseTool(cfgStore, docStore)
	s.AddTool(phaseCloseTool.Definition(), phaseCloseTool.Handle)

	phaseInsertTool := tools.NewPhaseInsertTool(cfgStore, docStore)
	s.AddTool(phaseInsertTool.Definition(), phaseInsertTool.Handle)

	taskAddTool := tools.NewTaskAddTool(cfgStore, docStore)
	s.AddTool(taskAddTool.Definition(), taskAddTool.Handle)

	taskDoneTool := tools.NewTaskDoneTool(cfgStore, docStore)
	s.AddTool(taskDoneTool.Definition(), taskDoneTool.Handle)

	// --- Register backlog and triage tools ---

	backlogAddTool := tools.NewBacklogAddTool(cfgStore, docStore)
	s.AddTool(backlogAddTool.Definition(), backlogAddTool.Handle)

	triageTool := tools.NewTriageTool(cfgStore, docStore)
	s.AddTool(triageTool.Definition(), triageTool.Handle)

	orphanScanTool := tools.NewOrphanScanTool(cfgStore, docStore)
	s.AddTool(orphanScanTool.Definition(), orphanScanTool.Handle)

	// --- Register read-only and archive tools ---

	statusTool := tools.NewStatusTool(cfgStore, docStore)
	s.AddTool(statusTool.Definition(), statusTool.Handle)

	archiveTool := tools.NewArchiveTool(cfgStore)
	s.AddTool(archiveTool.Definition(), archiveTool.Handle)

	// --- Register prompts ---

	statusPrompt := prompts.NewStatusPrompt()
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	triagePrompt := prompts.NewTriagePrompt()
	s.AddPrompt(triagePrompt.Definition(), triagePrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(docStore)
	s.AddResource(resourceHandler.RoadmapResource(), resourceHandler.HandleRoadmap)
	s.AddResource(resourceHandler.BacklogResource(), resourceHandler.HandleBacklog)
	s.AddResource(resourceHandler.ArchiveResource(), resourceHandler.HandleArchive)

	return s, nil
}

// serverInstructions returns the system instructions that tell the AI
// how to use Waypoint effectively.
func serverInstructions() string {
	return `You have access to Waypoint, a phase lifecycle and backlog triage MCP server.

## What is Waypoint?
Waypoint manages a project roadmap as numbered phases with tasks, plus a
backlog of unassigned work. It keeps the roadmap honest: one active phase
at a time, closed phases archived as full snapshots, and unfinished work
never silently dropped — it flows into the backlog with provenance.

## Core Lifecycle
1. waypoint_init — initialize a project (creates waypoint/roadmap.md)
2. waypoint_phase_add — add a phase (draft) with goal, scope, dependencies
3. waypoint_phase_start — activate a draft phase (dependencies must be complete)
4. waypoint_task_add / waypoint_task_done — manage tasks on a phase
5. waypoint_phase_close — close the active phase:
   - not-done tasks become backlog items tagged with their origin
   - the full phase is snapshotted to the archive
   - the roadmap keeps only a summary line for the closed phase

## Backlog Triage
- waypoint_backlog_add — capture new work directly into the backlog
- waypoint_triage — match open backlog items against draft/active phases
  by keyword, goal, and category overlap. Modes:
  - dry-run: report recommendations, change nothing (use this FIRST)
  - auto: assign only high-confidence matches (score >= 0.70), leave the rest
  Ambiguous items need a human decision — direct the user to the wayctl
  CLI for interactive triage.
- waypoint_orphan_scan — sweep archived phases for unfinished tasks that
  never made it into the backlog. Safe to run repeatedly.

## Archive
- waypoint_archive action=list|show|review|delete — inspect snapshots,
  mark them reviewed, or remove them. Deleting is permanent.
- waypoint_status — read-only overview of phases, tasks, and backlog.

## Important Rules
- Only ONE phase can be active at a time
- A phase cannot start until its dependencies are complete
- Closing is all-or-nothing: if anything fails, the roadmap is unchanged
- Run waypoint_triage in dry-run mode before auto mode
- Never delete archive entries unless the user explicitly asks
- Mutating tools take a lock on the roadmap; if a lock is reported stale,
  tell the user to clear it with "wayctl lock clear"`
}
