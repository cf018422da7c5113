package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/waypoint/internal/config"
	"github.com/HendryAvila/waypoint/internal/roadmap"
	"github.com/mark3labs/mcp-go/mcp"
)

// TaskAddTool handles the waypoint_task_add MCP tool.
type TaskAddTool struct {
	config config.Store
	store  roadmap.Store
}

// NewTaskAddTool creates a TaskAddTool with its dependencies.
func NewTaskAddTool(cfg config.Store, store roadmap.Store) *TaskAddTool {
	return &TaskAddTool{config: cfg, store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *TaskAddTool) Definition() mcp.Tool {
	return mcp.NewTool("waypoint_task_add",
		mcp.WithDescription(
			"Add a task to a phase (defaults to the active phase). "+
				"Tasks left undone when the phase closes are filed to the backlog.",
		),
		mcp.WithString("description",
			mcp.Required(),
			mcp.Description("What the task is"),
		),
		mcp.WithString("phase",
			mcp.Description("Phase number; defaults to the active phase"),
		),
	)
}

// Handle processes the waypoint_task_add tool call.
func (t *TaskAddTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	description := strings.TrimSpace(req.GetString("description", ""))
	if description == "" {
		return mcp.NewToolResultError("'description' is required"), nil
	}

	projectRoot, settings, err := projectContext(t.config)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var task roadmap.Task
	var target roadmap.PhaseNumber
	err = withRoadmapLock(projectRoot, settings, func() error {
		doc, err := t.store.Load(projectRoot)
		if err != nil {
			return err
		}
		phase, err := resolvePhase(doc, req.GetString("phase", ""))
		if err != nil {
			return err
		}
		if phase.IsSummary() {
			return fmt.Errorf("%w: phase %s is complete; its tasks are archived", roadmap.ErrInvalidState, phase.Number)
		}
		task = roadmap.Task{ID: roadmap.NextTaskID(phase), Description: description}
		phase.Tasks = append(phase.Tasks, task)
		target = phase.Number
		return t.store.Save(projectRoot, doc)
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Added task `%s` to phase %s: %s", task.ID, target, task.Description,
	)), nil
}

// TaskDoneTool handles the waypoint_task_done MCP tool.
type TaskDoneTool struct {
	config config.Store
	store  roadmap.Store
}

// NewTaskDoneTool creates a TaskDoneTool with its dependencies.
func NewTaskDoneTool(cfg config.Store, store roadmap.Store) *TaskDoneTool {
	return &TaskDoneTool{config: cfg, store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *TaskDoneTool) Definition() mcp.Tool {
	return mcp.NewTool("waypoint_task_done",
		mcp.WithDescription("Mark a task done in a phase (defaults to the active phase)."),
		mcp.WithString("task",
			mcp.Required(),
			mcp.Description("Task ID, e.g. 'T003'"),
		),
		mcp.WithString("phase",
			mcp.Description("Phase number; defaults to the active phase"),
		),
	)
}

// Handle processes the waypoint_task_done tool call.
func (t *TaskDoneTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID := strings.TrimSpace(req.GetString("task", ""))
	if taskID == "" {
		return mcp.NewToolResultError("'task' is required"), nil
	}

	projectRoot, settings, err := projectContext(t.config)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var target roadmap.PhaseNumber
	err = withRoadmapLock(projectRoot, settings, func() error {
		doc, err := t.store.Load(projectRoot)
		if err != nil {
			return err
		}
		phase, err := resolvePhase(doc, req.GetString("phase", ""))
		if err != nil {
			return err
		}
		for i := range phase.Tasks {
			if phase.Tasks[i].ID == taskID {
				phase.Tasks[i].Done = true
				target = phase.Number
				return t.store.Save(projectRoot, doc)
			}
		}
		return fmt.Errorf("%w: task %s in phase %s", roadmap.ErrNotFound, taskID, phase.Number)
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Marked task `%s` done in phase %s.", taskID, target)), nil
}

// resolvePhase returns the named phase, or the active phase when the
// argument is empty.
func resolvePhase(doc *roadmap.Document, arg string) (*roadmap.PhaseRecord, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		active := doc.Active()
		if active == nil {
			return nil, fmt.Errorf("%w: no phase is active; pass 'phase' explicitly", roadmap.ErrInvalidState)
		}
		return active, nil
	}
	phase := doc.Phase(roadmap.PhaseNumber(arg))
	if phase == nil {
		return nil, fmt.Errorf("%w: phase %s", roadmap.ErrNotFound, arg)
	}
	return phase, nil
}
