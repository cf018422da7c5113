package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// TriagePrompt handles the roadmap-triage MCP prompt.
// It walks the AI through an orphan scan followed by a triage pass.
type TriagePrompt struct{}

// NewTriagePrompt creates a TriagePrompt.
func NewTriagePrompt() *TriagePrompt {
	return &TriagePrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *TriagePrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("roadmap-triage",
		mcp.WithPromptDescription(
			"Triage the backlog: scan for orphaned tasks, preview the "+
				"proposed assignments, then apply the confident ones.",
		),
	)
}

// Handle processes the roadmap-triage prompt request.
func (p *TriagePrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Backlog Triage",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please triage my backlog:\n\n" +
						"1. Run `waypoint_orphan_scan` so unfinished tasks from closed phases are filed\n" +
						"2. Run `waypoint_triage` with mode 'dry-run' and show me the proposed assignments with their confidence bands\n" +
						"3. If the high-confidence proposals look right, run `waypoint_triage` with mode 'auto' to apply them\n" +
						"4. List what was left open — those need a human decision via `wayctl triage`",
				),
			},
		},
	}, nil
}
