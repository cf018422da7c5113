package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt handles the roadmap-status MCP prompt.
// It instructs the AI to read and present the current roadmap state.
type StatusPrompt struct{}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt() *StatusPrompt {
	return &StatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("roadmap-status",
		mcp.WithPromptDescription(
			"Check the current state of the roadmap: phases, the active "+
				"phase and its task progress, and the open backlog.",
		),
	)
}

// Handle processes the roadmap-status prompt request.
func (p *StatusPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Roadmap Status",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please run `waypoint_status` to check the roadmap.\n\n" +
						"Then:\n" +
						"1. Show me the phases in a clear, visual format, highlighting the active one\n" +
						"2. Summarize task progress in the active phase\n" +
						"3. If there are open backlog items, tell me whether a triage pass is worth running\n" +
						"4. Tell me exactly what I should do next",
				),
			},
		},
	}, nil
}
