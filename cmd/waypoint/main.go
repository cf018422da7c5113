// Waypoint: Phase Lifecycle & Backlog Triage MCP Server
//
// A universal MCP server that integrates with any AI coding tool
// (Claude Code, OpenCode, Gemini CLI, Codex, Cursor, VS Code Copilot)
// to manage a project roadmap: numbered phases, a provenance-tracked
// backlog, and archived phase snapshots.
//
// Usage:
//
//	waypoint serve    # Start MCP server (stdio transport)
package main

import (
	"fmt"
	"os"

	wpserver "github.com/HendryAvila/waypoint/internal/server"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("waypoint v%s\n", wpserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	s, err := wpserver.New()
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	// MCP uses stdout for the transport; anything human-facing goes
	// to stderr.
	return server.ServeStdio(s)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Waypoint v%s — Phase Lifecycle & Backlog Triage MCP Server

Usage:
  waypoint serve    Start the MCP server (stdio transport)

Configuration:
  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "waypoint": {
        "command": "waypoint",
        "args": ["serve"]
      }
    }
  }

For interactive triage and roadmap management from the terminal,
use the companion CLI: wayctl
`, wpserver.Version)
}
