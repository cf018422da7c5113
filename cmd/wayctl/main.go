// wayctl is the terminal companion to the waypoint MCP server.
//
// It drives the same roadmap engine from the command line, and hosts
// the one workflow the stdio MCP transport cannot: interactive backlog
// triage, where a human decides item by item.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/waypoint/internal/cli"
	"github.com/HendryAvila/waypoint/internal/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "wayctl",
		Short:   "wayctl - roadmap phases and backlog triage from the terminal",
		Version: server.Version,
		Long: `wayctl manages a project roadmap: numbered phases with tasks, a
provenance-tracked backlog, and archived snapshots of closed phases.
It shares its on-disk state (the waypoint/ directory) with the
waypoint MCP server.`,
	}

	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.StatusCmd())
	rootCmd.AddCommand(cli.PhaseCmd())
	rootCmd.AddCommand(cli.TaskCmd())
	rootCmd.AddCommand(cli.BacklogCmd())
	rootCmd.AddCommand(cli.TriageCmd())
	rootCmd.AddCommand(cli.ScanCmd())
	rootCmd.AddCommand(cli.ArchiveCmd())
	rootCmd.AddCommand(cli.LockCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
