// Package tools implements MCP tool handlers for the roadmap engine.
//
// Each tool is a struct that receives dependencies via its fields (DIP)
// and exposes a Definition for registration plus a Handle compatible
// with mcp-go's CallToolRequest signature.
//
// Design principles:
// - SRP: each file = one tool
// - DIP: tools depend on interfaces (roadmap.Store, config.Store), not concretions
// - OCP: new tools are added without modifying existing ones
//
// Every mutating tool runs its load-compute-save cycle inside the
// roadmap lock; read-only tools skip the lock and may observe a stale
// snapshot.
package tools

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/HendryAvila/waypoint/internal/config"
	"github.com/HendryAvila/waypoint/internal/lock"
	"github.com/HendryAvila/waypoint/internal/roadmap"
)

// findProjectRoot walks up from the current working directory looking
// for an existing waypoint/waypoint.json. If none is found, returns
// cwd. This allows tools to work from any subdirectory of the project.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}

	current := dir
	for {
		candidate := filepath.Join(current, roadmap.Dir, config.SettingsFile)
		if _, err := os.Stat(candidate); err == nil {
			return current, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			// Reached filesystem root, no waypoint project found.
			// Return original cwd — the caller decides what to do.
			return dir, nil
		}
		current = parent
	}
}

// projectContext resolves the project root and its settings.
func projectContext(cfg config.Store) (string, *config.Settings, error) {
	root, err := findProjectRoot()
	if err != nil {
		return "", nil, err
	}
	settings, err := cfg.Load(root)
	if err != nil {
		return "", nil, err
	}
	return root, settings, nil
}

// withRoadmapLock runs fn while holding the project's roadmap lock,
// using the configured owner identity and staleness threshold.
func withRoadmapLock(root string, settings *config.Settings, fn func() error) error {
	return lock.WithLock(root, settings.LockOwner(), settings.LockStaleAfter(), fn)
}

// resultJSON renders a structured result as a fenced JSON block, so the
// calling driver gets a machine-readable payload alongside the prose.
func resultJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return fmt.Sprintf("```json\n%s\n```", data)
}
