// Package cli implements the wayctl terminal commands.
//
// wayctl is the human-facing driver for the roadmap engine. It shares
// all engine packages with the MCP server; the only logic that lives
// here is terminal interaction — in particular the interactive triage
// oracle, which the stdio MCP transport cannot host.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"

	"github.com/HendryAvila/waypoint/internal/config"
	"github.com/HendryAvila/waypoint/internal/lock"
	"github.com/HendryAvila/waypoint/internal/roadmap"
)

// Shared color styles. Kept as package vars so every command renders
// consistently.
var (
	heading = color.New(color.FgCyan, color.Bold)
	good    = color.New(color.FgGreen)
	warn    = color.New(color.FgYellow)
	bad     = color.New(color.FgRed)
	faint   = color.New(color.Faint)
)

// findRoot walks up from the working directory looking for an
// initialized project (waypoint/waypoint.json).
func findRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	dir := cwd
	for {
		if _, err := os.Stat(config.SettingsPath(dir)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no waypoint project found from %s upward (run `wayctl init` first)", cwd)
		}
		dir = parent
	}
}

// project resolves the root and loads settings for a command that
// operates on an existing project.
func project() (string, *config.Settings, error) {
	root, err := findRoot()
	if err != nil {
		return "", nil, err
	}
	settings, err := config.NewFileStore().Load(root)
	if err != nil {
		return "", nil, err
	}
	return root, settings, nil
}

// withLock runs fn while holding the roadmap lock, translating lock
// contention into actionable terminal messages.
func withLock(root string, settings *config.Settings, fn func() error) error {
	err := lock.WithLock(root, settings.LockOwner(), settings.LockStaleAfter(), fn)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, roadmap.ErrStaleLock):
		return fmt.Errorf("%w\nrun `wayctl lock clear` to remove it", err)
	case errors.Is(err, roadmap.ErrLockHeld):
		return fmt.Errorf("%w\nwait for the holder to finish, or clear a crashed holder with `wayctl lock clear --force`", err)
	default:
		return err
	}
}

// phaseLabel renders "0020 Name" with a status-appropriate color.
func phaseLabel(p *roadmap.PhaseRecord) string {
	label := fmt.Sprintf("%s %s", p.Number, p.Name)
	switch p.Status {
	case roadmap.StatusActive:
		return good.Sprint(label)
	case roadmap.StatusComplete:
		return faint.Sprint(label)
	default:
		return label
	}
}
