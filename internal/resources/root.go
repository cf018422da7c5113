package resources

import (
	"os"
	"path/filepath"

	"github.com/HendryAvila/waypoint/internal/config"
)

// findRoot walks up from the working directory looking for an
// initialized project (a waypoint/waypoint.json file). Falls back to
// the working directory itself so error messages point somewhere
// useful.
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
			return cwd, nil
		}
		dir = parent
	}
}
