// Package config manages the engine settings file (waypoint/waypoint.json).
//
// The settings file doubles as the project marker: tools discover the
// project root by walking up the directory tree until they find it.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/HendryAvila/waypoint/internal/roadmap"
)

// SettingsFile is the filename of the engine settings inside waypoint/.
const SettingsFile = "waypoint.json"

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// Settings holds the per-project engine configuration.
type Settings struct {
	Version   string `json:"version"`
	Project   string `json:"project"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	// Owner is the identity recorded on acquired locks. Defaults to
	// "<hostname>" when empty.
	Owner string `json:"owner,omitempty"`
	// LockStaleAfterSeconds is the age past which a lock acquisition
	// reports the existing lock stale instead of held.
	LockStaleAfterSeconds int `json:"lock_stale_after_seconds"`
}

// DefaultLockStaleAfter is the staleness threshold applied when the
// settings file carries none.
const DefaultLockStaleAfter = 10 * time.Minute

// NewSettings returns settings with defaults for a new project.
func NewSettings(project string) *Settings {
	now := timeNow().UTC().Format(time.RFC3339)
	return &Settings{
		Version:               "0.1.0",
		Project:               project,
		CreatedAt:             now,
		UpdatedAt:             now,
		LockStaleAfterSeconds: int(DefaultLockStaleAfter / time.Second),
	}
}

// LockStaleAfter returns the configured staleness threshold.
func (s *Settings) LockStaleAfter() time.Duration {
	if s.LockStaleAfterSeconds <= 0 {
		return DefaultLockStaleAfter
	}
	return time.Duration(s.LockStaleAfterSeconds) * time.Second
}

// LockOwner returns the identity to record on acquired locks.
func (s *Settings) LockOwner() string {
	if s.Owner != "" {
		return s.Owner
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "waypoint"
}

// Store defines the persistence interface for settings.
// Abstracted for testability (DIP).
type Store interface {
	Load(projectRoot string) (*Settings, error)
	Save(projectRoot string, s *Settings) error
	Exists(projectRoot string) bool
}

// FileStore implements Store using the local filesystem.
type FileStore struct{}

// NewFileStore creates a filesystem-backed settings store.
func NewFileStore() *FileStore {
	return &FileStore{}
}

// SettingsPath returns the absolute path to waypoint/waypoint.json.
func SettingsPath(projectRoot string) string {
	return filepath.Join(roadmap.DirPath(projectRoot), SettingsFile)
}

// Exists reports whether the project has been initialized.
func (fs *FileStore) Exists(projectRoot string) bool {
	_, err := os.Stat(SettingsPath(projectRoot))
	return err == nil
}

// Load reads the settings file.
func (fs *FileStore) Load(projectRoot string) (*Settings, error) {
	data, err := os.ReadFile(SettingsPath(projectRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no waypoint project at %s (run init first)", roadmap.ErrNotFound, projectRoot)
		}
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", SettingsFile, err)
	}
	return &s, nil
}

// Save writes the settings file, creating waypoint/ as needed.
func (fs *FileStore) Save(projectRoot string, s *Settings) error {
	s.UpdatedAt = timeNow().UTC().Format(time.RFC3339)
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}
	if err := os.MkdirAll(roadmap.DirPath(projectRoot), 0o755); err != nil {
		return fmt.Errorf("creating waypoint directory: %w", err)
	}
	return os.WriteFile(SettingsPath(projectRoot), data, 0o644)
}
