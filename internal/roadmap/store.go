package roadmap

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// Dir is the subdirectory under the project root where all
	// waypoint state lives.
	Dir = "waypoint"
	// DocumentFile is the filename of the canonical roadmap document.
	DocumentFile = "roadmap.md"
)

// Store defines the persistence interface for the roadmap document.
// Abstracted for testability (DIP).
type Store interface {
	Load(projectRoot string) (*Document, error)
	Save(projectRoot string, doc *Document) error
	Exists(projectRoot string) bool
	Init(projectRoot string, doc *Document) error
}

// FileStore implements Store on the local filesystem.
type FileStore struct{}

// NewFileStore creates a filesystem-backed roadmap store.
func NewFileStore() *FileStore {
	return &FileStore{}
}

// DirPath returns the absolute path to the waypoint/ directory.
func DirPath(projectRoot string) string {
	return filepath.Join(projectRoot, Dir)
}

// DocumentPath returns the absolute path to the roadmap document.
func DocumentPath(projectRoot string) string {
	return filepath.Join(DirPath(projectRoot), DocumentFile)
}

// Exists reports whether a roadmap document is present.
func (fs *FileStore) Exists(projectRoot string) bool {
	_, err := os.Stat(DocumentPath(projectRoot))
	return err == nil
}

// Init writes the first roadmap document. Fails if one already exists.
func (fs *FileStore) Init(projectRoot string, doc *Document) error {
	if fs.Exists(projectRoot) {
		return fmt.Errorf("%w: roadmap already exists at %s", ErrValidation, DocumentPath(projectRoot))
	}
	if err := os.MkdirAll(DirPath(projectRoot), 0o755); err != nil {
		return fmt.Errorf("creating waypoint directory: %w", err)
	}
	return fs.Save(projectRoot, doc)
}

// Load reads and parses the roadmap document.
func (fs *FileStore) Load(projectRoot string) (*Document, error) {
	data, err := os.ReadFile(DocumentPath(projectRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no roadmap at %s", ErrNotFound, DocumentPath(projectRoot))
		}
		return nil, fmt.Errorf("reading roadmap: %w", err)
	}
	return Parse(data)
}

// Save validates, renders, and atomically writes the document: the new
// content goes to a temporary file in the same directory and is renamed
// into place, so a crash mid-write never leaves a truncated roadmap.
func (fs *FileStore) Save(projectRoot string, doc *Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	doc.UpdatedAt = Now()

	data, err := Render(doc)
	if err != nil {
		return fmt.Errorf("rendering roadmap: %w", err)
	}

	path := DocumentPath(projectRoot)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing roadmap: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing roadmap: %w", err)
	}
	return nil
}
