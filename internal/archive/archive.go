// Package archive stores full snapshots of closed phases.
//
// When a phase is closed its detailed record is trimmed from the active
// roadmap; the complete PhaseRecord at closure time is preserved here,
// one entry per phase number, in a SQLite database under waypoint/.
// The memory-integration collaborator reads entries through this
// package and signals deletion once an entry has no promotable content
// left; until then the entry is retained for manual review.
package archive

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/HendryAvila/waypoint/internal/roadmap"

	_ "modernc.org/sqlite"
)

// DBFile is the archive database filename inside waypoint/.
const DBFile = "archive.db"

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// Entry is one archived phase: the full snapshot taken at closure time
// plus the review flag the memory-integration collaborator maintains.
type Entry struct {
	PhaseNumber roadmap.PhaseNumber `json:"phase_number"`
	PhaseName   string              `json:"phase_name"`
	Snapshot    roadmap.PhaseRecord `json:"snapshot"`
	ClosedAt    string              `json:"closed_at"`
	Reviewed    bool                `json:"reviewed"`
	CreatedAt   string              `json:"created_at"`
}

// Manager owns the archive database.
type Manager struct {
	db *sql.DB
}

// DBPath returns the absolute path to the archive database.
func DBPath(projectRoot string) string {
	return filepath.Join(roadmap.DirPath(projectRoot), DBFile)
}

// Open opens (creating if needed) the archive database for a project.
// The returned Manager must be closed by the caller.
func Open(projectRoot string) (*Manager, error) {
	if err := os.MkdirAll(roadmap.DirPath(projectRoot), 0o755); err != nil {
		return nil, fmt.Errorf("archive: create waypoint dir: %w", err)
	}
	return openAt(DBPath(projectRoot))
}

// OpenMemory opens an in-memory archive, used by tests and dry runs.
func OpenMemory() (*Manager, error) {
	return openAt(":memory:")
}

func openAt(path string) (*Manager, error) {
	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("archive: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("archive: pragma %q: %w", p, err)
		}
	}

	m := &Manager{db: db}
	if err := m.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: migration: %w", err)
	}
	return m, nil
}

// Close closes the underlying database connection.
func (m *Manager) Close() error {
	return m.db.Close()
}

func (m *Manager) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS archive_entries (
			phase_number TEXT PRIMARY KEY,
			phase_name   TEXT NOT NULL,
			snapshot     TEXT NOT NULL,
			closed_at    TEXT NOT NULL,
			reviewed     INTEGER NOT NULL DEFAULT 0,
			created_at   TEXT NOT NULL
		);
	`
	_, err := m.db.Exec(schema)
	return err
}

// Put stores a new archive entry. A phase is archived at most once, so
// an existing entry for the same number is an error, not an upsert.
func (m *Manager) Put(e Entry) error {
	snap, err := json.Marshal(e.Snapshot)
	if err != nil {
		return fmt.Errorf("archive: marshal snapshot for %s: %w", e.PhaseNumber, err)
	}
	createdAt := e.CreatedAt
	if createdAt == "" {
		createdAt = timeNow().UTC().Format(time.RFC3339)
	}
	_, err = m.db.Exec(
		`INSERT INTO archive_entries (phase_number, phase_name, snapshot, closed_at, reviewed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		string(e.PhaseNumber), e.PhaseName, string(snap), e.ClosedAt, boolToInt(e.Reviewed), createdAt,
	)
	if err != nil {
		return fmt.Errorf("archive: insert entry %s: %w", e.PhaseNumber, err)
	}
	return nil
}

// Get returns the entry for a phase number.
func (m *Manager) Get(n roadmap.PhaseNumber) (*Entry, error) {
	row := m.db.QueryRow(
		`SELECT phase_number, phase_name, snapshot, closed_at, reviewed, created_at
		 FROM archive_entries WHERE phase_number = ?`, string(n))
	return scanEntry(row, n)
}

// Exists reports whether a phase has an archive entry.
func (m *Manager) Exists(n roadmap.PhaseNumber) (bool, error) {
	var count int
	if err := m.db.QueryRow(
		`SELECT COUNT(*) FROM archive_entries WHERE phase_number = ?`, string(n),
	).Scan(&count); err != nil {
		return false, fmt.Errorf("archive: checking entry %s: %w", n, err)
	}
	return count > 0, nil
}

// List returns all entries ordered by phase number.
func (m *Manager) List() ([]Entry, error) {
	rows, err := m.db.Query(
		`SELECT phase_number, phase_name, snapshot, closed_at, reviewed, created_at
		 FROM archive_entries ORDER BY phase_number`)
	if err != nil {
		return nil, fmt.Errorf("archive: listing entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows, "")
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// UpdateSnapshot replaces the stored snapshot for a phase. Used by the
// orphan scan to mark archived tasks deferred once backlog items have
// been filed for them.
func (m *Manager) UpdateSnapshot(n roadmap.PhaseNumber, record roadmap.PhaseRecord) error {
	snap, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("archive: marshal snapshot for %s: %w", n, err)
	}
	res, err := m.db.Exec(
		`UPDATE archive_entries SET snapshot = ? WHERE phase_number = ?`,
		string(snap), string(n))
	if err != nil {
		return fmt.Errorf("archive: update snapshot %s: %w", n, err)
	}
	return requireRow(res, n)
}

// MarkReviewed flags an entry as reviewed by the memory-integration
// collaborator.
func (m *Manager) MarkReviewed(n roadmap.PhaseNumber) error {
	res, err := m.db.Exec(
		`UPDATE archive_entries SET reviewed = 1 WHERE phase_number = ?`, string(n))
	if err != nil {
		return fmt.Errorf("archive: mark reviewed %s: %w", n, err)
	}
	return requireRow(res, n)
}

// Delete removes an entry. Called when the memory-integration
// collaborator reports no promotable content remains.
func (m *Manager) Delete(n roadmap.PhaseNumber) error {
	res, err := m.db.Exec(
		`DELETE FROM archive_entries WHERE phase_number = ?`, string(n))
	if err != nil {
		return fmt.Errorf("archive: delete entry %s: %w", n, err)
	}
	return requireRow(res, n)
}

// Rename rekeys an entry after a phase renumbering, keeping archive
// cross-references valid.
func (m *Manager) Rename(from, to roadmap.PhaseNumber) error {
	entry, err := m.Get(from)
	if err != nil {
		return err
	}
	entry.Snapshot.Number = to
	snap, err := json.Marshal(entry.Snapshot)
	if err != nil {
		return fmt.Errorf("archive: marshal snapshot for %s: %w", to, err)
	}
	res, err := m.db.Exec(
		`UPDATE archive_entries SET phase_number = ?, snapshot = ? WHERE phase_number = ?`,
		string(to), string(snap), string(from))
	if err != nil {
		return fmt.Errorf("archive: rename %s to %s: %w", from, to, err)
	}
	return requireRow(res, from)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner, n roadmap.PhaseNumber) (*Entry, error) {
	var e Entry
	var number, snap string
	var reviewed int
	err := row.Scan(&number, &e.PhaseName, &snap, &e.ClosedAt, &reviewed, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: no archive entry for phase %s", roadmap.ErrNotFound, n)
	}
	if err != nil {
		return nil, fmt.Errorf("archive: scanning entry: %w", err)
	}
	e.PhaseNumber = roadmap.PhaseNumber(number)
	e.Reviewed = reviewed != 0
	if err := json.Unmarshal([]byte(snap), &e.Snapshot); err != nil {
		return nil, fmt.Errorf("archive: corrupt snapshot for %s: %w", e.PhaseNumber, err)
	}
	return &e, nil
}

func requireRow(res sql.Result, n roadmap.PhaseNumber) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("archive: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: no archive entry for phase %s", roadmap.ErrNotFound, n)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
