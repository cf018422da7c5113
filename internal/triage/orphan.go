package triage

import (
	"fmt"

	"github.com/HendryAvila/waypoint/internal/archive"
	"github.com/HendryAvila/waypoint/internal/roadmap"
)

// SnapshotArchive is the slice of the archive manager the orphan scan
// needs. Abstracted so tests can use in-memory doubles.
type SnapshotArchive interface {
	List() ([]archive.Entry, error)
	UpdateSnapshot(n roadmap.PhaseNumber, record roadmap.PhaseRecord) error
}

// ScanResult is the structured outcome of an orphan scan.
type ScanResult struct {
	ScannedEntries int                   `json:"scanned_entries"`
	NewItems       []roadmap.BacklogItem `json:"new_items"`
}

// ScanOrphans walks every archived phase snapshot looking for tasks
// that are neither done nor deferred — orphans that a close performed
// by an older engine (or an externally edited archive) never filed. For
// each one it creates an open backlog item carrying the phase and task
// as provenance, then marks the archived task deferred. A backlog item
// is only created if no item with the same (provenance, task) pair
// exists, so running the scan twice never duplicates items.
//
// The document is mutated in memory; the caller persists it under the
// roadmap lock after a successful scan.
func ScanOrphans(doc *roadmap.Document, arch SnapshotArchive) (*ScanResult, error) {
	entries, err := arch.List()
	if err != nil {
		return nil, fmt.Errorf("listing archive: %w", err)
	}

	result := &ScanResult{ScannedEntries: len(entries)}
	for _, e := range entries {
		changed := false
		for i := range e.Snapshot.Tasks {
			t := &e.Snapshot.Tasks[i]
			if t.Done || t.Deferred {
				continue
			}
			if hasOrphanItem(doc, e.PhaseNumber, t.ID) {
				t.Deferred = true
				changed = true
				continue
			}
			item := doc.AppendBacklog(roadmap.BacklogItem{
				Description: fmt.Sprintf("Orphaned from %s: %s", e.PhaseNumber, t.Description),
				Status:      roadmap.BacklogOpen,
				Tag:         e.Snapshot.Category,
				Provenance:  e.PhaseNumber,
				SourceTask:  t.ID,
			})
			result.NewItems = append(result.NewItems, *item)
			t.Deferred = true
			changed = true
		}
		if changed {
			if err := arch.UpdateSnapshot(e.PhaseNumber, e.Snapshot); err != nil {
				return nil, fmt.Errorf("updating archived phase %s: %w", e.PhaseNumber, err)
			}
		}
	}
	return result, nil
}

// hasOrphanItem reports whether the backlog already tracks the given
// (phase, task) pair.
func hasOrphanItem(doc *roadmap.Document, phase roadmap.PhaseNumber, taskID string) bool {
	for i := range doc.Backlog {
		if doc.Backlog[i].Provenance == phase && doc.Backlog[i].SourceTask == taskID {
			return true
		}
	}
	return false
}
