// Package lifecycle drives a phase from draft through closure.
//
// The state machine is draft → active → closing → complete. "Closing"
// exists only inside a close transaction; a phase is never persisted in
// that state. All functions here mutate an in-memory document copy
// obtained under the roadmap lock; persistence is the caller's job,
// except for CloseActive which runs the full close transaction
// including the archive write and its compensation.
package lifecycle

import (
	"fmt"

	"github.com/HendryAvila/waypoint/internal/archive"
	"github.com/HendryAvila/waypoint/internal/roadmap"
)

// Archiver is the slice of the archive manager the close transaction
// needs. Abstracted so tests can inject write failures.
type Archiver interface {
	Put(archive.Entry) error
	Delete(n roadmap.PhaseNumber) error
}

// Start transitions a draft phase to active. It fails with
// roadmap.ErrPreconditionFailed if another phase is already active or
// any dependency is not complete.
func Start(doc *roadmap.Document, n roadmap.PhaseNumber) error {
	p := doc.Phase(n)
	if p == nil {
		return fmt.Errorf("%w: phase %s", roadmap.ErrNotFound, n)
	}
	if p.Status != roadmap.StatusDraft {
		return fmt.Errorf("%w: phase %s is %s, only a draft phase can be started", roadmap.ErrPreconditionFailed, n, p.Status)
	}
	if active := doc.Active(); active != nil {
		return fmt.Errorf("%w: phase %s is already active", roadmap.ErrPreconditionFailed, active.Number)
	}
	for _, dep := range p.Dependencies {
		d := doc.Phase(dep)
		if d == nil {
			return fmt.Errorf("%w: phase %s depends on unknown phase %s", roadmap.ErrPreconditionFailed, n, dep)
		}
		if d.Status != roadmap.StatusComplete {
			return fmt.Errorf("%w: phase %s depends on %s which is %s, not complete", roadmap.ErrPreconditionFailed, n, dep, d.Status)
		}
	}

	p.Status = roadmap.StatusActive
	doc.ActivePhase = p.Number
	return nil
}

// CloseResult is the structured outcome of a phase close, returned to
// the calling driver (which typically hands it to the version-control
// collaborator for commit/PR creation).
type CloseResult struct {
	PhaseNumber roadmap.PhaseNumber   `json:"phase_number"`
	PhaseName   string                `json:"phase_name"`
	ClosedAt    string                `json:"closed_at"`
	NewItems    []roadmap.BacklogItem `json:"new_items"`
}

// Close closes the phase with the given number in memory and returns
// the result plus the archive entry the caller must persist. Steps:
//
//  1. the phase must be active
//  2. every not-done task that is not already deferred becomes an open
//     backlog item carrying the phase as provenance; the task itself is
//     marked deferred and kept for history
//  3. the phase becomes complete with a closure timestamp
//  4. the full pre-trim snapshot is captured for the archive
//  5. the document keeps only the summary; the active pointer clears
//
// Nothing is persisted here; see CloseActive for the full transaction.
func Close(doc *roadmap.Document, n roadmap.PhaseNumber) (*CloseResult, *archive.Entry, error) {
	p := doc.Phase(n)
	if p == nil {
		return nil, nil, fmt.Errorf("%w: phase %s", roadmap.ErrNotFound, n)
	}
	if p.Status != roadmap.StatusActive {
		return nil, nil, fmt.Errorf("%w: phase %s is %s, only the active phase can be closed", roadmap.ErrInvalidState, n, p.Status)
	}
	p.Status = roadmap.StatusClosing

	result := &CloseResult{
		PhaseNumber: p.Number,
		PhaseName:   p.Name,
		ClosedAt:    roadmap.Now(),
	}

	// File a backlog item for every task left undone, unless a
	// previous close already deferred it.
	for i := range p.Tasks {
		t := &p.Tasks[i]
		if t.Done || t.Deferred {
			continue
		}
		item := doc.AppendBacklog(roadmap.BacklogItem{
			Description: fmt.Sprintf("Orphaned from %s: %s", p.Number, t.Description),
			Status:      roadmap.BacklogOpen,
			Tag:         p.Category,
			Provenance:  p.Number,
			SourceTask:  t.ID,
		})
		t.Deferred = true
		result.NewItems = append(result.NewItems, *item)
	}

	p.Status = roadmap.StatusComplete
	p.ClosedAt = result.ClosedAt

	// Snapshot the full record before trimming it to a summary.
	snapshot := *p
	snapshot.Scope = append([]string(nil), p.Scope...)
	snapshot.Tasks = append([]roadmap.Task(nil), p.Tasks...)
	snapshot.Dependencies = append([]roadmap.PhaseNumber(nil), p.Dependencies...)
	entry := &archive.Entry{
		PhaseNumber: p.Number,
		PhaseName:   p.Name,
		Snapshot:    snapshot,
		ClosedAt:    result.ClosedAt,
	}

	// Detail lives only in the archive from this point.
	p.Goal = ""
	p.Scope = nil
	p.Tasks = nil

	doc.ActivePhase = ""
	return result, entry, nil
}

// CloseActive runs the complete close transaction for the currently
// active phase: load, in-memory close, archive write, atomic roadmap
// save. The caller must hold the roadmap lock. The transaction commits
// only if every step succeeds — if the archive write fails nothing has
// been persisted, and if the roadmap save fails the archive entry is
// deleted again, so no partial close is ever observable.
func CloseActive(projectRoot string, store roadmap.Store, arch Archiver) (*CloseResult, error) {
	doc, err := store.Load(projectRoot)
	if err != nil {
		return nil, err
	}
	if doc.ActivePhase == "" {
		return nil, fmt.Errorf("%w: no phase is active", roadmap.ErrInvalidState)
	}

	result, entry, err := Close(doc, doc.ActivePhase)
	if err != nil {
		return nil, err
	}

	if err := arch.Put(*entry); err != nil {
		return nil, fmt.Errorf("archiving phase %s: %w", entry.PhaseNumber, err)
	}
	if err := store.Save(projectRoot, doc); err != nil {
		if derr := arch.Delete(entry.PhaseNumber); derr != nil {
			return nil, fmt.Errorf("saving roadmap: %w (archive rollback also failed: %v)", err, derr)
		}
		return nil, fmt.Errorf("saving roadmap: %w", err)
	}
	return result, nil
}
