package triage

import (
	"testing"

	"github.com/HendryAvila/waypoint/internal/archive"
	"github.com/HendryAvila/waypoint/internal/roadmap"
)

// fakeSnapshotArchive backs the orphan scan with an in-memory entry set.
type fakeSnapshotArchive struct {
	entries []archive.Entry
	updates int
}

func (f *fakeSnapshotArchive) List() ([]archive.Entry, error) {
	out := make([]archive.Entry, len(f.entries))
	copy(out, f.entries)
	return out, nil
}

func (f *fakeSnapshotArchive) UpdateSnapshot(n roadmap.PhaseNumber, record roadmap.PhaseRecord) error {
	f.updates++
	for i := range f.entries {
		if f.entries[i].PhaseNumber == n {
			f.entries[i].Snapshot = record
			return nil
		}
	}
	return roadmap.ErrNotFound
}

func orphanArchive() *fakeSnapshotArchive {
	return &fakeSnapshotArchive{entries: []archive.Entry{
		{
			PhaseNumber: "0010",
			PhaseName:   "Foundation",
			Snapshot: roadmap.PhaseRecord{
				Number:   "0010",
				Name:     "Foundation",
				Status:   roadmap.StatusComplete,
				Category: "infra",
				Tasks: []roadmap.Task{
					{ID: "T001", Description: "Set up CI", Done: true},
					{ID: "T002", Description: "Write deploy script"},
					{ID: "T003", Description: "Old leftover", Deferred: true},
				},
				CreatedAt: "2026-01-01T00:00:00Z",
				ClosedAt:  "2026-02-01T00:00:00Z",
			},
			ClosedAt: "2026-02-01T00:00:00Z",
		},
	}}
}

func TestScanOrphans_FilesMissingItems(t *testing.T) {
	doc := roadmap.NewDocument()
	arch := orphanArchive()

	result, err := ScanOrphans(doc, arch)
	if err != nil {
		t.Fatalf("ScanOrphans: %v", err)
	}
	if result.ScannedEntries != 1 {
		t.Errorf("ScannedEntries = %d, want 1", result.ScannedEntries)
	}
	// Only T002: T001 is done, T003 already deferred.
	if len(result.NewItems) != 1 {
		t.Fatalf("NewItems = %d, want 1", len(result.NewItems))
	}

	item := result.NewItems[0]
	if item.Description != "Orphaned from 0010: Write deploy script" {
		t.Errorf("Description = %q", item.Description)
	}
	if item.Provenance != "0010" || item.SourceTask != "T002" {
		t.Errorf("provenance = %s/%s, want 0010/T002", item.Provenance, item.SourceTask)
	}
	if item.Tag != "infra" {
		t.Errorf("Tag = %q, want the phase category", item.Tag)
	}
	if item.Status != roadmap.BacklogOpen {
		t.Errorf("Status = %s, want open", item.Status)
	}

	// The archived task is now deferred so the phase record stays honest.
	if !arch.entries[0].Snapshot.Tasks[1].Deferred {
		t.Error("archived task not marked deferred")
	}
	if arch.updates != 1 {
		t.Errorf("UpdateSnapshot calls = %d, want 1", arch.updates)
	}
}

func TestScanOrphans_Idempotent(t *testing.T) {
	doc := roadmap.NewDocument()
	arch := orphanArchive()

	if _, err := ScanOrphans(doc, arch); err != nil {
		t.Fatalf("first scan: %v", err)
	}
	backlogAfterFirst := len(doc.Backlog)

	result, err := ScanOrphans(doc, arch)
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if len(result.NewItems) != 0 {
		t.Errorf("second scan filed %d items, want 0", len(result.NewItems))
	}
	if len(doc.Backlog) != backlogAfterFirst {
		t.Errorf("backlog grew on the second scan")
	}
}

func TestScanOrphans_DedupesAgainstExistingItems(t *testing.T) {
	doc := roadmap.NewDocument()
	// The close transaction already filed this one.
	doc.AppendBacklog(roadmap.BacklogItem{
		Description: "Orphaned from 0010: Write deploy script",
		Provenance:  "0010",
		SourceTask:  "T002",
	})
	arch := orphanArchive()

	result, err := ScanOrphans(doc, arch)
	if err != nil {
		t.Fatalf("ScanOrphans: %v", err)
	}
	if len(result.NewItems) != 0 {
		t.Errorf("NewItems = %d, want 0 (item already tracked)", len(result.NewItems))
	}
	// The stale snapshot still gets repaired.
	if !arch.entries[0].Snapshot.Tasks[1].Deferred {
		t.Error("archived task not marked deferred")
	}
}

func TestScanOrphans_EmptyArchive(t *testing.T) {
	doc := roadmap.NewDocument()
	result, err := ScanOrphans(doc, &fakeSnapshotArchive{})
	if err != nil {
		t.Fatalf("ScanOrphans: %v", err)
	}
	if result.ScannedEntries != 0 || len(result.NewItems) != 0 {
		t.Errorf("result = %+v, want empty", result)
	}
}
