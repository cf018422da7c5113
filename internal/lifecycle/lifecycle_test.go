package lifecycle

import (
	"errors"
	"fmt"
	"testing"

	"github.com/HendryAvila/waypoint/internal/archive"
	"github.com/HendryAvila/waypoint/internal/roadmap"
)

// --- Helpers ---

func testDocument() *roadmap.Document {
	doc := roadmap.NewDocument()
	doc.Phases = []roadmap.PhaseRecord{
		{
			Number:    "0010",
			Name:      "Foundation",
			Status:    roadmap.StatusComplete,
			CreatedAt: "2026-01-01T00:00:00Z",
			ClosedAt:  "2026-02-01T00:00:00Z",
		},
		{
			Number:       "0020",
			Name:         "User Accounts",
			Status:       roadmap.StatusActive,
			Goal:         "Sign-up and login flows",
			Scope:        []string{"Registration form"},
			Dependencies: []roadmap.PhaseNumber{"0010"},
			Category:     "auth",
			Tasks: []roadmap.Task{
				{ID: "T001", Description: "Build registration endpoint", Done: true},
				{ID: "T002", Description: "Add session middleware"},
				{ID: "T003", Description: "Write login tests"},
				{ID: "T004", Description: "Already deferred", Deferred: true},
			},
			CreatedAt: "2026-01-15T00:00:00Z",
		},
		{
			Number:       "0030",
			Name:         "Billing",
			Status:       roadmap.StatusDraft,
			Dependencies: []roadmap.PhaseNumber{"0020"},
			CreatedAt:    "2026-01-20T00:00:00Z",
		},
	}
	doc.ActivePhase = "0020"
	return doc
}

// memArchiver records puts and deletes; failPut injects a write failure.
type memArchiver struct {
	entries map[roadmap.PhaseNumber]archive.Entry
	failPut bool
	deletes []roadmap.PhaseNumber
}

func newMemArchiver() *memArchiver {
	return &memArchiver{entries: map[roadmap.PhaseNumber]archive.Entry{}}
}

func (a *memArchiver) Put(e archive.Entry) error {
	if a.failPut {
		return fmt.Errorf("disk full")
	}
	a.entries[e.PhaseNumber] = e
	return nil
}

func (a *memArchiver) Delete(n roadmap.PhaseNumber) error {
	a.deletes = append(a.deletes, n)
	delete(a.entries, n)
	return nil
}

// failStore wraps a Store, failing every Save.
type failStore struct {
	roadmap.Store
}

func (failStore) Save(string, *roadmap.Document) error {
	return fmt.Errorf("read-only filesystem")
}

// --- Start ---

func TestStart(t *testing.T) {
	doc := testDocument()
	doc.Phases[1].Status = roadmap.StatusComplete
	doc.Phases[1].ClosedAt = "2026-02-10T00:00:00Z"
	doc.ActivePhase = ""

	if err := Start(doc, "0030"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if doc.Phase("0030").Status != roadmap.StatusActive {
		t.Errorf("Status = %s, want active", doc.Phase("0030").Status)
	}
	if doc.ActivePhase != "0030" {
		t.Errorf("ActivePhase = %s, want 0030", doc.ActivePhase)
	}
}

func TestStart_NotFound(t *testing.T) {
	if err := Start(testDocument(), "0099"); !errors.Is(err, roadmap.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStart_NotDraft(t *testing.T) {
	if err := Start(testDocument(), "0010"); !errors.Is(err, roadmap.ErrPreconditionFailed) {
		t.Errorf("err = %v, want ErrPreconditionFailed", err)
	}
}

func TestStart_AnotherPhaseActive(t *testing.T) {
	doc := testDocument()
	doc.Phases[2].Dependencies = nil
	if err := Start(doc, "0030"); !errors.Is(err, roadmap.ErrPreconditionFailed) {
		t.Errorf("err = %v, want ErrPreconditionFailed", err)
	}
}

func TestStart_IncompleteDependency(t *testing.T) {
	doc := testDocument()
	doc.Phases[1].Status = roadmap.StatusDraft
	doc.ActivePhase = ""
	// 0030 depends on 0020, which is now a draft.
	if err := Start(doc, "0030"); !errors.Is(err, roadmap.ErrPreconditionFailed) {
		t.Errorf("err = %v, want ErrPreconditionFailed", err)
	}
}

// --- Close ---

func TestClose_OrphansNotDoneTasks(t *testing.T) {
	doc := testDocument()
	before := len(doc.Backlog)

	result, entry, err := Close(doc, "0020")
	if err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Two not-done, not-yet-deferred tasks → exactly two new items.
	if len(result.NewItems) != 2 {
		t.Fatalf("NewItems = %d, want 2", len(result.NewItems))
	}
	if len(doc.Backlog) != before+2 {
		t.Errorf("backlog grew by %d, want 2", len(doc.Backlog)-before)
	}

	first := result.NewItems[0]
	if first.Description != "Orphaned from 0020: Add session middleware" {
		t.Errorf("Description = %q", first.Description)
	}
	if first.Provenance != "0020" || first.SourceTask != "T002" {
		t.Errorf("provenance = %s/%s, want 0020/T002", first.Provenance, first.SourceTask)
	}
	if first.Tag != "auth" {
		t.Errorf("Tag = %q, want the phase category", first.Tag)
	}
	if first.Status != roadmap.BacklogOpen {
		t.Errorf("Status = %s, want open", first.Status)
	}

	// Task count is preserved in the snapshot, all not-done now deferred.
	if len(entry.Snapshot.Tasks) != 4 {
		t.Errorf("snapshot has %d tasks, want 4", len(entry.Snapshot.Tasks))
	}
	for _, task := range entry.Snapshot.Tasks {
		if !task.Done && !task.Deferred {
			t.Errorf("task %s is neither done nor deferred after close", task.ID)
		}
	}
}

func TestClose_TrimsToSummary(t *testing.T) {
	doc := testDocument()
	_, entry, err := Close(doc, "0020")
	if err != nil {
		t.Fatalf("Close: %v", err)
	}

	p := doc.Phase("0020")
	if p.Status != roadmap.StatusComplete {
		t.Errorf("Status = %s, want complete", p.Status)
	}
	if p.ClosedAt == "" {
		t.Error("ClosedAt not set")
	}
	if p.Goal != "" || p.Scope != nil || p.Tasks != nil {
		t.Error("detail survived in the document after close")
	}
	if doc.ActivePhase != "" {
		t.Errorf("ActivePhase = %s, want cleared", doc.ActivePhase)
	}

	// The snapshot keeps everything.
	if entry.Snapshot.Goal != "Sign-up and login flows" {
		t.Errorf("snapshot Goal = %q", entry.Snapshot.Goal)
	}
	if len(entry.Snapshot.Scope) != 1 {
		t.Errorf("snapshot Scope = %v", entry.Snapshot.Scope)
	}
	if err := doc.Validate(); err != nil {
		t.Errorf("document invalid after close: %v", err)
	}
}

func TestClose_AllTasksDone(t *testing.T) {
	doc := testDocument()
	for i := range doc.Phases[1].Tasks {
		doc.Phases[1].Tasks[i].Done = true
	}
	result, _, err := Close(doc, "0020")
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(result.NewItems) != 0 {
		t.Errorf("NewItems = %d, want 0", len(result.NewItems))
	}
}

func TestClose_NotActive(t *testing.T) {
	doc := testDocument()
	if _, _, err := Close(doc, "0030"); !errors.Is(err, roadmap.ErrInvalidState) {
		t.Errorf("err = %v, want ErrInvalidState", err)
	}
	if _, _, err := Close(doc, "0010"); !errors.Is(err, roadmap.ErrInvalidState) {
		t.Errorf("err = %v, want ErrInvalidState", err)
	}
}

// --- CloseActive transaction ---

func seedProject(t *testing.T) (string, *roadmap.FileStore) {
	t.Helper()
	root := t.TempDir()
	store := roadmap.NewFileStore()
	if err := store.Init(root, testDocument()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return root, store
}

func TestCloseActive_Commits(t *testing.T) {
	root, store := seedProject(t)
	arch := newMemArchiver()

	result, err := CloseActive(root, store, arch)
	if err != nil {
		t.Fatalf("CloseActive: %v", err)
	}
	if result.PhaseNumber != "0020" {
		t.Errorf("PhaseNumber = %s, want 0020", result.PhaseNumber)
	}
	if _, ok := arch.entries["0020"]; !ok {
		t.Error("archive entry missing after commit")
	}

	doc, err := store.Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Phase("0020").Status != roadmap.StatusComplete {
		t.Error("close not persisted")
	}
	if len(doc.Backlog) != 2 {
		t.Errorf("persisted backlog has %d items, want 2", len(doc.Backlog))
	}
}

func TestCloseActive_NoActivePhase(t *testing.T) {
	root := t.TempDir()
	store := roadmap.NewFileStore()
	if err := store.Init(root, roadmap.NewDocument()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := CloseActive(root, store, newMemArchiver()); !errors.Is(err, roadmap.ErrInvalidState) {
		t.Errorf("err = %v, want ErrInvalidState", err)
	}
}

func TestCloseActive_ArchiveFailureChangesNothing(t *testing.T) {
	root, store := seedProject(t)
	arch := newMemArchiver()
	arch.failPut = true

	if _, err := CloseActive(root, store, arch); err == nil {
		t.Fatal("CloseActive succeeded despite archive failure")
	}

	doc, err := store.Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Phase("0020").Status != roadmap.StatusActive {
		t.Error("roadmap changed despite failed archive write")
	}
	if len(doc.Backlog) != 0 {
		t.Error("backlog items persisted despite failed archive write")
	}
}

func TestCloseActive_SaveFailureRollsBackArchive(t *testing.T) {
	root, store := seedProject(t)
	arch := newMemArchiver()

	if _, err := CloseActive(root, failStore{store}, arch); err == nil {
		t.Fatal("CloseActive succeeded despite save failure")
	}
	if len(arch.entries) != 0 {
		t.Error("archive entry survived a failed save")
	}
	if len(arch.deletes) != 1 || arch.deletes[0] != "0020" {
		t.Errorf("deletes = %v, want [0020]", arch.deletes)
	}

	doc, err := store.Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Phase("0020").Status != roadmap.StatusActive {
		t.Error("roadmap changed despite failed save")
	}
}
