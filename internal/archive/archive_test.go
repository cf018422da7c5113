package archive

import (
	"errors"
	"testing"
	"time"

	"github.com/HendryAvila/waypoint/internal/roadmap"
)

func init() {
	// Freeze time for deterministic tests.
	timeNow = func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	}
}

// --- Helpers ---

func testManager(t *testing.T) *Manager {
	t.Helper()
	m, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func testEntry(n roadmap.PhaseNumber) Entry {
	return Entry{
		PhaseNumber: n,
		PhaseName:   "Foundation",
		Snapshot: roadmap.PhaseRecord{
			Number:    n,
			Name:      "Foundation",
			Status:    roadmap.StatusComplete,
			Goal:      "Bootstrap the project",
			Scope:     []string{"Repo layout", "CI"},
			Tasks:     []roadmap.Task{{ID: "T001", Description: "Set up CI", Done: true}},
			CreatedAt: "2026-01-01T00:00:00Z",
			ClosedAt:  "2026-02-01T00:00:00Z",
		},
		ClosedAt: "2026-02-01T00:00:00Z",
	}
}

// --- CRUD ---

func TestPutGet(t *testing.T) {
	m := testManager(t)
	if err := m.Put(testEntry("0010")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := m.Get("0010")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.PhaseName != "Foundation" {
		t.Errorf("PhaseName = %q", got.PhaseName)
	}
	if got.Snapshot.Goal != "Bootstrap the project" {
		t.Errorf("Snapshot.Goal = %q", got.Snapshot.Goal)
	}
	if len(got.Snapshot.Tasks) != 1 || !got.Snapshot.Tasks[0].Done {
		t.Errorf("Snapshot.Tasks = %+v", got.Snapshot.Tasks)
	}
	if got.Reviewed {
		t.Error("new entry is reviewed")
	}
	if got.CreatedAt != "2026-03-01T12:00:00Z" {
		t.Errorf("CreatedAt = %q", got.CreatedAt)
	}
}

func TestPut_DuplicateFails(t *testing.T) {
	m := testManager(t)
	if err := m.Put(testEntry("0010")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := m.Put(testEntry("0010")); err == nil {
		t.Error("second Put for the same phase succeeded")
	}
}

func TestGet_NotFound(t *testing.T) {
	m := testManager(t)
	if _, err := m.Get("0099"); !errors.Is(err, roadmap.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestExists(t *testing.T) {
	m := testManager(t)
	ok, err := m.Exists("0010")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if ok {
		t.Error("Exists = true before Put")
	}
	if err := m.Put(testEntry("0010")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	ok, err = m.Exists("0010")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !ok {
		t.Error("Exists = false after Put")
	}
}

func TestList_OrderedByPhaseNumber(t *testing.T) {
	m := testManager(t)
	for _, n := range []roadmap.PhaseNumber{"0030", "0010", "0020"} {
		if err := m.Put(testEntry(n)); err != nil {
			t.Fatalf("Put %s: %v", n, err)
		}
	}
	entries, err := m.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []roadmap.PhaseNumber{"0010", "0020", "0030"}
	if len(entries) != len(want) {
		t.Fatalf("len = %d, want %d", len(entries), len(want))
	}
	for i, n := range want {
		if entries[i].PhaseNumber != n {
			t.Errorf("entries[%d] = %s, want %s", i, entries[i].PhaseNumber, n)
		}
	}
}

func TestMarkReviewed(t *testing.T) {
	m := testManager(t)
	if err := m.Put(testEntry("0010")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := m.MarkReviewed("0010"); err != nil {
		t.Fatalf("MarkReviewed: %v", err)
	}
	got, err := m.Get("0010")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.Reviewed {
		t.Error("Reviewed = false after MarkReviewed")
	}
}

func TestMarkReviewed_Missing(t *testing.T) {
	m := testManager(t)
	if err := m.MarkReviewed("0099"); !errors.Is(err, roadmap.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateSnapshot(t *testing.T) {
	m := testManager(t)
	e := testEntry("0010")
	if err := m.Put(e); err != nil {
		t.Fatalf("Put: %v", err)
	}
	e.Snapshot.Tasks[0].Deferred = true
	if err := m.UpdateSnapshot("0010", e.Snapshot); err != nil {
		t.Fatalf("UpdateSnapshot: %v", err)
	}
	got, err := m.Get("0010")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.Snapshot.Tasks[0].Deferred {
		t.Error("snapshot update not persisted")
	}
}

func TestDelete(t *testing.T) {
	m := testManager(t)
	if err := m.Put(testEntry("0010")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := m.Delete("0010"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := m.Get("0010"); !errors.Is(err, roadmap.ErrNotFound) {
		t.Errorf("err after Delete = %v, want ErrNotFound", err)
	}
}

func TestDelete_Missing(t *testing.T) {
	m := testManager(t)
	if err := m.Delete("0099"); !errors.Is(err, roadmap.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRename(t *testing.T) {
	m := testManager(t)
	if err := m.Put(testEntry("0010")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := m.Rename("0010", "0020"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if _, err := m.Get("0010"); !errors.Is(err, roadmap.ErrNotFound) {
		t.Error("old key still resolves after Rename")
	}
	got, err := m.Get("0020")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Snapshot.Number != "0020" {
		t.Errorf("Snapshot.Number = %s, want 0020", got.Snapshot.Number)
	}
}

func TestOpen_CreatesDatabaseFile(t *testing.T) {
	root := t.TempDir()
	m, err := Open(root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer m.Close()
	if err := m.Put(testEntry("0010")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// Reopen and read back.
	m2, err := Open(root)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer m2.Close()
	if _, err := m2.Get("0010"); err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
}
