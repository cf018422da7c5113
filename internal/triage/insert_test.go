package triage

import (
	"errors"
	"testing"

	"github.com/HendryAvila/waypoint/internal/roadmap"
)

func insertDocument() *roadmap.Document {
	doc := roadmap.NewDocument()
	doc.Phases = []roadmap.PhaseRecord{
		{Number: "0010", Name: "One", Status: roadmap.StatusComplete, CreatedAt: "2026-01-01T00:00:00Z", ClosedAt: "2026-02-01T00:00:00Z"},
		{Number: "0020", Name: "Two", Status: roadmap.StatusActive, Dependencies: []roadmap.PhaseNumber{"0010"}, CreatedAt: "2026-01-02T00:00:00Z"},
		{Number: "0030", Name: "Three", Status: roadmap.StatusDraft, Dependencies: []roadmap.PhaseNumber{"0020"}, CreatedAt: "2026-01-03T00:00:00Z"},
	}
	doc.ActivePhase = "0020"
	return doc
}

func TestInsertPhase_AppendEmptyDocument(t *testing.T) {
	doc := roadmap.NewDocument()
	p, moves, err := InsertPhase(doc, "", "First", "", "", nil)
	if err != nil {
		t.Fatalf("InsertPhase: %v", err)
	}
	if p.Number != "0010" {
		t.Errorf("Number = %s, want 0010", p.Number)
	}
	if p.Status != roadmap.StatusDraft {
		t.Errorf("Status = %s, want draft", p.Status)
	}
	if moves != nil {
		t.Errorf("moves = %v, want nil", moves)
	}
}

func TestInsertPhase_AppendLeavesGap(t *testing.T) {
	doc := insertDocument()
	p, _, err := InsertPhase(doc, "", "Four", "", "", nil)
	if err != nil {
		t.Fatalf("InsertPhase: %v", err)
	}
	if p.Number != "0040" {
		t.Errorf("Number = %s, want 0040", p.Number)
	}
}

func TestInsertPhase_BetweenNeighbors(t *testing.T) {
	doc := insertDocument()
	p, moves, err := InsertPhase(doc, "0020", "Between", "", "", nil)
	if err != nil {
		t.Fatalf("InsertPhase: %v", err)
	}
	if p.Number != "0021" {
		t.Errorf("Number = %s, want 0021 (smallest free number in the gap)", p.Number)
	}
	if moves != nil {
		t.Errorf("moves = %v, want nil (gap was open)", moves)
	}
	// Document order: the new phase sits right after its predecessor.
	if doc.Phases[2].Number != "0021" || doc.Phases[3].Number != "0030" {
		t.Errorf("order = %s, %s; want 0021, 0030", doc.Phases[2].Number, doc.Phases[3].Number)
	}
	if err := doc.Validate(); err != nil {
		t.Errorf("document invalid after insert: %v", err)
	}
}

func TestInsertPhase_ExhaustedGapRenumbers(t *testing.T) {
	doc := insertDocument()
	doc.Phases[2].Number = "0021" // direct successor, no room after 0020
	doc.Phases[2].Dependencies = []roadmap.PhaseNumber{"0020"}
	doc.Backlog = []roadmap.BacklogItem{
		{ID: "B001", Description: "x", Status: roadmap.BacklogAssigned, AssignedPhase: "0021"},
	}

	p, moves, err := InsertPhase(doc, "0020", "Squeezed", "", "", nil)
	if err != nil {
		t.Fatalf("InsertPhase: %v", err)
	}

	// 0021 moved out of the way; the new phase takes the freed number.
	if moves["0021"] != "0031" {
		t.Errorf("moves = %v, want 0021 → 0031", moves)
	}
	if p.Number != "0021" {
		t.Errorf("Number = %s, want 0021", p.Number)
	}
	if doc.Phase("0031") == nil {
		t.Fatal("renumbered phase 0031 missing")
	}

	// Cross-references follow the rename.
	if doc.Backlog[0].AssignedPhase != "0031" {
		t.Errorf("AssignedPhase = %s, want 0031", doc.Backlog[0].AssignedPhase)
	}
	if err := doc.Validate(); err != nil {
		t.Errorf("document invalid after renumbering insert: %v", err)
	}
}

func TestInsertPhase_RenumberRewritesAllReferences(t *testing.T) {
	doc := roadmap.NewDocument()
	doc.Phases = []roadmap.PhaseRecord{
		{Number: "0010", Name: "One", Status: roadmap.StatusDraft, CreatedAt: "2026-01-01T00:00:00Z"},
		{Number: "0011", Name: "Two", Status: roadmap.StatusActive, Dependencies: []roadmap.PhaseNumber{"0010"}, CreatedAt: "2026-01-02T00:00:00Z",
			Tasks: []roadmap.Task{{ID: "T001", Description: "carried", Provenance: "0011"}}},
	}
	doc.ActivePhase = "0011"
	doc.Backlog = []roadmap.BacklogItem{
		{ID: "B001", Description: "orphan", Status: roadmap.BacklogOpen, Provenance: "0011", SourceTask: "T009"},
	}

	_, moves, err := InsertPhase(doc, "0010", "Wedge", "", "", nil)
	if err != nil {
		t.Fatalf("InsertPhase: %v", err)
	}
	if moves["0011"] != "0021" {
		t.Errorf("moves = %v, want 0011 → 0021", moves)
	}
	if doc.ActivePhase != "0021" {
		t.Errorf("ActivePhase = %s, want 0021", doc.ActivePhase)
	}
	if doc.Backlog[0].Provenance != "0021" {
		t.Errorf("backlog Provenance = %s, want 0021", doc.Backlog[0].Provenance)
	}
	moved := doc.Phase("0021")
	if moved == nil {
		t.Fatal("moved phase not found")
	}
	if moved.Tasks[0].Provenance != "0021" {
		t.Errorf("task Provenance = %s, want 0021", moved.Tasks[0].Provenance)
	}
	if err := doc.Validate(); err != nil {
		t.Errorf("document invalid: %v", err)
	}
}

func TestInsertPhase_UnknownPredecessor(t *testing.T) {
	if _, _, err := InsertPhase(insertDocument(), "0099", "X", "", "", nil); !errors.Is(err, roadmap.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestInsertPhase_EmptyName(t *testing.T) {
	if _, _, err := InsertPhase(insertDocument(), "0020", "  ", "", "", nil); !errors.Is(err, roadmap.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}
