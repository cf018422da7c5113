package triage

import (
	"errors"
	"reflect"
	"testing"

	"github.com/HendryAvila/waypoint/internal/roadmap"
)

// --- Helpers ---

func triageDocument() *roadmap.Document {
	doc := roadmap.NewDocument()
	doc.Phases = []roadmap.PhaseRecord{
		{
			Number:    "0010",
			Name:      "Engine",
			Status:    roadmap.StatusDraft,
			Goal:      "Build the scoring engine",
			Scope:     []string{"Implement token scoring", "Wire the decision flow"},
			Category:  "engine",
			CreatedAt: "2026-01-01T00:00:00Z",
		},
		{
			Number:    "0020",
			Name:      "Polish",
			Status:    roadmap.StatusDraft,
			Goal:      "Make the first impression great",
			Scope:     []string{"Add UI polish for first-run"},
			Category:  "ui",
			CreatedAt: "2026-01-02T00:00:00Z",
		},
	}
	return doc
}

// scriptedOracle replays canned decisions and records every prompt.
type scriptedOracle struct {
	decisions []Decision
	prompts   []Prompt
}

func (o *scriptedOracle) Ask(p Prompt) (Decision, error) {
	o.prompts = append(o.prompts, p)
	if len(o.decisions) == 0 {
		return Decision{Action: ActionLeaveOpen}, nil
	}
	d := o.decisions[0]
	o.decisions = o.decisions[1:]
	return d, nil
}

// --- Mode validation ---

func TestValidateMode(t *testing.T) {
	for _, m := range []Mode{ModeInteractive, ModeAuto, ModeDryRun} {
		if err := ValidateMode(m); err != nil {
			t.Errorf("ValidateMode(%s) = %v", m, err)
		}
	}
	if err := ValidateMode("yolo"); !errors.Is(err, roadmap.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestRun_NonDryRunNeedsOracle(t *testing.T) {
	if _, err := Run(triageDocument(), ModeAuto, nil); !errors.Is(err, roadmap.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

// --- Dry run ---

func TestRun_DryRunNeverMutates(t *testing.T) {
	doc := triageDocument()
	doc.AppendBacklog(roadmap.BacklogItem{Description: "Implement token scoring engine", Tag: "engine"})
	doc.AppendBacklog(roadmap.BacklogItem{Description: "Completely unrelated request"})
	before, err := roadmap.Render(doc)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	report, err := Run(doc, ModeDryRun, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	after, err := roadmap.Render(doc)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if string(before) != string(after) {
		t.Error("dry run mutated the document")
	}
	if len(report.Outcomes) != 2 {
		t.Fatalf("Outcomes = %d, want 2", len(report.Outcomes))
	}
	if report.Outcomes[0].Action != ActionAssign || report.Outcomes[0].Phase != "0010" {
		t.Errorf("outcome[0] = %s → %s, want assign → 0010", report.Outcomes[0].Action, report.Outcomes[0].Phase)
	}
	if report.Outcomes[1].Action != ActionNewPhase {
		t.Errorf("outcome[1] = %s, want new-phase recommendation", report.Outcomes[1].Action)
	}
	// A recommendation is not a creation: nothing was made, so nothing
	// is listed.
	if len(report.CreatedPhases) != 0 {
		t.Errorf("CreatedPhases = %v, want none in dry run", report.CreatedPhases)
	}
	if len(report.RenamedPhases) != 0 {
		t.Errorf("RenamedPhases = %v, want none in dry run", report.RenamedPhases)
	}
}

// --- Auto mode ---

func TestRun_AutoAssignsHighConfidenceOnly(t *testing.T) {
	doc := triageDocument()
	// 3 keyword matches + goal + category: high band.
	highID := doc.AppendBacklog(roadmap.BacklogItem{Description: "Implement token scoring engine decision", Tag: "engine"}).ID
	// Medium band: one keyword plus category.
	mediumID := doc.AppendBacklog(roadmap.BacklogItem{Description: "Add dark mode support", Tag: "ui"}).ID

	oracle := &scriptedOracle{}
	report, err := Run(doc, ModeAuto, oracle)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	high, medium := doc.Item(highID), doc.Item(mediumID)
	if high.Status != roadmap.BacklogAssigned || high.AssignedPhase != "0010" {
		t.Errorf("high item = %s/%s, want assigned/0010", high.Status, high.AssignedPhase)
	}
	if high.Confidence < HighThreshold-bandEps {
		t.Errorf("Confidence = %v, want >= %v", high.Confidence, HighThreshold)
	}
	if medium.Status != roadmap.BacklogOpen {
		t.Errorf("medium item = %s, want left open", medium.Status)
	}

	// Only the sub-high item went through the oracle.
	if len(oracle.prompts) != 1 {
		t.Fatalf("oracle consulted %d times, want 1", len(oracle.prompts))
	}
	if oracle.prompts[0].Item.ID != medium.ID {
		t.Errorf("oracle saw %s, want %s", oracle.prompts[0].Item.ID, medium.ID)
	}

	if report.Assigned != 1 || report.LeftOpen != 1 {
		t.Errorf("report = %d assigned, %d open; want 1, 1", report.Assigned, report.LeftOpen)
	}
	// The auto-assigned outcome is unconfirmed, the oracle one confirmed.
	for _, o := range report.Outcomes {
		if o.ItemID == high.ID && o.Confirmed {
			t.Error("auto assignment marked confirmed")
		}
		if o.ItemID == medium.ID && !o.Confirmed {
			t.Error("oracle decision not marked confirmed")
		}
	}
}

func TestRun_AutoAppendsToScope(t *testing.T) {
	doc := triageDocument()
	doc.AppendBacklog(roadmap.BacklogItem{Description: "Implement token scoring engine decision", Tag: "engine"})
	scopeBefore := len(doc.Phases[0].Scope)

	if _, err := Run(doc, ModeAuto, LeaveOpenOracle{}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	scope := doc.Phases[0].Scope
	if len(scope) != scopeBefore+1 {
		t.Fatalf("scope length = %d, want %d", len(scope), scopeBefore+1)
	}
	if scope[len(scope)-1] != "Implement token scoring engine decision" {
		t.Errorf("appended scope = %q", scope[len(scope)-1])
	}
	if err := doc.Validate(); err != nil {
		t.Errorf("document invalid after auto triage: %v", err)
	}
}

// --- Interactive decisions ---

func TestRun_InteractiveDecisions(t *testing.T) {
	doc := triageDocument()
	aID := doc.AppendBacklog(roadmap.BacklogItem{Description: "Add dark mode support", Tag: "ui"}).ID
	bID := doc.AppendBacklog(roadmap.BacklogItem{Description: "Never doing this one"}).ID
	cID := doc.AppendBacklog(roadmap.BacklogItem{Description: "Stand up on-call rotation"}).ID

	oracle := &scriptedOracle{decisions: []Decision{
		{Action: ActionAssign},
		{Action: ActionSkip},
		{Action: ActionNewPhase, NewPhaseName: "Operations", NewPhaseGoal: "Run the service"},
	}}
	report, err := Run(doc, ModeInteractive, oracle)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	a, b, c := doc.Item(aID), doc.Item(bID), doc.Item(cID)
	if a.Status != roadmap.BacklogAssigned || a.AssignedPhase != "0020" {
		t.Errorf("a = %s/%s, want assigned/0020", a.Status, a.AssignedPhase)
	}
	if b.Status != roadmap.BacklogSkipped {
		t.Errorf("b = %s, want skipped", b.Status)
	}
	if c.Status != roadmap.BacklogAssigned {
		t.Errorf("c = %s, want assigned to the new phase", c.Status)
	}

	created := doc.Phase(c.AssignedPhase)
	if created == nil || created.Name != "Operations" {
		t.Fatalf("new phase not found via %s", c.AssignedPhase)
	}
	if created.Status != roadmap.StatusDraft {
		t.Errorf("new phase status = %s, want draft", created.Status)
	}
	if !reflect.DeepEqual(created.Scope, []string{"Stand up on-call rotation"}) {
		t.Errorf("new phase scope = %v, want seeded with the item", created.Scope)
	}

	if len(report.CreatedPhases) != 1 || report.CreatedPhases[0] != created.Number {
		t.Errorf("CreatedPhases = %v", report.CreatedPhases)
	}
	if report.Assigned != 2 || report.Skipped != 1 {
		t.Errorf("report = %d assigned, %d skipped; want 2, 1", report.Assigned, report.Skipped)
	}
	if err := doc.Validate(); err != nil {
		t.Errorf("document invalid after triage: %v", err)
	}
}

func TestRun_NewPhaseGapExhaustionReportsRenames(t *testing.T) {
	doc := roadmap.NewDocument()
	doc.Phases = []roadmap.PhaseRecord{
		{
			Number:    "0010",
			Name:      "Engine",
			Status:    roadmap.StatusDraft,
			Goal:      "Build the scoring engine",
			Scope:     []string{"Implement token scoring"},
			CreatedAt: "2026-01-01T00:00:00Z",
		},
		{
			Number:    "0011",
			Name:      "Hardening",
			Status:    roadmap.StatusComplete,
			CreatedAt: "2026-01-02T00:00:00Z",
			ClosedAt:  "2026-02-01T00:00:00Z",
		},
	}
	itemID := doc.AppendBacklog(roadmap.BacklogItem{Description: "Stand up on-call rotation"}).ID

	oracle := &scriptedOracle{decisions: []Decision{
		{Action: ActionNewPhase, NewPhaseName: "Operations", NewPhaseGoal: "Run the service", After: "0010"},
	}}
	report, err := Run(doc, ModeInteractive, oracle)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// No room between 0010 and 0011: the complete phase shifts to 0021
	// and the new draft takes the vacated 0011.
	wantRenames := map[roadmap.PhaseNumber]roadmap.PhaseNumber{"0011": "0021"}
	if !reflect.DeepEqual(report.RenamedPhases, wantRenames) {
		t.Errorf("RenamedPhases = %v, want %v", report.RenamedPhases, wantRenames)
	}

	created := doc.Phase("0011")
	if created == nil || created.Name != "Operations" || created.Status != roadmap.StatusDraft {
		t.Fatalf("phase 0011 = %+v, want the new Operations draft", created)
	}
	moved := doc.Phase("0021")
	if moved == nil || moved.Name != "Hardening" || moved.Status != roadmap.StatusComplete {
		t.Fatalf("phase 0021 = %+v, want the renumbered complete phase", moved)
	}

	if len(report.CreatedPhases) != 1 || report.CreatedPhases[0] != "0011" {
		t.Errorf("CreatedPhases = %v, want [0011]", report.CreatedPhases)
	}
	if item := doc.Item(itemID); item.AssignedPhase != "0011" {
		t.Errorf("item assigned to %s, want 0011", item.AssignedPhase)
	}
	if err := doc.Validate(); err != nil {
		t.Errorf("document invalid after triage: %v", err)
	}
}

func TestRun_AssignOtherRejectsCompletePhase(t *testing.T) {
	doc := triageDocument()
	doc.Phases = append(doc.Phases, roadmap.PhaseRecord{
		Number:    "0030",
		Name:      "Done already",
		Status:    roadmap.StatusComplete,
		CreatedAt: "2026-01-01T00:00:00Z",
		ClosedAt:  "2026-02-01T00:00:00Z",
	})
	doc.AppendBacklog(roadmap.BacklogItem{Description: "Some work"})

	oracle := &scriptedOracle{decisions: []Decision{
		{Action: ActionAssignOther, Phase: "0030"},
	}}
	if _, err := Run(doc, ModeInteractive, oracle); !errors.Is(err, roadmap.ErrPreconditionFailed) {
		t.Errorf("err = %v, want ErrPreconditionFailed", err)
	}
}

func TestRun_SkippedItemsNotRevisited(t *testing.T) {
	doc := triageDocument()
	doc.AppendBacklog(roadmap.BacklogItem{Description: "Some work", Status: roadmap.BacklogSkipped})

	oracle := &scriptedOracle{}
	report, err := Run(doc, ModeInteractive, oracle)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Outcomes) != 0 {
		t.Errorf("Outcomes = %d, want 0 (only open items are triaged)", len(report.Outcomes))
	}
	if len(oracle.prompts) != 0 {
		t.Errorf("oracle consulted for a skipped item")
	}
}
