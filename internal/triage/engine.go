package triage

import (
	"fmt"

	"github.com/HendryAvila/waypoint/internal/roadmap"
)

// Mode selects the triage decision policy.
type Mode string

const (
	// ModeInteractive routes every item through the decision oracle.
	ModeInteractive Mode = "interactive"
	// ModeAuto assigns high-confidence items without confirmation and
	// routes everything else through the oracle.
	ModeAuto Mode = "auto"
	// ModeDryRun computes a proposal report and mutates nothing.
	ModeDryRun Mode = "dry-run"
)

// ValidateMode returns an error if the mode is not recognized.
func ValidateMode(m Mode) error {
	switch m {
	case ModeInteractive, ModeAuto, ModeDryRun:
		return nil
	}
	return fmt.Errorf("%w: invalid triage mode %q: must be one of: interactive, auto, dry-run", roadmap.ErrValidation, m)
}

// Action is what happens to one backlog item.
type Action string

const (
	ActionAssign      Action = "assign"       // assign to the recommended phase
	ActionAssignOther Action = "assign-other" // assign to a caller-chosen phase
	ActionNewPhase    Action = "new-phase"    // create a phase seeded with the item
	ActionSkip        Action = "skip"         // mark the item skipped
	ActionLeaveOpen   Action = "leave-open"   // keep the item open for a later pass
)

// Prompt is everything the decision oracle sees for one item: the item,
// the best candidate with its runner-up, and the recommended action.
// The oracle must answer with one of Options — the engine never guesses.
type Prompt struct {
	Item        roadmap.BacklogItem `json:"item"`
	Best        *Candidate          `json:"best,omitempty"`
	RunnerUp    *Candidate          `json:"runner_up,omitempty"`
	Recommended Action              `json:"recommended"`
	Options     []Action            `json:"options"`
}

// Decision is the oracle's answer to a Prompt.
type Decision struct {
	Action Action
	// Phase is the target for ActionAssignOther.
	Phase roadmap.PhaseNumber
	// New-phase parameters for ActionNewPhase. After selects the
	// predecessor; empty means after the last phase.
	NewPhaseName string
	NewPhaseGoal string
	After        roadmap.PhaseNumber
}

// Oracle answers triage prompts. A human CLI, a fixed policy, or a test
// double may implement it.
type Oracle interface {
	Ask(Prompt) (Decision, error)
}

// LeaveOpenOracle is the policy used by unattended auto runs: anything
// that needs confirmation stays open and is surfaced in the report for
// a human pass later.
type LeaveOpenOracle struct{}

// Ask answers every prompt with the safe default: skip when that is the
// only option, otherwise leave the item open.
func (LeaveOpenOracle) Ask(p Prompt) (Decision, error) {
	return Decision{Action: ActionLeaveOpen}, nil
}

// ItemOutcome records what triage did (or proposes, in dry-run) for one item.
type ItemOutcome struct {
	ItemID      string              `json:"item_id"`
	Description string              `json:"description"`
	Action      Action              `json:"action"`
	Phase       roadmap.PhaseNumber `json:"phase,omitempty"` // target or created phase
	Score       float64             `json:"score"`
	Band        Band                `json:"band"`
	Confirmed   bool                `json:"confirmed"` // went through the oracle
}

// Report is the structured result of a triage run.
type Report struct {
	Mode          Mode                  `json:"mode"`
	Outcomes      []ItemOutcome         `json:"outcomes"`
	CreatedPhases []roadmap.PhaseNumber `json:"created_phases,omitempty"`
	// RenamedPhases maps original phase numbers to their final numbers
	// when a new-phase insertion had to renumber to open a gap. The
	// caller must rekey archive entries for any complete phase listed
	// here, inside the same lock as the save.
	RenamedPhases map[roadmap.PhaseNumber]roadmap.PhaseNumber `json:"renamed_phases,omitempty"`
	Assigned      int                                         `json:"assigned"`
	LeftOpen      int                                         `json:"left_open"`
	Skipped       int                                         `json:"skipped"`
}

// Run triages every open backlog item in the document. The document is
// mutated in place except in dry-run mode, where it is never touched;
// the caller persists it (under the roadmap lock) afterwards.
func Run(doc *roadmap.Document, mode Mode, oracle Oracle) (*Report, error) {
	if err := ValidateMode(mode); err != nil {
		return nil, err
	}
	if mode != ModeDryRun && oracle == nil {
		return nil, fmt.Errorf("%w: %s triage requires a decision oracle", roadmap.ErrValidation, mode)
	}

	report := &Report{Mode: mode}

	// Snapshot the open item IDs up front: assignments append to phase
	// scopes and new phases extend the candidate set, but the item
	// list itself must not grow mid-run.
	var openIDs []string
	for i := range doc.Backlog {
		if doc.Backlog[i].Status == roadmap.BacklogOpen {
			openIDs = append(openIDs, doc.Backlog[i].ID)
		}
	}

	for _, id := range openIDs {
		item := doc.Item(id)
		ranked := Rank(*item, doc.TriageCandidates())
		var best, runnerUp *Candidate
		if len(ranked) > 0 {
			best = &ranked[0]
		}
		if len(ranked) > 1 {
			runnerUp = &ranked[1]
		}

		outcome, moves, err := triageOne(doc, item, mode, oracle, best, runnerUp)
		if err != nil {
			return nil, fmt.Errorf("triaging item %s: %w", id, err)
		}
		if len(moves) > 0 {
			report.RenamedPhases = mergeRenames(report.RenamedPhases, moves)
			// Earlier outcomes may reference phases that just moved.
			for i := range report.Outcomes {
				if next, ok := moves[report.Outcomes[i].Phase]; ok {
					report.Outcomes[i].Phase = next
				}
			}
			for i := range report.CreatedPhases {
				if next, ok := moves[report.CreatedPhases[i]]; ok {
					report.CreatedPhases[i] = next
				}
			}
		}
		report.Outcomes = append(report.Outcomes, *outcome)
		switch outcome.Action {
		case ActionAssign, ActionAssignOther:
			report.Assigned++
		case ActionNewPhase:
			report.Assigned++
			if outcome.Phase != "" {
				report.CreatedPhases = append(report.CreatedPhases, outcome.Phase)
			}
		case ActionSkip:
			report.Skipped++
		default:
			report.LeftOpen++
		}
	}
	return report, nil
}

// mergeRenames folds a renumbering into the accumulated rename map,
// collapsing chains so an earlier original maps to its final number.
func mergeRenames(into, moves map[roadmap.PhaseNumber]roadmap.PhaseNumber) map[roadmap.PhaseNumber]roadmap.PhaseNumber {
	if into == nil {
		into = make(map[roadmap.PhaseNumber]roadmap.PhaseNumber, len(moves))
	}
	chained := make(map[roadmap.PhaseNumber]bool)
	for orig, cur := range into {
		if next, ok := moves[cur]; ok {
			into[orig] = next
			chained[cur] = true
		}
	}
	for old, next := range moves {
		if !chained[old] {
			into[old] = next
		}
	}
	return into
}

func triageOne(doc *roadmap.Document, item *roadmap.BacklogItem, mode Mode, oracle Oracle, best, runnerUp *Candidate) (*ItemOutcome, map[roadmap.PhaseNumber]roadmap.PhaseNumber, error) {
	outcome := &ItemOutcome{ItemID: item.ID, Description: item.Description}
	if best != nil {
		outcome.Score = best.Score
		outcome.Band = best.Band
	} else {
		outcome.Band = BandNone
	}

	recommended := ActionLeaveOpen
	if best != nil {
		switch best.Band {
		case BandHigh, BandMedium, BandLow:
			recommended = ActionAssign
		default:
			recommended = ActionNewPhase
		}
	} else {
		recommended = ActionNewPhase
	}

	if mode == ModeDryRun {
		// Report what auto mode would do, mutate nothing.
		outcome.Action = recommended
		if recommended == ActionAssign && best != nil {
			outcome.Phase = best.Phase
		}
		return outcome, nil, nil
	}

	// High-confidence items are assigned without confirmation in auto
	// mode; everything else goes through the oracle.
	if mode == ModeAuto && best != nil && best.Band == BandHigh {
		if err := assign(doc, item, best.Phase, best.Score); err != nil {
			return nil, nil, err
		}
		outcome.Action = ActionAssign
		outcome.Phase = best.Phase
		return outcome, nil, nil
	}

	prompt := Prompt{
		Item:        *item,
		Best:        best,
		RunnerUp:    runnerUp,
		Recommended: recommended,
		Options:     []Action{ActionAssign, ActionAssignOther, ActionNewPhase, ActionSkip, ActionLeaveOpen},
	}
	if best == nil {
		prompt.Options = []Action{ActionNewPhase, ActionSkip, ActionLeaveOpen}
	}

	decision, err := oracle.Ask(prompt)
	if err != nil {
		return nil, nil, fmt.Errorf("decision oracle: %w", err)
	}
	outcome.Confirmed = true

	switch decision.Action {
	case ActionAssign:
		if best == nil {
			return nil, nil, fmt.Errorf("%w: no candidate phase to assign to", roadmap.ErrPreconditionFailed)
		}
		if err := assign(doc, item, best.Phase, best.Score); err != nil {
			return nil, nil, err
		}
		outcome.Action = ActionAssign
		outcome.Phase = best.Phase
	case ActionAssignOther:
		target := doc.Phase(decision.Phase)
		if target == nil {
			return nil, nil, fmt.Errorf("%w: phase %s", roadmap.ErrNotFound, decision.Phase)
		}
		if err := assign(doc, item, decision.Phase, Score(*item, target)); err != nil {
			return nil, nil, err
		}
		outcome.Action = ActionAssignOther
		outcome.Phase = decision.Phase
	case ActionNewPhase:
		created, moves, err := InsertPhase(doc, decision.After, decision.NewPhaseName, decision.NewPhaseGoal, item.Tag, []string{item.Description})
		if err != nil {
			return nil, nil, err
		}
		item.Status = roadmap.BacklogAssigned
		item.AssignedPhase = created.Number
		item.Confidence = 0
		outcome.Action = ActionNewPhase
		outcome.Phase = created.Number
		return outcome, moves, nil
	case ActionSkip:
		item.Status = roadmap.BacklogSkipped
		outcome.Action = ActionSkip
	case ActionLeaveOpen:
		outcome.Action = ActionLeaveOpen
	default:
		return nil, nil, fmt.Errorf("%w: unknown decision action %q", roadmap.ErrValidation, decision.Action)
	}
	return outcome, nil, nil
}

// assign applies the assignment effect: the item's description is
// appended to the target phase's scope (existing order preserved, new
// entry last) and the item leaves the open pool.
func assign(doc *roadmap.Document, item *roadmap.BacklogItem, target roadmap.PhaseNumber, score float64) error {
	p := doc.Phase(target)
	if p == nil {
		return fmt.Errorf("%w: phase %s", roadmap.ErrNotFound, target)
	}
	switch p.Status {
	case roadmap.StatusDraft, roadmap.StatusActive:
	default:
		return fmt.Errorf("%w: cannot assign to %s phase %s", roadmap.ErrPreconditionFailed, p.Status, target)
	}
	p.Scope = append(p.Scope, item.Description)
	item.Status = roadmap.BacklogAssigned
	item.AssignedPhase = target
	item.Confidence = score
	return nil
}
