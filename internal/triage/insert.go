package triage

import (
	"fmt"
	"strings"

	"github.com/HendryAvila/waypoint/internal/roadmap"
)

// InsertPhase creates a draft phase immediately after the given
// predecessor (or at the end of the roadmap when after is empty). The
// new number is the smallest unused integer strictly between the
// predecessor's and its successor's numbers. When that gap is
// exhausted, every subsequent phase is shifted up by ten to open one;
// the returned map (old number → new number) lists those moves, with
// every cross-reference inside the document already rewritten. Callers
// must apply the same renames to archive entries for any complete
// phases that moved.
func InsertPhase(doc *roadmap.Document, after roadmap.PhaseNumber, name, goal, category string, seedScope []string) (*roadmap.PhaseRecord, map[roadmap.PhaseNumber]roadmap.PhaseNumber, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil, fmt.Errorf("%w: new phase needs a name", roadmap.ErrValidation)
	}

	record := roadmap.PhaseRecord{
		Name:      name,
		Status:    roadmap.StatusDraft,
		Goal:      goal,
		Category:  category,
		Scope:     append([]string(nil), seedScope...),
		CreatedAt: roadmap.Now(),
	}

	if after == "" {
		if len(doc.Phases) == 0 {
			record.Number = roadmap.FormatNumber(10)
		} else {
			record.Number = doc.NextPhaseNumber()
			after = doc.Phases[len(doc.Phases)-1].Number
		}
		doc.Phases = append(doc.Phases, record)
		return &doc.Phases[len(doc.Phases)-1], nil, nil
	}

	predIdx := -1
	for i := range doc.Phases {
		if doc.Phases[i].Number == after {
			predIdx = i
			break
		}
	}
	if predIdx < 0 {
		return nil, nil, fmt.Errorf("%w: phase %s", roadmap.ErrNotFound, after)
	}
	pred, err := roadmap.ParseNumber(after)
	if err != nil {
		return nil, nil, err
	}

	var renamed map[roadmap.PhaseNumber]roadmap.PhaseNumber
	number, ok := numberInGap(doc, pred, successorNumber(doc, pred))
	if !ok {
		// No integer fits between the neighbors: shift every later
		// phase up by ten, preserving relative order and uniqueness,
		// then pick from the freshly opened gap.
		renamed = renumberAfter(doc, pred)
		number, ok = numberInGap(doc, pred, successorNumber(doc, pred))
		if !ok {
			return nil, nil, fmt.Errorf("%w: could not open a numbering gap after phase %s", roadmap.ErrValidation, after)
		}
	}

	record.Number = roadmap.FormatNumber(number)
	doc.Phases = append(doc.Phases, roadmap.PhaseRecord{})
	copy(doc.Phases[predIdx+2:], doc.Phases[predIdx+1:])
	doc.Phases[predIdx+1] = record
	return &doc.Phases[predIdx+1], renamed, nil
}

// successorNumber returns the smallest phase number greater than pred,
// or 0 if pred is the highest.
func successorNumber(doc *roadmap.Document, pred int) int {
	succ := 0
	for i := range doc.Phases {
		v, err := roadmap.ParseNumber(doc.Phases[i].Number)
		if err != nil || v <= pred {
			continue
		}
		if succ == 0 || v < succ {
			succ = v
		}
	}
	return succ
}

// numberInGap picks the smallest unused integer strictly between pred
// and succ. A succ of 0 means pred has no successor and the gap is
// open-ended.
func numberInGap(doc *roadmap.Document, pred, succ int) (int, bool) {
	used := map[int]bool{}
	for i := range doc.Phases {
		if v, err := roadmap.ParseNumber(doc.Phases[i].Number); err == nil {
			used[v] = true
		}
	}
	limit := succ
	if succ == 0 {
		limit = pred + 11
	}
	for n := pred + 1; n < limit; n++ {
		if !used[n] {
			return n, true
		}
	}
	return 0, false
}

// renumberAfter shifts every phase numbered above pred up by ten and
// rewrites all by-number cross-references in the document: the
// active-phase pointer, dependency sets, backlog provenance and
// assignments, and task provenance tags.
func renumberAfter(doc *roadmap.Document, pred int) map[roadmap.PhaseNumber]roadmap.PhaseNumber {
	renamed := map[roadmap.PhaseNumber]roadmap.PhaseNumber{}
	for i := range doc.Phases {
		v, err := roadmap.ParseNumber(doc.Phases[i].Number)
		if err != nil || v <= pred {
			continue
		}
		renamed[doc.Phases[i].Number] = roadmap.FormatNumber(v + 10)
	}

	rename := func(n roadmap.PhaseNumber) roadmap.PhaseNumber {
		if to, ok := renamed[n]; ok {
			return to
		}
		return n
	}

	for i := range doc.Phases {
		p := &doc.Phases[i]
		p.Number = rename(p.Number)
		for j := range p.Dependencies {
			p.Dependencies[j] = rename(p.Dependencies[j])
		}
		for j := range p.Tasks {
			if to, ok := renamed[roadmap.PhaseNumber(p.Tasks[j].Provenance)]; ok {
				p.Tasks[j].Provenance = string(to)
			}
		}
	}
	doc.ActivePhase = rename(doc.ActivePhase)
	for i := range doc.Backlog {
		it := &doc.Backlog[i]
		it.Provenance = rename(it.Provenance)
		it.AssignedPhase = rename(it.AssignedPhase)
	}
	return renamed
}
