// Package roadmap defines the roadmap document model and its persistence.
//
// The roadmap is the canonical record of a project's phases and backlog.
// It is persisted as a single markdown file (waypoint/roadmap.md) with a
// YAML frontmatter block for document-level state. The parser/serializer
// boundary lives entirely in this package — no other package ever touches
// the raw text.
//
// Design principles mirror the rest of the codebase:
// - SRP: types, parsing, rendering, and the store live in separate files
// - DIP: Store is an interface; callers depend on the abstraction
package roadmap

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// --- Phase status enum ---

// PhaseStatus tracks where a phase is in its lifecycle.
type PhaseStatus string

const (
	StatusDraft    PhaseStatus = "draft"
	StatusActive   PhaseStatus = "active"
	StatusClosing  PhaseStatus = "closing" // transient, never persisted
	StatusComplete PhaseStatus = "complete"
)

// persistedStatuses is the set of statuses allowed in a saved document.
var persistedStatuses = map[PhaseStatus]bool{
	StatusDraft:    true,
	StatusActive:   true,
	StatusComplete: true,
}

// ValidateStatus returns an error if the status cannot appear in a
// persisted document. Closing is a transient in-memory state used only
// inside a close transaction.
func ValidateStatus(s PhaseStatus) error {
	if !persistedStatuses[s] {
		return fmt.Errorf("%w: invalid phase status %q: must be one of: draft, active, complete", ErrValidation, s)
	}
	return nil
}

// --- Backlog status enum ---

// BacklogStatus tracks the lifecycle of an unscheduled work item.
type BacklogStatus string

const (
	BacklogOpen     BacklogStatus = "open"
	BacklogAssigned BacklogStatus = "assigned"
	BacklogSkipped  BacklogStatus = "skipped"
)

var validBacklogStatuses = map[BacklogStatus]bool{
	BacklogOpen:     true,
	BacklogAssigned: true,
	BacklogSkipped:  true,
}

// ValidateBacklogStatus returns an error if the status is not recognized.
func ValidateBacklogStatus(s BacklogStatus) error {
	if !validBacklogStatuses[s] {
		return fmt.Errorf("%w: invalid backlog status %q: must be one of: open, assigned, skipped", ErrValidation, s)
	}
	return nil
}

// --- Phase numbers ---

// PhaseNumber is the stable textual identifier of a phase: a zero-padded
// four-digit decimal such as "0010". Numbers are assigned monotonically
// but gaps are allowed (and deliberately left so phases can be inserted
// between existing ones later).
type PhaseNumber string

// ParseNumber converts a phase number to its integer value.
func ParseNumber(n PhaseNumber) (int, error) {
	v, err := strconv.Atoi(string(n))
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: invalid phase number %q", ErrValidation, n)
	}
	return v, nil
}

// FormatNumber renders an integer as a zero-padded phase number.
func FormatNumber(v int) PhaseNumber {
	return PhaseNumber(fmt.Sprintf("%04d", v))
}

// --- Core data structures ---

// Task is one item of work inside a phase. Tasks are never deleted:
// a task left undone at phase close is marked deferred and a backlog
// item is filed in its place.
type Task struct {
	ID          string `json:"id"` // "T001", unique within the phase
	Description string `json:"description"`
	Done        bool   `json:"done"`
	Deferred    bool   `json:"deferred"`
	Provenance  string `json:"provenance,omitempty"` // e.g. "triage", or a phase number
}

// PhaseRecord is a tracked unit of work. Once a phase is complete its
// detail (goal, scope, tasks) lives only in the archive; the document
// retains a summary (number, name, status, timestamps).
type PhaseRecord struct {
	Number       PhaseNumber   `json:"number"`
	Name         string        `json:"name"`
	Status       PhaseStatus   `json:"status"`
	Goal         string        `json:"goal,omitempty"`
	Scope        []string      `json:"scope,omitempty"` // ordered; triage appends last
	Dependencies []PhaseNumber `json:"dependencies,omitempty"`
	Category     string        `json:"category,omitempty"`
	Tasks        []Task        `json:"tasks,omitempty"`
	CreatedAt    string        `json:"created_at"`
	ClosedAt     string        `json:"closed_at,omitempty"` // set iff Status == complete
}

// IsSummary reports whether the record is the trimmed form left in the
// document after archival. Detail is elided exactly when a phase
// completes, so summary-ness follows from the status.
func (p *PhaseRecord) IsSummary() bool {
	return p.Status == StatusComplete
}

// BacklogItem is an unscheduled piece of work awaiting triage.
type BacklogItem struct {
	ID            string        `json:"id"` // "B001", unique within the document
	Description   string        `json:"description"`
	Status        BacklogStatus `json:"status"`
	Tag           string        `json:"tag,omitempty"`         // optional category tag
	Provenance    PhaseNumber   `json:"provenance,omitempty"`  // phase it was orphaned from
	SourceTask    string        `json:"source_task,omitempty"` // task ID it was orphaned from
	AssignedPhase PhaseNumber   `json:"assigned_phase,omitempty"`
	Confidence    float64       `json:"confidence,omitempty"` // recorded at assignment for audit
}

// Document is the aggregate root: the ordered phase sequence plus the
// backlog. The active-phase pointer is an explicit field here rather
// than ambient state so it is read and written only inside a locked
// transaction like everything else.
type Document struct {
	Version       int           `json:"version"`
	ActivePhase   PhaseNumber   `json:"active_phase,omitempty"`
	NextBacklogID int           `json:"next_backlog_id"`
	Phases        []PhaseRecord `json:"phases"`
	Backlog       []BacklogItem `json:"backlog"`
	UpdatedAt     string        `json:"updated_at"`
}

// FormatVersion is the current on-disk document format version.
const FormatVersion = 1

// NewDocument returns an empty document at the current format version.
func NewDocument() *Document {
	return &Document{
		Version:       FormatVersion,
		NextBacklogID: 1,
		UpdatedAt:     timeNow().UTC().Format(timeLayout),
	}
}

// Phase returns the record with the given number, or nil.
func (d *Document) Phase(n PhaseNumber) *PhaseRecord {
	for i := range d.Phases {
		if d.Phases[i].Number == n {
			return &d.Phases[i]
		}
	}
	return nil
}

// Active returns the currently active phase, or nil.
func (d *Document) Active() *PhaseRecord {
	if d.ActivePhase == "" {
		return nil
	}
	return d.Phase(d.ActivePhase)
}

// TriageCandidates returns the phases a backlog item may be assigned to:
// every draft or active phase, in document order.
func (d *Document) TriageCandidates() []*PhaseRecord {
	var out []*PhaseRecord
	for i := range d.Phases {
		switch d.Phases[i].Status {
		case StatusDraft, StatusActive:
			out = append(out, &d.Phases[i])
		}
	}
	return out
}

// Item returns the backlog item with the given ID, or nil.
func (d *Document) Item(id string) *BacklogItem {
	for i := range d.Backlog {
		if d.Backlog[i].ID == id {
			return &d.Backlog[i]
		}
	}
	return nil
}

// NextPhaseNumber returns the number to assign to a phase appended at
// the end of the roadmap: the highest existing number plus ten, so a
// gap is left for later insertions.
func (d *Document) NextPhaseNumber() PhaseNumber {
	max := 0
	for i := range d.Phases {
		if v, err := ParseNumber(d.Phases[i].Number); err == nil && v > max {
			max = v
		}
	}
	return FormatNumber(max + 10)
}

// NextTaskID returns the next unused task ID for a phase, scanning
// existing IDs so that removals never cause reuse collisions.
func NextTaskID(p *PhaseRecord) string {
	max := 0
	for _, t := range p.Tasks {
		if v, err := strconv.Atoi(strings.TrimPrefix(t.ID, "T")); err == nil && v > max {
			max = v
		}
	}
	return fmt.Sprintf("T%03d", max+1)
}

// AppendBacklog adds an open backlog item with the next sequential ID
// and returns a pointer to the stored item.
func (d *Document) AppendBacklog(item BacklogItem) *BacklogItem {
	item.ID = fmt.Sprintf("B%03d", d.NextBacklogID)
	d.NextBacklogID++
	if item.Status == "" {
		item.Status = BacklogOpen
	}
	d.Backlog = append(d.Backlog, item)
	return &d.Backlog[len(d.Backlog)-1]
}

// SortDependencies normalizes a dependency set to sorted order so that
// serialization is stable.
func SortDependencies(deps []PhaseNumber) {
	sort.Slice(deps, func(i, j int) bool { return deps[i] < deps[j] })
}

// Validate checks the document invariants:
//   - phase numbers and backlog IDs are unique, names non-empty
//   - at most one phase is active, and ActivePhase points at it
//   - ClosedAt is set iff the phase is complete
//   - AssignedPhase is set iff the item is assigned, and points at a real phase
func (d *Document) Validate() error {
	seen := map[PhaseNumber]bool{}
	activeCount := 0
	for i := range d.Phases {
		p := &d.Phases[i]
		if _, err := ParseNumber(p.Number); err != nil {
			return err
		}
		if seen[p.Number] {
			return fmt.Errorf("%w: duplicate phase number %s", ErrValidation, p.Number)
		}
		seen[p.Number] = true
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%w: phase %s has an empty name", ErrValidation, p.Number)
		}
		if err := ValidateStatus(p.Status); err != nil {
			return err
		}
		if p.Status == StatusActive {
			activeCount++
			if d.ActivePhase != p.Number {
				return fmt.Errorf("%w: phase %s is active but the active-phase pointer is %q", ErrValidation, p.Number, d.ActivePhase)
			}
		}
		if (p.ClosedAt != "") != (p.Status == StatusComplete) {
			return fmt.Errorf("%w: phase %s: closed timestamp must be set exactly when the phase is complete", ErrValidation, p.Number)
		}
		for _, dep := range p.Dependencies {
			if _, err := ParseNumber(dep); err != nil {
				return fmt.Errorf("%w: phase %s: invalid dependency %q", ErrValidation, p.Number, dep)
			}
		}
	}
	if activeCount > 1 {
		return fmt.Errorf("%w: %d phases are active; at most one is allowed", ErrValidation, activeCount)
	}
	if d.ActivePhase != "" && d.Phase(d.ActivePhase) == nil {
		return fmt.Errorf("%w: active-phase pointer %s refers to an unknown phase", ErrValidation, d.ActivePhase)
	}

	seenItems := map[string]bool{}
	for i := range d.Backlog {
		it := &d.Backlog[i]
		if strings.TrimSpace(it.ID) == "" {
			return fmt.Errorf("%w: backlog item with empty ID", ErrValidation)
		}
		if seenItems[it.ID] {
			return fmt.Errorf("%w: duplicate backlog item ID %s", ErrValidation, it.ID)
		}
		seenItems[it.ID] = true
		if err := ValidateBacklogStatus(it.Status); err != nil {
			return err
		}
		if (it.AssignedPhase != "") != (it.Status == BacklogAssigned) {
			return fmt.Errorf("%w: backlog item %s: assigned phase must be set exactly when the item is assigned", ErrValidation, it.ID)
		}
		if it.AssignedPhase != "" && d.Phase(it.AssignedPhase) == nil {
			return fmt.Errorf("%w: backlog item %s assigned to unknown phase %s", ErrValidation, it.ID, it.AssignedPhase)
		}
	}
	return nil
}
