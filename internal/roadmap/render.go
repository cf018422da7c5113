package roadmap

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// frontEnvelope is the YAML frontmatter wrapper. All document-level
// state that is not naturally expressible in the markdown body lives
// here, under a single "waypoint" key so foreign frontmatter consumers
// can ignore it wholesale.
type frontEnvelope struct {
	Waypoint frontMatter `yaml:"waypoint"`
}

type frontMatter struct {
	Version       int    `yaml:"version"`
	ActivePhase   string `yaml:"active_phase,omitempty"`
	NextBacklogID int    `yaml:"next_backlog_id"`
	Updated       string `yaml:"updated"`
}

// backlogHeader is the fixed column set of the backlog table.
var backlogColumns = []string{"ID", "Status", "Tag", "From", "Phase", "Score", "Description"}

// Render serializes a document to its on-disk textual form.
// The output is deterministic: rendering the same document twice
// produces identical bytes.
func Render(d *Document) ([]byte, error) {
	env := frontEnvelope{Waypoint: frontMatter{
		Version:       d.Version,
		ActivePhase:   string(d.ActivePhase),
		NextBacklogID: d.NextBacklogID,
		Updated:       d.UpdatedAt,
	}}
	meta, err := yaml.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encoding frontmatter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(meta)
	b.WriteString("---\n\n")
	b.WriteString("# Roadmap\n")

	for i := range d.Phases {
		renderPhase(&b, &d.Phases[i])
	}

	b.WriteString("\n## Backlog\n\n")
	b.WriteString("| " + strings.Join(backlogColumns, " | ") + " |\n")
	sep := make([]string, len(backlogColumns))
	for i := range sep {
		sep[i] = strings.Repeat("-", len(backlogColumns[i]))
	}
	b.WriteString("| " + strings.Join(sep, " | ") + " |\n")
	for i := range d.Backlog {
		renderBacklogRow(&b, &d.Backlog[i])
	}

	return []byte(b.String()), nil
}

func renderPhase(b *strings.Builder, p *PhaseRecord) {
	fmt.Fprintf(b, "\n## Phase %s: %s\n", p.Number, sanitizeLine(p.Name))
	fmt.Fprintf(b, "- Status: %s\n", p.Status)
	fmt.Fprintf(b, "- Created: %s\n", p.CreatedAt)
	if p.ClosedAt != "" {
		fmt.Fprintf(b, "- Closed: %s\n", p.ClosedAt)
	}
	if len(p.Dependencies) > 0 {
		deps := make([]string, len(p.Dependencies))
		for i, dep := range p.Dependencies {
			deps[i] = string(dep)
		}
		fmt.Fprintf(b, "- Depends: %s\n", strings.Join(deps, ", "))
	}
	if p.Category != "" {
		fmt.Fprintf(b, "- Category: %s\n", p.Category)
	}

	// Complete phases keep only the summary above; detail lives in
	// the archive from the moment the phase closes.
	if p.IsSummary() {
		return
	}

	if p.Goal != "" {
		fmt.Fprintf(b, "\n**Goal:** %s\n", sanitizeLine(p.Goal))
	}
	if len(p.Scope) > 0 {
		b.WriteString("\n**Scope:**\n")
		for _, s := range p.Scope {
			fmt.Fprintf(b, "- %s\n", sanitizeLine(s))
		}
	}
	if len(p.Tasks) > 0 {
		b.WriteString("\n**Tasks:**\n")
		for _, t := range p.Tasks {
			mark := " "
			switch {
			case t.Done:
				mark = "x"
			case t.Deferred:
				mark = ">"
			}
			fmt.Fprintf(b, "- [%s] %s %s", mark, t.ID, sanitizeLine(t.Description))
			if t.Provenance != "" {
				fmt.Fprintf(b, " [from:%s]", t.Provenance)
			}
			b.WriteString("\n")
		}
	}
}

func renderBacklogRow(b *strings.Builder, it *BacklogItem) {
	from := "-"
	if it.Provenance != "" {
		from = string(it.Provenance)
		if it.SourceTask != "" {
			from += "/" + it.SourceTask
		}
	}
	phase := "-"
	if it.AssignedPhase != "" {
		phase = string(it.AssignedPhase)
	}
	score := "-"
	if it.Status == BacklogAssigned {
		score = fmt.Sprintf("%.2f", it.Confidence)
	}
	tag := it.Tag
	if tag == "" {
		tag = "-"
	}
	fmt.Fprintf(b, "| %s | %s | %s | %s | %s | %s | %s |\n",
		it.ID, it.Status, escapeCell(tag), from, phase, score, escapeCell(sanitizeLine(it.Description)))
}

// sanitizeLine collapses newlines so free text always round-trips
// through the line-oriented format.
func sanitizeLine(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

// escapeCell protects table cell content from the column separator.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
