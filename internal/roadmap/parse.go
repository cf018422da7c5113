package roadmap

import (
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse reads a document from its on-disk textual form. Malformed input
// is reported as a *ParseError carrying the offending line and section.
func Parse(content []byte) (*Document, error) {
	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	if !strings.HasPrefix(text, "---\n") {
		return nil, parseErrorf(1, "frontmatter", "document must start with a --- frontmatter fence")
	}
	rest := text[len("---\n"):]
	idx := strings.Index(rest, "\n---\n")
	if idx < 0 {
		return nil, parseErrorf(1, "frontmatter", "unterminated frontmatter fence")
	}
	metaText := rest[:idx]
	body := rest[idx+len("\n---\n"):]
	// Line number of the first body line: opening fence + meta lines + closing fence.
	bodyStart := 2 + strings.Count(metaText, "\n") + 2

	var env frontEnvelope
	if err := yaml.Unmarshal([]byte(metaText), &env); err != nil {
		return nil, parseErrorf(2, "frontmatter", "invalid YAML: %v", err)
	}
	if env.Waypoint.Version == 0 {
		return nil, parseErrorf(2, "frontmatter", "missing waypoint.version")
	}
	if env.Waypoint.Version > FormatVersion {
		return nil, parseErrorf(2, "frontmatter", "document format version %d is newer than supported version %d", env.Waypoint.Version, FormatVersion)
	}

	doc := &Document{
		Version:       env.Waypoint.Version,
		ActivePhase:   PhaseNumber(env.Waypoint.ActivePhase),
		NextBacklogID: env.Waypoint.NextBacklogID,
		UpdatedAt:     env.Waypoint.Updated,
	}

	p := &bodyParser{doc: doc, lines: strings.Split(body, "\n"), offset: bodyStart}
	if err := p.run(); err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

var (
	phaseHeadingRe = regexp.MustCompile(`^## Phase (\d{4}): (.+)$`)
	taskLineRe     = regexp.MustCompile(`^- \[([ x>])\] (T\d{3}) (.*)$`)
	taskFromRe     = regexp.MustCompile(`^(.*?)\s*\[from:([^\]]+)\]$`)
)

// bodyParser walks the markdown body line by line, tracking enough
// state to attribute each line to a phase subsection or the backlog.
type bodyParser struct {
	doc    *Document
	lines  []string
	offset int // document line number of lines[0]

	phase   *PhaseRecord
	section string // "", "meta", "goal", "scope", "tasks", "backlog"
	sawRows int    // backlog rows consumed (header + separator + data)
}

func (p *bodyParser) lineNo(i int) int { return p.offset + i }

func (p *bodyParser) run() error {
	for i, raw := range p.lines {
		line := strings.TrimRight(raw, " \t")
		switch {
		case line == "" || line == "# Roadmap":
			continue
		case strings.HasPrefix(line, "## Phase "):
			if err := p.startPhase(i, line); err != nil {
				return err
			}
		case line == "## Backlog":
			p.flushPhase()
			p.section = "backlog"
			p.sawRows = 0
		case strings.HasPrefix(line, "## "):
			return parseErrorf(p.lineNo(i), "body", "unexpected section heading %q", line)
		case p.section == "backlog":
			if err := p.backlogRow(i, line); err != nil {
				return err
			}
		case p.phase != nil:
			if err := p.phaseLine(i, line); err != nil {
				return err
			}
		default:
			return parseErrorf(p.lineNo(i), "body", "unexpected content outside any section: %q", line)
		}
	}
	p.flushPhase()
	return nil
}

func (p *bodyParser) startPhase(i int, line string) error {
	p.flushPhase()
	m := phaseHeadingRe.FindStringSubmatch(line)
	if m == nil {
		return parseErrorf(p.lineNo(i), "body", "malformed phase heading %q (want \"## Phase NNNN: name\")", line)
	}
	p.phase = &PhaseRecord{Number: PhaseNumber(m[1]), Name: m[2]}
	p.section = "meta"
	return nil
}

func (p *bodyParser) flushPhase() {
	if p.phase != nil {
		p.doc.Phases = append(p.doc.Phases, *p.phase)
		p.phase = nil
	}
	p.section = ""
}

func (p *bodyParser) phaseLine(i int, line string) error {
	sec := "phase " + string(p.phase.Number)
	switch {
	case strings.HasPrefix(line, "**Goal:**"):
		p.phase.Goal = strings.TrimSpace(strings.TrimPrefix(line, "**Goal:**"))
		p.section = "goal"
		return nil
	case line == "**Scope:**":
		p.section = "scope"
		return nil
	case line == "**Tasks:**":
		p.section = "tasks"
		return nil
	}

	switch p.section {
	case "meta":
		return p.metaLine(i, sec, line)
	case "scope":
		if !strings.HasPrefix(line, "- ") {
			return parseErrorf(p.lineNo(i), sec, "expected a scope bullet, got %q", line)
		}
		p.phase.Scope = append(p.phase.Scope, strings.TrimSpace(line[2:]))
		return nil
	case "tasks":
		return p.taskLine(i, sec, line)
	default:
		return parseErrorf(p.lineNo(i), sec, "unexpected line %q", line)
	}
}

func (p *bodyParser) metaLine(i int, sec, line string) error {
	key, value, ok := strings.Cut(strings.TrimPrefix(line, "- "), ": ")
	if !strings.HasPrefix(line, "- ") || !ok {
		return parseErrorf(p.lineNo(i), sec, "expected \"- Key: value\" metadata, got %q", line)
	}
	value = strings.TrimSpace(value)
	switch key {
	case "Status":
		p.phase.Status = PhaseStatus(value)
		if err := ValidateStatus(p.phase.Status); err != nil {
			return parseErrorf(p.lineNo(i), sec, "unknown status %q", value)
		}
	case "Created":
		p.phase.CreatedAt = value
	case "Closed":
		p.phase.ClosedAt = value
	case "Depends":
		for _, d := range strings.Split(value, ",") {
			dep := PhaseNumber(strings.TrimSpace(d))
			if _, err := ParseNumber(dep); err != nil {
				return parseErrorf(p.lineNo(i), sec, "invalid dependency %q", d)
			}
			p.phase.Dependencies = append(p.phase.Dependencies, dep)
		}
	case "Category":
		p.phase.Category = value
	default:
		return parseErrorf(p.lineNo(i), sec, "unknown metadata key %q", key)
	}
	return nil
}

func (p *bodyParser) taskLine(i int, sec, line string) error {
	m := taskLineRe.FindStringSubmatch(line)
	if m == nil {
		return parseErrorf(p.lineNo(i), sec, "malformed task line %q (want \"- [x] T001 description\")", line)
	}
	t := Task{ID: m[2], Description: m[3]}
	switch m[1] {
	case "x":
		t.Done = true
	case ">":
		t.Deferred = true
	}
	if fm := taskFromRe.FindStringSubmatch(t.Description); fm != nil {
		t.Description = fm[1]
		t.Provenance = fm[2]
	}
	p.phase.Tasks = append(p.phase.Tasks, t)
	return nil
}

func (p *bodyParser) backlogRow(i int, line string) error {
	if !strings.HasPrefix(line, "|") {
		return parseErrorf(p.lineNo(i), "backlog", "expected a table row, got %q", line)
	}
	p.sawRows++
	if p.sawRows <= 2 {
		// Header and separator rows carry no data.
		return nil
	}
	cells := splitRow(line)
	if len(cells) != len(backlogColumns) {
		return parseErrorf(p.lineNo(i), "backlog", "expected %d columns, got %d", len(backlogColumns), len(cells))
	}
	it := BacklogItem{
		ID:          cells[0],
		Status:      BacklogStatus(cells[1]),
		Description: cells[6],
	}
	if err := ValidateBacklogStatus(it.Status); err != nil {
		return parseErrorf(p.lineNo(i), "backlog", "unknown status %q", cells[1])
	}
	if cells[2] != "-" {
		it.Tag = cells[2]
	}
	if cells[3] != "-" {
		prov, task, _ := strings.Cut(cells[3], "/")
		it.Provenance = PhaseNumber(prov)
		it.SourceTask = task
	}
	if cells[4] != "-" {
		it.AssignedPhase = PhaseNumber(cells[4])
	}
	if cells[5] != "-" {
		score, err := strconv.ParseFloat(cells[5], 64)
		if err != nil {
			return parseErrorf(p.lineNo(i), "backlog", "invalid score %q", cells[5])
		}
		it.Confidence = score
	}
	p.doc.Backlog = append(p.doc.Backlog, it)
	return nil
}

// splitRow splits a `| a | b |` table row into trimmed cells, honoring
// backslash-escaped pipes inside cell content.
func splitRow(line string) []string {
	var cells []string
	var cur strings.Builder
	escaped := false
	for _, r := range line {
		switch {
		case escaped:
			if r != '|' {
				cur.WriteRune('\\')
			}
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '|':
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	cells = append(cells, strings.TrimSpace(cur.String()))
	// Leading and trailing pipes produce empty boundary cells.
	if len(cells) > 0 && cells[0] == "" {
		cells = cells[1:]
	}
	if len(cells) > 0 && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}
	return cells
}
