package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/waypoint/internal/roadmap"
	"github.com/HendryAvila/waypoint/internal/triage"
)

// terminalOracle answers triage prompts by asking the user at the
// terminal. One short exchange per backlog item.
type terminalOracle struct {
	in  *bufio.Scanner
	out io.Writer
}

func newTerminalOracle(cmd *cobra.Command) *terminalOracle {
	return &terminalOracle{
		in:  bufio.NewScanner(cmd.InOrStdin()),
		out: cmd.OutOrStdout(),
	}
}

// keyForAction maps each action to its single-letter answer.
var keyForAction = map[triage.Action]string{
	triage.ActionAssign:      "a",
	triage.ActionAssignOther: "o",
	triage.ActionNewPhase:    "n",
	triage.ActionSkip:        "s",
	triage.ActionLeaveOpen:   "l",
}

var labelForAction = map[triage.Action]string{
	triage.ActionAssign:      "assign to best match",
	triage.ActionAssignOther: "assign to another phase",
	triage.ActionNewPhase:    "create a new phase for it",
	triage.ActionSkip:        "skip (won't do)",
	triage.ActionLeaveOpen:   "leave open",
}

// Ask presents one backlog item and reads a decision. An empty answer
// takes the recommended action; EOF leaves the item open so an aborted
// session never half-decides.
func (o *terminalOracle) Ask(p triage.Prompt) (triage.Decision, error) {
	fmt.Fprintln(o.out)
	heading.Fprintf(o.out, "%s  %s\n", p.Item.ID, p.Item.Description)
	if p.Item.Tag != "" {
		fmt.Fprintf(o.out, "  tag: %s\n", p.Item.Tag)
	}
	if p.Item.Provenance != "" {
		faint.Fprintf(o.out, "  orphaned from %s/%s\n", p.Item.Provenance, p.Item.SourceTask)
	}
	if p.Best != nil {
		fmt.Fprintf(o.out, "  best match: %s %s  %s\n", p.Best.Phase, p.Best.Name, bandLabel(p.Best))
		if p.RunnerUp != nil {
			faint.Fprintf(o.out, "  runner-up:  %s %s  %.2f\n", p.RunnerUp.Phase, p.RunnerUp.Name, p.RunnerUp.Score)
		}
	} else {
		warn.Fprintln(o.out, "  no candidate phases")
	}

	for _, a := range p.Options {
		marker := " "
		if a == p.Recommended {
			marker = "*"
		}
		fmt.Fprintf(o.out, "  %s [%s] %s\n", marker, keyForAction[a], labelForAction[a])
	}

	for {
		fmt.Fprintf(o.out, "> ")
		answer, ok := o.readLine()
		if !ok {
			return triage.Decision{Action: triage.ActionLeaveOpen}, nil
		}
		if answer == "" {
			answer = keyForAction[p.Recommended]
		}

		action, ok := actionForKey(p.Options, answer)
		if !ok {
			warn.Fprintf(o.out, "unrecognized answer %q\n", answer)
			continue
		}
		switch action {
		case triage.ActionAssignOther:
			return o.askOtherPhase()
		case triage.ActionNewPhase:
			return o.askNewPhase(p.Item)
		default:
			return triage.Decision{Action: action}, nil
		}
	}
}

func (o *terminalOracle) askOtherPhase() (triage.Decision, error) {
	fmt.Fprintf(o.out, "phase number> ")
	answer, ok := o.readLine()
	if !ok || answer == "" {
		return triage.Decision{Action: triage.ActionLeaveOpen}, nil
	}
	return triage.Decision{
		Action: triage.ActionAssignOther,
		Phase:  roadmap.PhaseNumber(answer),
	}, nil
}

func (o *terminalOracle) askNewPhase(item roadmap.BacklogItem) (triage.Decision, error) {
	fmt.Fprintf(o.out, "new phase name> ")
	name, ok := o.readLine()
	if !ok || name == "" {
		return triage.Decision{Action: triage.ActionLeaveOpen}, nil
	}
	fmt.Fprintf(o.out, "goal (optional)> ")
	goal, _ := o.readLine()
	fmt.Fprintf(o.out, "insert after phase (empty = end)> ")
	after, _ := o.readLine()
	return triage.Decision{
		Action:       triage.ActionNewPhase,
		NewPhaseName: name,
		NewPhaseGoal: goal,
		After:        roadmap.PhaseNumber(after),
	}, nil
}

func (o *terminalOracle) readLine() (string, bool) {
	if !o.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(o.in.Text()), true
}

func actionForKey(options []triage.Action, key string) (triage.Action, bool) {
	for _, a := range options {
		if keyForAction[a] == key || string(a) == key {
			return a, true
		}
	}
	return "", false
}

func bandLabel(c *triage.Candidate) string {
	s := fmt.Sprintf("%.2f %s", c.Score, c.Band)
	switch c.Band {
	case triage.BandHigh:
		return good.Sprint(s)
	case triage.BandMedium:
		return warn.Sprint(s)
	default:
		return faint.Sprint(s)
	}
}
