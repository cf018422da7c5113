package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/waypoint/internal/roadmap"
)

// StatusCmd returns the status command.
func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the roadmap: phases, active work, and backlog tallies",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, settings, err := project()
			if err != nil {
				return err
			}

			doc, err := roadmap.NewFileStore().Load(root)
			if err != nil {
				return err
			}

			heading.Printf("%s\n", settings.Project)
			fmt.Println()

			if len(doc.Phases) == 0 {
				fmt.Println("No phases yet. Add one with `wayctl phase add`.")
			}
			for i := range doc.Phases {
				p := &doc.Phases[i]
				marker := " "
				if p.Status == roadmap.StatusActive {
					marker = good.Sprint("▶")
				}
				done, total := taskCounts(p)
				line := fmt.Sprintf("%s %s  [%s]", marker, phaseLabel(p), p.Status)
				if total > 0 {
					line += fmt.Sprintf("  %d/%d tasks", done, total)
				}
				fmt.Println(line)
			}

			fmt.Println()
			open, assigned, skipped := backlogTallies(doc)
			fmt.Printf("Backlog: %d open, %d assigned, %d skipped\n", open, assigned, skipped)
			if open > 0 {
				faint.Println("Run `wayctl triage` to work through open items.")
			}
			return nil
		},
	}
}

func taskCounts(p *roadmap.PhaseRecord) (done, total int) {
	for _, t := range p.Tasks {
		total++
		if t.Done {
			done++
		}
	}
	return done, total
}

func backlogTallies(doc *roadmap.Document) (open, assigned, skipped int) {
	for i := range doc.Backlog {
		switch doc.Backlog[i].Status {
		case roadmap.BacklogOpen:
			open++
		case roadmap.BacklogAssigned:
			assigned++
		case roadmap.BacklogSkipped:
			skipped++
		}
	}
	return open, assigned, skipped
}
