package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/waypoint/internal/roadmap"
	"github.com/HendryAvila/waypoint/internal/triage"
)

// TriageCmd returns the triage command.
func TriageCmd() *cobra.Command {
	var auto, dryRun bool

	cmd := &cobra.Command{
		Use:   "triage",
		Short: "Work through open backlog items",
		Long: `Match open backlog items against draft and active phases by keyword,
goal, and category overlap.

Default (interactive): every item is presented with its best match and
you decide — assign, assign elsewhere, spin up a new phase, skip, or
leave it open.

--auto: assign only high-confidence matches (score >= 0.70), leave the
rest open for a later interactive pass.

--dry-run: report what auto mode would do without changing anything.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if auto && dryRun {
				return fmt.Errorf("--auto and --dry-run are mutually exclusive")
			}

			root, settings, err := project()
			if err != nil {
				return err
			}
			store := roadmap.NewFileStore()

			// Dry-run never mutates, so it skips the lock like other reads.
			if dryRun {
				doc, err := store.Load(root)
				if err != nil {
					return err
				}
				report, err := triage.Run(doc, triage.ModeDryRun, nil)
				if err != nil {
					return err
				}
				printReport(report)
				return nil
			}

			mode := triage.ModeInteractive
			var oracle triage.Oracle = newTerminalOracle(cmd)
			if auto {
				mode = triage.ModeAuto
				oracle = triage.LeaveOpenOracle{}
			}

			var report *triage.Report
			err = withLock(root, settings, func() error {
				doc, err := store.Load(root)
				if err != nil {
					return err
				}
				report, err = triage.Run(doc, mode, oracle)
				if err != nil {
					return err
				}
				if err := rekeyArchive(root, doc, report.RenamedPhases); err != nil {
					return err
				}
				return store.Save(root, doc)
			})
			if err != nil {
				return err
			}
			printReport(report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&auto, "auto", false, "assign high-confidence matches without prompting")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report recommendations without changing anything")
	return cmd
}

func printReport(r *triage.Report) {
	if len(r.Outcomes) == 0 {
		fmt.Println("No open backlog items.")
		return
	}

	fmt.Println()
	heading.Printf("Triage (%s)\n", r.Mode)
	for _, o := range r.Outcomes {
		line := fmt.Sprintf("  %s  %-11s", o.ItemID, o.Action)
		if o.Phase != "" {
			line += fmt.Sprintf("  → %s", o.Phase)
		}
		if o.Band != triage.BandNone {
			line += faint.Sprintf("  (%.2f %s)", o.Score, o.Band)
		}
		fmt.Println(line)
	}
	fmt.Println()
	fmt.Printf("%d assigned, %d left open, %d skipped\n", r.Assigned, r.LeftOpen, r.Skipped)
	if len(r.CreatedPhases) > 0 {
		fmt.Printf("Created phases: %s\n", joinNumbers(r.CreatedPhases))
	}
	if len(r.RenamedPhases) > 0 {
		warn.Println("Renumbered to open a gap:")
		for from, to := range r.RenamedPhases {
			fmt.Printf("  %s → %s\n", from, to)
		}
	}
	if r.Mode == triage.ModeDryRun {
		faint.Println("Dry run — nothing was changed.")
	} else if r.LeftOpen > 0 {
		faint.Println("Run `wayctl triage` (interactive) to place the remaining items.")
	}
}
