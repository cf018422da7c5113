package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/waypoint/internal/archive"
	"github.com/HendryAvila/waypoint/internal/lifecycle"
	"github.com/HendryAvila/waypoint/internal/roadmap"
	"github.com/HendryAvila/waypoint/internal/triage"
)

// PhaseCmd returns the phase command group.
func PhaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phase",
		Short: "Manage roadmap phases",
	}
	cmd.AddCommand(phaseAddCmd())
	cmd.AddCommand(phaseStartCmd())
	cmd.AddCommand(phaseCloseCmd())
	cmd.AddCommand(phaseInsertCmd())
	cmd.AddCommand(phaseShowCmd())
	return cmd
}

func phaseAddCmd() *cobra.Command {
	var goal, category string
	var scope, depends []string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Append a draft phase to the roadmap",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, settings, err := project()
			if err != nil {
				return err
			}
			store := roadmap.NewFileStore()

			var created roadmap.PhaseNumber
			err = withLock(root, settings, func() error {
				doc, err := store.Load(root)
				if err != nil {
					return err
				}
				deps := make([]roadmap.PhaseNumber, 0, len(depends))
				for _, d := range depends {
					deps = append(deps, roadmap.PhaseNumber(strings.TrimSpace(d)))
				}
				record, _, err := triage.InsertPhase(doc, "", args[0], goal, category, scope)
				if err != nil {
					return err
				}
				if len(deps) > 0 {
					roadmap.SortDependencies(deps)
					doc.Phase(record.Number).Dependencies = deps
				}
				created = record.Number
				return store.Save(root, doc)
			})
			if err != nil {
				return err
			}
			good.Printf("Added phase %s: %s (draft)\n", created, args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&goal, "goal", "", "one-line goal")
	cmd.Flags().StringVar(&category, "category", "", "category tag used by triage matching")
	cmd.Flags().StringArrayVar(&scope, "scope", nil, "scope bullet (repeatable)")
	cmd.Flags().StringSliceVar(&depends, "depends", nil, "phase numbers this phase depends on")
	return cmd
}

func phaseStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <number>",
		Short: "Activate a draft phase",
		Long: `Activate a draft phase. Fails if another phase is already active
or if any dependency is not complete.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, settings, err := project()
			if err != nil {
				return err
			}
			store := roadmap.NewFileStore()
			n := roadmap.PhaseNumber(args[0])

			err = withLock(root, settings, func() error {
				doc, err := store.Load(root)
				if err != nil {
					return err
				}
				if err := lifecycle.Start(doc, n); err != nil {
					return err
				}
				return store.Save(root, doc)
			})
			if err != nil {
				return err
			}
			good.Printf("Phase %s is now active\n", n)
			return nil
		},
	}
}

func phaseCloseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "close",
		Short: "Close the active phase",
		Long: `Close the active phase. Unfinished tasks become backlog items tagged
with their origin, the full phase is snapshotted to the archive, and the
roadmap keeps only a summary line. If any step fails, nothing changes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, settings, err := project()
			if err != nil {
				return err
			}
			store := roadmap.NewFileStore()

			var result *lifecycle.CloseResult
			err = withLock(root, settings, func() error {
				arch, err := archive.Open(root)
				if err != nil {
					return err
				}
				defer arch.Close()
				result, err = lifecycle.CloseActive(root, store, arch)
				return err
			})
			if err != nil {
				return err
			}

			good.Printf("Closed phase %s: %s\n", result.PhaseNumber, result.PhaseName)
			if len(result.NewItems) == 0 {
				fmt.Println("All tasks done — nothing moved to the backlog.")
				return nil
			}
			warn.Printf("%d unfinished task(s) moved to the backlog:\n", len(result.NewItems))
			for _, it := range result.NewItems {
				fmt.Printf("  %s  %s\n", it.ID, it.Description)
			}
			faint.Println("Run `wayctl triage` to place them.")
			return nil
		},
	}
}

func phaseInsertCmd() *cobra.Command {
	var goal, category string

	cmd := &cobra.Command{
		Use:   "insert <after> <name>",
		Short: "Insert a draft phase after an existing one",
		Long: `Insert a new draft phase immediately after the given phase. The
engine picks the smallest free number between the neighbors; if the gap
is exhausted, later phases are renumbered and every cross-reference
(dependencies, assignments, archive keys) is rewritten to match.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, settings, err := project()
			if err != nil {
				return err
			}
			store := roadmap.NewFileStore()
			after := roadmap.PhaseNumber(args[0])

			var created roadmap.PhaseNumber
			var renamed map[roadmap.PhaseNumber]roadmap.PhaseNumber
			err = withLock(root, settings, func() error {
				doc, err := store.Load(root)
				if err != nil {
					return err
				}
				record, moves, err := triage.InsertPhase(doc, after, args[1], goal, category, nil)
				if err != nil {
					return err
				}
				if err := rekeyArchive(root, doc, moves); err != nil {
					return err
				}
				created = record.Number
				renamed = moves
				return store.Save(root, doc)
			})
			if err != nil {
				return err
			}

			good.Printf("Inserted phase %s: %s (after %s)\n", created, args[1], after)
			if len(renamed) > 0 {
				warn.Println("Renumbered to open a gap:")
				for from, to := range renamed {
					fmt.Printf("  %s → %s\n", from, to)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&goal, "goal", "", "one-line goal")
	cmd.Flags().StringVar(&category, "category", "", "category tag used by triage matching")
	return cmd
}

func phaseShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <number>",
		Short: "Show one phase in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _, err := project()
			if err != nil {
				return err
			}
			doc, err := roadmap.NewFileStore().Load(root)
			if err != nil {
				return err
			}
			n := roadmap.PhaseNumber(args[0])
			p := doc.Phase(n)
			if p == nil {
				return fmt.Errorf("%w: phase %s", roadmap.ErrNotFound, n)
			}

			// Completed phases keep only a summary in the roadmap; the
			// detail lives in the archive.
			if p.IsSummary() {
				arch, err := archive.Open(root)
				if err != nil {
					return err
				}
				defer arch.Close()
				entry, err := arch.Get(n)
				if err != nil {
					return err
				}
				printPhase(&entry.Snapshot)
				faint.Printf("(archived snapshot, closed %s)\n", entry.ClosedAt)
				return nil
			}
			printPhase(p)
			return nil
		},
	}
}

func printPhase(p *roadmap.PhaseRecord) {
	heading.Printf("Phase %s: %s\n", p.Number, p.Name)
	fmt.Printf("Status: %s\n", p.Status)
	if p.Goal != "" {
		fmt.Printf("Goal: %s\n", p.Goal)
	}
	if p.Category != "" {
		fmt.Printf("Category: %s\n", p.Category)
	}
	if len(p.Dependencies) > 0 {
		fmt.Printf("Depends: %s\n", joinNumbers(p.Dependencies))
	}
	if len(p.Scope) > 0 {
		fmt.Println("Scope:")
		for _, s := range p.Scope {
			fmt.Printf("  - %s\n", s)
		}
	}
	if len(p.Tasks) > 0 {
		fmt.Println("Tasks:")
		for _, t := range p.Tasks {
			mark := " "
			switch {
			case t.Done:
				mark = good.Sprint("x")
			case t.Deferred:
				mark = warn.Sprint(">")
			}
			fmt.Printf("  [%s] %s %s\n", mark, t.ID, t.Description)
		}
	}
}

func joinNumbers(nums []roadmap.PhaseNumber) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = string(n)
	}
	return strings.Join(parts, ", ")
}

// rekeyArchive applies a renumbering to the archive so entries for
// complete phases stay keyed by their new numbers.
func rekeyArchive(root string, doc *roadmap.Document, moves map[roadmap.PhaseNumber]roadmap.PhaseNumber) error {
	if len(moves) == 0 {
		return nil
	}
	arch, err := archive.Open(root)
	if err != nil {
		return err
	}
	defer arch.Close()

	for from, to := range moves {
		p := doc.Phase(to)
		if p == nil || p.Status != roadmap.StatusComplete {
			continue
		}
		if err := arch.Rename(from, to); err != nil {
			return fmt.Errorf("rekeying archive entry %s: %w", from, err)
		}
	}
	return nil
}
