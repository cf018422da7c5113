package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/waypoint/internal/roadmap"
)

// TaskCmd returns the task command group.
func TaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks on a phase",
	}
	cmd.AddCommand(taskAddCmd())
	cmd.AddCommand(taskDoneCmd())
	return cmd
}

func taskAddCmd() *cobra.Command {
	var phase string

	cmd := &cobra.Command{
		Use:   "add <description>",
		Short: "Add a task (defaults to the active phase)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, settings, err := project()
			if err != nil {
				return err
			}
			store := roadmap.NewFileStore()

			var id string
			var target roadmap.PhaseNumber
			err = withLock(root, settings, func() error {
				doc, err := store.Load(root)
				if err != nil {
					return err
				}
				p, err := targetPhase(doc, phase)
				if err != nil {
					return err
				}
				id = roadmap.NextTaskID(p)
				p.Tasks = append(p.Tasks, roadmap.Task{ID: id, Description: args[0]})
				target = p.Number
				return store.Save(root, doc)
			})
			if err != nil {
				return err
			}
			good.Printf("Added %s to phase %s\n", id, target)
			return nil
		},
	}

	cmd.Flags().StringVar(&phase, "phase", "", "phase number (defaults to the active phase)")
	return cmd
}

func taskDoneCmd() *cobra.Command {
	var phase string

	cmd := &cobra.Command{
		Use:   "done <task-id>",
		Short: "Mark a task done (defaults to the active phase)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, settings, err := project()
			if err != nil {
				return err
			}
			store := roadmap.NewFileStore()

			err = withLock(root, settings, func() error {
				doc, err := store.Load(root)
				if err != nil {
					return err
				}
				p, err := targetPhase(doc, phase)
				if err != nil {
					return err
				}
				for i := range p.Tasks {
					if p.Tasks[i].ID == args[0] {
						p.Tasks[i].Done = true
						return store.Save(root, doc)
					}
				}
				return fmt.Errorf("%w: task %s in phase %s", roadmap.ErrNotFound, args[0], p.Number)
			})
			if err != nil {
				return err
			}
			good.Printf("Marked %s done\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&phase, "phase", "", "phase number (defaults to the active phase)")
	return cmd
}

// targetPhase resolves the phase a task command operates on: an explicit
// number, or the active phase when none is given. Completed phases are
// rejected — their tasks live in the archive.
func targetPhase(doc *roadmap.Document, arg string) (*roadmap.PhaseRecord, error) {
	if arg == "" {
		p := doc.Active()
		if p == nil {
			return nil, fmt.Errorf("%w: no active phase; pass --phase", roadmap.ErrInvalidState)
		}
		return p, nil
	}
	p := doc.Phase(roadmap.PhaseNumber(arg))
	if p == nil {
		return nil, fmt.Errorf("%w: phase %s", roadmap.ErrNotFound, arg)
	}
	if p.IsSummary() {
		return nil, fmt.Errorf("%w: phase %s is complete; its tasks are archived", roadmap.ErrInvalidState, arg)
	}
	return p, nil
}
