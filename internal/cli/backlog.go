package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/waypoint/internal/roadmap"
)

// BacklogCmd returns the backlog command group.
func BacklogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backlog",
		Short: "Manage the backlog",
	}
	cmd.AddCommand(backlogAddCmd())
	cmd.AddCommand(backlogListCmd())
	return cmd
}

func backlogAddCmd() *cobra.Command {
	var tag string

	cmd := &cobra.Command{
		Use:   "add <description>",
		Short: "Capture a new backlog item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, settings, err := project()
			if err != nil {
				return err
			}
			store := roadmap.NewFileStore()

			var id string
			err = withLock(root, settings, func() error {
				doc, err := store.Load(root)
				if err != nil {
					return err
				}
				item := doc.AppendBacklog(roadmap.BacklogItem{
					Description: args[0],
					Tag:         tag,
				})
				id = item.ID
				return store.Save(root, doc)
			})
			if err != nil {
				return err
			}
			good.Printf("Added %s to the backlog\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&tag, "tag", "", "category tag used by triage matching")
	return cmd
}

func backlogListCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List backlog items (open only, unless --all)",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _, err := project()
			if err != nil {
				return err
			}
			doc, err := roadmap.NewFileStore().Load(root)
			if err != nil {
				return err
			}

			shown := 0
			for i := range doc.Backlog {
				it := &doc.Backlog[i]
				if !all && it.Status != roadmap.BacklogOpen {
					continue
				}
				shown++
				line := fmt.Sprintf("%s  [%s]", it.ID, it.Status)
				if it.Tag != "" {
					line += fmt.Sprintf("  (%s)", it.Tag)
				}
				if it.Provenance != "" {
					line += faint.Sprintf("  from %s/%s", it.Provenance, it.SourceTask)
				}
				if it.AssignedPhase != "" {
					line += fmt.Sprintf("  → %s (%.2f)", it.AssignedPhase, it.Confidence)
				}
				fmt.Println(line)
				fmt.Printf("    %s\n", it.Description)
			}
			if shown == 0 {
				fmt.Println("Backlog is empty.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include assigned and skipped items")
	return cmd
}
