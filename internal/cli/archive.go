package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/waypoint/internal/archive"
	"github.com/HendryAvila/waypoint/internal/roadmap"
)

// ArchiveCmd returns the archive command group.
func ArchiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Inspect and manage archived phase snapshots",
	}
	cmd.AddCommand(archiveListCmd())
	cmd.AddCommand(archiveShowCmd())
	cmd.AddCommand(archiveReviewCmd())
	cmd.AddCommand(archiveDeleteCmd())
	return cmd
}

func archiveListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List archived phases",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _, err := project()
			if err != nil {
				return err
			}
			arch, err := archive.Open(root)
			if err != nil {
				return err
			}
			defer arch.Close()

			entries, err := arch.List()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("Archive is empty.")
				return nil
			}
			for _, e := range entries {
				mark := faint.Sprint("unreviewed")
				if e.Reviewed {
					mark = good.Sprint("reviewed")
				}
				fmt.Printf("%s  %-30s  closed %s  %s\n", e.PhaseNumber, e.PhaseName, e.ClosedAt, mark)
			}
			return nil
		},
	}
}

func archiveShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <number>",
		Short: "Show one archived phase snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _, err := project()
			if err != nil {
				return err
			}
			arch, err := archive.Open(root)
			if err != nil {
				return err
			}
			defer arch.Close()

			entry, err := arch.Get(roadmap.PhaseNumber(args[0]))
			if err != nil {
				return err
			}
			printPhase(&entry.Snapshot)
			faint.Printf("closed %s, archived %s\n", entry.ClosedAt, entry.CreatedAt)
			return nil
		},
	}
}

func archiveReviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "review <number>",
		Short: "Mark an archived phase as reviewed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, settings, err := project()
			if err != nil {
				return err
			}
			err = withLock(root, settings, func() error {
				arch, err := archive.Open(root)
				if err != nil {
					return err
				}
				defer arch.Close()
				return arch.MarkReviewed(roadmap.PhaseNumber(args[0]))
			})
			if err != nil {
				return err
			}
			good.Printf("Marked %s reviewed\n", args[0])
			return nil
		},
	}
}

func archiveDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <number>",
		Short: "Delete an archived phase snapshot (permanent)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("deleting an archive entry is permanent; rerun with --yes to confirm")
			}
			root, settings, err := project()
			if err != nil {
				return err
			}
			err = withLock(root, settings, func() error {
				arch, err := archive.Open(root)
				if err != nil {
					return err
				}
				defer arch.Close()
				return arch.Delete(roadmap.PhaseNumber(args[0]))
			})
			if err != nil {
				return err
			}
			warn.Printf("Deleted archive entry %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the deletion")
	return cmd
}
