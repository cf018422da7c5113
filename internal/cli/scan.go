package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/waypoint/internal/archive"
	"github.com/HendryAvila/waypoint/internal/roadmap"
	"github.com/HendryAvila/waypoint/internal/triage"
)

// ScanCmd returns the scan command.
func ScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Sweep archived phases for unfinished tasks missing from the backlog",
		Long: `Walk every archived phase snapshot and file a backlog item for each
unfinished task that never made it into the backlog. Items already
filed are recognized by their origin, so running the scan repeatedly
adds nothing new.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, settings, err := project()
			if err != nil {
				return err
			}
			store := roadmap.NewFileStore()

			var result *triage.ScanResult
			err = withLock(root, settings, func() error {
				arch, err := archive.Open(root)
				if err != nil {
					return err
				}
				defer arch.Close()

				doc, err := store.Load(root)
				if err != nil {
					return err
				}
				result, err = triage.ScanOrphans(doc, arch)
				if err != nil {
					return err
				}
				if len(result.NewItems) == 0 {
					return nil
				}
				return store.Save(root, doc)
			})
			if err != nil {
				return err
			}

			fmt.Printf("Scanned %d archived phase(s)\n", result.ScannedEntries)
			if len(result.NewItems) == 0 {
				good.Println("No orphaned tasks found.")
				return nil
			}
			warn.Printf("Filed %d backlog item(s):\n", len(result.NewItems))
			for _, it := range result.NewItems {
				fmt.Printf("  %s  %s\n", it.ID, it.Description)
			}
			faint.Println("Run `wayctl triage` to place them.")
			return nil
		},
	}
}
