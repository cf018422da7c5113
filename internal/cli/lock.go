package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/waypoint/internal/lock"
)

// LockCmd returns the lock command group.
func LockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Inspect and clear the roadmap lock",
	}
	cmd.AddCommand(lockStatusCmd())
	cmd.AddCommand(lockClearCmd())
	return cmd
}

// holderAge parses the acquisition timestamp. A broken timestamp reads
// as infinitely old so a corrupt lock file is always clearable.
func holderAge(h *lock.Holder) time.Duration {
	acquired, err := time.Parse(time.RFC3339, h.AcquiredAt)
	if err != nil {
		return time.Duration(1<<62 - 1)
	}
	return time.Since(acquired)
}

func lockStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show who holds the roadmap lock",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, settings, err := project()
			if err != nil {
				return err
			}
			holder, err := lock.Inspect(root)
			if err != nil {
				return err
			}
			if holder == nil {
				good.Println("Lock is free.")
				return nil
			}

			age := holderAge(holder)
			fmt.Printf("Held by %s (pid %d), acquired %s ago\n", holder.Owner, holder.PID, age.Round(time.Second))
			if age > settings.LockStaleAfter() {
				warn.Printf("Older than the staleness threshold (%s) — likely a crashed holder.\n", settings.LockStaleAfter())
				faint.Println("Run `wayctl lock clear` to remove it.")
			}
			return nil
		},
	}
}

func lockClearCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove a stale roadmap lock",
		Long: `Remove the roadmap lock left behind by a crashed process.

Without --force, only a lock older than the staleness threshold is
removed; a fresh lock probably belongs to a live process.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, settings, err := project()
			if err != nil {
				return err
			}
			holder, err := lock.Inspect(root)
			if err != nil {
				return err
			}
			if holder == nil {
				fmt.Println("Lock is already free.")
				return nil
			}

			if age := holderAge(holder); !force && age <= settings.LockStaleAfter() {
				return fmt.Errorf("lock held by %s (pid %d) is only %s old; use --force to clear it anyway",
					holder.Owner, holder.PID, age.Round(time.Second))
			}
			if err := lock.ForceClear(root); err != nil {
				return err
			}
			good.Println("Lock cleared.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "clear even a fresh lock")
	return cmd
}
