package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/waypoint/internal/config"
	"github.com/HendryAvila/waypoint/internal/roadmap"
)

// InitCmd returns the init command.
func InitCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a waypoint project in the current directory",
		Long: `Create the waypoint/ directory with an empty roadmap and settings.

The settings file (waypoint/waypoint.json) marks the project root:
every other command finds the project by walking up from the working
directory until it sees that file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting working directory: %w", err)
			}

			cfgStore := config.NewFileStore()
			if cfgStore.Exists(root) {
				return fmt.Errorf("project already initialized at %s", root)
			}

			if name == "" {
				name = filepath.Base(root)
			}
			if err := cfgStore.Save(root, config.NewSettings(name)); err != nil {
				return fmt.Errorf("writing settings: %w", err)
			}
			if err := roadmap.NewFileStore().Init(root, roadmap.NewDocument()); err != nil {
				return fmt.Errorf("writing roadmap: %w", err)
			}

			good.Printf("Initialized waypoint project %q\n", name)
			fmt.Printf("  %s\n", roadmap.DocumentPath(root))
			fmt.Printf("  %s\n", config.SettingsPath(root))
			fmt.Println()
			fmt.Println("Next: `wayctl phase add` to create your first phase.")
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "project name (defaults to the directory name)")
	return cmd
}
