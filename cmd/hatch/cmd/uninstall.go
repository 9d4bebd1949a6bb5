package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/barysiuk/hatch/internal/core"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <name>",
	Short: "Remove an installed app",
	Long:  `Remove the app://<name> binding and the permissions granted under it. The archive itself is left alone.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}

		name := strings.TrimSuffix(strings.TrimPrefix(args[0], "app://"), "/")
		if err := d.store.Uninstall(name); err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "Removed: %s\n", core.AppURL(name))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
}
