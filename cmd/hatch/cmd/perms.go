package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/barysiuk/hatch/internal/core"
)

var permsCmd = &cobra.Command{
	Use:   "perms",
	Short: "List the permissions apps can request",
	Long: `List every API an app may request in the "permissions" section of its
manifest. Requests for APIs not listed here are ignored.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, def := range core.BuiltinCapabilities().All() {
			fmt.Fprintf(os.Stdout, "%s (%s)\n", def.API, def.Label)
			for _, p := range def.Perms {
				fmt.Fprintf(os.Stdout, "  %-8s %s\n", p.ID, p.Description)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(permsCmd)
}
