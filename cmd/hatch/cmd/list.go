package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/barysiuk/hatch/internal/core"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List installed apps",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}

		st, err := d.store.Load()
		if err != nil {
			return err
		}

		slices.SortFunc(st.Bindings, func(a, b core.AppBinding) int {
			return strings.Compare(a.Name, b.Name)
		})

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			data, err := json.MarshalIndent(st.Bindings, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding installs: %w", err)
			}
			fmt.Fprintln(os.Stdout, string(data))
			return nil
		}

		if len(st.Bindings) == 0 {
			fmt.Fprintln(os.Stdout, "No apps installed.")
			return nil
		}
		for _, b := range st.Bindings {
			fmt.Fprintf(os.Stdout, "%-24s %s\n", core.AppURL(b.Name), b.URL)
			if perms := st.Permissions[core.AppURL(b.Name)]; perms.Len() > 0 {
				fmt.Fprintf(os.Stdout, "  permissions: %s\n", formatGrants(perms))
			}
		}
		return nil
	},
}

func init() {
	listCmd.Flags().Bool("json", false, "Print installs as JSON")
	rootCmd.AddCommand(listCmd)
}
