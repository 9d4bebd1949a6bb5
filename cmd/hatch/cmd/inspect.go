package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/barysiuk/hatch/internal/core"
	"github.com/barysiuk/hatch/internal/tui"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <address>",
	Short: "Show what installing an app would ask for",
	Long: `Read the app archive at <address> and show its manifest details, where it
is installed and which permissions it requests. Nothing is changed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}

		addr, err := core.ParseAddress(args[0])
		if err != nil {
			return err
		}

		host := core.NewLocalHost(d.store, d.archives, addr.URL, nil)
		target, err := core.Resolve(commandContext(cmd), host, addr.URL)
		if err != nil {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		render, _ := cmd.Flags().GetBool("render")
		switch {
		case asJSON:
			data, err := json.MarshalIndent(target, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding app info: %w", err)
			}
			fmt.Fprintln(os.Stdout, string(data))
		case render:
			width, _ := cmd.Flags().GetInt("width")
			fmt.Fprint(os.Stdout, tui.RenderMarkdown(tui.InspectMarkdown(target), width))
		default:
			printTarget(target)
		}
		return nil
	},
}

func printTarget(t core.TargetAppInfo) {
	fmt.Fprintf(os.Stdout, "Address:     %s\n", t.URL)
	fmt.Fprintf(os.Stdout, "Title:       %s\n", orDash(t.Title))
	fmt.Fprintf(os.Stdout, "Description: %s\n", orDash(t.Description))
	fmt.Fprintf(os.Stdout, "Author:      %s\n", orDash(t.Author))
	if t.Name != "" {
		fmt.Fprintf(os.Stdout, "Default:     %s\n", core.AppURL(t.Name))
	} else {
		fmt.Fprintln(os.Stdout, "Default:     -")
	}
	if t.IsInstalled {
		names := make([]string, len(t.Info.InstalledNames))
		for i, n := range t.Info.InstalledNames {
			names[i] = core.AppURL(n)
		}
		fmt.Fprintf(os.Stdout, "Installed:   %s\n", strings.Join(names, ", "))
	} else {
		fmt.Fprintln(os.Stdout, "Installed:   no")
	}

	if t.RequestedPermissions == nil {
		return
	}
	fmt.Fprintln(os.Stdout, "\nRequested permissions:")
	reg := core.BuiltinCapabilities()
	for _, api := range t.RequestedPermissions.APIs() {
		def, ok := reg.Lookup(api)
		if !ok {
			continue
		}
		for _, perm := range t.RequestedPermissions.Get(api) {
			mark := " "
			if t.AssignedPermissions.Contains(api, perm) {
				mark = "x"
			}
			fmt.Fprintf(os.Stdout, "  [%s] %s:%s  %s\n", mark, api, perm, def.Describe(perm))
		}
	}
}

func init() {
	inspectCmd.Flags().Bool("json", false, "Print the resolved app info as JSON")
	inspectCmd.Flags().Bool("render", false, "Render a formatted report")
	inspectCmd.Flags().Int("width", 80, "Wrap width for --render")
	inspectCmd.MarkFlagsMutuallyExclusive("json", "render")
	rootCmd.AddCommand(inspectCmd)
}
