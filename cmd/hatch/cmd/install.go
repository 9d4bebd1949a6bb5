package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/barysiuk/hatch/internal/core"
	"github.com/barysiuk/hatch/internal/tui"
)

var installCmd = &cobra.Command{
	Use:   "install <address>",
	Short: "Install or reconfigure an app",
	Long: `Open the install dialog for the app archive at <address>: review what the
app is, choose which requested permissions to grant and pick the app:// name
it is installed under. Installing an app that is already installed
reconfigures it.

With --yes the dialog runs unattended: every requested permission is granted
except those passed with --deny, and the app is installed under --name or
the name its manifest suggests.

On success the install result is printed as JSON.`,
	Example: `  hatch install dat://<key>
  hatch install ./my-app --yes --name my-app --deny network:write`,
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
		if addr.Type == core.AddressApp {
			return fmt.Errorf("%w: install takes an archive address, not an app:// name", core.ErrInvalidAddress)
		}

		yes, _ := cmd.Flags().GetBool("yes")
		name, _ := cmd.Flags().GetString("name")
		deny, _ := cmd.Flags().GetStringSlice("deny")
		if !yes && (name != "" || len(deny) > 0) {
			return errors.New("--name and --deny require --yes")
		}

		// Results are buffered while the dialog owns the terminal.
		var out bytes.Buffer
		host := core.NewLocalHost(d.store, d.archives, addr.URL, &out)
		ctx := commandContext(cmd)

		var (
			outcome core.Outcome
			runErr  error
		)
		if yes {
			var w *core.Wizard
			w, runErr = core.RunUnattended(ctx, host, addr.URL, core.UnattendedOptions{Name: name, Deny: deny})
			outcome = w.Outcome()
			if r := w.Replaced(); r != nil && outcome == core.OutcomeInstalled {
				fmt.Fprintf(os.Stderr, "Replaced %s (%s)\n", core.AppURL(w.ResolvedName()), r.URL)
			}
		} else {
			outcome, runErr = runDialog(ctx, host, addr.URL)
		}

		_, _ = os.Stdout.Write(out.Bytes())

		switch {
		case runErr != nil:
			return runErr
		case outcome == core.OutcomeCancelled:
			fmt.Fprintln(os.Stderr, "Cancelled.")
		}
		return nil
	},
}

// runDialog runs the interactive install dialog until it closes.
func runDialog(ctx context.Context, host core.Host, url string) (core.Outcome, error) {
	p := tea.NewProgram(
		tui.NewApp(ctx, host, url),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	final, err := p.Run()
	if err != nil {
		return core.OutcomeNone, fmt.Errorf("running install dialog: %w", err)
	}
	app, ok := final.(tui.App)
	if !ok {
		return core.OutcomeNone, errors.New("install dialog exited unexpectedly")
	}
	return app.Outcome(), app.Err()
}

func init() {
	installCmd.Flags().BoolP("yes", "y", false, "Install without the interactive dialog")
	installCmd.Flags().StringP("name", "n", "", "Install under app://<name> (with --yes)")
	installCmd.Flags().StringSlice("deny", nil, "Withhold a requested permission, as api:perm (with --yes, repeatable)")
	rootCmd.AddCommand(installCmd)
}
