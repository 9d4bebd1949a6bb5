package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/barysiuk/hatch/internal/core"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change settings",
	Long: `Show the settings stored in config.json under the hatch home.

Keys:
  archivesDir    Absolute directory holding dat:// archives (default <home>/archives)
  httpRetryMax   Retries for http(s) archive reads`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}
		for _, key := range core.SettingKeys {
			value, err := core.Setting(d.settings, key)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "%-14s %s\n", key, orDash(value))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Change a setting; omit the value to restore the default",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}

		var value string
		if len(args) == 2 {
			value = args[1]
		}
		if err := core.SetSetting(d.settings, args[0], value); err != nil {
			return err
		}
		if err := d.config.Save(d.settings); err != nil {
			return err
		}

		value, _ = core.Setting(d.settings, args[0])
		fmt.Fprintf(os.Stdout, "%s = %s\n", args[0], orDash(value))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
