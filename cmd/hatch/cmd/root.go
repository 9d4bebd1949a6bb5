package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/barysiuk/hatch/internal/logging"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// settings resolves global options from flags and HATCH_* environment
// variables, flags taking precedence.
var settings = newSettings()

func newSettings() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("HATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault("home", "")
	v.SetDefault("log-level", "")
	return v
}

var rootCmd = &cobra.Command{
	Use:   "hatch",
	Short: "Install peer-to-peer apps under short app:// names",
	Long: `Hatch installs peer-to-peer web apps from dat://, http(s):// and local
archives. Each install binds a short app://name to the archive and records
which permissions the app was granted.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogging()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("hatch %s (commit: %s, built: %s)\n", Version, Commit, Date)
	},
}

func init() {
	rootCmd.PersistentFlags().String("home", "", "Hatch data directory (default: ~/.hatch, env HATCH_HOME)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (env HATCH_LOG_LEVEL)")
	_ = settings.BindPFlag("home", rootCmd.PersistentFlags().Lookup("home"))
	_ = settings.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(versionCmd)
}

// initLogging writes logs to <home>/hatch.log so they never mix with the
// dialog or command output. Logging stays off unless a level is set.
func initLogging() error {
	level := settings.GetString("log-level")
	if level == "" {
		return logging.Initialize("", "")
	}
	config, err := newConfigManager()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", config.ConfigDir(), err)
	}
	return logging.Initialize(level, config.LogPath())
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
