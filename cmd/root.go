package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	cfgFile string
	verbose bool
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "repodump",
	Short: "Bulk-download every repository of a GitHub or GitLab account",
	Long: `repodump clones all repositories of a user, organisation or group into
a local directory tree (<base>/<platform>/<owner>/<name>), with bounded
parallelism and per-repository failure reporting.

Get started:
  repodump init                      Interactive setup wizard
  repodump download github torvalds  Download one account's repositories
  repodump download                  Download every configured target
  repodump history                   Inspect past runs
  repodump limits                    Show API rate-limit status`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ~/.repodump/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable verbose/debug output")

	rootCmd.Version = Version
	rootCmd.AddCommand(
		initCmd,
		downloadCmd,
		configCmd,
		historyCmd,
		limitsCmd,
		watchCmd,
	)
}

func initLogging() {
	if verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
		slog.Debug("Verbose logging enabled")
	}
}
