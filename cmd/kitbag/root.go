// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"kitbag/internal/config"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables debug logging.
	verbose bool
	// cfgFile allows specifying a custom config file.
	cfgFile string

	// cfg is the loaded configuration, available to all subcommands
	// after initRootConfig runs.
	cfg = config.DefaultConfig()

	// rootCmd represents the base command when called without any subcommands.
	rootCmd = &cobra.Command{
		Use:   "kitbag",
		Short: "A grab-bag of small file utilities",
		Long: TitleStyle.Render("kitbag") + SubtitleStyle.Render(" - a grab-bag of small file utilities") + `

Each subcommand is an independent tool with its own flags:

` + SubtitleStyle.Render("Examples:") + `
  kitbag watch main.go -- go test ./...   Re-run tests when main.go changes
  kitbag json config.json                 Pretty-print a JSON file
  kitbag s3 put my-bucket '*.html'        Upload changed files to S3
  kitbag replace 'foo(\d+)' 'bar$1' *.go  Regex search and replace
  kitbag snippet README.md setup          Extract a marked snippet
  kitbag rename music *.mp3               Normalize music filenames
  kitbag rename case snake *.TXT          Convert filename case`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/kitbag/config.yaml)")

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(jsonCmd)
	rootCmd.AddCommand(s3Cmd)
	rootCmd.AddCommand(replaceCmd)
	rootCmd.AddCommand(snippetCmd)
	rootCmd.AddCommand(renameCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the root command through fang for styled help/errors.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// initRootConfig loads the config file and applies global flags.
func initRootConfig() {
	if cfgFile != "" {
		config.SetConfigFilePathOverride(cfgFile)
	}

	if verbose {
		log.SetLevel(log.DebugLevel)
	}

	loaded, err := config.Load()
	if err != nil {
		// Config problems warn and fall back to defaults; only the
		// subcommands that need specific values hard-fail later.
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+err.Error())
		return
	}
	cfg = loaded
}
