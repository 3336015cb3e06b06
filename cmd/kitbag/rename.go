// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kitbag/internal/rename"
)

var (
	renameDryRun bool

	renameCmd = &cobra.Command{
		Use:   "rename",
		Short: "Filename transformations",
	}

	renameMusicCmd = &cobra.Command{
		Use:   "music <files...>",
		Short: "Normalize music filenames",
		Long: `Normalizes music filenames: separators become spaces, a leading
track number is zero-padded to two digits, the title is title-cased
and the extension is lower-cased.

    01_some.track_name.mp3  ->  01 - Some Track Name.mp3

Renaming a file to its own computed name is a no-op. Collisions with
existing files abort before anything is renamed.`,
		Example: `  kitbag rename music *.mp3
  kitbag rename music --dry-run album/*.flac`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runRename(args, rename.MusicNamer{})
		},
	}

	renameCaseCmd = &cobra.Command{
		Use:   "case <style> <files...>",
		Short: "Convert filename case",
		Long: `Converts filename stems to a case style; extensions are kept but
lower-cased. Styles: lower, upper, snake, kebab, title.`,
		Example: `  kitbag rename case snake 'My Report.PDF'
  kitbag rename case lower --dry-run *.TXT`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			namer, err := rename.NewCaseNamer(args[0])
			if err != nil {
				return err
			}
			return runRename(args[1:], namer)
		},
	}
)

func init() {
	renameCmd.PersistentFlags().BoolVarP(&renameDryRun, "dry-run", "n", false, "show renames without applying them")

	renameCmd.AddCommand(renameMusicCmd)
	renameCmd.AddCommand(renameCaseCmd)
}

func runRename(paths []string, namer rename.Namer) error {
	plan, err := rename.NewPlan(paths, namer)
	if err != nil {
		return err
	}

	if len(plan.Changes) == 0 {
		fmt.Fprintf(os.Stdout, "%s nothing to rename\n", SubtitleStyle.Render("="))
		return nil
	}

	for _, c := range plan.Changes {
		marker := SuccessStyle.Render("→")
		if renameDryRun {
			marker = WarningStyle.Render("→")
		}
		fmt.Fprintf(os.Stdout, "%s %s %s %s\n", marker, c.Source, SubtitleStyle.Render("to"), PathStyle.Render(c.Target))
	}

	if renameDryRun {
		return nil
	}
	return plan.Apply()
}
