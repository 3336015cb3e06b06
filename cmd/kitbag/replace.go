// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kitbag/internal/replace"
)

var (
	replaceLiteral bool
	replaceWord    bool
	replaceDryRun  bool
	replaceBackup  string

	replaceCmd = &cobra.Command{
		Use:   "replace <pattern> <replacement> <files...>",
		Short: "Regex search and replace across files",
		Long: `Replaces every match of a Go regular expression in each file,
rewriting files in place with their original permissions. Binary files
are skipped. The replacement may reference capture groups with $1
syntax unless --literal is set.`,
		Example: `  kitbag replace 'colour' 'color' docs/*.md
  kitbag replace 'v(\d+)\.(\d+)' 'v$1.$2.0' README.md --dry-run
  kitbag replace TODO DONE notes.txt --word --backup .orig`,
		Args: cobra.MinimumNArgs(3),
		RunE: runReplace,
	}
)

func init() {
	replaceCmd.Flags().BoolVar(&replaceLiteral, "literal", false, "treat pattern and replacement as plain strings")
	replaceCmd.Flags().BoolVarP(&replaceWord, "word", "w", false, "match whole words only")
	replaceCmd.Flags().BoolVarP(&replaceDryRun, "dry-run", "n", false, "show changes without writing")
	replaceCmd.Flags().StringVar(&replaceBackup, "backup", "", "keep the original under this suffix before rewriting (e.g. .bak)")
}

func runReplace(_ *cobra.Command, args []string) error {
	r, err := replace.New(replace.Options{
		Pattern:      args[0],
		Replacement:  args[1],
		Literal:      replaceLiteral,
		Word:         replaceWord,
		DryRun:       replaceDryRun,
		BackupSuffix: replaceBackup,
	})
	if err != nil {
		return err
	}

	failed := false
	for _, path := range args[2:] {
		res, fileErr := r.File(path)
		switch {
		case errors.Is(fileErr, replace.ErrBinaryFile):
			fmt.Fprintf(os.Stdout, "%s %s: binary, skipped\n", SubtitleStyle.Render("="), path)
			continue
		case fileErr != nil:
			fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("✗"), fileErr)
			failed = true
			continue
		}

		if !res.Changed {
			continue
		}

		if replaceDryRun {
			fmt.Fprintf(os.Stdout, "%s %s: %d match(es)\n", WarningStyle.Render("~"), PathStyle.Render(path), res.Matches)
			for _, line := range res.Lines {
				fmt.Fprintf(os.Stdout, "  %4d - %s\n", line.Number, line.Old)
				fmt.Fprintf(os.Stdout, "  %4d + %s\n", line.Number, line.New)
			}
			continue
		}
		fmt.Fprintf(os.Stdout, "%s %s: %d match(es)\n", SuccessStyle.Render("✓"), PathStyle.Render(path), res.Matches)
	}

	if failed {
		return &ExitError{Code: 1, Err: fmt.Errorf("some files failed")}
	}
	return nil
}
