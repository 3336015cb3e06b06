// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kitbag/internal/snippet"
)

var (
	snippetKeepMarkers bool

	snippetCmd = &cobra.Command{
		Use:   "snippet <file> [name]",
		Short: "Extract a marked region from a source file",
		Long: `Extracts regions delimited by marker comments:

    // BEGIN setup
    ...lines...
    // END setup

Any comment leader works (#, --, ;, /*). With a name the region's
content is printed; without one, available snippets are listed.`,
		Example: `  kitbag snippet main.go setup
  kitbag snippet deploy.sh
  kitbag snippet doc.md intro --keep-markers`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runSnippet,
	}
)

func init() {
	snippetCmd.Flags().BoolVar(&snippetKeepMarkers, "keep-markers", false, "include the BEGIN/END marker lines in the output")
}

func runSnippet(cmd *cobra.Command, args []string) error {
	file, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open %s: %w", args[0], err)
	}
	defer file.Close() //nolint:errcheck // read-only

	opts := snippet.Options{KeepMarkers: snippetKeepMarkers}

	if len(args) == 2 {
		s, extractErr := snippet.Extract(file, args[1], opts)
		if extractErr != nil {
			return extractErr
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), s.Text())
		return err
	}

	snippets, err := snippet.Parse(file, opts)
	if err != nil {
		return err
	}
	if len(snippets) == 0 {
		fmt.Fprintf(os.Stdout, "%s no snippets in %s\n", SubtitleStyle.Render("="), args[0])
		return nil
	}
	for _, s := range snippets {
		fmt.Fprintf(cmd.OutOrStdout(), "%s (lines %d-%d)\n", PathStyle.Render(s.Name), s.StartLine, s.EndLine)
	}
	return nil
}
