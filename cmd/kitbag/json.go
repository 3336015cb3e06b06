// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"kitbag/internal/jsonfmt"
)

var (
	jsonIndent   int
	jsonCompact  bool
	jsonSortKeys bool
	jsonWrite    bool

	jsonCmd = &cobra.Command{
		Use:   "json [file]",
		Short: "Pretty-print a JSON document",
		Long: `Reads a JSON document (from a file or stdin), parses it, and
re-serializes it with indentation. Reformatting is idempotent and
preserves number precision and key order; --sort-keys produces a
canonical ordering instead.`,
		Example: `  kitbag json config.json
  curl -s https://api.example.com/data | kitbag json
  kitbag json --sort-keys --write settings.json
  kitbag json --compact big.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runJSON,
	}
)

func init() {
	jsonCmd.Flags().IntVar(&jsonIndent, "indent", 2, "indent width in spaces (0 for newlines only)")
	jsonCmd.Flags().BoolVar(&jsonCompact, "compact", false, "minify instead of indenting")
	jsonCmd.Flags().BoolVar(&jsonSortKeys, "sort-keys", false, "sort object keys lexicographically")
	jsonCmd.Flags().BoolVar(&jsonWrite, "write", false, "rewrite the input file in place (requires a file argument)")
}

func runJSON(cmd *cobra.Command, args []string) error {
	// An explicit --indent 0 is meaningful (newlines, no indentation),
	// so the config default applies only when the flag was not given.
	indent := cfg.JSON.Indent
	if cmd.Flags().Changed("indent") {
		indent = jsonIndent
	}
	if indent < 0 {
		return fmt.Errorf("indent must be non-negative, got %d", indent)
	}

	var input []byte
	var err error
	fromFile := len(args) == 1

	if fromFile {
		input, err = os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}
	} else {
		if jsonWrite {
			return fmt.Errorf("--write requires a file argument")
		}
		input, err = io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
	}

	output, err := jsonfmt.Format(input, jsonfmt.Options{
		Indent:   indent,
		Compact:  jsonCompact,
		SortKeys: jsonSortKeys,
	})
	if err != nil {
		return err
	}

	if jsonWrite {
		info, statErr := os.Stat(args[0])
		if statErr != nil {
			return fmt.Errorf("stat %s: %w", args[0], statErr)
		}
		if writeErr := os.WriteFile(args[0], output, info.Mode().Perm()); writeErr != nil {
			return fmt.Errorf("write %s: %w", args[0], writeErr)
		}
		return nil
	}

	_, err = cmd.OutOrStdout().Write(output)
	return err
}
