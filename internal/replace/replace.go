// SPDX-License-Identifier: MPL-2.0

// Package replace performs single-pass regex search-and-replace across
// files. Each file is read whole, transformed, and rewritten in place
// with its original permissions; an optional backup copy is kept first.
package replace

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// ErrBinaryFile is returned (per file) when a file looks binary and is
// skipped rather than rewritten.
var ErrBinaryFile = errors.New("binary file skipped")

// binarySniffLen is how many leading bytes are checked for NUL when
// deciding whether a file is binary.
const binarySniffLen = 8000

type (
	// Options configures a replacement run.
	Options struct {
		// Pattern is the Go regexp to search for. With Literal set it is
		// treated as a plain string instead.
		Pattern string

		// Replacement is the replacement text. In regexp mode it may use
		// $1-style group references.
		Replacement string

		// Literal disables regexp interpretation of Pattern and
		// Replacement.
		Literal bool

		// Word wraps the pattern in word boundaries so "cat" does not
		// match inside "concatenate".
		Word bool

		// DryRun computes changes without writing anything.
		DryRun bool

		// BackupSuffix, when non-empty, saves the original file under
		// name+suffix before rewriting (e.g. ".bak").
		BackupSuffix string
	}

	// Replacer applies one compiled pattern to many files.
	Replacer struct {
		opts Options
		re   *regexp.Regexp
		repl string
	}

	// FileResult reports what happened to one file.
	FileResult struct {
		Path string
		// Matches is the number of pattern occurrences replaced.
		Matches int
		// Changed reports whether the file content differed after
		// replacement.
		Changed bool
		// Lines holds the changed lines for dry-run previews, 1-based.
		Lines []LineChange
	}

	// LineChange is one changed line in a dry-run preview.
	LineChange struct {
		Number int
		Old    string
		New    string
	}
)

// New compiles the pattern described by opts.
func New(opts Options) (*Replacer, error) {
	pattern := opts.Pattern
	repl := opts.Replacement
	if opts.Literal {
		pattern = regexp.QuoteMeta(pattern)
		// In literal mode $ in the replacement is not a group reference.
		repl = strings.ReplaceAll(repl, "$", "$$")
	}
	if opts.Word {
		pattern = `\b(?:` + pattern + `)\b`
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", opts.Pattern, err)
	}

	return &Replacer{opts: opts, re: re, repl: repl}, nil
}

// Apply transforms content and returns the result with match count.
// Pure function over bytes; file handling lives in File.
func (r *Replacer) Apply(content []byte) ([]byte, int) {
	matches := len(r.re.FindAllIndex(content, -1))
	if matches == 0 {
		return content, 0
	}
	return r.re.ReplaceAll(content, []byte(r.repl)), matches
}

// File runs the replacement on one file. Binary files (NUL byte in the
// leading block) are skipped with ErrBinaryFile. Unchanged files are
// left untouched: no rewrite, no backup.
func (r *Replacer) File(path string) (FileResult, error) {
	res := FileResult{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		return res, fmt.Errorf("stat %s: %w", path, err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return res, fmt.Errorf("read %s: %w", path, err)
	}

	if isBinary(content) {
		return res, fmt.Errorf("%s: %w", path, ErrBinaryFile)
	}

	updated, matches := r.Apply(content)
	res.Matches = matches
	res.Changed = matches > 0 && !bytes.Equal(content, updated)
	if !res.Changed {
		return res, nil
	}

	res.Lines = diffLines(content, updated)

	if r.opts.DryRun {
		return res, nil
	}

	if r.opts.BackupSuffix != "" {
		if err := os.WriteFile(path+r.opts.BackupSuffix, content, info.Mode().Perm()); err != nil {
			return res, fmt.Errorf("write backup for %s: %w", path, err)
		}
	}

	if err := os.WriteFile(path, updated, info.Mode().Perm()); err != nil {
		return res, fmt.Errorf("write %s: %w", path, err)
	}

	return res, nil
}

// diffLines pairs up changed lines between the original and updated
// content. Replacement never adds or removes lines unless the
// replacement text itself contains newlines; when line counts diverge
// the preview covers the shorter prefix.
func diffLines(before, after []byte) []LineChange {
	oldLines := strings.Split(string(before), "\n")
	newLines := strings.Split(string(after), "\n")

	n := len(oldLines)
	if len(newLines) < n {
		n = len(newLines)
	}

	var changes []LineChange
	for i := 0; i < n; i++ {
		if oldLines[i] != newLines[i] {
			changes = append(changes, LineChange{Number: i + 1, Old: oldLines[i], New: newLines[i]})
		}
	}
	return changes
}

// isBinary reports whether content looks like a binary file: a NUL
// byte within the leading block.
func isBinary(content []byte) bool {
	block := content
	if len(block) > binarySniffLen {
		block = block[:binarySniffLen]
	}
	return bytes.IndexByte(block, 0) >= 0
}
