// SPDX-License-Identifier: MPL-2.0

// Package snippet extracts named regions from source files. Regions
// are delimited by marker comments of the form
//
//	// BEGIN server-setup
//	...lines...
//	// END server-setup
//
// Any comment leader works (#, --, ;, /*, <!--) as long as the marker
// is the first word content on its line; a BEGIN or END mentioned
// mid-sentence is plain text.
package snippet

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Sentinel errors for the marker grammar. All parse failures wrap one
// of these.
var (
	ErrUnterminated = errors.New("snippet not terminated")
	ErrUnopened     = errors.New("END marker without matching BEGIN")
	ErrDuplicate    = errors.New("duplicate snippet name")
	ErrNotFound     = errors.New("snippet not found")
	ErrNested       = errors.New("nested BEGIN marker")
)

// markerRe matches BEGIN/END markers. The marker must start the line's
// word content, after an optional comment leader, so prose like
// "THE END of an era" is not a marker. The name is a run of
// non-whitespace; anything after it on the line is ignored so trailing
// comment closers (`*/`, `-->`) don't leak into names.
var markerRe = regexp.MustCompile(`^\s*(?:(?:#+|;+|//+|--+|/\*+|\*+|<!--)\s*)?(BEGIN|END)\s+(\S+)`)

type (
	// Snippet is one named extracted region.
	Snippet struct {
		Name string
		// StartLine and EndLine are the 1-based line numbers of the
		// BEGIN and END marker lines.
		StartLine int
		EndLine   int
		// Lines is the region content, marker lines excluded.
		Lines []string
	}

	// Options controls extraction.
	Options struct {
		// KeepMarkers includes the BEGIN/END marker lines in the
		// extracted content.
		KeepMarkers bool
	}
)

// Text returns the snippet body joined with newlines, with a trailing
// newline when non-empty.
func (s Snippet) Text() string {
	if len(s.Lines) == 0 {
		return ""
	}
	return strings.Join(s.Lines, "\n") + "\n"
}

// Parse scans r once and returns all snippets in order of their BEGIN
// markers. Nested regions are rejected; the original format never
// produced them and silently accepting either nesting or interleaving
// hides marker typos.
func Parse(r io.Reader, opts Options) ([]Snippet, error) {
	var (
		snippets []Snippet
		open     *Snippet
		seen     = map[string]struct{}{}
		lineNo   int
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		m := markerRe.FindStringSubmatch(line)
		if m == nil {
			if open != nil {
				open.Lines = append(open.Lines, line)
			}
			continue
		}

		kind, name := m[1], m[2]
		switch kind {
		case "BEGIN":
			if open != nil {
				return nil, fmt.Errorf("line %d: %w: %q inside %q", lineNo, ErrNested, name, open.Name)
			}
			if _, dup := seen[name]; dup {
				return nil, fmt.Errorf("line %d: %w: %q", lineNo, ErrDuplicate, name)
			}
			seen[name] = struct{}{}
			open = &Snippet{Name: name, StartLine: lineNo}
			if opts.KeepMarkers {
				open.Lines = append(open.Lines, line)
			}

		case "END":
			if open == nil || open.Name != name {
				return nil, fmt.Errorf("line %d: %w: %q", lineNo, ErrUnopened, name)
			}
			open.EndLine = lineNo
			if opts.KeepMarkers {
				open.Lines = append(open.Lines, line)
			}
			snippets = append(snippets, *open)
			open = nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan input: %w", err)
	}

	if open != nil {
		return nil, fmt.Errorf("line %d: %w: %q", open.StartLine, ErrUnterminated, open.Name)
	}

	return snippets, nil
}

// Extract returns the single named snippet.
func Extract(r io.Reader, name string, opts Options) (Snippet, error) {
	snippets, err := Parse(r, opts)
	if err != nil {
		return Snippet{}, err
	}
	for _, s := range snippets {
		if s.Name == name {
			return s, nil
		}
	}
	return Snippet{}, fmt.Errorf("%w: %q", ErrNotFound, name)
}
