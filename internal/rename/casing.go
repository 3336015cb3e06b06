// SPDX-License-Identifier: MPL-2.0

package rename

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrUnknownStyle is returned for case styles this package does not know.
var ErrUnknownStyle = errors.New("unknown case style")

// Style names accepted by NewCaseNamer.
const (
	StyleLower = "lower"
	StyleUpper = "upper"
	StyleSnake = "snake"
	StyleKebab = "kebab"
	StyleTitle = "title"
)

// CaseNamer converts a filename's stem to a case style. The extension
// is preserved but always lower-cased.
type CaseNamer struct {
	style string
}

// NewCaseNamer validates the style name.
func NewCaseNamer(style string) (CaseNamer, error) {
	switch style {
	case StyleLower, StyleUpper, StyleSnake, StyleKebab, StyleTitle:
		return CaseNamer{style: style}, nil
	}
	return CaseNamer{}, fmt.Errorf("%w: %q (want one of lower, upper, snake, kebab, title)", ErrUnknownStyle, style)
}

// Rename implements Namer.
func (n CaseNamer) Rename(base string) string {
	ext := strings.ToLower(filepath.Ext(base))
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	switch n.style {
	case StyleLower:
		stem = strings.ToLower(stem)
	case StyleUpper:
		stem = strings.ToUpper(stem)
	case StyleSnake:
		stem = strings.Join(splitWords(stem), "_")
		stem = strings.ToLower(stem)
	case StyleKebab:
		stem = strings.Join(splitWords(stem), "-")
		stem = strings.ToLower(stem)
	case StyleTitle:
		stem = cases.Title(language.Und).String(strings.Join(splitWords(stem), " "))
	}
	return stem + ext
}

// splitWords breaks a stem into words on separator characters and
// lower-to-upper camelCase transitions. "myFile-name_v2" yields
// ["my", "File", "name", "v2"].
func splitWords(s string) []string {
	var words []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		switch {
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			flush()
		default:
			if i > 0 && unicode.IsUpper(r) && unicode.IsLower(runes[i-1]) {
				flush()
			}
			cur.WriteRune(r)
		}
	}
	flush()
	return words
}
