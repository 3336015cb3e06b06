// SPDX-License-Identifier: MPL-2.0

package rename

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// trackPrefixRe matches a leading track number with its separator:
// "7 - ", "07.", "3_", "12 ".
var trackPrefixRe = regexp.MustCompile(`^(\d{1,3})\s*[-._ ]\s*`)

// MusicNamer normalizes music filenames:
//
//	01_some.track_NAME.mp3 -> 01 - Some Track Name.mp3
//
// Separators (underscores, dots) become spaces, whitespace collapses,
// a leading track number is zero-padded to two digits, the title is
// title-cased, and the extension is lower-cased.
type MusicNamer struct{}

// Rename implements Namer.
func (MusicNamer) Rename(base string) string {
	ext := strings.ToLower(filepath.Ext(base))
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	track := ""
	if m := trackPrefixRe.FindStringSubmatch(stem); m != nil {
		track = m[1]
		if len(track) == 1 {
			track = "0" + track
		}
		stem = stem[len(m[0]):]
	}

	title := cases.Title(language.Und).String(normalizeSeparators(stem))
	if title == "" {
		// Nothing left after stripping: keep the original stem so the
		// rename degrades to a no-op instead of producing " - .mp3".
		return base
	}

	if track != "" {
		return track + " - " + title + ext
	}
	return title + ext
}

// normalizeSeparators converts underscore/dot/hyphen runs to single
// spaces and drops other punctuation. Letters, digits, apostrophes and
// ampersands pass through untouched.
func normalizeSeparators(s string) string {
	var b strings.Builder
	prevSpace := true // also trims leading separators
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r) || r == '\'' || r == '&':
			b.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				b.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}
