// SPDX-License-Identifier: MPL-2.0

package rename

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestMusicNamer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"01_some.track_name.mp3", "01 - Some Track Name.mp3"},
		{"7 - intro.MP3", "07 - Intro.mp3"},
		{"12.hidden_gem.flac", "12 - Hidden Gem.flac"},
		{"no_track_number.ogg", "No Track Number.ogg"},
		{"already fine.mp3", "Already Fine.mp3"},
		{"rock & roll.mp3", "Rock & Roll.mp3"},
		{"don't_stop.mp3", "Don't Stop.mp3"},
		// Degenerate stems keep their original name.
		{"...mp3", "...mp3"},
	}

	for _, tt := range tests {
		if got := (MusicNamer{}).Rename(tt.in); got != tt.want {
			t.Errorf("Rename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMusicNamerIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{"01_some.track_name.mp3", "intro.mp3", "07 - Done.mp3"}
	for _, in := range inputs {
		once := (MusicNamer{}).Rename(in)
		twice := (MusicNamer{}).Rename(once)
		if once != twice {
			t.Errorf("Rename not idempotent: %q -> %q -> %q", in, once, twice)
		}
	}
}

func TestCaseNamer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		style string
		in    string
		want  string
	}{
		{StyleLower, "My File.TXT", "my file.txt"},
		{StyleUpper, "notes.md", "NOTES.md"},
		{StyleSnake, "My Report-Final.PDF", "my_report_final.pdf"},
		{StyleSnake, "camelCaseName.go", "camel_case_name.go"},
		{StyleKebab, "Some File_name.txt", "some-file-name.txt"},
		{StyleTitle, "quarterly_report.txt", "Quarterly Report.txt"},
	}

	for _, tt := range tests {
		n, err := NewCaseNamer(tt.style)
		if err != nil {
			t.Fatalf("NewCaseNamer(%q): %v", tt.style, err)
		}
		if got := n.Rename(tt.in); got != tt.want {
			t.Errorf("Rename[%s](%q) = %q, want %q", tt.style, tt.in, got, tt.want)
		}
	}
}

func TestNewCaseNamerRejectsUnknownStyle(t *testing.T) {
	t.Parallel()

	if _, err := NewCaseNamer("camel"); !errors.Is(err, ErrUnknownStyle) {
		t.Errorf("NewCaseNamer(camel) error = %v, want ErrUnknownStyle", err)
	}
}

func TestNewPlanSkipsNoops(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	already := filepath.Join(dir, "01 - Done.mp3")
	messy := filepath.Join(dir, "02_work.mp3")
	for _, p := range []string{already, messy} {
		if err := os.WriteFile(p, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	plan, err := NewPlan([]string{already, messy}, MusicNamer{})
	if err != nil {
		t.Fatalf("NewPlan(): %v", err)
	}

	if len(plan.Changes) != 1 {
		t.Fatalf("got %d changes, want 1 (no-op not skipped)", len(plan.Changes))
	}
	if plan.Changes[0].Source != messy {
		t.Errorf("change source = %q, want %q", plan.Changes[0].Source, messy)
	}
}

func TestNewPlanDetectsExistingTarget(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	source := filepath.Join(dir, "02_work.mp3")
	occupied := filepath.Join(dir, "02 - Work.mp3")
	for _, p := range []string{source, occupied} {
		if err := os.WriteFile(p, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := NewPlan([]string{source}, MusicNamer{}); !errors.Is(err, ErrTargetExists) {
		t.Errorf("NewPlan() error = %v, want ErrTargetExists", err)
	}
}

func TestNewPlanDetectsCollision(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := filepath.Join(dir, "01_track.mp3")
	b := filepath.Join(dir, "01 track.mp3")
	for _, p := range []string{a, b} {
		if err := os.WriteFile(p, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := NewPlan([]string{a, b}, MusicNamer{}); !errors.Is(err, ErrTargetCollides) {
		t.Errorf("NewPlan() error = %v, want ErrTargetCollides", err)
	}
}

func TestPlanApply(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	source := filepath.Join(dir, "my file.TXT")
	if err := os.WriteFile(source, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	n, err := NewCaseNamer(StyleSnake)
	if err != nil {
		t.Fatal(err)
	}
	plan, err := NewPlan([]string{source}, n)
	if err != nil {
		t.Fatalf("NewPlan(): %v", err)
	}
	if err := plan.Apply(); err != nil {
		t.Fatalf("Apply(): %v", err)
	}

	renamed := filepath.Join(dir, "my_file.txt")
	if _, err := os.Stat(renamed); err != nil {
		t.Errorf("renamed file missing: %v", err)
	}
	if _, err := os.Stat(source); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("source still present after rename")
	}
}
