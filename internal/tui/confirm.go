// SPDX-License-Identifier: MPL-2.0

// Package tui holds the interactive prompt helpers shared by commands
// that need a yes/no answer before doing something destructive.
package tui

import (
	"fmt"

	"github.com/charmbracelet/huh"
)

// Confirm asks a yes/no question, defaulting to no. Callers should
// honor a --yes flag before reaching here; this always prompts.
func Confirm(title string) (bool, error) {
	ok := false
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Affirmative("Yes").
			Negative("No").
			Value(&ok),
	))
	if err := form.Run(); err != nil {
		return false, fmt.Errorf("confirm prompt: %w", err)
	}
	return ok, nil
}

// Confirmer returns a confirm function that short-circuits to true when
// assumeYes is set and prompts otherwise.
func Confirmer(assumeYes bool) func(string) (bool, error) {
	if assumeYes {
		return func(string) (bool, error) { return true, nil }
	}
	return Confirm
}
