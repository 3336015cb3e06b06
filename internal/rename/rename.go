// SPDX-License-Identifier: MPL-2.0

// Package rename computes and applies filename transformations: a
// music-file normalizer and a general case converter. Target names are
// pure functions of the source name; planning and collision checks
// happen before any file is touched.
package rename

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Sentinel errors for plan validation.
var (
	ErrTargetExists   = errors.New("target already exists")
	ErrTargetCollides = errors.New("two sources map to the same target")
)

type (
	// Namer computes the target base name for a source base name.
	Namer interface {
		Rename(base string) string
	}

	// Change is one planned rename. Source and Target are full paths in
	// the same directory.
	Change struct {
		Source string
		Target string
	}

	// Plan is a validated set of renames ready to apply.
	Plan struct {
		Changes []Change
	}
)

// NewPlan computes target names for every path and validates the
// result: a source whose computed name equals its current name is
// dropped (renaming to itself is a no-op), duplicate targets and
// targets that already exist on disk are errors.
func NewPlan(paths []string, namer Namer) (Plan, error) {
	var plan Plan
	targets := make(map[string]string) // target -> source

	for _, path := range paths {
		dir, base := filepath.Split(path)
		target := filepath.Join(dir, namer.Rename(base))

		if target == filepath.Clean(path) {
			continue
		}

		if prev, dup := targets[target]; dup {
			return Plan{}, fmt.Errorf("%w: %s and %s -> %s", ErrTargetCollides, prev, path, target)
		}
		targets[target] = path

		if _, err := os.Lstat(target); err == nil {
			return Plan{}, fmt.Errorf("%w: %s -> %s", ErrTargetExists, path, target)
		} else if !errors.Is(err, os.ErrNotExist) {
			return Plan{}, fmt.Errorf("stat %s: %w", target, err)
		}

		plan.Changes = append(plan.Changes, Change{Source: path, Target: target})
	}

	return plan, nil
}

// Apply performs the renames sequentially. The first failure stops the
// run; earlier renames are not rolled back (each file is independent).
func (p Plan) Apply() error {
	for _, c := range p.Changes {
		if err := os.Rename(c.Source, c.Target); err != nil {
			return fmt.Errorf("rename %s -> %s: %w", c.Source, c.Target, err)
		}
	}
	return nil
}
