// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"
)

// Poller is the interval-based engine: it compares each watched file's
// modification time against a cached value on a fixed tick. Slower and
// coarser than the fsnotify Watcher, but dependable on filesystems
// where change notification is unreliable (NFS, some containers).
type Poller struct {
	opts     Options
	interval time.Duration
	paths    []string
	mtimes   map[string]time.Time
	stdout   io.Writer
	stderr   io.Writer
}

// NewPoller creates a Poller checking the configured paths every
// interval. Directory paths are expanded to their current file set at
// each tick, so files added later are picked up. Non-positive
// intervals default to one second.
func NewPoller(opts Options, interval time.Duration) (*Poller, error) {
	opts = withDefaults(opts)
	if interval <= 0 {
		interval = time.Second
	}

	if err := validateGlobs(opts.Patterns, "watch"); err != nil {
		return nil, err
	}
	if err := validateGlobs(opts.Ignore, "ignore"); err != nil {
		return nil, err
	}

	var paths []string
	for _, p := range opts.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("watch: resolve %q: %w", p, err)
		}
		if _, err := os.Stat(abs); err != nil {
			return nil, fmt.Errorf("watch: stat %q: %w", p, err)
		}
		paths = append(paths, abs)
	}

	p := &Poller{
		opts:     opts,
		interval: interval,
		paths:    paths,
		mtimes:   make(map[string]time.Time),
		stdout:   opts.Stdout,
		stderr:   opts.Stderr,
	}

	// Seed the mtime cache so the first tick does not report every file
	// as changed.
	p.scan(func(string) {})

	return p, nil
}

// Run blocks until ctx is cancelled, checking modification times once
// per interval and invoking OnChange with the files whose mtime moved.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			var changed []string
			p.scan(func(path string) {
				changed = append(changed, path)
			})
			if len(changed) == 0 {
				continue
			}
			slices.Sort(changed)
			p.invoke(ctx, changed)
		}
	}
}

// scan stats every watched file, updates the mtime cache, and reports
// each changed path through report. Files that disappear are dropped
// from the cache without a report; they reappear as changes when
// recreated.
func (p *Poller) scan(report func(path string)) {
	ignores := append(slices.Clone(defaultIgnores), p.opts.Ignore...)

	check := func(path, rel string, info os.FileInfo) {
		normalized := filepath.ToSlash(rel)
		for _, pat := range ignores {
			if ok := globMatch(pat, normalized); ok {
				return
			}
		}
		if len(p.opts.Patterns) > 0 {
			matched := false
			for _, pat := range p.opts.Patterns {
				if globMatch(pat, normalized) {
					matched = true
					break
				}
			}
			if !matched {
				return
			}
		}

		prev, seen := p.mtimes[path]
		p.mtimes[path] = info.ModTime()
		if seen && !info.ModTime().Equal(prev) {
			report(rel)
		}
	}

	for _, root := range p.paths {
		info, err := os.Stat(root)
		if err != nil {
			delete(p.mtimes, root)
			continue
		}

		if !info.IsDir() {
			check(root, filepath.Base(root), info)
			continue
		}

		walkErr := filepath.WalkDir(root, func(path string, d os.DirEntry, dirErr error) error {
			if dirErr != nil || d.IsDir() {
				return nil //nolint:nilerr // skip inaccessible entries
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return nil //nolint:nilerr
			}
			fi, statErr := d.Info()
			if statErr != nil {
				return nil //nolint:nilerr
			}
			check(path, rel, fi)
			return nil
		})
		if walkErr != nil {
			fmt.Fprintf(p.stderr, "watch: poll walk %q: %v\n", root, walkErr)
		}
	}
}

func (p *Poller) invoke(ctx context.Context, changed []string) {
	if p.opts.ClearScreen {
		fmt.Fprint(p.stdout, "\033[2J\033[H")
	}
	if p.opts.OnChange == nil {
		return
	}
	if err := p.opts.OnChange(ctx, changed); err != nil {
		fmt.Fprintf(p.stderr, "watch: callback error: %v\n", err)
	}
}
