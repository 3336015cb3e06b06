// SPDX-License-Identifier: MPL-2.0

// Package watch monitors files and directories and fires a debounced
// callback when they change.
//
// The default engine is fsnotify: directories are registered
// recursively and rapid event bursts (an editor writing then renaming a
// temp file) coalesce into one callback. A polling engine is also
// provided for filesystems where inotify is unreliable (network
// mounts); it compares modification times on a fixed interval. See
// Poller.
package watch

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last filesystem event
// before the callback fires.
const DefaultDebounce = 500 * time.Millisecond

// defaultIgnores are always excluded, regardless of user-supplied
// ignore patterns. They cover VCS metadata, editor swap files and OS
// metadata that generate high-frequency noise.
var defaultIgnores = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/__pycache__/**",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.DS_Store",
}

type (
	// Options configures a Watcher or Poller.
	Options struct {
		// Paths are the files or directories to watch. Directories are
		// watched recursively. Empty defaults to the current directory.
		Paths []string

		// Patterns are doublestar globs selecting which changed files
		// trigger the callback. Empty matches everything.
		Patterns []string

		// Ignore are additional doublestar globs for paths that never
		// trigger the callback, merged with the built-in defaults.
		Ignore []string

		// Debounce is the quiet period before the callback fires. Zero
		// or negative falls back to DefaultDebounce. Ignored by Poller.
		Debounce time.Duration

		// ClearScreen clears the terminal (ANSI escape to Stdout) before
		// each callback invocation.
		ClearScreen bool

		// OnChange is invoked after the debounce window with the
		// deduplicated changed paths. A nil callback is a no-op. Errors
		// are reported to Stderr and never stop the watch loop.
		OnChange func(ctx context.Context, changed []string) error

		// Stdout and Stderr default to the os streams when nil.
		Stdout io.Writer
		Stderr io.Writer
	}

	// Watcher is the fsnotify-backed engine. Run must be called exactly
	// once.
	Watcher struct {
		opts     Options
		fsw      *fsnotify.Watcher
		ignores  []string
		dirRoots []string // absolute directory watch roots
		files    map[string]struct{}
		stdout   io.Writer
		stderr   io.Writer
		started  atomic.Bool
	}
)

// New creates a Watcher. Paths are resolved to absolute form; files are
// watched via their parent directory, directories recursively.
func New(opts Options) (*Watcher, error) {
	opts = withDefaults(opts)

	if err := validateGlobs(opts.Patterns, "watch"); err != nil {
		return nil, err
	}
	if err := validateGlobs(opts.Ignore, "ignore"); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		opts:    opts,
		fsw:     fsw,
		ignores: append(slices.Clone(defaultIgnores), opts.Ignore...),
		files:   make(map[string]struct{}),
		stdout:  opts.Stdout,
		stderr:  opts.Stderr,
	}

	if err := w.register(opts.Paths); err != nil {
		fsw.Close() //nolint:errcheck // best-effort cleanup
		return nil, err
	}

	return w, nil
}

// register resolves each requested path and adds it to the fsnotify
// watch set. Watching a single file registers its parent directory and
// records the file so unrelated sibling events are filtered out.
func (w *Watcher) register(paths []string) error {
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("watch: resolve %q: %w", p, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return fmt.Errorf("watch: stat %q: %w", p, err)
		}

		if info.IsDir() {
			w.dirRoots = append(w.dirRoots, abs)
			if err := w.addTree(abs); err != nil {
				return err
			}
			continue
		}

		dir := filepath.Dir(abs)
		w.files[abs] = struct{}{}
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("watch: add %q: %w", dir, err)
		}
	}
	return nil
}

// addTree walks root and registers every non-ignored directory.
// Inaccessible subtrees are skipped with a notice rather than aborting;
// permission errors on individual dirs (.git/objects/pack) are common.
func (w *Watcher) addTree(root string) error {
	walkErr := filepath.WalkDir(root, func(path string, d os.DirEntry, dirErr error) error {
		if dirErr != nil {
			fmt.Fprintf(w.stderr, "watch: skipping inaccessible path %q: %v\n", path, dirErr)
			return nil //nolint:nilerr // intentional skip
		}
		if !d.IsDir() {
			return nil
		}
		if rel, relErr := filepath.Rel(root, path); relErr == nil && w.ignored(rel) {
			return filepath.SkipDir
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, addErr)
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("watch: walk %q: %w", root, walkErr)
	}
	return nil
}

// Run blocks until ctx is cancelled, dispatching debounced callbacks.
// It returns nil on clean cancellation and propagates fatal fsnotify
// errors (inotify watch or descriptor exhaustion). A second call
// returns an error immediately.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return fmt.Errorf("watch: Run called more than once")
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		busy    atomic.Bool
	)

	// fire drains the pending set and invokes OnChange. The busy guard
	// prevents overlapping invocations when the callback outlasts the
	// debounce window; skipped fires reschedule themselves so pending
	// events are not lost.
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !busy.CompareAndSwap(false, true) {
			mu.Lock()
			if timer != nil {
				timer.Reset(w.opts.Debounce)
			}
			mu.Unlock()
			return
		}
		defer busy.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		w.invoke(ctx, changed)
	}

	defer func() {
		mu.Lock()
		t := timer
		mu.Unlock()
		if t != nil {
			t.Stop()
		}
		if err := w.fsw.Close(); err != nil {
			fmt.Fprintf(w.stderr, "watch: close fsnotify: %v\n", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watch: fsnotify event channel closed unexpectedly")
			}
			rel, accept := w.accept(evt.Name)
			if !accept {
				continue
			}
			// Extend the watch to directories created after startup.
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}

			mu.Lock()
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.opts.Debounce, fire)
			} else {
				timer.Reset(w.opts.Debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watch: fsnotify error channel closed unexpectedly")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			fmt.Fprintf(w.stderr, "watch: fsnotify error: %v\n", err)
		}
	}
}

// accept decides whether an event path triggers the callback and
// returns its root-relative form. Explicitly watched files accept only
// their own events; sibling files in the shared parent directory are
// filtered out here.
func (w *Watcher) accept(name string) (string, bool) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return "", false
	}
	if _, ok := w.files[abs]; ok {
		return filepath.Base(abs), true
	}

	rel, inRoot := "", false
	for _, root := range w.dirRoots {
		if r, relErr := filepath.Rel(root, abs); relErr == nil && !isOutside(r) {
			rel, inRoot = r, true
			break
		}
	}
	if !inRoot {
		return "", false
	}

	if w.ignored(rel) || !w.matches(rel) {
		return "", false
	}
	return rel, true
}

func (w *Watcher) invoke(ctx context.Context, changed []string) {
	if w.opts.ClearScreen {
		// ANSI: clear screen, cursor home.
		fmt.Fprint(w.stdout, "\033[2J\033[H")
	}
	if w.opts.OnChange == nil {
		return
	}
	if err := w.opts.OnChange(ctx, changed); err != nil {
		fmt.Fprintf(w.stderr, "watch: callback error: %v\n", err)
	}
}

func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	for _, root := range w.dirRoots {
		if rel, relErr := filepath.Rel(root, path); relErr == nil && !isOutside(rel) {
			if w.ignored(rel) {
				return
			}
			if addErr := w.fsw.Add(path); addErr != nil {
				fmt.Fprintf(w.stderr, "watch: add new directory %q: %v\n", path, addErr)
			}
			return
		}
	}
}

func (w *Watcher) ignored(rel string) bool {
	normalized := filepath.ToSlash(rel)
	for _, pat := range w.ignores {
		if globMatch(pat, normalized) {
			return true
		}
	}
	return false
}

func (w *Watcher) matches(rel string) bool {
	if len(w.opts.Patterns) == 0 {
		return true
	}
	normalized := filepath.ToSlash(rel)
	for _, pat := range w.opts.Patterns {
		if globMatch(pat, normalized) {
			return true
		}
	}
	return false
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}

func withDefaults(opts Options) Options {
	if len(opts.Paths) == 0 {
		opts.Paths = []string{"."}
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	return opts
}

// validateGlobs rejects invalid doublestar patterns at construction
// time rather than letting them silently never match.
func validateGlobs(patterns []string, label string) error {
	for _, pat := range patterns {
		if _, err := doublestar.Match(pat, ""); err != nil {
			return fmt.Errorf("watch: invalid %s pattern %q: %w", label, pat, err)
		}
	}
	return nil
}

// globMatch reports whether the normalized (slash-separated) path
// matches the doublestar pattern, treating pattern errors as no match.
func globMatch(pat, normalized string) bool {
	ok, err := doublestar.Match(pat, normalized)
	return err == nil && ok
}

func isOutside(rel string) bool {
	return rel == ".." || len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}
