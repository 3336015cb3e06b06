// SPDX-License-Identifier: MPL-2.0

package s3pub

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrNoMatches is returned when an argument expands to nothing.
var ErrNoMatches = errors.New("no files match")

// File pairs a local path with the object key it maps to (before any
// prefix). Keys are computed at expansion time, where the expansion
// root is still known; flattening absolute paths later would collapse
// distinct files onto one key.
type File struct {
	Path string
	Key  string
}

// Expand resolves each argument to a list of regular files with their
// object keys. Arguments may be literal paths, doublestar globs, or
// directories; directories are listed one level deep, or walked fully
// with recursive set. Files under a directory argument keep the
// directory's base name plus their relative path as the key, so
// "kitbag s3 put b /site/public -r" uploads public/a/index.html and
// public/b/index.html as distinct objects. Results are sorted and
// de-duplicated by path.
func Expand(args []string, recursive bool) ([]File, error) {
	seen := make(map[string]struct{})
	var files []File

	add := func(f File) {
		if _, dup := seen[f.Path]; dup {
			return
		}
		seen[f.Path] = struct{}{}
		files = append(files, f)
	}

	for _, arg := range args {
		matches, err := expandOne(arg, recursive)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoMatches, arg)
		}
		for _, m := range matches {
			add(m)
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func expandOne(arg string, recursive bool) ([]File, error) {
	info, err := os.Stat(arg)
	switch {
	case err == nil && info.IsDir():
		return listDir(arg, recursive)
	case err == nil:
		return []File{{Path: arg, Key: plainKey(arg)}}, nil
	}

	// Not a literal path: treat as a glob.
	matches, err := doublestar.FilepathGlob(arg)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", arg, err)
	}

	var files []File
	for _, m := range matches {
		mi, statErr := os.Stat(m)
		if statErr != nil {
			continue
		}
		if mi.IsDir() {
			if !recursive {
				continue
			}
			sub, subErr := listDir(m, true)
			if subErr != nil {
				return nil, subErr
			}
			files = append(files, sub...)
			continue
		}
		files = append(files, File{Path: m, Key: plainKey(m)})
	}
	return files, nil
}

func listDir(dir string, recursive bool) ([]File, error) {
	root := rootKey(dir)
	entry := func(path, rel string) File {
		key := filepath.ToSlash(rel)
		if root != "" {
			key = root + "/" + key
		}
		return File{Path: path, Key: key}
	}

	var files []File

	if !recursive {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("read directory %s: %w", dir, err)
		}
		for _, e := range entries {
			if e.Type().IsRegular() {
				files = append(files, entry(filepath.Join(dir, e.Name()), e.Name()))
			}
		}
		return files, nil
	}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.Type().IsRegular() {
			rel, relErr := filepath.Rel(dir, path)
			if relErr != nil {
				return relErr
			}
			files = append(files, entry(path, rel))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory %s: %w", dir, err)
	}
	return files, nil
}

// plainKey maps a single file path to its key: absolute and
// dot-relative forms collapse to the base name, deliberately relative
// paths keep their structure.
func plainKey(path string) string {
	key := filepath.ToSlash(path)
	if filepath.IsAbs(path) || strings.HasPrefix(key, "./") || strings.HasPrefix(key, "../") {
		return filepath.Base(path)
	}
	return key
}

// rootKey returns the key segment contributed by a directory argument:
// its base name, or nothing when the argument has no usable name
// ("." or "/").
func rootKey(dir string) string {
	cleaned := filepath.Clean(dir)
	base := filepath.Base(cleaned)
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return ""
	}
	return base
}
