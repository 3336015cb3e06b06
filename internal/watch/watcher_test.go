// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"
)

func TestWatcherDebounceCoalesces(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	var (
		mu        sync.Mutex
		calls     int
		collected []string
	)
	done := make(chan struct{})

	w, err := New(Options{
		Paths:    []string{dir},
		Debounce: 100 * time.Millisecond,
		Stdout:   &bytes.Buffer{},
		Stderr:   &bytes.Buffer{},
		OnChange: func(_ context.Context, changed []string) error {
			mu.Lock()
			defer mu.Unlock()
			calls++
			collected = append(collected, changed...)
			close(done)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New(): %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runDone := make(chan error, 1)
	go func() { runDone <- w.Run(ctx) }()

	// Give the event loop a moment to start before generating events.
	time.Sleep(50 * time.Millisecond)

	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		if writeErr := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); writeErr != nil {
			t.Fatal(writeErr)
		}
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for OnChange")
	}

	// Allow any stray second fire to land before asserting.
	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	gotCalls := calls
	got := slices.Clone(collected)
	mu.Unlock()

	if gotCalls != 1 {
		t.Errorf("OnChange fired %d times, want 1 (events not coalesced)", gotCalls)
	}
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		if !slices.Contains(got, name) {
			t.Errorf("changed set %v missing %q", got, name)
		}
	}

	cancel()
	if runErr := <-runDone; runErr != nil {
		t.Errorf("Run() returned %v on cancellation, want nil", runErr)
	}
}

func TestWatcherSingleFileIgnoresSiblings(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "watched.txt")
	sibling := filepath.Join(dir, "other.txt")
	for _, p := range []string{target, sibling} {
		if err := os.WriteFile(p, []byte("seed"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	var (
		mu        sync.Mutex
		collected []string
	)
	fired := make(chan struct{}, 4)

	w, err := New(Options{
		Paths:    []string{target},
		Debounce: 50 * time.Millisecond,
		Stdout:   &bytes.Buffer{},
		Stderr:   &bytes.Buffer{},
		OnChange: func(_ context.Context, changed []string) error {
			mu.Lock()
			collected = append(collected, changed...)
			mu.Unlock()
			fired <- struct{}{}
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New(): %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx) //nolint:errcheck // cancellation returns nil

	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(sibling, []byte("noise"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(target, []byte("signal"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for OnChange")
	}

	mu.Lock()
	defer mu.Unlock()
	if !slices.Contains(collected, "watched.txt") {
		t.Errorf("changed set %v missing watched.txt", collected)
	}
	if slices.Contains(collected, "other.txt") {
		t.Errorf("changed set %v contains sibling other.txt", collected)
	}
}

func TestWatcherRunTwice(t *testing.T) {
	t.Parallel()

	w, err := New(Options{
		Paths:  []string{t.TempDir()},
		Stdout: &bytes.Buffer{},
		Stderr: &bytes.Buffer{},
	})
	if err != nil {
		t.Fatalf("New(): %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if runErr := w.Run(ctx); runErr != nil {
		t.Fatalf("first Run(): %v", runErr)
	}
	if runErr := w.Run(ctx); runErr == nil {
		t.Fatal("second Run() succeeded, want error")
	}
}

func TestNewRejectsInvalidPattern(t *testing.T) {
	t.Parallel()

	_, err := New(Options{
		Paths:    []string{t.TempDir()},
		Patterns: []string{"[unclosed"},
		Stdout:   &bytes.Buffer{},
		Stderr:   &bytes.Buffer{},
	})
	if err == nil {
		t.Fatal("New() with invalid pattern succeeded, want error")
	}
}

func TestNewRejectsMissingPath(t *testing.T) {
	t.Parallel()

	_, err := New(Options{
		Paths:  []string{filepath.Join(t.TempDir(), "nope")},
		Stdout: &bytes.Buffer{},
		Stderr: &bytes.Buffer{},
	})
	if err == nil {
		t.Fatal("New() with missing path succeeded, want error")
	}
}

func TestDefaultIgnores(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rel  string
		want bool
	}{
		{".git/HEAD", true},
		{"src/.git/config", true},
		{"node_modules/pkg/index.js", true},
		{"main.go.swp", true},
		{".DS_Store", true},
		{"src/main.go", false},
		{"gitlog.txt", false},
	}

	for _, tt := range tests {
		got := false
		for _, pat := range DefaultIgnores() {
			if globMatch(pat, tt.rel) {
				got = true
				break
			}
		}
		if got != tt.want {
			t.Errorf("default ignore match for %q = %v, want %v", tt.rel, got, tt.want)
		}
	}
}
