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

func TestPollerDetectsMtimeChange(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(target, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}

	var (
		mu        sync.Mutex
		collected []string
	)
	fired := make(chan struct{}, 4)

	p, err := NewPoller(Options{
		Paths:  []string{target},
		Stdout: &bytes.Buffer{},
		Stderr: &bytes.Buffer{},
		OnChange: func(_ context.Context, changed []string) error {
			mu.Lock()
			collected = append(collected, changed...)
			mu.Unlock()
			fired <- struct{}{}
			return nil
		},
	}, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewPoller(): %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx) //nolint:errcheck // cancellation returns nil

	// Force an mtime strictly after the seeded one; write alone can land
	// within the filesystem's timestamp granularity.
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(target, future, future); err != nil {
		t.Fatal(err)
	}

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for OnChange")
	}

	mu.Lock()
	defer mu.Unlock()
	if !slices.Contains(collected, "file.txt") {
		t.Errorf("changed set %v missing file.txt", collected)
	}
}

func TestPollerNoChangeNoCallback(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "static.txt")
	if err := os.WriteFile(target, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}

	var calls int
	var mu sync.Mutex

	p, err := NewPoller(Options{
		Paths:  []string{target},
		Stdout: &bytes.Buffer{},
		Stderr: &bytes.Buffer{},
		OnChange: func(_ context.Context, _ []string) error {
			mu.Lock()
			calls++
			mu.Unlock()
			return nil
		},
	}, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewPoller(): %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	if runErr := p.Run(ctx); runErr != nil {
		t.Fatalf("Run(): %v", runErr)
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 0 {
		t.Errorf("OnChange fired %d times for an untouched file, want 0", calls)
	}
}

func TestPollerDirectoryPicksUpNewFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	var (
		mu        sync.Mutex
		collected []string
	)
	fired := make(chan struct{}, 4)

	p, err := NewPoller(Options{
		Paths:  []string{dir},
		Stdout: &bytes.Buffer{},
		Stderr: &bytes.Buffer{},
		OnChange: func(_ context.Context, changed []string) error {
			mu.Lock()
			collected = append(collected, changed...)
			mu.Unlock()
			fired <- struct{}{}
			return nil
		},
	}, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewPoller(): %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx) //nolint:errcheck

	// A brand-new file is cached on its first sighting, then reported
	// once its mtime moves.
	target := filepath.Join(dir, "late.txt")
	if err := os.WriteFile(target, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(60 * time.Millisecond)
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(target, future, future); err != nil {
		t.Fatal(err)
	}

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for OnChange")
	}

	mu.Lock()
	defer mu.Unlock()
	if !slices.Contains(collected, "late.txt") {
		t.Errorf("changed set %v missing late.txt", collected)
	}
}
