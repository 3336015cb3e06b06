// SPDX-License-Identifier: MPL-2.0

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"kitbag/internal/config"
)

func TestGetVersionString(t *testing.T) {
	if got := getVersionString(); got != "dev (built from source)" {
		t.Errorf("getVersionString() = %q", got)
	}
}

func TestSplitWatchArgs(t *testing.T) {
	// Parse through a cobra command so ArgsLenAtDash is populated.
	var gotPaths, gotCommand []string
	cmd := &cobra.Command{
		Use:  "watch",
		Args: cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			var err error
			gotPaths, gotCommand, err = splitWatchArgs(c, args)
			return err
		},
	}
	cmd.SetArgs([]string{"main.go", "src", "--", "go", "test", "./..."})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute(): %v", err)
	}

	if strings.Join(gotPaths, ",") != "main.go,src" {
		t.Errorf("paths = %v", gotPaths)
	}
	if strings.Join(gotCommand, " ") != "go test ./..." {
		t.Errorf("command = %v", gotCommand)
	}
}

func TestSplitWatchArgsNoDash(t *testing.T) {
	var err error
	cmd := &cobra.Command{
		Use:  "watch",
		Args: cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			_, _, err = splitWatchArgs(c, args)
			return nil
		},
	}
	cmd.SetArgs([]string{"main.go"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	if execErr := cmd.Execute(); execErr != nil {
		t.Fatalf("Execute(): %v", execErr)
	}
	if err == nil {
		t.Fatal("splitWatchArgs without -- succeeded, want error")
	}
}

func TestBucketAndFiles(t *testing.T) {
	orig := cfg
	t.Cleanup(func() { cfg = orig })

	cfg = config.DefaultConfig()
	bucket, files, err := bucketAndFiles([]string{"my-bucket", "a.txt", "b.txt"})
	if err != nil {
		t.Fatalf("bucketAndFiles(): %v", err)
	}
	if bucket != "my-bucket" || len(files) != 2 {
		t.Errorf("got bucket %q, files %v", bucket, files)
	}

	if _, _, err := bucketAndFiles([]string{"only-bucket"}); err == nil {
		t.Error("bucketAndFiles with no files succeeded, want error")
	}

	// With a default bucket, on-disk first arguments are files.
	dir := t.TempDir()
	path := filepath.Join(dir, "index.html")
	if writeErr := os.WriteFile(path, nil, 0o644); writeErr != nil {
		t.Fatal(writeErr)
	}
	cfg.S3.DefaultBucket = "site"
	bucket, files, err = bucketAndFiles([]string{path})
	if err != nil {
		t.Fatalf("bucketAndFiles(): %v", err)
	}
	if bucket != "site" || len(files) != 1 {
		t.Errorf("got bucket %q, files %v", bucket, files)
	}
}

func TestRunJSONExplicitIndentZero(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	if err := os.WriteFile(path, []byte(`{"b":1,"a":2}`), 0o644); err != nil {
		t.Fatal(err)
	}

	// Mark the flag as set so zero is honored rather than falling back
	// to the config default.
	flag := jsonCmd.Flags().Lookup("indent")
	if err := flag.Value.Set("0"); err != nil {
		t.Fatal(err)
	}
	flag.Changed = true
	t.Cleanup(func() {
		_ = flag.Value.Set(flag.DefValue)
		flag.Changed = false
	})

	var out bytes.Buffer
	jsonCmd.SetOut(&out)
	t.Cleanup(func() { jsonCmd.SetOut(nil) })

	if err := runJSON(jsonCmd, []string{path}); err != nil {
		t.Fatalf("runJSON(): %v", err)
	}
	want := "{\n\"b\": 1,\n\"a\": 2\n}\n"
	if got := out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestRunJSONWritesFormattedOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	if err := os.WriteFile(path, []byte(`{"b":1,"a":2}`), 0o644); err != nil {
		t.Fatal(err)
	}

	origCompact, origSort, origWrite, origIndent := jsonCompact, jsonSortKeys, jsonWrite, jsonIndent
	t.Cleanup(func() {
		jsonCompact, jsonSortKeys, jsonWrite, jsonIndent = origCompact, origSort, origWrite, origIndent
	})
	jsonCompact, jsonSortKeys, jsonWrite, jsonIndent = true, true, false, 0

	var out bytes.Buffer
	jsonCmd.SetOut(&out)
	t.Cleanup(func() { jsonCmd.SetOut(nil) })

	if err := runJSON(jsonCmd, []string{path}); err != nil {
		t.Fatalf("runJSON(): %v", err)
	}
	if got := out.String(); got != `{"a":2,"b":1}`+"\n" {
		t.Errorf("output = %q", got)
	}
}
