// SPDX-License-Identifier: MPL-2.0

// Package run executes the command line a watch session re-runs.
//
// Two modes are supported: native execution through os/exec, and
// virtual execution through the embedded mvdan/sh interpreter. The
// virtual mode gives a consistent POSIX shell on platforms without one
// and lets a single command string use pipes and redirections.
package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// ErrEmptyCommand is returned when a Command has nothing to execute.
var ErrEmptyCommand = errors.New("empty command")

type (
	// Command describes one invocation to execute.
	Command struct {
		// Argv is the program and its arguments. Must be non-empty.
		Argv []string

		// Dir is the working directory; empty means the current directory.
		Dir string

		// Env is extra environment entries ("KEY=value") appended to the
		// inherited environment.
		Env []string

		// Stdin, Stdout and Stderr are the process I/O streams. nil
		// values default to the os streams.
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// Result reports the outcome of an execution.
	Result struct {
		// ExitCode is the process exit status (0-255). A command that
		// could not be started at all reports -1.
		ExitCode int

		// Err is the launch or interpreter error, nil when the command
		// ran to completion (even with a non-zero exit code).
		Err error
	}

	// Runner executes a Command.
	Runner interface {
		// Run executes the command, blocking until it finishes or ctx is
		// cancelled.
		Run(ctx context.Context, cmd Command) Result
	}

	// NativeRunner executes commands directly through os/exec.
	NativeRunner struct{}

	// ShellRunner executes the command line through the embedded
	// mvdan/sh interpreter.
	ShellRunner struct{}
)

// Failed reports whether the execution ended unsuccessfully, either by
// a launch error or a non-zero exit code.
func (r Result) Failed() bool {
	return r.Err != nil || r.ExitCode != 0
}

// Run executes cmd.Argv[0] with the remaining args as its argument list.
func (NativeRunner) Run(ctx context.Context, cmd Command) Result {
	if len(cmd.Argv) == 0 {
		return Result{ExitCode: -1, Err: ErrEmptyCommand}
	}

	c := exec.CommandContext(ctx, cmd.Argv[0], cmd.Argv[1:]...)
	c.Dir = cmd.Dir
	c.Env = append(os.Environ(), cmd.Env...)
	c.Stdin, c.Stdout, c.Stderr = defaultIO(cmd)

	if err := c.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{ExitCode: exitErr.ExitCode()}
		}
		return Result{ExitCode: -1, Err: fmt.Errorf("run %q: %w", cmd.Argv[0], err)}
	}
	return Result{ExitCode: 0}
}

// Run joins cmd.Argv into a single shell line and executes it in the
// embedded interpreter, so pipes, globs and redirections work without a
// host shell.
func (ShellRunner) Run(ctx context.Context, cmd Command) Result {
	if len(cmd.Argv) == 0 {
		return Result{ExitCode: -1, Err: ErrEmptyCommand}
	}

	line := strings.Join(cmd.Argv, " ")
	prog, err := syntax.NewParser().Parse(strings.NewReader(line), "watch")
	if err != nil {
		return Result{ExitCode: -1, Err: fmt.Errorf("parse command: %w", err)}
	}

	stdin, stdout, stderr := defaultIO(cmd)
	env := append(os.Environ(), cmd.Env...)

	runner, err := interp.New(
		interp.Dir(cmd.Dir),
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(stdin, stdout, stderr),
	)
	if err != nil {
		return Result{ExitCode: -1, Err: fmt.Errorf("create interpreter: %w", err)}
	}

	if runErr := runner.Run(ctx, prog); runErr != nil {
		var status interp.ExitStatus
		if errors.As(runErr, &status) {
			return Result{ExitCode: int(status)}
		}
		return Result{ExitCode: -1, Err: fmt.Errorf("execute command: %w", runErr)}
	}
	return Result{ExitCode: 0}
}

func defaultIO(cmd Command) (io.Reader, io.Writer, io.Writer) {
	stdin, stdout, stderr := cmd.Stdin, cmd.Stdout, cmd.Stderr
	if stdin == nil {
		stdin = os.Stdin
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return stdin, stdout, stderr
}
