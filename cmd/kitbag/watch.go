// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"kitbag/internal/run"
	"kitbag/internal/watch"
)

var (
	watchPatterns []string
	watchIgnore   []string
	watchDebounce time.Duration
	watchPoll     time.Duration
	watchShell    bool
	watchClear    bool

	watchCmd = &cobra.Command{
		Use:   "watch [paths...] -- <command...>",
		Short: "Re-run a command when watched files change",
		Long: `Watches files or directories and re-runs the command on change.

The command runs once immediately, then again after each change. By
default changes are detected with filesystem notifications and rapid
event bursts are coalesced; --poll switches to modification-time
polling at a fixed interval for filesystems where notifications are
unreliable.

Command failures are reported but never stop the watch loop.`,
		Example: `  kitbag watch main.go -- go run main.go
  kitbag watch src --pattern '**/*.go' -- go test ./...
  kitbag watch config.yaml --poll 2s -- ./reload.sh
  kitbag watch notes.md --shell -- 'make html && echo done'`,
		Args: cobra.MinimumNArgs(1),
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().StringSliceVar(&watchPatterns, "pattern", nil, "glob patterns selecting files that trigger a re-run")
	watchCmd.Flags().StringSliceVar(&watchIgnore, "ignore", nil, "glob patterns for files that never trigger a re-run")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 0, "quiet period before re-running (default from config, 500ms)")
	watchCmd.Flags().DurationVar(&watchPoll, "poll", 0, "poll modification times at this interval instead of using filesystem notifications")
	watchCmd.Flags().BoolVar(&watchShell, "shell", false, "run the command through the built-in POSIX shell (pipes, globs)")
	watchCmd.Flags().BoolVar(&watchClear, "clear", false, "clear the terminal before each run")
}

// splitWatchArgs separates watched paths from the command after "--".
// Cobra strips the "--" itself, exposing its position via ArgsLenAtDash.
func splitWatchArgs(cmd *cobra.Command, args []string) (paths, command []string, err error) {
	dash := cmd.ArgsLenAtDash()
	if dash < 0 {
		return nil, nil, fmt.Errorf("no command specified: use 'kitbag watch [paths...] -- <command...>'")
	}
	paths, command = args[:dash], args[dash:]
	if len(command) == 0 {
		return nil, nil, fmt.Errorf("no command specified after '--'")
	}
	return paths, command, nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	paths, command, err := splitWatchArgs(cmd, args)
	if err != nil {
		return err
	}

	debounce := watchDebounce
	if debounce <= 0 {
		debounce = cfg.DebounceDuration()
	}

	var runner run.Runner = run.NativeRunner{}
	if watchShell {
		runner = run.ShellRunner{}
	}

	execute := func(ctx context.Context) {
		res := runner.Run(ctx, run.Command{Argv: command})
		switch {
		case res.Err != nil:
			fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("✗"), res.Err)
		case res.ExitCode != 0:
			fmt.Fprintf(os.Stderr, "%s command exited with status %d\n", WarningStyle.Render("!"), res.ExitCode)
		}
	}

	opts := watch.Options{
		Paths:       paths,
		Patterns:    watchPatterns,
		Ignore:      watchIgnore,
		Debounce:    debounce,
		ClearScreen: watchClear,
		OnChange: func(ctx context.Context, changed []string) error {
			fmt.Fprintf(os.Stdout, "%s %d change(s), re-running %s\n",
				SubtitleStyle.Render("→"), len(changed), PathStyle.Render(command[0]))
			execute(ctx)
			return nil
		},
	}

	// First run happens before the watcher starts; a broken command is
	// something the user fixes and saves, not a reason to bail.
	execute(cmd.Context())
	fmt.Fprintf(os.Stdout, "%s watching for changes (Ctrl+C to stop)\n", SubtitleStyle.Render("→"))

	if watchPoll > 0 {
		p, err := watch.NewPoller(opts, watchPoll)
		if err != nil {
			return err
		}
		return p.Run(cmd.Context())
	}

	w, err := watch.New(opts)
	if err != nil {
		return err
	}
	return w.Run(cmd.Context())
}
