// Package proc spawns the external processes the build drives: the script
// compiler, the archiver, and project build events.
package proc

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/hashicorp/go-hclog"

	"github.com/emberforge/pyrite/pkg/cmdline"
	"github.com/emberforge/pyrite/pkg/logging"
)

// ErrEmptyCommand is returned when a command has no argv.
var ErrEmptyCommand = errors.New("empty command")

// Command is one external invocation in argv form. Argv[0] is the
// executable path.
type Command struct {
	Argv []string
	Dir  string // working directory; empty inherits the caller's
}

// String renders the command with path-bearing arguments quoted.
func (c Command) String() string {
	return cmdline.Join(c.Argv)
}

// Parse splits a shell-style command line into a Command rooted at dir.
func Parse(line, dir string) (Command, error) {
	argv, err := cmdline.Split(line)
	if err != nil {
		return Command{}, fmt.Errorf("parse command %q: %w", line, err)
	}
	if len(argv) == 0 {
		return Command{}, ErrEmptyCommand
	}
	return Command{Argv: argv, Dir: dir}, nil
}

// Runner runs one command to completion and reports its exit status.
// The production implementation spawns a child process; tests substitute
// fakes that record invocations without touching the system.
type Runner interface {
	// Run blocks until the command finishes. It returns the process exit
	// status when the process ran, zero or not; err is reserved for
	// failures to run at all (missing binary, cancelled context).
	Run(ctx context.Context, cmd Command) (int, error)
}

// ExecRunner runs commands as child processes, streaming their combined
// output through the logger one line at a time.
type ExecRunner struct {
	Logger hclog.Logger
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (int, error) {
	if len(cmd.Argv) == 0 {
		return -1, ErrEmptyCommand
	}

	logger := r.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	logger.Debug("🚀 running command", "command", cmd.String())

	out := logging.NewLogWriter(func(line string) {
		logger.Info(line)
	})

	c := exec.CommandContext(ctx, cmd.Argv[0], cmd.Argv[1:]...)
	c.Dir = cmd.Dir
	c.Stdout = out
	c.Stderr = out

	if err := c.Start(); err != nil {
		return -1, fmt.Errorf("failed to start process: %w", err)
	}

	err := c.Wait()
	_ = out.Flush()

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			logger.Debug("⏹️ process exited", "code", exitErr.ExitCode())
			return exitErr.ExitCode(), nil
		}
		return -1, fmt.Errorf("process error: %w", err)
	}

	return 0, nil
}
