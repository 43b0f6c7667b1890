// SPDX-License-Identifier: MPL-2.0

package invoke

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/matrixrun/matrixrun/pkg/types"
)

// ErrEmptyCommand is returned when a command has no argv.
var ErrEmptyCommand = errors.New("empty command")

type (
	// Command is a fully composed child process invocation.
	Command struct {
		Argv []string
		Dir  string
		Env  []string
	}

	// Executor runs a command to completion. It returns the exit code when the
	// process ran, and an error when it could not be started or waited on.
	Executor interface {
		Run(ctx context.Context, cmd Command) (types.ExitCode, error)
	}

	// ProcessExecutor runs commands as child processes wired to the given streams.
	ProcessExecutor struct {
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}
)

// NewProcessExecutor returns an executor that inherits the parent's stdio.
func NewProcessExecutor() *ProcessExecutor {
	return &ProcessExecutor{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run starts the command and blocks until it exits. Cancelling ctx kills the child.
func (e *ProcessExecutor) Run(ctx context.Context, cmd Command) (types.ExitCode, error) {
	if len(cmd.Argv) == 0 {
		return 1, ErrEmptyCommand
	}

	c := exec.CommandContext(ctx, cmd.Argv[0], cmd.Argv[1:]...)
	c.Dir = cmd.Dir
	c.Env = cmd.Env
	c.Stdin = e.Stdin
	c.Stdout = e.Stdout
	c.Stderr = e.Stderr

	err := c.Run()
	if err != nil && ctx.Err() != nil {
		return 1, fmt.Errorf("running %s: %w", cmd.Argv[0], ctx.Err())
	}
	code, exited := types.FromRunError(err)
	if !exited {
		return code, fmt.Errorf("running %s: %w", cmd.Argv[0], err)
	}
	return code, nil
}
