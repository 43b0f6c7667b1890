// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/matrixrun/matrixrun/internal/issue"
)

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version, Commit, BuildDate = "v0.3.0", "abc1234", "2026-01-05T10:00:00Z"
		if got, want := getVersionString(), "v0.3.0 (commit: abc1234, built: 2026-01-05T10:00:00Z)"; got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})

	t.Run("dev build", func(t *testing.T) {
		origVersion := Version
		t.Cleanup(func() { Version = origVersion })

		Version = "dev"
		if got, want := getVersionString(), "dev (built from source)"; got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"plain error", errors.New("boom"), 1},
		{"exit error", &ExitError{Code: 101}, 101},
		{"wrapped exit error", fmt.Errorf("outer: %w", &ExitError{Code: 3}), 3},
		{"zero code still fails", &ExitError{Code: 0, Err: errors.New("x")}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRenderError(t *testing.T) {
	t.Parallel()

	err := issue.NewErrorContext().
		WithOperation("provision service").
		WithResource("postgres_14").
		WithSuggestion("Start the Docker daemon or set DOCKER_HOST").
		WithIssue(issue.DockerNotAvailableId).
		Wrap(errors.New("dial unix /var/run/docker.sock")).
		BuildError()

	var quiet bytes.Buffer
	renderError(&quiet, err, false)
	if !strings.Contains(quiet.String(), "failed to provision service: postgres_14") {
		t.Errorf("missing message:\n%s", quiet.String())
	}
	if !strings.Contains(quiet.String(), "• Start the Docker daemon") {
		t.Errorf("missing suggestion:\n%s", quiet.String())
	}
	if strings.Contains(quiet.String(), "Docker is not available") {
		t.Errorf("guide should only be rendered in verbose mode:\n%s", quiet.String())
	}

	var verbose bytes.Buffer
	renderError(&verbose, err, true)
	if !strings.Contains(verbose.String(), "Error chain:") {
		t.Errorf("verbose output missing error chain:\n%s", verbose.String())
	}
	if !strings.Contains(verbose.String(), "Docker is not available") {
		t.Errorf("verbose output missing the issue guide:\n%s", verbose.String())
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	t.Parallel()

	root := NewRootCommand(newHarness(t).app)
	for _, name := range []string{"run", "list", "config"} {
		if sub, _, err := root.Find([]string{name}); err != nil || sub.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}
