// SPDX-License-Identifier: MPL-2.0

package invoke

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matrixrun/matrixrun/internal/testutil"
)

func TestProcessExecutor_ExitCode(t *testing.T) {
	t.Parallel()

	script := testutil.WriteScript(t, t.TempDir(), "fail", "exit 3")

	code, err := (&ProcessExecutor{}).Run(context.Background(), Command{Argv: []string{script}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if code != 3 {
		t.Errorf("Run() code = %d, want 3", code)
	}
}

func TestProcessExecutor_DirEnvAndArgs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	script := testutil.WriteScript(t, dir, "echo", `printf '%s|%s|%s' "$PWD" "$DATABASE_URL" "$*"`)

	var stdout bytes.Buffer
	e := &ProcessExecutor{Stdout: &stdout}
	code, err := e.Run(context.Background(), Command{
		Argv: []string{script, "--test", "foo"},
		Dir:  dir,
		Env:  []string{"DATABASE_URL=sqlite://db"},
	})
	if err != nil || code != 0 {
		t.Fatalf("Run() = (%d, %v)", code, err)
	}

	parts := strings.Split(stdout.String(), "|")
	if len(parts) != 3 {
		t.Fatalf("output = %q", stdout.String())
	}
	if resolved, _ := filepath.EvalSymlinks(dir); parts[0] != dir && parts[0] != resolved {
		t.Errorf("PWD = %q, want %q", parts[0], dir)
	}
	if parts[1] != "sqlite://db" {
		t.Errorf("DATABASE_URL = %q", parts[1])
	}
	if parts[2] != "--test foo" {
		t.Errorf("args = %q", parts[2])
	}
}

func TestProcessExecutor_MissingBinary(t *testing.T) {
	t.Parallel()

	_, err := (&ProcessExecutor{}).Run(context.Background(), Command{Argv: []string{filepath.Join(t.TempDir(), "nope")}})
	if err == nil {
		t.Fatal("Run() succeeded for a missing binary")
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		t.Error("missing binary reported as an exit status")
	}
}

func TestProcessExecutor_EmptyCommand(t *testing.T) {
	t.Parallel()

	if _, err := (&ProcessExecutor{}).Run(context.Background(), Command{}); !errors.Is(err, ErrEmptyCommand) {
		t.Errorf("Run() error = %v, want ErrEmptyCommand", err)
	}
}

func TestInvoke_ChildExitCodeThroughProcess(t *testing.T) {
	t.Parallel()

	repo := t.TempDir()
	script := testutil.WriteScript(t, repo, "cargo", "exit 3")

	inv := New(repo, WithExecutor(&ProcessExecutor{}))
	err := inv.Invoke(context.Background(), matrixTarget("unit_actix_rustls", script), matrixRunContext())

	var exitErr *ExitCodeError
	if !errors.As(err, &exitErr) || exitErr.Code != 3 {
		t.Errorf("Invoke() error = %v, want exit code 3", err)
	}
}
