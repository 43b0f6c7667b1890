// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/matrixrun/matrixrun/internal/app/run"
	"github.com/matrixrun/matrixrun/internal/extension"
	"github.com/matrixrun/matrixrun/internal/invoke"
	"github.com/matrixrun/matrixrun/internal/issue"
	"github.com/matrixrun/matrixrun/internal/matrix"
	"github.com/matrixrun/matrixrun/internal/provision"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// errFlagNeedsValue is returned when a value flag ends the argument list.
var errFlagNeedsValue = errors.New("flag needs an argument")

// runRequest is the parsed form of the run command line.
type runRequest struct {
	Selection  matrix.Selection
	TestName   string
	Trailing   []string
	DryRun     bool
	ConfigPath string
	Verbose    bool
	Help       bool
}

// runFlagSet describes the flags splitKnownArgs understands. It is attached
// to the command for help and completion only; parsing is done by hand.
func runFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	fs.StringP("target", "t", "", "run targets whose tag starts with `PREFIX`")
	fs.StringP("target-exact", "e", "", "run only the target tagged `TAG`")
	fs.BoolP("list-targets", "l", false, "print every tag and run nothing")
	fs.String("test", "", "run a single test binary `NAME`")
	fs.Bool("dry-run", false, "print command lines without provisioning or running")
	return fs
}

func newRunCommand(app *App) *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run [flags] [args...]",
		Short: "Run the test matrix",
		Long: `Run every target of the test matrix in order, stopping at the first failure.

Targets that need a database get one: sqlite files are created locally and
other engines run in Docker containers named matrixrun-<service>, reused
across runs.

Any argument not listed below, and everything after "--", is passed to the
build tool after "--" in the order given.`,
		Example: `  matrixrun run -t postgres_14
  matrixrun run -e sqlite --test sqlite-types -- --nocapture
  matrixrun run --dry-run -t mysql`,
		DisableFlagParsing: true,
		SilenceUsage:       true,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := splitKnownArgs(args)
			if err != nil {
				return err
			}
			if req.Help {
				return cmd.Help()
			}
			return executeRun(cmd.Context(), app, req)
		},
	}
	runCmd.Flags().AddFlagSet(runFlagSet())
	return runCmd
}

// splitKnownArgs separates the run command's own flags from the arguments
// forwarded to the build tool. Unknown tokens keep their relative order.
// Everything after the first "--" is forwarded without inspection.
func splitKnownArgs(args []string) (runRequest, error) {
	var req runRequest

	for i := 0; i < len(args); i++ {
		tok := args[i]

		value := func(name string) (string, error) {
			if i+1 >= len(args) {
				return "", fmt.Errorf("%w: %s", errFlagNeedsValue, name)
			}
			i++
			return args[i], nil
		}

		var err error
		switch {
		case tok == "--":
			req.Trailing = append(req.Trailing, args[i+1:]...)
			return req, nil
		case tok == "-l" || tok == "--list-targets":
			req.Selection.ListOnly = true
		case tok == "--dry-run":
			req.DryRun = true
		case tok == "-v" || tok == "--verbose":
			req.Verbose = true
		case tok == "-h" || tok == "--help":
			req.Help = true
		case tok == "-t" || tok == "--target":
			req.Selection.Prefix, err = value(tok)
		case tok == "-e" || tok == "--target-exact":
			req.Selection.Exact, err = value(tok)
		case tok == "--test":
			req.TestName, err = value(tok)
		case tok == "--config":
			req.ConfigPath, err = value(tok)
		case strings.HasPrefix(tok, "--target="):
			req.Selection.Prefix = strings.TrimPrefix(tok, "--target=")
		case strings.HasPrefix(tok, "--target-exact="):
			req.Selection.Exact = strings.TrimPrefix(tok, "--target-exact=")
		case strings.HasPrefix(tok, "--test="):
			req.TestName = strings.TrimPrefix(tok, "--test=")
		case strings.HasPrefix(tok, "--config="):
			req.ConfigPath = strings.TrimPrefix(tok, "--config=")
		case len(tok) > 2 && strings.HasPrefix(tok, "-t"):
			req.Selection.Prefix = tok[2:]
		case len(tok) > 2 && strings.HasPrefix(tok, "-e"):
			req.Selection.Exact = tok[2:]
		default:
			req.Trailing = append(req.Trailing, tok)
		}
		if err != nil {
			return runRequest{}, err
		}
	}

	return req, nil
}

// executeRun loads configuration, generates the matrix and drives it.
func executeRun(ctx context.Context, app *App, req runRequest) error {
	if req.ConfigPath == "" {
		req.ConfigPath = app.configPath
	}
	app.verbose = app.verbose || req.Verbose

	cfg, wd, err := app.loadConfig(ctx, req.ConfigPath)
	if err != nil {
		return err
	}
	app.verbose = app.verbose || cfg.UI.Verbose
	app.setupLogging(app.verbose)

	root, err := repoRoot(cfg, wd)
	if err != nil {
		return issue.WrapWithOperation(err, "resolve repository root")
	}

	opts := matrix.DefaultOptions()
	opts.BuildTool = cfg.BuildTool
	targets, err := matrix.Generate(opts)
	if err != nil {
		return issue.WrapWithOperation(err, "generate target matrix")
	}

	rc := matrix.NewRunContext(req.Selection, req.TestName, req.Trailing, req.DryRun)

	if !rc.Selection.ListOnly && !rc.DryRun && cfg.Run.CleanProfileData {
		removed, err := run.CleanProfileData(root)
		if err != nil {
			slog.Warn("could not clean profile data", "error", err)
		} else if removed > 0 {
			slog.Debug("removed stale profile data", "files", removed)
		}
	}

	svc := app.services(cfg, root)
	defer svc.close()

	slog.Debug("starting run", "repo_root", svc.repoRoot, "targets", len(targets), "mode", rc.Selection.Mode().String())

	if _, err := run.NewDriver(svc.invoker, app.stdout).Run(ctx, targets, rc); err != nil {
		return classifyRunError(err)
	}
	return nil
}

// classifyRunError maps a driver failure to the error surfaced by Execute.
// A failing target keeps its exit code; everything else becomes an
// ActionableError with exit code 1.
func classifyRunError(err error) error {
	var exitErr *invoke.ExitCodeError
	if errors.As(err, &exitErr) {
		return &ExitError{
			Code: exitErr.Code,
			Err: issue.NewErrorContext().
				WithOperation("run target").
				WithResource(exitErr.Tag).
				WithSuggestion(fmt.Sprintf("Rerun it alone with 'matrixrun run -e %s'", exitErr.Tag)).
				WithIssue(issue.TargetFailedId).
				Wrap(err).
				BuildError(),
		}
	}

	var ae *issue.ActionableError
	if errors.As(err, &ae) || errors.Is(err, context.Canceled) {
		return err
	}

	ec := issue.NewErrorContext().Wrap(err)

	var svcErr *invoke.ServiceError
	if errors.As(err, &svcErr) {
		ec.WithOperation("provision service").WithResource(svcErr.Service)
	}

	switch {
	case errors.Is(err, provision.ErrUnknownService):
		ec.WithOperation("provision service").
			WithSuggestion("List the targets and their services with 'matrixrun list'").
			WithIssue(issue.UnknownServiceId)
	case errors.Is(err, provision.ErrDockerUnavailable):
		ec.WithSuggestion("Start the Docker daemon or set DOCKER_HOST").
			WithIssue(issue.DockerNotAvailableId)
	case svcErr != nil:
		ec.WithSuggestion(fmt.Sprintf("Inspect the container with 'docker logs %s%s'", provision.ContainerPrefix, svcErr.Service)).
			WithSuggestion("Raise provision.ready_timeout for slow engines").
			WithIssue(issue.ServiceProvisionFailedId)
	case errors.Is(err, extension.ErrDownload):
		ec.WithOperation("download sqlite extension").
			WithSuggestion("Check your network connection or set extension.base_url to a mirror").
			WithIssue(issue.ExtensionDownloadFailedId)
	case errors.Is(err, exec.ErrNotFound):
		ec.WithOperation("start build tool").
			WithSuggestion("Install the Rust toolchain or set build_tool in the configuration").
			WithIssue(issue.BuildToolNotFoundId)
	default:
		ec.WithOperation("run test matrix")
	}

	return ec.BuildError()
}
