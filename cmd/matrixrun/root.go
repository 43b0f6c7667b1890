// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/matrixrun/matrixrun/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "matrixrun",
		Short: "Run a test suite across runtimes, TLS backends and databases",
		Long: TitleStyle.Render("matrixrun") + SubtitleStyle.Render(" - a test-matrix driver") + `

matrixrun enumerates every combination of async runtime, TLS backend and
database engine/version, starts the database each target needs and runs
the build tool against it, stopping at the first failure.

` + SubtitleStyle.Render("Examples:") + `
  matrixrun list                      List every target tag
  matrixrun run                       Run the whole matrix
  matrixrun run -t postgres_14        Run postgres 14 targets, plain and ssl
  matrixrun run -e sqlite --dry-run   Show the sqlite command line`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/matrixrun/config.cue)")

	rootCmd.AddCommand(newRunCommand(app))
	rootCmd.AddCommand(newListCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with the code of the first failing target,
// or 1 for any other error.
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			renderError(w, err, app.verbose)
		}),
	); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error returned by the command tree to a process exit code.
func exitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Code != 0 {
		return int(exitErr.Code)
	}
	return 1
}

// renderError writes err for the user. In verbose mode the catalog guide
// linked to an ActionableError is rendered below it.
func renderError(w io.Writer, err error, verbose bool) {
	fmt.Fprintln(w, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))

	var ae *issue.ActionableError
	if !verbose || !errors.As(err, &ae) || ae.IssueID == 0 {
		return
	}
	if guide := issue.Get(ae.IssueID); guide != nil {
		if rendered, renderErr := guide.Render("dark"); renderErr == nil {
			fmt.Fprint(w, rendered)
		}
	}
}

// formatErrorForDisplay uses ActionableError.Format when available.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
