// SPDX-License-Identifier: MPL-2.0

package matrix

import (
	"maps"
	"slices"
)

const (
	// GroupCheck targets type-check the workspace without running tests.
	GroupCheck Group = "check"
	// GroupUnit targets run the core crate's unit tests.
	GroupUnit Group = "unit"
	// GroupIntegration targets run the integration suite against a database service.
	GroupIntegration Group = "integration"
)

type (
	// Group classifies a target for display.
	Group string

	// Target is one runnable test case.
	Target struct {
		// Tag is the unique, stable identifier used for filtering and listing.
		Tag string
		// Group is the matrix section the target was generated in.
		Group Group
		// Command is the base argv, already tokenized.
		Command []string
		// Comment is an optional description printed before execution.
		Comment string
		// Service is the logical backing service (e.g. "postgres_14").
		// Empty means no service is provisioned.
		Service string
		// Env holds extra environment variables. Values set by the invoker
		// (connection URL, toolchain flags) are applied after these.
		Env map[string]string
		// DatabaseURLArgs is a query string appended to the provisioned URL.
		DatabaseURLArgs string
		// Args are extra arguments appended only when a test-name filter is given.
		Args []string
	}

	// RunContext is the process-wide run configuration, parsed once at startup
	// and passed explicitly to the filter and the invoker.
	RunContext struct {
		// Selection decides which targets run.
		Selection Selection
		// TestName selects a single test binary ("--test NAME").
		TestName string
		// Trailing holds unrecognized arguments, forwarded verbatim after "--".
		Trailing []string
		// DryRun prints composed command lines without provisioning or executing.
		DryRun bool
	}
)

// HasService reports whether the target needs a backing service.
func (t Target) HasService() bool {
	return t.Service != ""
}

// Clone returns a deep copy so callers can overlay environment values without
// mutating the generated matrix.
func (t Target) Clone() Target {
	out := t
	out.Command = slices.Clone(t.Command)
	out.Args = slices.Clone(t.Args)
	out.Env = make(map[string]string, len(t.Env))
	maps.Copy(out.Env, t.Env)
	return out
}

// NewRunContext builds a RunContext, copying trailing so later mutation of the
// caller's slice cannot leak into a running driver.
func NewRunContext(sel Selection, testName string, trailing []string, dryRun bool) RunContext {
	return RunContext{
		Selection: sel,
		TestName:  testName,
		Trailing:  slices.Clone(trailing),
		DryRun:    dryRun,
	}
}
