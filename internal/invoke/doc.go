// SPDX-License-Identifier: MPL-2.0

// Package invoke runs a single matrix target: it prepares the sqlite
// extension and the backing service, composes argv and environment, traces
// the command line and executes the build tool as a child process.
package invoke
