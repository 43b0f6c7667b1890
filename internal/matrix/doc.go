// SPDX-License-Identifier: MPL-2.0

// Package matrix enumerates the driver's targets and decides which of them run.
//
// A target is one fully specified test case: a build-tool invocation, an
// optional backing service, and the environment it needs. Targets are
// generated fresh on every run from fixed, ordered option axes (async
// runtime, TLS backend, database engine and version) and are never persisted.
//
// Tags identify targets on the command line, so they must be unique across
// the whole matrix. Generate enforces that by construction and verifies it
// with ValidateUnique before returning.
//
// Selection is the pure run/skip/list decision applied to each tag.
package matrix
