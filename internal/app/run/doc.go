// SPDX-License-Identifier: MPL-2.0

// Package run drives a matrix run: it filters the generated targets, lists
// or invokes each selected one in order and stops at the first failure. It
// also owns the pre-run housekeeping of the repository's tests directory.
package run
