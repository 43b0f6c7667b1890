// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the matrixrun command tree.
//
// The run command owns its argument parsing so that unknown tokens reach the
// build tool untouched; every other command uses regular cobra flags.
package cmd
