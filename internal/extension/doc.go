// SPDX-License-Identifier: MPL-2.0

// Package extension downloads and caches the platform-specific SQLite
// extension library the sqlite integration targets load at test time.
package extension
