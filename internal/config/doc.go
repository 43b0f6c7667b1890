// SPDX-License-Identifier: MPL-2.0

// Package config handles matrixrun configuration using Viper with CUE as the
// file format.
//
// The file is searched for in order: the --config flag, config.cue in the
// user configuration directory (~/.config/matrixrun on Linux,
// ~/Library/Application Support/matrixrun on macOS, %APPDATA%\matrixrun on
// Windows), then matrixrun.cue in the working directory. Without a file the
// built-in defaults apply.
//
// Files are validated against the embedded config_schema.cue before being
// merged over the defaults.
package config
