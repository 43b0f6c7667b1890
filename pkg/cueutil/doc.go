// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates CUE documents against an embedded schema
// definition and reports failures with JSON-path style field locations.
//
//	//go:embed config_schema.cue
//	var schema string
//
//	m, err := cueutil.DecodeMap(schema, "#Config", data, "config.cue")
package cueutil
