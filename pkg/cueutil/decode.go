// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// DefaultMaxFileSize bounds the size of a document accepted by DecodeMap.
const DefaultMaxFileSize int64 = 5 * 1024 * 1024

// DecodeMap compiles schema, unifies the named definition with data and
// decodes the result into a map. Fields may be left unset; only the values
// present in data are returned, so callers can layer them over defaults.
func DecodeMap(schema, definition string, data []byte, filename string) (map[string]any, error) {
	if err := CheckFileSize(data, DefaultMaxFileSize, filename); err != nil {
		return nil, err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(schema)
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: compile schema: %w", schemaValue.Err())
	}
	def := schemaValue.LookupPath(cue.ParsePath(definition))
	if !def.Exists() {
		return nil, fmt.Errorf("internal error: schema has no %s definition", definition)
	}

	userValue := ctx.CompileBytes(data, cue.Filename(filename))
	if userValue.Err() != nil {
		return nil, FormatError(userValue.Err(), filename)
	}

	unified := def.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return nil, FormatError(err, filename)
	}

	// Decode the user document, not the unified value, so that schema
	// defaults never shadow the caller's own defaults.
	var out map[string]any
	if err := userValue.Decode(&out); err != nil {
		return nil, FormatError(err, filename)
	}
	return out, nil
}
