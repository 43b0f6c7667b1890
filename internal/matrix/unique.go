// SPDX-License-Identifier: MPL-2.0

package matrix

import (
	"errors"
	"fmt"
)

// ErrDuplicateTag is the sentinel error wrapped by DuplicateTagError.
var ErrDuplicateTag = errors.New("duplicate target tag")

// DuplicateTagError reports two targets sharing a tag.
type DuplicateTagError struct {
	Tag    string
	First  int
	Second int
}

// Error implements the error interface.
func (e *DuplicateTagError) Error() string {
	return fmt.Sprintf("tag %q used by targets %d and %d", e.Tag, e.First, e.Second)
}

// Unwrap returns ErrDuplicateTag for errors.Is.
func (e *DuplicateTagError) Unwrap() error { return ErrDuplicateTag }

// ValidateUnique returns a *DuplicateTagError for the first repeated tag, or
// an error for an empty tag.
func ValidateUnique(targets []Target) error {
	seen := make(map[string]int, len(targets))
	for i, t := range targets {
		if t.Tag == "" {
			return fmt.Errorf("target %d has an empty tag", i)
		}
		if first, ok := seen[t.Tag]; ok {
			return &DuplicateTagError{Tag: t.Tag, First: first, Second: i}
		}
		seen[t.Tag] = i
	}
	return nil
}
