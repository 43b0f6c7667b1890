// SPDX-License-Identifier: MPL-2.0

package matrix

import (
	"errors"
	"testing"
)

func TestValidateUnique(t *testing.T) {
	t.Parallel()

	t.Run("unique", func(t *testing.T) {
		t.Parallel()

		if err := ValidateUnique([]Target{{Tag: "a"}, {Tag: "b"}}); err != nil {
			t.Errorf("ValidateUnique() error = %v", err)
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		t.Parallel()

		err := ValidateUnique([]Target{{Tag: "a"}, {Tag: "b"}, {Tag: "a"}})
		var dupErr *DuplicateTagError
		if !errors.As(err, &dupErr) {
			t.Fatalf("ValidateUnique() error = %v, want *DuplicateTagError", err)
		}
		if dupErr.Tag != "a" || dupErr.First != 0 || dupErr.Second != 2 {
			t.Errorf("got %+v, want tag a at 0 and 2", dupErr)
		}
		if !errors.Is(err, ErrDuplicateTag) {
			t.Error("error does not wrap ErrDuplicateTag")
		}
	})

	t.Run("empty tag", func(t *testing.T) {
		t.Parallel()

		if err := ValidateUnique([]Target{{Tag: ""}}); err == nil {
			t.Error("ValidateUnique() accepted an empty tag")
		}
	})
}
