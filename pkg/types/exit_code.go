// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"os/exec"
	"strconv"
)

// ErrInvalidExitCode is the sentinel error wrapped by InvalidExitCodeError.
var ErrInvalidExitCode = errors.New("invalid exit code")

type (
	// ExitCode represents a process exit status code.
	// Exit codes are in the range 0-255 on POSIX systems.
	// The zero value (0) means success.
	ExitCode int

	// InvalidExitCodeError is returned when an ExitCode is outside the
	// valid range (0-255).
	InvalidExitCodeError struct {
		Value ExitCode
	}
)

// Error implements the error interface.
func (e *InvalidExitCodeError) Error() string {
	return fmt.Sprintf("invalid exit code %d (must be in range 0-255)", e.Value)
}

// Unwrap returns ErrInvalidExitCode so callers can use errors.Is for programmatic detection.
func (e *InvalidExitCodeError) Unwrap() error { return ErrInvalidExitCode }

// Validate returns an error if the ExitCode is outside the valid range (0-255).
func (c ExitCode) Validate() error {
	if c < 0 || c > 255 {
		return &InvalidExitCodeError{Value: c}
	}
	return nil
}

// IsSuccess returns true if the exit code indicates successful execution.
func (c ExitCode) IsSuccess() bool { return c == 0 }

// String returns the decimal string representation of the ExitCode.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }

// FromRunError maps the error returned by exec.Cmd.Run or Wait to an exit code.
// A nil error is success. An *exec.ExitError yields the child's status; a child
// killed by a signal reports -1 from the os package and is mapped to 1 so the
// driver still exits non-zero. The second return value is false when err is not
// an exit status at all (the process never started), in which case the caller
// should surface err itself.
func FromRunError(err error) (ExitCode, bool) {
	if err == nil {
		return 0, true
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return 1, false
	}
	code := ExitCode(exitErr.ExitCode())
	if code.Validate() != nil || code == 0 {
		return 1, true
	}
	return code, true
}
